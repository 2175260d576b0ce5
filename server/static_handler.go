package server

import (
	"net/http"
	"os"
	"path/filepath"

	"AginMusic/logger"
)

// StaticHandler 从 STATIC_DIR 提供默认封面
type StaticHandler struct {
	dir string
}

// NewStaticHandler 创建 StaticHandler 实例
func NewStaticHandler(dir string) *StaticHandler {
	return &StaticHandler{dir: dir}
}

// ServeLogo 返回默认封面 logo.png
func (h *StaticHandler) ServeLogo(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(h.dir, "logo.png")
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("[Static] 读取默认封面失败", logger.String("path", path), logger.ErrorField(err))
		}
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}
