package server

import (
	"net/http"

	"github.com/goccy/go-json"

	"AginMusic/logger"
	"AginMusic/model"
)

// Subsonic 失败消息，客户端会原样展示
const (
	msgInvalidCredentials = "Invalid username or password"
	msgMissingID          = "Missing id"
	msgInvalidID          = "Invalid id"
	msgSongNotFound       = "Song not found"
	msgStreamNotFound     = "Stream url not found"
)

// writeJSON 写入 JSON 响应
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("[Subsonic] 写入响应失败", logger.ErrorField(err))
	}
}

// subsonicOK 写入成功响应，fill 用于填充负载字段
func subsonicOK(w http.ResponseWriter, fill func(*model.SubsonicResponse)) {
	resp := model.SubsonicResponse{Status: model.SubsonicStatusOK}
	if fill != nil {
		fill(&resp)
	}
	writeJSON(w, http.StatusOK, model.SubsonicEnvelope{Response: resp})
}

// subsonicFailed 写入失败响应，协议错误仍返回 HTTP 200
func subsonicFailed(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, model.SubsonicEnvelope{Response: model.SubsonicResponse{
		Status: model.SubsonicStatusFailed,
		Error: &model.SubsonicError{
			Code:    model.SubsonicErrorGeneric,
			Message: message,
		},
	}})
}

func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not Found"})
}
