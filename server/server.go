package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"AginMusic/cache"
	"AginMusic/config"
	"AginMusic/core/auth"
	"AginMusic/core/plugin"
	"AginMusic/db"
	"AginMusic/logger"
	"AginMusic/repository"
)

type ctxKey string

const requestIDKey ctxKey = "requestID"

// RequestID 返回请求上下文中的请求ID
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// NewRouter 创建路由：Subsonic REST、默认封面和健康检查
func NewRouter(subsonic *SubsonicHandler, static *StaticHandler) *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware, requestLogMiddleware)

	methods := []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	router.Handle("/rest/{action}", subsonic).Methods(methods...)
	router.HandleFunc("/logo.png", static.ServeLogo).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w)
	})
	return router
}

// corsMiddleware 添加 CORS 头，预检请求直接返回
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogMiddleware 为每个请求分配 X-Request-ID 并记录日志。
// query 中带有凭证，不记录
func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		logger.Info("[HTTP] 请求完成",
			logger.String("requestId", id),
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rec.status),
			logger.Duration("duration", time.Since(start)))
	})
}

// Start 初始化依赖并启动 HTTP 服务，收到 SIGINT/SIGTERM 后优雅关闭
func Start(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	songs := cache.NewSongCache(cfg.SongCacheTTL, cfg.SongCacheMax)
	if cfg.RedisEnabled() {
		client, err := cache.ConnectRedis(cfg)
		if err != nil {
			// 二级缓存不可用时仅使用内存缓存
			logger.Warn("[Server] Redis 不可用，仅使用内存缓存", logger.ErrorField(err))
		} else {
			defer cache.CloseRedis()
			songs.WithMirror(cache.NewRedisSongMirror(client))
		}
	}

	var users auth.UserStore
	if cfg.AuthMode == config.AuthModeDB {
		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return err
		}
		defer db.CloseGormDB()
		users = repository.NewGormUserRepository(gdb)
	}

	authenticator, err := auth.New(cfg, users)
	if err != nil {
		return err
	}

	plugins := plugin.NewManagerFromConfig(cfg)
	subsonic := NewSubsonicHandler(authenticator, plugins, songs, cfg.PublicURL)
	router := NewRouter(subsonic, NewStaticHandler(cfg.StaticDir))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Server] 服务启动",
			logger.String("addr", server.Addr),
			logger.String("authMode", string(cfg.AuthMode)),
			logger.Any("sources", plugins.Sources()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
	}
	logger.Info("[Server] 正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	logger.Info("[Server] 服务已停止")
	return nil
}
