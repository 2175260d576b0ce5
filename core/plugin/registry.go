package plugin

import (
	"net/http"
	"time"

	"AginMusic/config"
	"AginMusic/model"
)

// NewManagerFromConfig 注册 ENABLED_SOURCES 中启用的来源（为空时全部注册）
func NewManagerFromConfig(cfg *config.Config) *MusicPluginManager {
	client := &http.Client{Timeout: 30 * time.Second}
	base := Options{
		HTTPClient:    client,
		SearchTimeout: cfg.SearchTimeout,
		DetailTimeout: cfg.DetailTimeout,
	}

	all := map[model.Source]func() MusicPlugin{
		model.SourceFangpi: func() MusicPlugin {
			o := base
			o.BaseURL = cfg.FangpiURL
			return NewFangpiPlugin(o)
		},
		model.SourceMigu: func() MusicPlugin {
			o := base
			o.BaseURL, o.DetailBaseURL = cfg.MiguAPIURL, cfg.MiguDetailAPIURL
			return NewMiguPlugin(o)
		},
		model.SourceNetease: func() MusicPlugin {
			o := base
			o.BaseURL, o.DetailBaseURL = cfg.NeteaseAPIURL, cfg.NeteaseDetailAPIURL
			return NewNeteasePlugin(o)
		},
		model.SourceQQ: func() MusicPlugin {
			o := base
			o.BaseURL = cfg.SayqzAPIURL
			return NewSayqzPlugin(model.SourceQQ, o)
		},
		model.SourceKuwo: func() MusicPlugin {
			o := base
			o.BaseURL = cfg.SayqzAPIURL
			return NewSayqzPlugin(model.SourceKuwo, o)
		},
	}

	// 先全部注册，再按 ENABLED_SOURCES 过滤
	full := NewMusicPluginManager()
	for _, src := range model.AllSources {
		full.Register(all[src]())
	}
	if cfg.EnabledSources == "" {
		return full
	}

	m := NewMusicPluginManager()
	for _, src := range full.ParseSources(cfg.EnabledSources) {
		m.Register(full.Get(src))
	}
	return m
}
