package plugin

import (
	"context"
	"fmt"

	"AginMusic/core/netease"
	"AginMusic/core/songid"
	"AginMusic/logger"
	"AginMusic/model"
)

// NeteasePlugin 网易云音乐插件实现
type NeteasePlugin struct {
	client *netease.Client
	opts   Options
}

// NewNeteasePlugin 创建网易云音乐插件
func NewNeteasePlugin(opts Options) *NeteasePlugin {
	opts = opts.withDefaults(netease.DefaultSearchBaseURL)

	client := netease.NewClient()
	client.SetBaseURL(opts.BaseURL)
	if opts.DetailBaseURL != "" {
		client.SetDetailBaseURL(opts.DetailBaseURL)
	}
	client.SetHTTPClient(opts.HTTPClient)

	return &NeteasePlugin{
		client: client,
		opts:   opts,
	}
}

// GetSource 返回插件来源标识
func (p *NeteasePlugin) GetSource() model.Source {
	return model.SourceNetease
}

// Search 搜索歌曲
func (p *NeteasePlugin) Search(ctx context.Context, keyword string, limit int) ([]model.Track, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.SearchTimeout)
	defer cancel()

	items, err := p.client.SearchSongs(ctx, keyword, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("搜索失败: %w", err)
	}

	tracks := make([]model.Track, 0, len(items))
	for _, it := range items {
		tracks = append(tracks, model.Track{
			UID:          songid.Encode(model.SourceNetease, it.SongID),
			Source:       model.SourceNetease,
			DisplayIndex: it.N,
			Keyword:      keyword,
			SongID:       it.SongID,
			Title:        it.Title,
			Artist:       it.Singer,
			Quality:      model.QualityLossless,
		})
	}
	return tracks, nil
}

// GetDetail 获取歌曲详情，网易云详情接口直接返回播放地址和歌词
func (p *NeteasePlugin) GetDetail(ctx context.Context, ref SongRef) (*model.TrackDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.DetailTimeout)
	defer cancel()

	d, err := p.client.GetSongDetail(ctx, ref.RawID)
	if err != nil {
		logger.Warn("[NeteasePlugin] 获取歌曲详情失败",
			logger.String("songId", ref.RawID),
			logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %w", ErrSongNotFound, err)
	}

	quality := model.QualityNormal
	if netease.IsLossless(d) {
		quality = model.QualityLossless
	}

	return &model.TrackDetail{
		Title:         d.Name,
		Artist:        d.Artist,
		Album:         d.Album,
		Cover:         d.Pic,
		AudioURL:      d.URL,
		Lrc:           d.Lyric,
		DetailsLoaded: true,
		Quality:       quality,
	}, nil
}
