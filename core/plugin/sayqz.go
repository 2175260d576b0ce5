package plugin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"AginMusic/core/songid"
	"AginMusic/logger"
	"AginMusic/model"
)

const DefaultSayqzBaseURL = "https://music-dl.sayqz.com"

// SayqzPlugin 通过 music-dl.sayqz.com 解析 qq 和 kuwo，一个实例对应一个来源
type SayqzPlugin struct {
	source   model.Source
	opts     Options
	http     fetcher
	redirect *http.Client
}

// NewSayqzPlugin 创建 sayqz 解析插件，source 为 qq 或 kuwo
func NewSayqzPlugin(source model.Source, opts Options) *SayqzPlugin {
	opts = opts.withDefaults(DefaultSayqzBaseURL)
	return &SayqzPlugin{
		source:   source,
		opts:     opts,
		http:     fetcher{client: opts.HTTPClient},
		redirect: noRedirectClient(opts.HTTPClient),
	}
}

// GetSource 返回插件来源标识
func (p *SayqzPlugin) GetSource() model.Source {
	return p.source
}

// Search 搜索歌曲
func (p *SayqzPlugin) Search(ctx context.Context, keyword string, limit int) ([]model.Track, error) {
	limit = ClampLimit(limit)

	q := url.Values{}
	q.Set("type", "search")
	q.Set("keyword", keyword)
	q.Set("source", string(p.source))
	q.Set("limit", strconv.Itoa(limit))
	doc, err := p.http.getJSON(ctx, p.opts.BaseURL+"/api?"+q.Encode(), p.opts.SearchTimeout)
	if err != nil {
		return nil, fmt.Errorf("%s 搜索失败: %w", p.source, err)
	}

	results := doc.Get("data.results")
	if doc.Get("code").Int() != 200 || !results.IsArray() {
		return nil, fmt.Errorf("%s 搜索失败: unexpected response code=%s", p.source, doc.Get("code").Raw)
	}

	tracks := make([]model.Track, 0, limit)
	results.ForEach(func(_, it gjson.Result) bool {
		if len(tracks) >= limit {
			return false
		}
		id := it.Get("id").String()
		if id == "" {
			return true
		}
		tracks = append(tracks, model.Track{
			UID:     songid.Encode(p.source, id),
			Source:  p.source,
			Keyword: keyword,
			SongID:  id,
			Title:   it.Get("name").String(),
			Artist:  it.Get("artist").String(),
			Album:   it.Get("album").String(),
			Cover:   it.Get("pic").String(),
			LrcURL:  it.Get("lrc").String(),
			Quality: model.QualityNormal,
		})
		return true
	})
	return tracks, nil
}

// resourceURL 构造 /api/?source=&id=&type= 资源地址（pic、lrc、url）
func (p *SayqzPlugin) resourceURL(id, kind string) string {
	q := url.Values{}
	q.Set("source", string(p.source))
	q.Set("id", id)
	q.Set("type", kind)
	return p.opts.BaseURL + "/api/?" + q.Encode()
}

// GetDetail 返回封面地址和歌词。解析服务没有元数据接口，标题和歌手为空，由调用方回退到缓存
func (p *SayqzPlugin) GetDetail(ctx context.Context, ref SongRef) (*model.TrackDetail, error) {
	if ref.RawID == "" {
		return nil, ErrSongNotFound
	}

	detail := &model.TrackDetail{
		Cover:         p.resourceURL(ref.RawID, "pic"),
		LrcURL:        p.resourceURL(ref.RawID, "lrc"),
		DetailsLoaded: true,
		Quality:       model.QualityNormal,
	}

	if ref.SkipLyrics {
		return detail, nil
	}

	lrc, err := p.http.getText(ctx, detail.LrcURL, p.opts.LyricTimeout)
	if err != nil {
		logger.Debug("[SayqzPlugin] 下载歌词失败",
			logger.String("source", string(p.source)),
			logger.String("id", ref.RawID),
			logger.ErrorField(err))
	} else {
		detail.Lrc = lrc
	}

	return detail, nil
}

// ResolveStream 请求播放地址但不跟随重定向，返回 Location 头
func (p *SayqzPlugin) ResolveStream(ctx context.Context, ref SongRef) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.DetailTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.resourceURL(ref.RawID, "url"), nil)
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := p.redirect.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStreamNotFound, err)
	}
	defer resp.Body.Close()

	location := resp.Header.Get("Location")
	if location == "" {
		return "", ErrStreamNotFound
	}
	return location, nil
}
