package plugin

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"AginMusic/core/songid"
	"AginMusic/logger"
	"AginMusic/model"
)

const (
	DefaultMiguBaseURL       = "https://api-v1.cenguigui.cn"
	DefaultMiguDetailBaseURL = "https://api-v1.cenguigui.cn"
)

// MiguPlugin 咪咕音乐插件
//
// 咪咕没有稳定的歌曲ID，用关键词搜索结果中从 1 开始的序号 n 定位歌曲，rawId 为 "n-keyword"
type MiguPlugin struct {
	opts Options
	http fetcher
}

// NewMiguPlugin 创建咪咕音乐插件
func NewMiguPlugin(opts Options) *MiguPlugin {
	opts = opts.withDefaults(DefaultMiguBaseURL)
	if opts.DetailBaseURL == "" {
		opts.DetailBaseURL = DefaultMiguDetailBaseURL
	}
	return &MiguPlugin{opts: opts, http: fetcher{client: opts.HTTPClient}}
}

// GetSource 返回插件来源标识
func (p *MiguPlugin) GetSource() model.Source {
	return model.SourceMigu
}

// Search 搜索歌曲
func (p *MiguPlugin) Search(ctx context.Context, keyword string, limit int) ([]model.Track, error) {
	limit = ClampLimit(limit)

	q := url.Values{}
	q.Set("msg", keyword)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("n", "")
	doc, err := p.http.getJSON(ctx, p.opts.BaseURL+"/api/music/mgmusic_lingsheng.php?"+q.Encode(), p.opts.SearchTimeout)
	if err != nil {
		return nil, fmt.Errorf("咪咕搜索失败: %w", err)
	}

	data, ok := okData(doc)
	if !ok || !data.IsArray() {
		return nil, fmt.Errorf("咪咕搜索失败: unexpected response code=%s", doc.Get("code").Raw)
	}

	tracks := make([]model.Track, 0, limit)
	data.ForEach(func(_, it gjson.Result) bool {
		if len(tracks) >= limit {
			return false
		}
		n := int(it.Get("n").Int())
		tracks = append(tracks, model.Track{
			UID:          songid.Encode(model.SourceMigu, strconv.Itoa(n)+"-"+keyword),
			Source:       model.SourceMigu,
			DisplayIndex: n,
			Keyword:      keyword,
			Title:        it.Get("title").String(),
			Artist:       it.Get("singer").String(),
			Quality:      model.QualityNormal,
		})
		return true
	})
	return tracks, nil
}

// keywordFor 关键词优先级：缓存的搜索关键词 > rawId 中的关键词 > 客户端提示
func (p *MiguPlugin) keywordFor(ref SongRef) (int, string, error) {
	n, rawKeyword, err := songid.ParseMiguRawID(ref.RawID)
	if err != nil {
		return 0, "", err
	}
	for _, kw := range []string{ref.Keyword, rawKeyword, ref.QueryHint} {
		if kw = strings.TrimSpace(kw); kw != "" {
			return n, kw, nil
		}
	}
	return n, "", nil
}

// GetDetail 获取歌曲详情。歌词需要从 lrc_url 单独下载，失败时歌词为空
func (p *MiguPlugin) GetDetail(ctx context.Context, ref SongRef) (*model.TrackDetail, error) {
	n, keyword, err := p.keywordFor(ref)
	if err != nil {
		return nil, err
	}
	if keyword == "" {
		return nil, fmt.Errorf("%w: no keyword for migu id %s", ErrSongNotFound, ref.RawID)
	}

	q := url.Values{}
	q.Set("msg", keyword)
	q.Set("n", strconv.Itoa(n))
	q.Set("type", "json")
	q.Set("br", "1")
	doc, err := p.http.getJSON(ctx, p.opts.DetailBaseURL+"/api/mg_music/?"+q.Encode(), p.opts.DetailTimeout)
	if err != nil {
		logger.Warn("[MiguPlugin] 获取歌曲详情失败",
			logger.String("keyword", keyword),
			logger.Int("n", n),
			logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %w", ErrSongNotFound, err)
	}

	data, ok := okData(doc)
	if !ok || !data.IsObject() {
		return nil, ErrSongNotFound
	}

	detail := &model.TrackDetail{
		Title:         data.Get("title").String(),
		Artist:        data.Get("singer").String(),
		Cover:         data.Get("cover").String(),
		AudioURL:      normalizeMiguURL(data.Get("music_url").String()),
		LrcURL:        data.Get("lrc_url").String(),
		DetailsLoaded: true,
		Quality:       model.QualityNormal,
	}

	if detail.LrcURL != "" && !ref.SkipLyrics {
		lrc, err := p.http.getText(ctx, detail.LrcURL, p.opts.LyricTimeout)
		if err != nil {
			logger.Debug("[MiguPlugin] 下载歌词失败", logger.String("lrcUrl", detail.LrcURL), logger.ErrorField(err))
		} else {
			detail.Lrc = lrc
		}
	}

	return detail, nil
}

// normalizeMiguURL 将 http://*.migu.cn 的地址升级为 https
func normalizeMiguURL(raw string) string {
	if !strings.HasPrefix(raw, "http://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if strings.HasSuffix(u.Hostname(), ".migu.cn") {
		u.Scheme = "https"
		return u.String()
	}
	return raw
}
