package plugin

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"AginMusic/core/songid"
	"AginMusic/logger"
	"AginMusic/model"
)

const (
	DefaultFangpiBaseURL = "https://www.fangpi.net"

	fangpiSessionCookie = "server_name_session"
	fangpiNoLyrics      = "该歌曲暂无歌词"
)

var (
	fangpiLinkRe    = regexp.MustCompile(`(?i)<a\s+href="/music/(\d+)"[^>]*class="[^"]*\bmusic-link\b[^"]*"[^>]*>([\s\S]*?)</a>`)
	fangpiTitleRe   = regexp.MustCompile(`(?i)<span>\s*([^<]+?)\s*</span>`)
	fangpiArtistRe  = regexp.MustCompile(`(?i)<small[^>]*>\s*([\s\S]*?)\s*</small>`)
	fangpiAppDataRe = regexp.MustCompile(`window\.appData\s*=\s*(\{[\s\S]*?\})\s*;`)
	fangpiLrcRe     = regexp.MustCompile(`(?i)<div[^>]+id="content-lrc"[^>]*>([\s\S]*?)</div>`)

	brRe         = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	spaceRe      = regexp.MustCompile(`\s+`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// FangpiPlugin 放屁音乐网页抓取插件
type FangpiPlugin struct {
	opts Options
	http fetcher
}

// NewFangpiPlugin 创建放屁音乐插件
func NewFangpiPlugin(opts Options) *FangpiPlugin {
	opts = opts.withDefaults(DefaultFangpiBaseURL)
	return &FangpiPlugin{opts: opts, http: fetcher{client: opts.HTTPClient}}
}

// GetSource 返回插件来源标识
func (p *FangpiPlugin) GetSource() model.Source {
	return model.SourceFangpi
}

// fangpiPage 抓取到的页面及会话 cookie（"name=value" 形式）
type fangpiPage struct {
	html    string
	session string
}

// fangpiAppData 详情页 window.appData 中需要的字段
type fangpiAppData struct {
	mp3ID  string
	playID string
	title  string
	artist string
	cover  string
}

// fetchPage 抓取页面，搜索页用 SearchTimeout，详情页用 DetailTimeout
func (p *FangpiPlugin) fetchPage(ctx context.Context, path string, timeout time.Duration) (*fangpiPage, error) {
	body, resp, err := p.http.getBody(ctx, p.opts.BaseURL+path, timeout)
	if err != nil {
		return nil, err
	}

	page := &fangpiPage{html: string(body)}
	for _, c := range resp.Cookies() {
		if c.Name == fangpiSessionCookie && c.Value != "" {
			page.session = c.Name + "=" + c.Value
			break
		}
	}
	return page, nil
}

// Search 抓取搜索结果页
func (p *FangpiPlugin) Search(ctx context.Context, keyword string, limit int) ([]model.Track, error) {
	limit = ClampLimit(limit)

	page, err := p.fetchPage(ctx, "/s/"+url.PathEscape(keyword), p.opts.SearchTimeout)
	if err != nil {
		return nil, fmt.Errorf("fangpi 搜索失败: %w", err)
	}

	tracks := make([]model.Track, 0, limit)
	for _, m := range fangpiLinkRe.FindAllStringSubmatch(page.html, -1) {
		if len(tracks) >= limit {
			break
		}
		mp3ID, inner := m[1], m[2]
		if mp3ID == "" {
			continue
		}

		var title, artist string
		if t := fangpiTitleRe.FindStringSubmatch(inner); t != nil {
			title = stripHTML(t[1])
		}
		if a := fangpiArtistRe.FindStringSubmatch(inner); a != nil {
			artist = stripHTML(a[1])
		}

		tracks = append(tracks, model.Track{
			UID:     songid.Encode(model.SourceFangpi, mp3ID),
			Source:  model.SourceFangpi,
			Keyword: keyword,
			SongID:  mp3ID,
			Title:   title,
			Artist:  artist,
			Quality: model.QualityNormal,
		})
	}
	return tracks, nil
}

// GetDetail 抓取歌曲详情页，解析 appData 和歌词
func (p *FangpiPlugin) GetDetail(ctx context.Context, ref SongRef) (*model.TrackDetail, error) {
	page, err := p.fetchPage(ctx, "/music/"+url.PathEscape(ref.RawID), p.opts.DetailTimeout)
	if err != nil {
		logger.Warn("[FangpiPlugin] 获取详情页失败", logger.String("id", ref.RawID), logger.ErrorField(err))
		return nil, fmt.Errorf("%w: %w", ErrSongNotFound, err)
	}

	data, ok := parseFangpiAppData(page.html)
	if !ok {
		return nil, ErrSongNotFound
	}

	return &model.TrackDetail{
		Title:         data.title,
		Artist:        data.artist,
		Cover:         data.cover,
		Lrc:           parseFangpiLrc(page.html),
		DetailsLoaded: true,
		Quality:       model.QualityNormal,
	}, nil
}

// ResolveStream 获取播放地址：先抓详情页拿到 play_id 和会话 cookie，再调用 /api/play-url
func (p *FangpiPlugin) ResolveStream(ctx context.Context, ref SongRef) (string, error) {
	pagePath := "/music/" + url.PathEscape(ref.RawID)
	page, err := p.fetchPage(ctx, pagePath, p.opts.DetailTimeout)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStreamNotFound, err)
	}

	data, ok := parseFangpiAppData(page.html)
	if !ok || data.playID == "" {
		return "", fmt.Errorf("%w: no play_id", ErrStreamNotFound)
	}
	if page.session == "" {
		return "", fmt.Errorf("%w: no session cookie", ErrStreamNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.DetailTimeout)
	defer cancel()

	form := url.Values{}
	form.Set("id", data.playID)
	req, err := http.NewRequest(http.MethodPost, p.opts.BaseURL+"/api/play-url", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	req.Header.Set("Origin", p.opts.BaseURL)
	req.Header.Set("Referer", p.opts.BaseURL+pagePath)
	req.Header.Set("Cookie", page.session)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")

	resp, err := p.http.do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStreamNotFound, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStreamNotFound, err)
	}

	doc := gjson.ParseBytes(body)
	if doc.Get("code").Int() != 1 {
		return "", fmt.Errorf("%w: play-url code=%s", ErrStreamNotFound, doc.Get("code").Raw)
	}
	streamURL := doc.Get("data.url").String()
	if streamURL == "" {
		return "", ErrStreamNotFound
	}
	return streamURL, nil
}

func parseFangpiAppData(page string) (fangpiAppData, bool) {
	m := fangpiAppDataRe.FindStringSubmatch(page)
	if m == nil || !gjson.Valid(m[1]) {
		return fangpiAppData{}, false
	}

	doc := gjson.Parse(m[1])
	if !doc.IsObject() {
		return fangpiAppData{}, false
	}
	return fangpiAppData{
		mp3ID:  doc.Get("mp3_id").String(),
		playID: doc.Get("play_id").String(),
		title:  doc.Get("mp3_title").String(),
		artist: doc.Get("mp3_author").String(),
		cover:  doc.Get("mp3_cover").String(),
	}, true
}

// parseFangpiLrc 提取 content-lrc 中的歌词文本，无歌词时返回空串
func parseFangpiLrc(page string) string {
	m := fangpiLrcRe.FindStringSubmatch(page)
	if m == nil {
		return ""
	}

	raw := brRe.ReplaceAllString(m[1], "\n")
	cleaned := strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(raw, "")))
	cleaned = strings.ReplaceAll(cleaned, "\r\n", "\n")
	cleaned = strings.TrimSpace(blankLinesRe.ReplaceAllString(cleaned, "\n\n"))

	if cleaned == "" || strings.Contains(cleaned, fangpiNoLyrics) {
		return ""
	}
	return cleaned
}

func stripHTML(s string) string {
	s = spaceRe.ReplaceAllString(tagRe.ReplaceAllString(s, " "), " ")
	return strings.TrimSpace(strings.ReplaceAll(html.UnescapeString(s), "\u00a0", " "))
}
