package plugin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultSearchTimeout = 8 * time.Second
	DefaultDetailTimeout = 12 * time.Second
	DefaultLyricTimeout  = 8 * time.Second

	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxBodySize = 4 << 20
)

// Options 插件公共配置
type Options struct {
	BaseURL       string
	DetailBaseURL string // only migu and netease use a separate detail host
	HTTPClient    *http.Client
	SearchTimeout time.Duration
	DetailTimeout time.Duration
	LyricTimeout  time.Duration
}

func (o Options) withDefaults(baseURL string) Options {
	if o.BaseURL == "" {
		o.BaseURL = baseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	o.DetailBaseURL = strings.TrimRight(o.DetailBaseURL, "/")
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if o.SearchTimeout <= 0 {
		o.SearchTimeout = DefaultSearchTimeout
	}
	if o.DetailTimeout <= 0 {
		o.DetailTimeout = DefaultDetailTimeout
	}
	if o.LyricTimeout <= 0 {
		o.LyricTimeout = DefaultLyricTimeout
	}
	return o
}

// fetcher 各插件共用的出站 HTTP 调用，每次调用使用从 ctx 派生的独立超时
type fetcher struct {
	client *http.Client
}

func (f fetcher) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", browserUserAgent)
	}
	resp, err := f.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("上游返回错误状态码: %d", resp.StatusCode)
	}
	return resp, nil
}

func (f fetcher) getBody(ctx context.Context, url string, timeout time.Duration) ([]byte, *http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("创建请求失败: %w", err)
	}
	resp, err := f.do(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return body, resp, nil
}

// getJSON 返回解析后的文档，非法 JSON 视为错误
func (f fetcher) getJSON(ctx context.Context, url string, timeout time.Duration) (gjson.Result, error) {
	body, _, err := f.getBody(ctx, url, timeout)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("解析响应失败: invalid json from %s", url)
	}
	return gjson.ParseBytes(body), nil
}

func (f fetcher) getText(ctx context.Context, url string, timeout time.Duration) (string, error) {
	body, _, err := f.getBody(ctx, url, timeout)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// okData doc.code 为 200 时返回 doc.data
func okData(doc gjson.Result) (gjson.Result, bool) {
	if doc.Get("code").Int() != 200 {
		return gjson.Result{}, false
	}
	data := doc.Get("data")
	if !data.Exists() || data.Type == gjson.Null {
		return gjson.Result{}, false
	}
	return data, true
}

// noRedirectClient 复制 c 并禁用重定向，用于读取 Location 头
func noRedirectClient(c *http.Client) *http.Client {
	clone := *c
	clone.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &clone
}

// ClampLimit 将搜索数量限制在 [1, 50]
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > 50 {
		return 50
	}
	return limit
}
