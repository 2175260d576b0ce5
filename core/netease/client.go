package netease

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	DefaultSearchBaseURL = "https://api-v1.cenguigui.cn"
	DefaultDetailBaseURL = "https://api.cenguigui.cn"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// ErrUnexpectedResponse 上游返回的 code 不是 200 或缺少 data
var ErrUnexpectedResponse = errors.New("netease: unexpected response")

// Client 网易云音乐API客户端（cenguigui 聚合接口）
type Client struct {
	baseURL       string
	detailBaseURL string
	httpClient    *http.Client
}

// NewClient 创建新的API客户端
func NewClient() *Client {
	return &Client{
		baseURL:       DefaultSearchBaseURL,
		detailBaseURL: DefaultDetailBaseURL,
		httpClient: &http.Client{
			Timeout: time.Second * 15,
		},
	}
}

// SetBaseURL 设置搜索API基础URL
func (c *Client) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// SetDetailBaseURL 设置详情API基础URL
func (c *Client) SetDetailBaseURL(url string) {
	c.detailBaseURL = strings.TrimRight(url, "/")
}

// SetTimeout 设置请求超时时间。单次调用的超时由 ctx 控制，这里是兜底值
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// SetHTTPClient 替换底层 HTTP 客户端，测试用
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// getData 请求 url，返回 {"code":200,"data":...} 中的 data
func (c *Client) getData(ctx context.Context, url string) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, fmt.Errorf("API返回错误状态码: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("读取响应失败: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("解析响应失败: %w", ErrUnexpectedResponse)
	}

	doc := gjson.ParseBytes(body)
	if doc.Get("code").Int() != 200 {
		return gjson.Result{}, fmt.Errorf("%w: code=%s", ErrUnexpectedResponse, doc.Get("code").Raw)
	}
	data := doc.Get("data")
	if !data.Exists() || data.Type == gjson.Null {
		return gjson.Result{}, fmt.Errorf("%w: missing data", ErrUnexpectedResponse)
	}
	return data, nil
}
