package netease

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"AginMusic/logger"
	"AginMusic/model"
)

// SearchSongs 搜索歌曲。返回的条目保持上游顺序，最多 limit 条；没有 songid 的条目被丢弃
func (c *Client) SearchSongs(ctx context.Context, keyword string, limit int) ([]model.NeteaseSearchItem, error) {
	q := url.Values{}
	q.Set("type", "json")
	q.Set("msg", keyword)
	q.Set("num", strconv.Itoa(limit))
	q.Set("n", "")
	reqURL := fmt.Sprintf("%s/api/music/netease/WyY_Dg.php?%s", c.baseURL, q.Encode())

	data, err := c.getData(ctx, reqURL)
	if err != nil {
		logger.Warn("[Netease] 搜索失败", logger.String("keyword", keyword), logger.ErrorField(err))
		return nil, err
	}
	if !data.IsArray() {
		return nil, fmt.Errorf("%w: data is not an array", ErrUnexpectedResponse)
	}

	items := make([]model.NeteaseSearchItem, 0, limit)
	data.ForEach(func(_, it gjson.Result) bool {
		if len(items) >= limit {
			return false
		}
		songID := it.Get("songid")
		if !songID.Exists() || songID.Type == gjson.Null || songID.String() == "" {
			return true
		}
		items = append(items, model.NeteaseSearchItem{
			N:      int(it.Get("n").Int()),
			SongID: songID.String(),
			Title:  it.Get("title").String(),
			Singer: it.Get("singer").String(),
		})
		return true
	})

	logger.Debug("[Netease] 搜索完成",
		logger.String("keyword", keyword),
		logger.Int("count", len(items)))
	return items, nil
}

// GetSongDetail 获取歌曲详情（无损音质播放地址 + 歌词）
func (c *Client) GetSongDetail(ctx context.Context, songID string) (*model.NeteaseSongDetail, error) {
	q := url.Values{}
	q.Set("id", songID)
	q.Set("type", "json")
	q.Set("level", "lossless")
	reqURL := fmt.Sprintf("%s/api/netease/music_v1.php?%s", c.detailBaseURL, q.Encode())

	data, err := c.getData(ctx, reqURL)
	if err != nil {
		logger.Warn("[Netease] 获取歌曲详情失败", logger.String("songId", songID), logger.ErrorField(err))
		return nil, err
	}
	if !data.IsObject() {
		return nil, fmt.Errorf("%w: data is not an object", ErrUnexpectedResponse)
	}

	return &model.NeteaseSongDetail{
		Name:   data.Get("name").String(),
		Artist: data.Get("artist").String(),
		Album:  data.Get("album").String(),
		Pic:    data.Get("pic").String(),
		URL:    data.Get("url").String(),
		Lyric:  data.Get("lyric").String(),
		Format: data.Get("format").String(),
	}, nil
}

// IsLossless 判断详情是否为无损音质
func IsLossless(d *model.NeteaseSongDetail) bool {
	return d != nil && strings.Contains(d.Format, "无损")
}
