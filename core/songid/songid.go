// Package songid 对外暴露的歌曲ID编解码。格式为 "<source>-<rawId>"，
// rawId 是第一个 '-' 之后的全部内容，本身可以包含 '-'
package songid

import (
	"errors"
	"strconv"
	"strings"

	"AginMusic/model"
)

// ErrInvalidID 歌曲ID格式错误
var ErrInvalidID = errors.New("invalid song id")

// ID 解析后的歌曲ID
type ID struct {
	Source model.Source
	RawID  string
}

// String 返回编码后的形式
func (id ID) String() string {
	return Encode(id.Source, id.RawID)
}

// Encode 生成全局唯一的歌曲ID
func Encode(source model.Source, rawID string) string {
	return string(source) + "-" + rawID
}

// Decode 按第一个 '-' 拆分，前缀必须是已知来源且剩余部分非空
func Decode(uid string) (ID, error) {
	idx := strings.IndexByte(uid, '-')
	if idx <= 0 {
		return ID{}, ErrInvalidID
	}

	source := model.Source(uid[:idx])
	rawID := uid[idx+1:]
	if rawID == "" || !source.IsKnown() {
		return ID{}, ErrInvalidID
	}

	return ID{Source: source, RawID: rawID}, nil
}

// DecodeWithFallback 兼容旧格式：不带分隔符的纯数字ID属于 fangpi
func DecodeWithFallback(uid string) (ID, error) {
	if id, err := Decode(uid); err == nil {
		return id, nil
	}
	if isDigits(uid) {
		return ID{Source: model.SourceFangpi, RawID: uid}, nil
	}
	return ID{}, ErrInvalidID
}

// ParseMiguRawID 解析咪咕 rawId，格式为 "n" 或 "n-keyword"，n 为搜索结果中从 1 开始的序号
func ParseMiguRawID(rawID string) (n int, keyword string, err error) {
	nStr := rawID
	if idx := strings.IndexByte(rawID, '-'); idx != -1 {
		nStr = rawID[:idx]
		keyword = strings.TrimSpace(rawID[idx+1:])
	}

	n, err = strconv.Atoi(nStr)
	if err != nil || n <= 0 {
		return 0, "", ErrInvalidID
	}
	return n, keyword, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
