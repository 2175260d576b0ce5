package model

import "time"

// Source 音乐来源标识
type Source string

const (
	SourceFangpi  Source = "fangpi"
	SourceMigu    Source = "migu"
	SourceNetease Source = "netease"
	SourceQQ      Source = "qq"
	SourceKuwo    Source = "kuwo"
)

// AllSources 所有来源，按声明顺序排列；聚合搜索按此顺序合并结果
var AllSources = []Source{SourceFangpi, SourceMigu, SourceNetease, SourceQQ, SourceKuwo}

// IsKnown 判断是否为已知来源
func (s Source) IsKnown() bool {
	for _, known := range AllSources {
		if s == known {
			return true
		}
	}
	return false
}

// Quality 音质
type Quality string

const (
	QualityNormal   Quality = "normal"
	QualityLossless Quality = "lossless"
)

// Track 单个来源返回的一条搜索结果，每次搜索新建，创建后不再修改
type Track struct {
	UID           string  `json:"uid"`
	Source        Source  `json:"source"`
	DisplayIndex  int     `json:"displayIndex"`
	Keyword       string  `json:"keyword"`
	SongID        string  `json:"songid,omitempty"`
	Title         string  `json:"title"`
	Artist        string  `json:"artist"`
	Album         string  `json:"album"`
	Cover         string  `json:"cover,omitempty"`    // empty when the provider has no cover
	AudioURL      string  `json:"audioUrl,omitempty"` // empty until a detail call resolves it
	Lrc           string  `json:"lrc,omitempty"`
	LrcURL        string  `json:"lrcUrl,omitempty"`
	DetailsLoaded bool    `json:"detailsLoaded"`
	Quality       Quality `json:"quality"`
}

// TrackDetail 歌曲详情，由各来源的详情接口返回
type TrackDetail struct {
	Title         string  `json:"title"`
	Artist        string  `json:"artist"`
	Album         string  `json:"album"`
	Cover         string  `json:"cover,omitempty"`
	AudioURL      string  `json:"audioUrl,omitempty"` // empty when the source resolves streams by redirect
	Lrc           string  `json:"lrc,omitempty"`
	LrcURL        string  `json:"lrcUrl,omitempty"`
	DetailsLoaded bool    `json:"detailsLoaded"`
	Quality       Quality `json:"quality"`
}

// CachedSong 搜索结果的元数据缓存记录
type CachedSong struct {
	ID        string    `json:"id"`
	Source    Source    `json:"source"`
	RawID     string    `json:"rawId"`
	Keyword   string    `json:"keyword"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album"`
	CoverArt  string    `json:"coverArt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
