package model

// NeteaseSearchItem 网易云搜索接口返回的单条结果
type NeteaseSearchItem struct {
	N      int    `json:"n"`
	SongID string `json:"songid"`
	Title  string `json:"title"`
	Singer string `json:"singer"`
}

// NeteaseSongDetail 网易云歌曲详情（含播放地址和歌词）
type NeteaseSongDetail struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Pic    string `json:"pic"`
	URL    string `json:"url"`
	Lyric  string `json:"lyric"`
	Format string `json:"format"` // e.g. "无损 FLAC"
}
