package model

// Subsonic 协议响应结构（JSON 格式）

const (
	SubsonicStatusOK     = "ok"
	SubsonicStatusFailed = "failed"

	SubsonicAPIVersion    = "1.16.1"
	SubsonicServerType    = "AginMusicAdapter"
	SubsonicServerVersion = "0.0.0"

	// SubsonicErrorGeneric 网关唯一使用的错误码，客户端按"用户名或密码错误"处理，message 可任意
	SubsonicErrorGeneric = 40
)

// SubsonicEnvelope 所有 /rest 接口返回的顶层 JSON
type SubsonicEnvelope struct {
	Response SubsonicResponse `json:"subsonic-response"`
}

// SubsonicResponse 状态加最多一个负载字段
type SubsonicResponse struct {
	Status                 string         `json:"status"`
	Version                string         `json:"version,omitempty"`
	Type                   string         `json:"type,omitempty"`
	ServerVersion          string         `json:"serverVersion,omitempty"`
	OpenSubsonicExtensions *[]string      `json:"openSubsonicExtensions,omitempty"`
	Error                  *SubsonicError `json:"error,omitempty"`
	SearchResult3          *SearchResult3 `json:"searchResult3,omitempty"`
	Song                   *SubsonicSong  `json:"song,omitempty"`
	LyricsList             *LyricsList    `json:"lyricsList,omitempty"`
}

// SubsonicError 失败响应中的错误信息
type SubsonicError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SearchResult3 search3 接口结果；album/artist 恒为空数组
type SearchResult3 struct {
	Album  []SubsonicSong `json:"album"`
	Artist []SubsonicSong `json:"artist"`
	Song   []SubsonicSong `json:"song"`
}

// SubsonicSong 协议中的歌曲条目
type SubsonicSong struct {
	ID       string `json:"id"`
	IsDir    bool   `json:"isDir"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album,omitempty"`
	CoverArt string `json:"coverArt"`
}

// LyricsList getLyricsBySongId 的返回体
type LyricsList struct {
	StructuredLyrics []StructuredLyrics `json:"structuredLyrics"`
}

// StructuredLyrics 按行拆分的歌词。只要有一行带时间戳 Synced 即为 true，此时每行都有 Start
type StructuredLyrics struct {
	Lang   string      `json:"lang"`
	Synced bool        `json:"synced"`
	Line   []LyricLine `json:"line"`
}

// LyricLine 单行歌词，Start 为毫秒偏移
type LyricLine struct {
	Value string `json:"value"`
	Start *int64 `json:"start,omitempty"`
}
