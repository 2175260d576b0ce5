package server

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/mux"

	"AginMusic/cache"
	"AginMusic/core/auth"
	"AginMusic/core/lyrics"
	"AginMusic/core/plugin"
	"AginMusic/core/songid"
	"AginMusic/logger"
	"AginMusic/model"
)

// SubsonicHandler 实现 Subsonic REST 协议的子集
type SubsonicHandler struct {
	auth      auth.Authenticator
	plugins   *plugin.MusicPluginManager
	songs     *cache.SongCache
	publicURL string
}

// NewSubsonicHandler 创建 SubsonicHandler。publicURL 为空时根据请求头推断对外地址
func NewSubsonicHandler(a auth.Authenticator, plugins *plugin.MusicPluginManager, songs *cache.SongCache, publicURL string) *SubsonicHandler {
	return &SubsonicHandler{
		auth:      a,
		plugins:   plugins,
		songs:     songs,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// ServeHTTP 分发 /rest/{action} 和 /rest/{action}.view
func (h *SubsonicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.TrimSuffix(mux.Vars(r)["action"], ".view")

	switch action {
	case "getOpenSubsonicExtensions":
		h.handleOpenSubsonicExtensions(w, r)
		return
	case "ping", "getSong", "getsong", "getlrc", "getLyrics", "getLyricsBySongId", "stream", "search3":
	default:
		writeNotFound(w)
		return
	}

	if !h.authenticate(r) {
		logger.Info("[Subsonic] 鉴权失败",
			logger.String("action", action),
			logger.String("username", r.FormValue("u")))
		subsonicFailed(w, msgInvalidCredentials)
		return
	}

	switch action {
	case "ping":
		h.handlePing(w, r)
	case "getSong", "getsong":
		h.handleGetSong(w, r)
	case "getlrc", "getLyrics", "getLyricsBySongId":
		h.handleGetLyrics(w, r)
	case "stream":
		h.handleStream(w, r)
	case "search3":
		h.handleSearch3(w, r)
	}
}

func (h *SubsonicHandler) authenticate(r *http.Request) bool {
	username := r.FormValue("u")
	password := auth.DecodePassword(r.FormValue("p"))
	return h.auth.Authenticate(r.Context(), username, password)
}

// publicOrigin 对外访问地址，用于拼接默认封面
func (h *SubsonicHandler) publicOrigin(r *http.Request) string {
	if h.publicURL != "" {
		return h.publicURL
	}

	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	proto := r.Header.Get("X-Forwarded-Proto")
	if proto == "" {
		proto = "http"
		if r.TLS != nil {
			proto = "https"
		}
	}
	return proto + "://" + host
}

func (h *SubsonicHandler) defaultCoverArt(r *http.Request) string {
	return h.publicOrigin(r) + "/logo.png"
}

func (h *SubsonicHandler) handleOpenSubsonicExtensions(w http.ResponseWriter, _ *http.Request) {
	subsonicOK(w, func(resp *model.SubsonicResponse) {
		resp.ServerVersion = model.SubsonicServerVersion
		resp.OpenSubsonicExtensions = &[]string{}
	})
}

func (h *SubsonicHandler) handlePing(w http.ResponseWriter, _ *http.Request) {
	subsonicOK(w, func(resp *model.SubsonicResponse) {
		resp.Version = model.SubsonicAPIVersion
		resp.Type = model.SubsonicServerType
		resp.ServerVersion = model.SubsonicServerVersion
	})
}

func (h *SubsonicHandler) handleSearch3(w http.ResponseWriter, r *http.Request) {
	empty := func(resp *model.SubsonicResponse) {
		resp.SearchResult3 = &model.SearchResult3{
			Album:  []model.SubsonicSong{},
			Artist: []model.SubsonicSong{},
			Song:   []model.SubsonicSong{},
		}
	}

	keyword := strings.TrimSpace(r.FormValue("query"))
	if utf8.RuneCountInString(keyword) <= 1 {
		subsonicOK(w, empty)
		return
	}

	songCount := clampInt(parseIntParam(r.FormValue("songCount"), 20), 0, 50)
	songOffset := max(0, parseIntParam(r.FormValue("songOffset"), 0))
	fetchLimit := clampInt(songCount+songOffset, 1, 50)

	sourcesCSV := r.FormValue("sources")
	if _, ok := r.Form["sources"]; !ok {
		sourcesCSV = r.FormValue("source")
	}
	sources := h.plugins.ParseSources(sourcesCSV)

	result := h.plugins.SearchAll(r.Context(), keyword, fetchLimit, sources)

	defaultCover := h.defaultCoverArt(r)
	coverOf := func(t model.Track) string {
		if t.Cover != "" {
			return t.Cover
		}
		return defaultCover
	}

	// songOffset 只扩大拉取数量，返回完整列表
	songs := make([]model.SubsonicSong, 0, len(result.Tracks))
	for _, t := range result.Tracks {
		songs = append(songs, model.SubsonicSong{
			ID:       t.UID,
			IsDir:    false,
			Title:    t.Title,
			Artist:   t.Artist,
			CoverArt: coverOf(t),
		})
	}
	h.songs.PutTracks(result.Tracks, coverOf)

	logger.Info("[Subsonic] search3",
		logger.String("query", keyword),
		logger.Int("songCount", songCount),
		logger.Int("songOffset", songOffset),
		logger.Int("returned", len(songs)))

	subsonicOK(w, func(resp *model.SubsonicResponse) {
		empty(resp)
		resp.SearchResult3.Song = songs
	})
}

// resolveRequest 解析 id 并构造 SongRef。ok 为 false 时已写入失败响应
func (h *SubsonicHandler) resolveRequest(w http.ResponseWriter, r *http.Request) (id string, sid songid.ID, ref plugin.SongRef, cached *model.CachedSong, ok bool) {
	id = r.FormValue("id")
	if id == "" {
		subsonicFailed(w, msgMissingID)
		return id, sid, ref, nil, false
	}

	sid, err := songid.DecodeWithFallback(id)
	if err != nil {
		subsonicFailed(w, msgInvalidID)
		return id, sid, ref, nil, false
	}

	ref = plugin.SongRef{RawID: sid.RawID, QueryHint: strings.TrimSpace(r.FormValue("query"))}
	if song, found := h.songs.Lookup(r.Context(), id); found {
		cached = &song
		ref.Keyword = song.Keyword
	}
	return id, sid, ref, cached, true
}

func (h *SubsonicHandler) fetchDetail(ctx context.Context, sid songid.ID, ref plugin.SongRef) (*model.TrackDetail, error) {
	detail, err := h.plugins.GetDetail(ctx, sid.Source, ref)
	if err != nil {
		if !errors.Is(err, songid.ErrInvalidID) {
			logger.Debug("[Subsonic] 获取详情失败",
				logger.String("source", string(sid.Source)),
				logger.String("rawId", sid.RawID),
				logger.ErrorField(err))
		}
		return nil, err
	}
	return detail, nil
}

func (h *SubsonicHandler) handleGetSong(w http.ResponseWriter, r *http.Request) {
	id, sid, ref, cached, ok := h.resolveRequest(w, r)
	if !ok {
		return
	}
	ref.SkipLyrics = true

	detail, err := h.fetchDetail(r.Context(), sid, ref)
	if errors.Is(err, songid.ErrInvalidID) {
		subsonicFailed(w, msgInvalidID)
		return
	}
	if detail == nil && cached == nil {
		subsonicFailed(w, msgSongNotFound)
		return
	}

	if detail == nil {
		detail = &model.TrackDetail{}
	}
	if cached == nil {
		cached = &model.CachedSong{}
	}
	song := &model.SubsonicSong{
		ID:       id,
		IsDir:    false,
		Title:    firstNonEmpty(detail.Title, cached.Title),
		Artist:   firstNonEmpty(detail.Artist, cached.Artist),
		Album:    firstNonEmpty(detail.Album, cached.Album),
		CoverArt: firstNonEmpty(detail.Cover, cached.CoverArt, h.defaultCoverArt(r)),
	}

	subsonicOK(w, func(resp *model.SubsonicResponse) {
		resp.Song = song
	})
}

func (h *SubsonicHandler) handleGetLyrics(w http.ResponseWriter, r *http.Request) {
	_, sid, ref, _, ok := h.resolveRequest(w, r)
	if !ok {
		return
	}

	detail, err := h.fetchDetail(r.Context(), sid, ref)
	if errors.Is(err, songid.ErrInvalidID) {
		subsonicFailed(w, msgInvalidID)
		return
	}
	if detail == nil {
		subsonicFailed(w, msgSongNotFound)
		return
	}

	structured := lyrics.ToStructured(detail.Lrc)
	if structured == nil {
		subsonicOK(w, nil)
		return
	}

	subsonicOK(w, func(resp *model.SubsonicResponse) {
		resp.LyricsList = &model.LyricsList{
			StructuredLyrics: []model.StructuredLyrics{*structured},
		}
	})
}

func (h *SubsonicHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	id, sid, ref, _, ok := h.resolveRequest(w, r)
	if !ok {
		return
	}
	ref.SkipLyrics = true

	location, err := h.plugins.ResolveStream(r.Context(), sid.Source, ref)
	if err != nil {
		if errors.Is(err, songid.ErrInvalidID) {
			subsonicFailed(w, msgInvalidID)
			return
		}
		logger.Warn("[Subsonic] 解析播放地址失败", logger.String("id", id), logger.ErrorField(err))
		subsonicFailed(w, msgStreamNotFound)
		return
	}

	http.Redirect(w, r, location, http.StatusTemporaryRedirect)
}

// parseIntParam 解析整数参数，小数向零截断；缺失或非法时返回 fallback
func parseIntParam(value string, fallback int) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return int(math.Trunc(max(min(f, math.MaxInt32), math.MinInt32)))
}

func clampInt(v, lo, hi int) int {
	return min(hi, max(lo, v))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
