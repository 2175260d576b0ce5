package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"AginMusic/core/songid"
	"AginMusic/logger"
	"AginMusic/model"
)

const (
	DefaultSongTTL      = 10 * time.Minute
	DefaultSongCapacity = 2000

	mirrorTimeout = 2 * time.Second
)

// SongMirror SongCache 的可选二级缓存
type SongMirror interface {
	SaveSongs(ctx context.Context, songs []model.CachedSong, ttl time.Duration) error
	LoadSong(ctx context.Context, uid string) (*model.CachedSong, error)
}

// SongCache 搜索结果元数据缓存
//
// search3 写入，getSong、stream、getLyrics 读取，
// 这样无需重新搜索就能从歌曲ID得到标题、歌手和搜索关键词
type SongCache struct {
	mu       sync.RWMutex
	songs    map[string]model.CachedSong
	ttl      time.Duration
	capacity int
	now      func() time.Time
	mirror   SongMirror
}

// NewSongCache 创建缓存，ttl 或 capacity 非正时使用默认值
func NewSongCache(ttl time.Duration, capacity int) *SongCache {
	if ttl <= 0 {
		ttl = DefaultSongTTL
	}
	if capacity <= 0 {
		capacity = DefaultSongCapacity
	}
	return &SongCache{
		songs:    make(map[string]model.CachedSong),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
	}
}

// WithMirror 挂载二级缓存，必须在缓存被共享之前调用
func (c *SongCache) WithMirror(m SongMirror) *SongCache {
	c.mirror = m
	return c
}

// WithClock 替换时钟，测试用
func (c *SongCache) WithClock(now func() time.Time) *SongCache {
	c.now = now
	return c
}

// TTL 记录有效期
func (c *SongCache) TTL() time.Duration { return c.ttl }

// Capacity 最大记录数
func (c *SongCache) Capacity() int { return c.capacity }

// Put 插入或刷新一条记录，uid 无法解析时返回 false
func (c *SongCache) Put(track model.Track, coverArt string) bool {
	return c.PutTracks([]model.Track{track}, func(model.Track) string { return coverArt }) == 1
}

// PutTracks 批量写入，只清理一次。coverArt 为 nil 时使用歌曲自带封面，返回写入条数
func (c *SongCache) PutTracks(tracks []model.Track, coverArt func(model.Track) string) int {
	if len(tracks) == 0 {
		return 0
	}

	now := c.now()
	written := make([]model.CachedSong, 0, len(tracks))

	c.mu.Lock()
	c.sweepLocked(now)
	for _, t := range tracks {
		id, err := songid.Decode(t.UID)
		if err != nil {
			logger.Debug("[SongCache] 跳过无法解析的歌曲ID", logger.String("uid", t.UID))
			continue
		}

		cover := t.Cover
		if coverArt != nil {
			cover = coverArt(t)
		}

		song := model.CachedSong{
			ID:        t.UID,
			Source:    id.Source,
			RawID:     id.RawID,
			Keyword:   t.Keyword,
			Title:     t.Title,
			Artist:    t.Artist,
			Album:     t.Album,
			CoverArt:  cover,
			UpdatedAt: now,
		}
		c.songs[song.ID] = song
		written = append(written, song)
	}
	c.evictLocked()
	c.mu.Unlock()

	c.mirrorSongs(written)
	return len(written)
}

// Get 读取内存记录，读取时不检查过期，过期记录在下次写入时清理
func (c *SongCache) Get(uid string) (model.CachedSong, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	song, ok := c.songs[uid]
	return song, ok
}

// Lookup 先查内存再查二级缓存，二级缓存中未过期的记录按原时间戳回填内存
func (c *SongCache) Lookup(ctx context.Context, uid string) (model.CachedSong, bool) {
	if song, ok := c.Get(uid); ok {
		return song, true
	}
	if c.mirror == nil {
		return model.CachedSong{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, mirrorTimeout)
	defer cancel()

	song, err := c.mirror.LoadSong(ctx, uid)
	if err != nil {
		logger.Warn("[SongCache] 读取二级缓存失败", logger.String("uid", uid), logger.ErrorField(err))
		return model.CachedSong{}, false
	}
	if song == nil {
		return model.CachedSong{}, false
	}

	now := c.now()
	if now.Sub(song.UpdatedAt) >= c.ttl {
		return model.CachedSong{}, false
	}

	c.mu.Lock()
	c.sweepLocked(now)
	c.songs[song.ID] = *song
	c.evictLocked()
	c.mu.Unlock()

	return *song, true
}

// Sweep 删除过期记录，再按时间从旧到新淘汰直到不超过容量
func (c *SongCache) Sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked(now)
	c.evictLocked()
}

// Len 返回当前缓存条数
func (c *SongCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.songs)
}

// Clear 清空内存缓存（不影响二级缓存）
func (c *SongCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.songs = make(map[string]model.CachedSong)
}

func (c *SongCache) sweepLocked(now time.Time) {
	for uid, song := range c.songs {
		if now.Sub(song.UpdatedAt) >= c.ttl {
			delete(c.songs, uid)
		}
	}
}

func (c *SongCache) evictLocked() {
	overflow := len(c.songs) - c.capacity
	if overflow <= 0 {
		return
	}

	type entry struct {
		uid string
		at  time.Time
	}
	entries := make([]entry, 0, len(c.songs))
	for uid, song := range c.songs {
		entries = append(entries, entry{uid: uid, at: song.UpdatedAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].at.Equal(entries[j].at) {
			return entries[i].uid < entries[j].uid
		}
		return entries[i].at.Before(entries[j].at)
	})

	for _, e := range entries[:overflow] {
		delete(c.songs, e.uid)
	}
	logger.Debug("[SongCache] 超出容量，淘汰最旧记录", logger.Int("evicted", overflow))
}

func (c *SongCache) mirrorSongs(songs []model.CachedSong) {
	if c.mirror == nil || len(songs) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()

	if err := c.mirror.SaveSongs(ctx, songs, c.ttl); err != nil {
		logger.Warn("[SongCache] 写入二级缓存失败",
			logger.Int("count", len(songs)),
			logger.ErrorField(err))
	}
}
