package plugin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"AginMusic/logger"
	"AginMusic/model"
)

var (
	// ErrSongNotFound 上游没有返回该歌曲的详情
	ErrSongNotFound = errors.New("song not found")
	// ErrUnknownSource 来源未注册
	ErrUnknownSource = errors.New("unknown source")
	// ErrStreamNotFound 无法解析播放地址
	ErrStreamNotFound = errors.New("stream url not found")
)

// SongRef 某个来源内的歌曲引用
type SongRef struct {
	RawID string
	// Keyword 之前搜索时记录的关键词，可能为空
	Keyword string
	// QueryHint 客户端本次请求携带的关键词，仅在没有更好的关键词时使用
	QueryHint string
	// SkipLyrics 不需要歌词时跳过额外的歌词下载
	SkipLyrics bool
}

// MusicPlugin 音乐插件接口
// 每个音乐来源实现一个插件，由 MusicPluginManager 统一调度
type MusicPlugin interface {
	// GetSource 获取插件来源标识
	GetSource() model.Source

	// Search 搜索歌曲，结果保持上游顺序且不超过 limit 条。
	// 上游失败、超时或响应格式错误时返回 error 和空结果
	Search(ctx context.Context, keyword string, limit int) ([]model.Track, error)

	// GetDetail 获取歌曲详情，不存在时返回 ErrSongNotFound。
	// 歌词获取失败不会导致详情失败
	GetDetail(ctx context.Context, ref SongRef) (*model.TrackDetail, error)
}

// StreamResolver 播放地址不在详情中的来源需要实现此接口
type StreamResolver interface {
	ResolveStream(ctx context.Context, ref SongRef) (string, error)
}

// SearchResult 聚合搜索结果
type SearchResult struct {
	Tracks   []model.Track
	BySource map[model.Source]int
}

// MusicPluginManager 音乐插件管理器
type MusicPluginManager struct {
	plugins map[model.Source]MusicPlugin

	// DedupByUID 丢弃前面来源已返回过的 uid，默认关闭
	DedupByUID bool
}

// NewMusicPluginManager 创建插件管理器
func NewMusicPluginManager() *MusicPluginManager {
	return &MusicPluginManager{
		plugins: make(map[model.Source]MusicPlugin),
	}
}

// Register 注册插件，同一来源后注册的覆盖先注册的。应在启动阶段完成
func (m *MusicPluginManager) Register(plugin MusicPlugin) {
	m.plugins[plugin.GetSource()] = plugin
	logger.Info("[PluginManager] 注册音乐插件", logger.String("source", string(plugin.GetSource())))
}

// Get 获取指定来源的插件
func (m *MusicPluginManager) Get(source model.Source) MusicPlugin {
	return m.plugins[source]
}

// Sources 按声明顺序返回已注册的来源
func (m *MusicPluginManager) Sources() []model.Source {
	return lo.Filter(model.AllSources, func(s model.Source, _ int) bool {
		_, ok := m.plugins[s]
		return ok
	})
}

// ParseSources 解析逗号分隔的来源列表，按声明顺序返回已注册的来源。
// 未知名称被忽略，解析结果为空时返回全部已注册来源
func (m *MusicPluginManager) ParseSources(csv string) []model.Source {
	wanted := lo.Uniq(lo.FilterMap(strings.Split(csv, ","), func(s string, _ int) (model.Source, bool) {
		src := model.Source(strings.TrimSpace(s))
		_, ok := m.plugins[src]
		return src, ok
	}))
	if len(wanted) == 0 {
		return m.Sources()
	}
	return m.ordered(wanted)
}

func (m *MusicPluginManager) ordered(sources []model.Source) []model.Source {
	return lo.Filter(model.AllSources, func(s model.Source, _ int) bool {
		return lo.Contains(sources, s)
	})
}

// SearchAll 并发搜索多个来源
//
// 每个来源一个 goroutine，单个来源失败不会取消其他来源。结果按来源声明顺序拼接，
// 失败的来源不贡献结果且计数为 0。sources 为空时搜索全部已注册来源
func (m *MusicPluginManager) SearchAll(ctx context.Context, keyword string, limit int, sources []model.Source) SearchResult {
	result := SearchResult{BySource: make(map[model.Source]int)}

	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return result
	}
	limit = ClampLimit(limit)
	if len(sources) == 0 {
		sources = m.Sources()
	} else {
		sources = m.ordered(sources)
	}

	perSource := make([][]model.Track, len(sources))
	var g errgroup.Group
	for i, src := range sources {
		plugin := m.plugins[src]
		if plugin == nil {
			continue
		}
		g.Go(func() error {
			tracks, err := plugin.Search(ctx, keyword, limit)
			if err != nil {
				logger.Warn("[PluginManager] 来源搜索失败",
					logger.String("source", string(src)),
					logger.String("keyword", keyword),
					logger.ErrorField(err))
				return nil
			}
			if len(tracks) > limit {
				tracks = tracks[:limit]
			}
			perSource[i] = tracks
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[string]struct{})
	for i, src := range sources {
		count := 0
		for _, t := range perSource[i] {
			if m.DedupByUID {
				if _, dup := seen[t.UID]; dup {
					continue
				}
				seen[t.UID] = struct{}{}
			}
			result.Tracks = append(result.Tracks, t)
			count++
		}
		result.BySource[src] = count
	}

	logger.Info("[PluginManager] 聚合搜索完成",
		logger.String("keyword", keyword),
		logger.Int("limit", limit),
		logger.Int("total", len(result.Tracks)),
		logger.Any("bySource", result.BySource))
	return result
}

// GetDetail 获取指定来源的歌曲详情
func (m *MusicPluginManager) GetDetail(ctx context.Context, source model.Source, ref SongRef) (*model.TrackDetail, error) {
	plugin := m.Get(source)
	if plugin == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	return plugin.GetDetail(ctx, ref)
}

// ResolveStream 获取播放地址。未实现 StreamResolver 的来源使用详情中的 AudioURL
func (m *MusicPluginManager) ResolveStream(ctx context.Context, source model.Source, ref SongRef) (string, error) {
	plugin := m.Get(source)
	if plugin == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}

	if resolver, ok := plugin.(StreamResolver); ok {
		url, err := resolver.ResolveStream(ctx, ref)
		if err != nil {
			return "", err
		}
		if url == "" {
			return "", ErrStreamNotFound
		}
		return url, nil
	}

	detail, err := plugin.GetDetail(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStreamNotFound, err)
	}
	if detail.AudioURL == "" {
		return "", ErrStreamNotFound
	}
	return detail.AudioURL, nil
}
