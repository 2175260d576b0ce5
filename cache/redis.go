package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"

	"AginMusic/config"
	"AginMusic/logger"
	"AginMusic/model"
)

// RedisClient 是全局Redis客户端，未配置 REDIS_HOST 时为 nil
var RedisClient *redis.Client

// ConnectRedis 初始化Redis连接
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	RedisClient = client
	logger.Info("[Redis] 连接成功",
		logger.String("host", cfg.RedisHost),
		logger.String("port", cfg.RedisPort),
		logger.Int("db", cfg.RedisDB))
	return client, nil
}

// CloseRedis 关闭Redis连接
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// CheckRedis 写入、读取并删除一个探测键，验证连接可用
func CheckRedis(ctx context.Context, client *redis.Client) error {
	if client == nil {
		return errors.New("Redis client not initialized")
	}

	const key, want = "aginmusic:healthcheck", "ok"
	if err := client.Set(ctx, key, want, time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set Redis key: %w", err)
	}
	got, err := client.Get(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to get Redis key: %w", err)
	}
	if got != want {
		return fmt.Errorf("unexpected value from Redis: got %s", got)
	}
	if err := client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete Redis key: %w", err)
	}
	return nil
}

// SongKey 根据歌曲ID生成Redis键
func SongKey(uid string) string {
	return "song:" + uid
}

// RedisSongMirror 以 JSON 字符串保存 CachedSong，过期时间与内存缓存相同
type RedisSongMirror struct {
	client redis.UniversalClient
}

// NewRedisSongMirror 创建 Redis 二级缓存
func NewRedisSongMirror(client redis.UniversalClient) *RedisSongMirror {
	return &RedisSongMirror{client: client}
}

// SaveSongs 批量写入（pipeline）
func (m *RedisSongMirror) SaveSongs(ctx context.Context, songs []model.CachedSong, ttl time.Duration) error {
	if len(songs) == 0 {
		return nil
	}

	pipe := m.client.Pipeline()
	for _, song := range songs {
		data, err := json.Marshal(song)
		if err != nil {
			return fmt.Errorf("序列化歌曲缓存失败 %s: %w", song.ID, err)
		}
		pipe.Set(ctx, SongKey(song.ID), data, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入歌曲缓存失败: %w", err)
	}
	return nil
}

// LoadSong 读取一条记录，键不存在时返回 nil, nil
func (m *RedisSongMirror) LoadSong(ctx context.Context, uid string) (*model.CachedSong, error) {
	data, err := m.client.Get(ctx, SongKey(uid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取歌曲缓存失败: %w", err)
	}

	var song model.CachedSong
	if err := json.Unmarshal(data, &song); err != nil {
		return nil, fmt.Errorf("解析歌曲缓存失败: %w", err)
	}
	return &song, nil
}
