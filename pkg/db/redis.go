package db

import (
	"fmt"

	conf "github.com/iceymoss/go-newsfeed/pkg/config"

	"github.com/go-redis/redis/v8"
)

// NewRedis 创建 redis 客户端，优先使用 url
func NewRedis(c conf.RedisConfig) (*redis.Client, error) {
	if c.Url != "" {
		opt, err := redis.ParseURL(c.Url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Password: c.PassWord,
		DB:       c.DB,
	}), nil
}
