// MIT License

// Copyright (c) 2023 wetrycode

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package transport

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig 连接池和超时参数
type RedisConfig struct {
	// RdbConnectionsSize 连接池大小
	RdbConnectionsSize int           `mapstructure:"pool_size"`
	// RdbTimeout redis 超时时间
	RdbTimeout         time.Duration `mapstructure:"timeout"`
	// RdbMaxRetry redis操作失败后的重试次数
	RdbMaxRetry        int           `mapstructure:"max_retry"`
	// ConnectRetry 建立连接失败后的重试次数
	ConnectRetry       int           `mapstructure:"connect_retry"`
	// ConnectBackoff 建立连接重试的间隔
	ConnectBackoff     time.Duration `mapstructure:"connect_backoff"`
}

func NewRedisConfig() *RedisConfig {
	return &RedisConfig{
		RdbConnectionsSize: 8,
		RdbTimeout:         10 * time.Second,
		RdbMaxRetry:        3,
		ConnectRetry:       3,
		ConnectBackoff:     time.Second,
	}
}

func NewRdbConfig(addr *Address, config *RedisConfig) *redis.Options {
	options := *addr.Options
	//连接池容量及闲置连接数量
	options.PoolSize = config.RdbConnectionsSize
	options.MinIdleConns = 1

	//超时
	options.DialTimeout = config.RdbTimeout
	options.ReadTimeout = config.RdbTimeout
	options.WriteTimeout = config.RdbTimeout
	options.PoolTimeout = config.RdbTimeout

	//闲置连接
	options.ConnMaxIdleTime = 5 * time.Minute

	//命令执行失败时的重试策略
	options.MaxRetries = config.RdbMaxRetry
	options.MinRetryBackoff = 8 * time.Millisecond
	options.MaxRetryBackoff = 512 * time.Millisecond
	return &options
}

// NewRdbClient 创建客户端并确认连接可用,失败时按ConnectRetry重试
func NewRdbClient(ctx context.Context, addr *Address, config *RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(NewRdbConfig(addr, config))
	var err error
	for attempt := 0; attempt <= config.ConnectRetry; attempt++ {
		if attempt > 0 {
			logger.Warnf("connect to %s failed, retry %d/%d: %s", addr.Options.Addr, attempt, config.ConnectRetry, err.Error())
			select {
			case <-ctx.Done():
				rdb.Close()
				return nil, ctx.Err()
			case <-time.After(config.ConnectBackoff):
			}
		}
		if err = rdb.Ping(ctx).Err(); err == nil {
			return rdb, nil
		}
	}
	rdb.Close()
	return nil, err
}
