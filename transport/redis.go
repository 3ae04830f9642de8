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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wetrycode/responder"
)

var logger = responder.GetLogger("transport")

var _ responder.Connection = (*RedisConnection)(nil)

type RedisConnectionOption func(c *RedisConnection)

// RedisConnection 基于redis的双工连接
// 请求从recv地址读取,响应写到send地址,两者可以是同一个redis实例
type RedisConnection struct {
	sendRdb redis.UniversalClient
	recvRdb redis.UniversalClient
	// sendKey 响应队列或者channel
	sendKey string
	// recvKey 请求队列或者channel
	recvKey   string
	sendType  string
	recvType  string
	sendIdent string
	recvIdent string
	// pubsub recvType为pubsub时的订阅
	pubsub *redis.PubSub
	// blockTimeout BRPOP单次阻塞时长,期间不会检查ctx
	blockTimeout time.Duration
	redisConfig  *RedisConfig
	closeOnce    sync.Once
}

func RedisConnectionWithBlockTimeout(timeout time.Duration) RedisConnectionOption {
	return func(c *RedisConnection) {
		c.blockTimeout = timeout
	}
}

func RedisConnectionWithRedisConfig(config *RedisConfig) RedisConnectionOption {
	return func(c *RedisConnection) {
		c.redisConfig = config
	}
}

// NewConnection 按照spec建立连接,recv地址为空时复用send的redis实例
func NewConnection(ctx context.Context, spec ConnectionSpec, opts ...RedisConnectionOption) (*RedisConnection, error) {
	sendAddr, err := ParseSpec(spec.SendSpec)
	if err != nil {
		return nil, err
	}
	// 只复用send的redis地址,队列名使用DefaultRecvKey
	recvAddr := &Address{Raw: sendAddr.Raw, Options: sendAddr.Options}
	if spec.RecvSpec != "" {
		recvAddr, err = ParseSpec(spec.RecvSpec)
		if err != nil {
			return nil, err
		}
	}
	sendType, err := normalizeSocketType(spec.SendType)
	if err != nil {
		return nil, err
	}
	recvType, err := normalizeSocketType(spec.RecvType)
	if err != nil {
		return nil, err
	}
	c := &RedisConnection{
		sendKey:      sendAddr.Key,
		recvKey:      recvAddr.Key,
		sendType:     sendType,
		recvType:     recvType,
		sendIdent:    spec.SendIdent,
		recvIdent:    spec.RecvIdent,
		blockTimeout: time.Second,
		redisConfig:  NewRedisConfig(),
	}
	if c.sendKey == "" {
		c.sendKey = DefaultSendKey
	}
	if c.recvKey == "" {
		c.recvKey = DefaultRecvKey
	}
	if sameSocket(sendAddr, recvAddr) && c.sendKey == c.recvKey {
		return nil, &responder.ConfigurationError{Field: "recv_spec", Value: recvAddr.Raw, Err: errors.New("requests and responses share one key")}
	}
	if c.sendIdent == "" {
		c.sendIdent = responder.GetUUID()
	}
	for _, o := range opts {
		o(c)
	}
	sendRdb, err := NewRdbClient(ctx, sendAddr, c.redisConfig)
	if err != nil {
		return nil, fmt.Errorf("connect send socket %s error: %w", sendAddr.Raw, err)
	}
	recvRdb, err := NewRdbClient(ctx, recvAddr, c.redisConfig)
	if err != nil {
		sendRdb.Close()
		return nil, fmt.Errorf("connect recv socket %s error: %w", recvAddr.Raw, err)
	}
	return c.setup(ctx, sendRdb, recvRdb)
}

func sameSocket(a *Address, b *Address) bool {
	return a.Options.Addr == b.Options.Addr && a.Options.DB == b.Options.DB
}

// NewConnectionWithClients 使用已有的客户端建立连接
func NewConnectionWithClients(ctx context.Context, sendRdb redis.UniversalClient, recvRdb redis.UniversalClient, spec ConnectionSpec, opts ...RedisConnectionOption) (*RedisConnection, error) {
	sendType, err := normalizeSocketType(spec.SendType)
	if err != nil {
		return nil, err
	}
	recvType, err := normalizeSocketType(spec.RecvType)
	if err != nil {
		return nil, err
	}
	c := &RedisConnection{
		sendKey:      DefaultSendKey,
		recvKey:      DefaultRecvKey,
		sendType:     sendType,
		recvType:     recvType,
		sendIdent:    spec.SendIdent,
		recvIdent:    spec.RecvIdent,
		blockTimeout: time.Second,
		redisConfig:  NewRedisConfig(),
	}
	if c.sendIdent == "" {
		c.sendIdent = responder.GetUUID()
	}
	for _, o := range opts {
		o(c)
	}
	return c.setup(ctx, sendRdb, recvRdb)
}

func RedisConnectionWithKeys(sendKey string, recvKey string) RedisConnectionOption {
	return func(c *RedisConnection) {
		c.sendKey = sendKey
		c.recvKey = recvKey
	}
}

func (c *RedisConnection) setup(ctx context.Context, sendRdb redis.UniversalClient, recvRdb redis.UniversalClient) (*RedisConnection, error) {
	c.sendRdb = sendRdb
	c.recvRdb = recvRdb
	if c.recvType == SocketPubSub {
		c.pubsub = c.recvRdb.Subscribe(ctx, c.recvKey)
		// 等待订阅确认,避免丢失订阅建立之前发布的请求
		if _, err := c.pubsub.Receive(ctx); err != nil {
			c.Close()
			return nil, fmt.Errorf("subscribe %s error: %w", c.recvKey, err)
		}
	}
	if c.recvIdent != "" {
		if err := c.recvRdb.SAdd(ctx, c.consumersKey(), c.recvIdent).Err(); err != nil {
			c.Close()
			return nil, fmt.Errorf("register consumer %s error: %w", c.recvIdent, err)
		}
	}
	logger.Infof("connected recv %s(%s) send %s(%s) ident %s", c.recvKey, c.recvType, c.sendKey, c.sendType, c.sendIdent)
	return c, nil
}

func (c *RedisConnection) consumersKey() string {
	return fmt.Sprintf("%s:consumers", c.recvKey)
}

// Receive 阻塞直到收到一条可以解码的请求
// 无法解码的消息记录日志后丢弃
func (c *RedisConnection) Receive(ctx context.Context) (*responder.Request, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		payload, err := c.receivePayload(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		req, err := decodeRequest(payload)
		if err != nil {
			logger.Errorf("drop undecodable message from %s: %s", c.recvKey, err.Error())
			continue
		}
		return req, nil
	}
}

func (c *RedisConnection) receivePayload(ctx context.Context) ([]byte, error) {
	if c.recvType == SocketPubSub {
		msg, err := c.pubsub.ReceiveMessage(ctx)
		if err != nil {
			return nil, err
		}
		return []byte(msg.Payload), nil
	}
	result, err := c.recvRdb.BRPop(ctx, c.blockTimeout, c.recvKey).Result()
	if err != nil {
		return nil, err
	}
	// result: [key, value]
	return []byte(result[1]), nil
}

// Respond 将响应封装之后写到send地址
func (c *RedisConnection) Respond(ctx context.Context, req *responder.Request, data []byte) error {
	payload, err := encodeResponse(c.sendIdent, req, data)
	if err != nil {
		return err
	}
	if c.sendType == SocketPubSub {
		return c.sendRdb.Publish(ctx, c.sendKey, payload).Err()
	}
	return c.sendRdb.LPush(ctx, c.sendKey, payload).Err()
}

func (c *RedisConnection) GetSendIdent() string {
	return c.sendIdent
}

func (c *RedisConnection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		if c.recvIdent != "" {
			if delErr := c.recvRdb.SRem(context.TODO(), c.consumersKey(), c.recvIdent).Err(); delErr != nil {
				logger.Errorf("unregister consumer %s error: %s", c.recvIdent, delErr.Error())
			}
		}
		if c.pubsub != nil {
			c.pubsub.Close()
		}
		err = c.sendRdb.Close()
		if c.recvRdb != c.sendRdb {
			if recvErr := c.recvRdb.Close(); recvErr != nil && err == nil {
				err = recvErr
			}
		}
	})
	return err
}
