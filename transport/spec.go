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
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/wetrycode/responder"
)

const (
	// SocketList 基于redis list的队列,BRPOP接收,LPUSH发送
	SocketList string = "list"
	// SocketPubSub 基于redis channel,SUBSCRIBE接收,PUBLISH发送
	SocketPubSub string = "pubsub"

	DefaultRecvKey string = "responder:v1:requests"
	DefaultSendKey string = "responder:v1:responses"
)

// Address 解析之后的传输地址
// 格式: redis://[user:pass@]host:port[/db][#key]
type Address struct {
	Raw     string
	Key     string
	Options *redis.Options
}

// ConnectionSpec 连接参数,由命令行或者配置文件提供,设备本身不做解析
type ConnectionSpec struct {
	SendSpec  string `mapstructure:"send_spec"`
	RecvSpec  string `mapstructure:"recv_spec"`
	SendIdent string `mapstructure:"send_ident"`
	SendType  string `mapstructure:"send_type"`
	RecvIdent string `mapstructure:"recv_ident"`
	RecvType  string `mapstructure:"recv_type"`
}

// ParseSpec 解析传输地址,#之后的部分是队列或者channel的名称
func ParseSpec(spec string) (*Address, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, responder.ErrEmptyTransportSpec
	}
	raw, key, _ := strings.Cut(spec, "#")
	options, err := redis.ParseURL(raw)
	if err != nil {
		return nil, fmt.Errorf("parse transport spec %s error: %w", spec, err)
	}
	return &Address{
		Raw:     spec,
		Key:     key,
		Options: options,
	}, nil
}

func normalizeSocketType(socketType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(socketType)) {
	case "", SocketList:
		return SocketList, nil
	case SocketPubSub:
		return SocketPubSub, nil
	}
	return "", fmt.Errorf("unsupported socket type %q", socketType)
}
