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

package responder

import (
	"context"
	"fmt"
	"sync"
	"time"

	queue "github.com/yireyun/go-queue"
)

// Connection 设备依赖的传输层
type Connection interface {
	// Receive 阻塞直到收到一条请求
	Receive(ctx context.Context) (*Request, error)
	// Respond 将data发送给req对应的客户端
	Respond(ctx context.Context, req *Request, data []byte) error
	// Close 关闭连接
	Close() error
}

// Reply 发送到内存连接上的一条响应
type Reply struct {
	Request *Request
	Data    []byte
}

// MemoryConnection 基于无锁队列的进程内连接
type MemoryConnection struct {
	requests     *queue.EsQueue
	replies      *queue.EsQueue
	pollInterval time.Duration
	closed       chan struct{}
	once         sync.Once
}

func NewMemoryConnection(capacity uint32) *MemoryConnection {
	return &MemoryConnection{
		requests:     queue.NewQueue(capacity),
		replies:      queue.NewQueue(capacity),
		pollInterval: 5 * time.Millisecond,
		closed:       make(chan struct{}),
	}
}

// Push 投递一条请求
func (m *MemoryConnection) Push(req *Request) error {
	if req == nil {
		return fmt.Errorf("push nil request: %w", ErrMalformedRequest)
	}
	select {
	case <-m.closed:
		return ErrConnectionClosed
	default:
	}
	ok, q := m.requests.Put(req)
	if !ok {
		return fmt.Errorf("enter queue error %d", q)
	}
	return nil
}

func (m *MemoryConnection) Receive(ctx context.Context) (*Request, error) {
	for {
		val, ok, _ := m.requests.Get()
		if ok {
			return val.(*Request), nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-m.closed:
			return nil, ErrConnectionClosed
		case <-time.After(m.pollInterval):
		}
	}
}

func (m *MemoryConnection) Respond(ctx context.Context, req *Request, data []byte) error {
	select {
	case <-m.closed:
		return ErrConnectionClosed
	default:
	}
	ok, q := m.replies.Put(&Reply{Request: req, Data: data})
	if !ok {
		return fmt.Errorf("enter queue error %d", q)
	}
	return nil
}

// NextReply 取出最早的一条响应,没有响应时返回false
func (m *MemoryConnection) NextReply() (*Reply, bool) {
	val, ok, _ := m.replies.Get()
	if !ok {
		return nil, false
	}
	return val.(*Reply), true
}

// Pending 尚未被Receive的请求数量
func (m *MemoryConnection) Pending() uint32 {
	return m.requests.Quantity()
}

func (m *MemoryConnection) Close() error {
	m.once.Do(func() {
		close(m.closed)
	})
	return nil
}
