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

// Request 传输层投递的一条请求
// Sender和ConnID是回复地址,由传输层维护,设备不做解析
type Request struct {
	// Sender 上游服务器标识
	Sender string `json:"sender"`
	// ConnID 上游服务器上的客户端连接id
	ConnID string `json:"conn_id"`
	// Path 请求路径
	Path string `json:"path"`
	// Headers 请求元数据,至少包含PATTERN和PATH
	Headers map[string]string `json:"headers"`
	Body    []byte            `json:"body,omitempty"`
}

type RequestOption func(r *Request)

func RequestWithSender(sender string, connID string) RequestOption {
	return func(r *Request) {
		r.Sender = sender
		r.ConnID = connID
	}
}

func RequestWithBody(body []byte) RequestOption {
	return func(r *Request) {
		r.Body = body
	}
}

// NewRequest 使用路由规则和路径构造请求,主要用于测试和内存连接
func NewRequest(pattern string, path string, headers map[string]string, opts ...RequestOption) *Request {
	h := make(map[string]string, len(headers)+2)
	for k, v := range headers {
		h[k] = v
	}
	h[PatternKey] = pattern
	h[PathKey] = path
	r := &Request{
		Path:    path,
		Headers: h,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}
