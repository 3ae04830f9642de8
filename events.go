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

type EventType int

const (
	// START 响应循环启动
	START EventType = iota
	// ERROR 单个请求处理失败
	ERROR
	// EXIT 响应循环退出
	EXIT
)

// EventHooksInterface 设备生命周期事件处理
type EventHooksInterface interface {
	// Start 处理响应循环启动事件
	Start() error
	// Error 处理单个请求失败事件,请求失败不会终止响应循环
	Error(req *Request, err error) error
	// Exit 处理响应循环退出事件,err是退出原因
	Exit(err error) error
}

type DefaultHooks struct {
}

func NewDefaultHooks() *DefaultHooks {
	return &DefaultHooks{}
}

func (d *DefaultHooks) Start() error {
	return nil
}

func (d *DefaultHooks) Error(req *Request, err error) error {
	return nil
}

func (d *DefaultHooks) Exit(err error) error {
	return nil
}

// fire 依次调用所有hooks,hook返回的错误只记录日志
func fire(hooks []EventHooksInterface, event EventType, req *Request, cause error) {
	for _, hook := range hooks {
		var err error
		switch event {
		case START:
			err = hook.Start()
		case ERROR:
			err = hook.Error(req, cause)
		case EXIT:
			err = hook.Exit(cause)
		}
		if err != nil {
			deviceLog.Errorf("handle event %d error %s", event, err.Error())
		}
	}
}
