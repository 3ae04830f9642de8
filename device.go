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
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
)

var deviceLog *logrus.Entry = GetLogger("device") // deviceLog response loop logger

// Device 固定响应设备
// 对每一个收到的请求按同一个ResponseConfig生成响应并写回连接
type Device struct {
	// config 响应配置,只读
	config *ResponseConfig
	// statistic 统计组件
	statistic StatisticInterface
	// status 运行状态
	status *RuntimeStatus
	// hooks 生命周期事件处理
	hooks []EventHooksInterface
	// errorResponses 请求处理失败时是否发送通用错误响应
	// 默认false,即丢弃该请求不做任何响应
	errorResponses bool
}

func NewDevice(config *ResponseConfig, opts ...DeviceOption) *Device {
	if config == nil {
		config = DefaultResponseConfig()
	}
	d := &Device{
		config:    config,
		statistic: NewDefaultStatistic(),
		status:    NewRuntimeStatus(),
		hooks:     []EventHooksInterface{},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Run 使用config创建设备并在conn上运行响应循环
func Run(ctx context.Context, conn Connection, config *ResponseConfig) error {
	return NewDevice(config).Run(ctx, conn)
}

// Run 响应循环
// 每次接收一个请求,生成响应并写回,处理完成之后才接收下一个请求.
// 单个请求的格式或者模板错误只记录并继续;传输层错误以TransportError返回;
// ctx取消时返回ctx.Err().
func (d *Device) Run(ctx context.Context, conn Connection) (err error) {
	d.status.SetStatus(ON_START)
	fire(d.hooks, START, nil, nil)
	defer func() {
		d.status.SetStatus(ON_STOP)
		fire(d.hooks, EXIT, nil, err)
		if err != nil && !errors.Is(err, context.Canceled) {
			deviceLog.Errorf("response loop exit: %s", err.Error())
		} else {
			deviceLog.Infof("response loop exit")
		}
	}()
	deviceLog.Infof("device %s responding with %d %s", GetDeviceID(), d.config.Code(), d.config.Status())
	for {
		req, recvErr := conn.Receive(ctx)
		if recvErr != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &TransportError{Op: "receive", Err: recvErr}
		}
		if err = d.serve(ctx, conn, req); err != nil {
			return err
		}
	}
}

// serve 处理单个请求,只有传输层错误会被返回
func (d *Device) serve(ctx context.Context, conn Connection, req *Request) error {
	d.statistic.Incr(RequestStats)
	if req == nil {
		d.reject(ctx, conn, req, &MalformedRequestError{Field: "request", Reason: "is nil"})
		return nil
	}
	data, err := Format(d.config, req.Headers)
	if err != nil {
		return d.reject(ctx, conn, req, err)
	}
	if err := d.respond(ctx, conn, req, data); err != nil {
		return err
	}
	d.statistic.Incr(ResponseStats)
	d.statistic.IncrCode(d.config.Code())
	return nil
}

// reject 记录失败的请求,按策略丢弃或者回复通用错误响应
func (d *Device) reject(ctx context.Context, conn Connection, req *Request, err error) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrMalformedRequest):
		d.statistic.Incr(MalformedStats)
		code = http.StatusBadRequest
	case errors.Is(err, ErrTemplateSubstitution):
		d.statistic.Incr(TemplateErrorStats)
	}
	fields := logrus.Fields{}
	if req != nil {
		fields["path"] = req.Path
		fields["sender"] = req.Sender
		fields["connId"] = req.ConnID
	}
	deviceLog.WithFields(fields).Errorf("handle request error: %s", err.Error())
	fire(d.hooks, ERROR, req, err)

	if !d.errorResponses || req == nil {
		return nil
	}
	if err := d.respond(ctx, conn, req, errorResponse(code, http.StatusText(code))); err != nil {
		return err
	}
	d.statistic.Incr(ErrorResponseStats)
	d.statistic.IncrCode(code)
	return nil
}

func (d *Device) respond(ctx context.Context, conn Connection, req *Request, data []byte) error {
	if err := conn.Respond(ctx, req, data); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TransportError{Op: "respond", Err: err}
	}
	return nil
}

func (d *Device) GetConfig() *ResponseConfig {
	return d.config
}

func (d *Device) GetStatistic() StatisticInterface {
	return d.statistic
}

func (d *Device) GetRuntimeStatus() *RuntimeStatus {
	return d.status
}

func (d *Device) GetStatusOn() StatusType {
	return d.status.GetStatusOn()
}
