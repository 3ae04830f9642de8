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
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// RequestStats 收到的请求总数
	RequestStats string = "requests"
	// ResponseStats 成功发送的响应总数
	ResponseStats string = "responses"
	// MalformedStats 格式错误的请求数
	MalformedStats string = "malformed"
	// TemplateErrorStats 模板替换失败的请求数
	TemplateErrorStats string = "template_errors"
	// ErrorResponseStats 发送的通用错误响应数
	ErrorResponseStats string = "error_responses"
)

type RuntimeStatus struct {
	StartAt  int64
	StopAt   int64
	StatusOn StatusType
	mutex    sync.RWMutex
}

func NewRuntimeStatus() *RuntimeStatus {
	return &RuntimeStatus{
		StatusOn: ON_STOP,
	}
}

func (r *RuntimeStatus) SetStatus(status StatusType) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.StatusOn = status
	switch status {
	case ON_START:
		r.StartAt = time.Now().Unix()
		r.StopAt = 0
	case ON_STOP:
		r.StopAt = time.Now().Unix()
	}
}

func (r *RuntimeStatus) GetStatusOn() StatusType {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.StatusOn
}

func (r *RuntimeStatus) GetStartAt() int64 {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.StartAt
}

func (r *RuntimeStatus) GetStopAt() int64 {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.StopAt
}

// GetDuration 运行时长,单位秒,保留两位小数
func (r *RuntimeStatus) GetDuration() float64 {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if r.StartAt == 0 {
		return 0
	}
	end := time.Now()
	if r.StopAt != 0 {
		end = time.Unix(r.StopAt, 0)
	}
	seconds := end.Sub(time.Unix(r.StartAt, 0)).Seconds()
	return decimal.NewFromFloat(seconds).Round(2).InexactFloat64()
}

type StatisticInterface interface {
	GetAllStats() map[string]uint64
	Incr(metric string)
	// IncrCode 按发送的状态码计数,指标名为状态码本身
	IncrCode(code int)
	Get(metric string) uint64
}

// DefaultStatistic 基于原子计数器的统计组件
// 未注册的指标在第一次Incr时创建
type DefaultStatistic struct {
	metrics sync.Map
}

func NewDefaultStatistic() *DefaultStatistic {
	s := &DefaultStatistic{}
	for _, m := range []string{RequestStats, ResponseStats, MalformedStats, TemplateErrorStats, ErrorResponseStats} {
		s.metrics.Store(m, new(uint64))
	}
	return s
}

func (s *DefaultStatistic) Incr(metric string) {
	v, _ := s.metrics.LoadOrStore(metric, new(uint64))
	atomic.AddUint64(v.(*uint64), 1)
}

// IncrCode 按状态码统计
func (s *DefaultStatistic) IncrCode(code int) {
	s.Incr(strconv.Itoa(code))
}

func (s *DefaultStatistic) Get(metric string) uint64 {
	v, ok := s.metrics.Load(metric)
	if !ok {
		return 0
	}
	return atomic.LoadUint64(v.(*uint64))
}

func (s *DefaultStatistic) GetAllStats() map[string]uint64 {
	result := make(map[string]uint64)
	s.metrics.Range(func(key any, value any) bool {
		result[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})
	return result
}
