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
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

const (
	DefaultCode   int    = 200
	DefaultStatus string = "OK"
)

// HeaderTemplate 一个响应头,Value可以包含%(KEY)s占位符
type HeaderTemplate struct {
	Name  string `mapstructure:"name" json:"name"`
	Value string `mapstructure:"value" json:"value"`
}

// ResponseConfig 设备发送的固定响应
// 构造之后只读,可以在多个响应循环之间共享
type ResponseConfig struct {
	code    int
	status  string
	headers []HeaderTemplate
	body    string
}

// NewResponseConfig 构造响应配置
// code 支持int或者数字字符串,无法转换为正整数时返回ConfigurationError
func NewResponseConfig(code interface{}, status string, headers []HeaderTemplate, body string) (*ResponseConfig, error) {
	c, err := parseCode(code)
	if err != nil {
		return nil, &ConfigurationError{Field: "code", Value: code, Err: err}
	}
	if c <= 0 {
		return nil, &ConfigurationError{Field: "code", Value: code}
	}
	h := make([]HeaderTemplate, len(headers))
	copy(h, headers)
	return &ResponseConfig{
		code:    c,
		status:  status,
		headers: h,
		body:    body,
	}, nil
}

// parseCode 字符串按十进制解析,"0302"为302;整数类型交给cast
func parseCode(code interface{}) (int, error) {
	switch v := code.(type) {
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	case bool:
		return 0, errors.New("bool is not a status code")
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			return 0, errors.New("status code must be an integer")
		}
	case float64:
		if v != math.Trunc(v) {
			return 0, errors.New("status code must be an integer")
		}
	}
	return cast.ToIntE(code)
}

// DefaultResponseConfig 200 OK,没有响应头和响应体
func DefaultResponseConfig() *ResponseConfig {
	return &ResponseConfig{
		code:    DefaultCode,
		status:  DefaultStatus,
		headers: []HeaderTemplate{},
	}
}

func (c *ResponseConfig) Code() int {
	return c.code
}

func (c *ResponseConfig) Status() string {
	return c.status
}

// Headers returns a copy of the header templates in configuration order.
func (c *ResponseConfig) Headers() []HeaderTemplate {
	h := make([]HeaderTemplate, len(c.headers))
	copy(h, c.headers)
	return h
}

func (c *ResponseConfig) Body() string {
	return c.body
}
