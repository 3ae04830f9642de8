package responder

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration        error = errors.New("invalid response configuration")
	ErrMalformedRequest     error = errors.New("malformed request")
	ErrTemplateSubstitution error = errors.New("template substitution error")
	ErrTransport            error = errors.New("transport error")
	ErrConnectionClosed     error = errors.New("connection closed")
	ErrEmptyTransportSpec   error = errors.New("empty transport spec")
)

// ConfigurationError 响应配置不合法,设备不会启动
type ConfigurationError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Err.Error())
	}
	return fmt.Sprintf("invalid %s %v", e.Field, e.Value)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// MalformedRequestError 请求缺少必要字段或者PATTERN格式错误
type MalformedRequestError struct {
	Field  string
	Reason string
}

func (e *MalformedRequestError) Error() string {
	return fmt.Sprintf("malformed request: %s %s", e.Field, e.Reason)
}

func (e *MalformedRequestError) Is(target error) bool {
	return target == ErrMalformedRequest
}

// TemplateSubstitutionError 模板引用了不存在的key
type TemplateSubstitutionError struct {
	Key      string
	Template string
}

func (e *TemplateSubstitutionError) Error() string {
	return fmt.Sprintf("template %q references missing key %q", e.Template, e.Key)
}

func (e *TemplateSubstitutionError) Is(target error) bool {
	return target == ErrTemplateSubstitution
}

// TransportError receive或者respond失败,对响应循环是致命错误
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s error: %s", e.Op, e.Err.Error())
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
