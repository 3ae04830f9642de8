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
	"bytes"
	"strconv"
	"strings"
)

const (
	PatternKey = "PATTERN"
	PathKey    = "PATH"
	PrefixKey  = "PREFIX"
	MatchKey   = "MATCH"

	crlf = "\r\n"
)

// DeriveFields 从PATTERN和PATH中计算PREFIX和MATCH
// PREFIX是PATTERN中第一个'('之前的部分,MATCH是PATH去掉PREFIX长度之后的部分
func DeriveFields(headers map[string]string) (prefix string, match string, err error) {
	pattern, ok := headers[PatternKey]
	if !ok {
		return "", "", &MalformedRequestError{Field: PatternKey, Reason: "is missing"}
	}
	path, ok := headers[PathKey]
	if !ok {
		return "", "", &MalformedRequestError{Field: PathKey, Reason: "is missing"}
	}
	prefix, _, found := strings.Cut(pattern, "(")
	if !found {
		return "", "", &MalformedRequestError{Field: PatternKey, Reason: "has no '(' separator: " + strconv.Quote(pattern)}
	}
	if len(path) >= len(prefix) {
		match = path[len(prefix):]
	}
	return prefix, match, nil
}

// Format 生成单个请求的完整响应
// 顺序:状态行、按配置顺序的响应头、Content-Length、空行、响应体
// 状态行和响应头名称不做模板替换
func Format(config *ResponseConfig, requestHeaders map[string]string) ([]byte, error) {
	prefix, match, err := DeriveFields(requestHeaders)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(requestHeaders)+2)
	for k, v := range requestHeaders {
		values[k] = v
	}
	values[PrefixKey] = prefix
	values[MatchKey] = match

	buf := &bytes.Buffer{}
	writeStatusLine(buf, config.Code(), config.Status())
	for _, header := range config.headers {
		value, err := Substitute(header.Value, values)
		if err != nil {
			return nil, err
		}
		writeHeader(buf, header.Name, value)
	}
	body, err := Substitute(config.Body(), values)
	if err != nil {
		return nil, err
	}
	writeBody(buf, body)
	return buf.Bytes(), nil
}

// errorResponse 请求无法处理时可选发送的通用响应
func errorResponse(code int, status string) []byte {
	buf := &bytes.Buffer{}
	writeStatusLine(buf, code, status)
	writeBody(buf, status+crlf)
	return buf.Bytes()
}

func writeStatusLine(buf *bytes.Buffer, code int, status string) {
	buf.WriteString("HTTP/1.1 ")
	buf.WriteString(strconv.Itoa(code))
	buf.WriteByte(' ')
	buf.WriteString(status)
	buf.WriteString(crlf)
}

func writeHeader(buf *bytes.Buffer, name string, value string) {
	buf.WriteString(name)
	buf.WriteString(": ")
	buf.WriteString(value)
	buf.WriteString(crlf)
}

// writeBody Content-Length是替换之后的字节长度
func writeBody(buf *bytes.Buffer, body string) {
	writeHeader(buf, "Content-Length", strconv.Itoa(len(body)))
	buf.WriteString(crlf)
	if body != "" {
		buf.WriteString(body)
	}
}
