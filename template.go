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
	"strings"
)

const (
	placeholderStart = "%("
	placeholderEnd   = ")s"
)

// Substitute 使用values替换模板中的占位符
//
// 支持的语法:
//   - %(KEY)s 替换为values[KEY],KEY不存在时返回TemplateSubstitutionError
//   - %% 替换为 %
//
// 其它形式的 % 按字面量输出,例如未闭合的 %(、%(KEY)d 或者 %d.
func Substitute(template string, values map[string]string) (string, error) {
	if !strings.Contains(template, "%") {
		return template, nil
	}
	var b strings.Builder
	b.Grow(len(template))
	rest := template
	for {
		i := strings.IndexByte(rest, '%')
		if i < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:i])
		rest = rest[i:]
		if strings.HasPrefix(rest, "%%") {
			b.WriteByte('%')
			rest = rest[2:]
			continue
		}
		if strings.HasPrefix(rest, placeholderStart) {
			// key到第一个')'为止,后面必须紧跟's'
			end := strings.IndexByte(rest, ')')
			if end > 0 && strings.HasPrefix(rest[end:], placeholderEnd) {
				key := rest[len(placeholderStart):end]
				value, ok := values[key]
				if !ok {
					return "", &TemplateSubstitutionError{Key: key, Template: template}
				}
				b.WriteString(value)
				rest = rest[end+len(placeholderEnd):]
				continue
			}
		}
		b.WriteByte('%')
		rest = rest[1:]
	}
	return b.String(), nil
}
