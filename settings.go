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
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Configuration struct {
	*viper.Viper
}

// responseSettings settings.yaml中response段
// headers使用列表,保留顺序和响应头名称的大小写
type responseSettings struct {
	Code    interface{}      `mapstructure:"code"`
	Status  *string          `mapstructure:"status"`
	Headers []HeaderTemplate `mapstructure:"headers"`
	Body    string           `mapstructure:"body"`
}

var onceConfig sync.Once
var Config *Configuration = nil

func newResponderConfig() {
	onceConfig.Do(func() {
		Config = NewConfiguration()
	})

}

func NewConfiguration() *Configuration {
	return &Configuration{
		viper.New(),
	}
}

func (c *Configuration) load(dir string) bool {
	c.AddConfigPath(dir)
	c.SetConfigName("settings")
	c.SetConfigType("yaml")
	readErr := c.ReadInConfig()
	return readErr == nil
}

// LoadFile 加载指定的配置文件
func (c *Configuration) LoadFile(file string) error {
	c.SetConfigFile(file)
	ext := strings.TrimPrefix(filepath.Ext(file), ".")
	if ext == "" {
		ext = "yaml"
	}
	c.SetConfigType(ext)
	if err := c.ReadInConfig(); err != nil {
		return fmt.Errorf("read config file %s error: %w", file, err)
	}
	return nil
}

// LoadSettingsFile 使用指定的配置文件替换全局配置,并重新初始化日志
func LoadSettingsFile(file string) error {
	newResponderConfig()
	if err := Config.LoadFile(file); err != nil {
		return err
	}
	initLog()
	return nil
}

// ResponseConfigFromSettings 从配置的response段构造响应配置
// 缺失的字段使用默认值
func ResponseConfigFromSettings(c *Configuration) (*ResponseConfig, error) {
	rs := &responseSettings{}
	raw := c.Get("response")
	if raw != nil {
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           rs,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(raw); err != nil {
			return nil, &ConfigurationError{Field: "response", Value: raw, Err: err}
		}
	}
	var code interface{} = DefaultCode
	if rs.Code != nil {
		code = rs.Code
	}
	status := DefaultStatus
	if rs.Status != nil {
		status = *rs.Status
	}
	return NewResponseConfig(code, status, rs.Headers, rs.Body)
}

func initSettings() {
	newResponderConfig()
	wd, _ := os.Getwd()
	var abPath string

	_, filename, _, ok := runtime.Caller(0)
	if ok {
		abPath = path.Dir(filename)

	}
	Config.load(wd)
	Config.load(abPath)

}
