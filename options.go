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

type DeviceOption func(d *Device)

func DeviceWithStatistic(statistic StatisticInterface) DeviceOption {
	return func(d *Device) {
		d.statistic = statistic

	}
}

// DeviceWithEventHooks 追加生命周期事件处理
func DeviceWithEventHooks(hooks ...EventHooksInterface) DeviceOption {
	return func(d *Device) {
		d.hooks = append(d.hooks, hooks...)

	}
}

// DeviceWithErrorResponses 请求处理失败时回复400/500通用响应而不是丢弃
func DeviceWithErrorResponses(enable bool) DeviceOption {
	return func(d *Device) {
		d.errorResponses = enable

	}
}
