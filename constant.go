// Copyright (c) 2023 wetrycode
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package responder

// StatusType 当前设备的状态
type StatusType uint

const (
	// ON_START 响应循环正在运行
	ON_START StatusType = iota
	// ON_STOP 响应循环已经退出或者尚未启动
	ON_STOP
)

// GetTypeName 获取设备状态的字符串形式
func (p StatusType) GetTypeName() string {
	switch p {
	case ON_START:
		return "running"
	case ON_STOP:
		return "stop"
	}
	return "unknown"
}
