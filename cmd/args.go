package cmd

import (
	"errors"
	"strings"

	"github.com/wetrycode/responder"
)

const headerFlagPrefix = "--header-"

// normalizeHeaderArgs 把 --header-NAME=VALUE 改写为 --header NAME=VALUE
// 其它参数以及 -- 之后的参数保持不变
func normalizeHeaderArgs(args []string) []string {
	ret := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			ret = append(ret, args[i:]...)
			break
		}
		if strings.HasPrefix(arg, headerFlagPrefix) && len(arg) > len(headerFlagPrefix) {
			ret = append(ret, "--header", strings.TrimPrefix(arg, headerFlagPrefix))
			continue
		}
		ret = append(ret, arg)
	}
	return ret
}

// parseHeaderArg 解析 NAME=VALUE,VALUE可以为空,NAME不能为空
func parseHeaderArg(arg string) (responder.HeaderTemplate, error) {
	name, value, ok := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return responder.HeaderTemplate{}, &responder.ConfigurationError{Field: "header", Value: arg, Err: errors.New("expected NAME=VALUE")}
	}
	return responder.HeaderTemplate{Name: name, Value: value}, nil
}
