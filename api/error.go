/**
 * Copyright (c) 2023 wetrycode
 *
 * This software is released under the MIT License.
 * https://opensource.org/licenses/MIT
 */

package api

const (
	SUCCESS        = 200
	ERROR          = 500
	INVALID_PARAMS = 400
	NOT_FOUND      = 404

	MALFORMED_REQUEST   = 1001
	TEMPLATE_SUBSTITUTE = 1002
)

var MsgFlags = map[int]string{
	SUCCESS:             "ok",
	ERROR:               "fail",
	INVALID_PARAMS:      "bad request",
	NOT_FOUND:           "resource not found",
	MALFORMED_REQUEST:   "malformed request",
	TEMPLATE_SUBSTITUTE: "template substitution error",
}

func GetMsg(code int) string {
	msg, ok := MsgFlags[code]
	if ok {
		return msg
	}

	return MsgFlags[ERROR]
}
