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

package transport

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/wetrycode/responder"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// responseEnvelope 发送到上游的一条响应
type responseEnvelope struct {
	// Ident 发送端标识
	Ident   string   `json:"ident"`
	Sender  string   `json:"sender"`
	ConnIDs []string `json:"conn_ids"`
	Data    []byte   `json:"data"`
}

func decodeRequest(payload []byte) (*responder.Request, error) {
	req := &responder.Request{}
	if err := json.Unmarshal(payload, req); err != nil {
		return nil, err
	}
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	return req, nil
}

func encodeResponse(ident string, req *responder.Request, data []byte) ([]byte, error) {
	return json.Marshal(&responseEnvelope{
		Ident:   ident,
		Sender:  req.Sender,
		ConnIDs: []string{req.ConnID},
		Data:    data,
	})
}
