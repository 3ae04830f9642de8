/**
 * Copyright (c) 2023 wetrycode
 *
 * This software is released under the MIT License.
 * https://opensource.org/licenses/MIT
 */

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/wetrycode/responder"
)

var apiLog *logrus.Entry = responder.GetLogger("api") // apiLog admin api logger

type ResponderAPI struct {
	G *gin.Engine
	D *responder.Device
}

type statusResp struct {
	Status   string            `json:"status"`
	DeviceId string            `json:"device_id"`
	StartAt  string            `json:"start_at"`
	Duration float64           `json:"duration"`
	Metrics  map[string]uint64 `json:"metrics"`
}

type configResp struct {
	Code    int                        `json:"code"`
	Status  string                     `json:"status"`
	Headers []responder.HeaderTemplate `json:"headers"`
	Body    string                     `json:"body"`
}

type previewRequest struct {
	Headers map[string]string `json:"headers" binding:"required"`
}

type previewResp struct {
	Response string `json:"response"`
}

func (t *ResponderAPI) status(ctx *gin.Context) {
	runtimeStatus := t.D.GetRuntimeStatus()
	ip, _ := responder.GetMachineIP()
	startAt := ""
	if runtimeStatus.GetStartAt() != 0 {
		startAt = time.Unix(runtimeStatus.GetStartAt(), 0).Format("2006-01-02 15:04:05")
	}
	rsp := statusResp{
		Status:   runtimeStatus.GetStatusOn().GetTypeName(),
		DeviceId: fmt.Sprintf("%s:%s", ip, responder.GetDeviceID()),
		StartAt:  startAt,
		Duration: runtimeStatus.GetDuration(),
		Metrics:  t.D.GetStatistic().GetAllStats(),
	}
	appG := Gin{Ctx: ctx}

	appG.Response(http.StatusOK, SUCCESS, rsp)

}

func (t *ResponderAPI) config(ctx *gin.Context) {
	config := t.D.GetConfig()
	appG := Gin{Ctx: ctx}
	appG.Response(http.StatusOK, SUCCESS, configResp{
		Code:    config.Code(),
		Status:  config.Status(),
		Headers: config.Headers(),
		Body:    config.Body(),
	})
}

// preview 使用给定的请求元数据渲染响应,不经过传输层
func (t *ResponderAPI) preview(ctx *gin.Context) {
	var r previewRequest
	appG := Gin{Ctx: ctx}
	err := ctx.ShouldBindJSON(&r)
	if err != nil {
		apiLog.Errorf("preview params error:%s", err.Error())
		appG.Response(http.StatusBadRequest, INVALID_PARAMS, nil)
		return
	}
	data, err := responder.Format(t.D.GetConfig(), r.Headers)
	if err != nil {
		code := ERROR
		if errors.Is(err, responder.ErrMalformedRequest) {
			code = MALFORMED_REQUEST
		} else if errors.Is(err, responder.ErrTemplateSubstitution) {
			code = TEMPLATE_SUBSTITUTE
		}
		appG.Response(http.StatusUnprocessableEntity, code, err.Error())
		return
	}
	appG.Response(http.StatusOK, SUCCESS, previewResp{Response: string(data)})
}

func NewAPI(device *responder.Device) *ResponderAPI {
	API := &ResponderAPI{
		D: device,
	}
	g := SetUp()

	v1Router := g.Group("/api/v1")
	v1Router.GET("/status", API.status)
	v1Router.GET("/config", API.config)
	v1Router.POST("/preview", API.preview)
	API.G = g
	return API

}
