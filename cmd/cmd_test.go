package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/smartystreets/goconvey/convey"
	"github.com/spf13/pflag"
	"github.com/wetrycode/responder"
	"github.com/wetrycode/responder/transport"
)

var serveYaml = []byte(`
response:
  code: 404
  status: Not Found
  headers:
    - name: X-Missing
      value: "%(PATH)s"
  body: "no %(MATCH)s here"
transport:
  send_ident: device-1
  recv_type: pubsub
redis:
  timeout: 3s
admin:
  port: 9000
metric:
  influxdb:
    server: http://127.0.0.1:8086
    interval: 5s
device:
  error_responses: true
`)

func newTestFlags(t *testing.T, args ...string) (*pflag.FlagSet, *serveOptions, []string) {
	opts := &serveOptions{}
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	bindServeFlags(flags, opts)
	if err := flags.Parse(normalizeHeaderArgs(args)); err != nil {
		t.Fatalf("parse flags error %s", err.Error())
	}
	return flags, opts, flags.Args()
}

func newTestConfiguration(t *testing.T, content []byte) *responder.Configuration {
	c := responder.NewConfiguration()
	if content == nil {
		return c
	}
	c.SetConfigType("yaml")
	if err := c.ReadConfig(bytes.NewReader(content)); err != nil {
		t.Fatalf("read config error %s", err.Error())
	}
	return c
}

func TestNormalizeHeaderArgs(t *testing.T) {
	convey.Convey("header-NAME=VALUE is rewritten in order", t, func() {
		args := normalizeHeaderArgs([]string{
			"serve", "--header-Location=http://example.com%(PATH)s", "--code", "302",
			"--header", "X-A=1", "--header-X-B=", "--", "--header-X-C=3",
		})
		convey.So(args, convey.ShouldResemble, []string{
			"serve", "--header", "Location=http://example.com%(PATH)s", "--code", "302",
			"--header", "X-A=1", "--header", "X-B=", "--", "--header-X-C=3",
		})
	})
	convey.Convey("bare prefix is kept", t, func() {
		convey.So(normalizeHeaderArgs([]string{"--header-"}), convey.ShouldResemble, []string{"--header-"})
	})
}

func TestParseHeaderArg(t *testing.T) {
	convey.Convey("parse NAME=VALUE", t, func() {
		header, err := parseHeaderArg("X-Query=a=b")
		convey.So(err, convey.ShouldBeNil)
		convey.So(header, convey.ShouldResemble, responder.HeaderTemplate{Name: "X-Query", Value: "a=b"})

		header, err = parseHeaderArg("X-Empty=")
		convey.So(err, convey.ShouldBeNil)
		convey.So(header.Value, convey.ShouldEqual, "")
	})
	convey.Convey("reject header without name or value separator", t, func() {
		for _, arg := range []string{"=v", "novalue", " =v"} {
			_, err := parseHeaderArg(arg)
			convey.So(errors.Is(err, responder.ErrConfiguration), convey.ShouldBeTrue)
		}
	})
}

func TestBuildServePlanFromFlags(t *testing.T) {
	convey.Convey("flags only", t, func() {
		flags, opts, args := newTestFlags(t,
			"--code", "302", "--status", "Moved Permanently",
			"--header-Location=http://www.example.com%(PATH)s", "--header", "Cache-Control=no-cache",
			"--send-type", "pubsub", "--recv-ident", "consumer-1",
			"redis://127.0.0.1:6379/0#out")
		plan, err := buildServePlan(flags, opts, args, newTestConfiguration(t, nil))
		convey.So(err, convey.ShouldBeNil)
		convey.So(plan.response.Code(), convey.ShouldEqual, 302)
		convey.So(plan.response.Status(), convey.ShouldEqual, "Moved Permanently")
		convey.So(plan.response.Headers(), convey.ShouldResemble, []responder.HeaderTemplate{
			{Name: "Location", Value: "http://www.example.com%(PATH)s"},
			{Name: "Cache-Control", Value: "no-cache"},
		})
		convey.So(plan.response.Body(), convey.ShouldEqual, "")
		convey.So(plan.spec.SendSpec, convey.ShouldEqual, "redis://127.0.0.1:6379/0#out")
		convey.So(plan.spec.RecvSpec, convey.ShouldEqual, "")
		convey.So(plan.spec.SendType, convey.ShouldEqual, "pubsub")
		convey.So(plan.spec.RecvIdent, convey.ShouldEqual, "consumer-1")
		convey.So(plan.admin.Port, convey.ShouldEqual, 0)
		convey.So(plan.influxdb.Server, convey.ShouldEqual, "")
		convey.So(plan.errorResponses, convey.ShouldBeFalse)
		convey.So(plan.blockTimeout, convey.ShouldEqual, time.Second)
		convey.So(recvSpecOf(plan.spec), convey.ShouldEqual, plan.spec.SendSpec)
	})
	convey.Convey("defaults without flags or settings", t, func() {
		flags, opts, args := newTestFlags(t, "redis://127.0.0.1:6379", "redis://127.0.0.1:6380")
		plan, err := buildServePlan(flags, opts, args, newTestConfiguration(t, nil))
		convey.So(err, convey.ShouldBeNil)
		convey.So(plan.response.Code(), convey.ShouldEqual, responder.DefaultCode)
		convey.So(plan.response.Status(), convey.ShouldEqual, responder.DefaultStatus)
		convey.So(len(plan.response.Headers()), convey.ShouldEqual, 0)
		convey.So(plan.spec.RecvSpec, convey.ShouldEqual, "redis://127.0.0.1:6380")
		convey.So(plan.redis.RdbConnectionsSize, convey.ShouldEqual, transport.NewRedisConfig().RdbConnectionsSize)
	})
}

func TestBuildServePlanFromSettings(t *testing.T) {
	convey.Convey("flags override settings", t, func() {
		flags, opts, args := newTestFlags(t, "--status", "Gone", "--admin-port", "9100", "redis://127.0.0.1:6379")
		plan, err := buildServePlan(flags, opts, args, newTestConfiguration(t, serveYaml))
		convey.So(err, convey.ShouldBeNil)
		convey.So(plan.response.Code(), convey.ShouldEqual, 404)
		convey.So(plan.response.Status(), convey.ShouldEqual, "Gone")
		convey.So(plan.response.Headers(), convey.ShouldResemble, []responder.HeaderTemplate{{Name: "X-Missing", Value: "%(PATH)s"}})
		convey.So(plan.response.Body(), convey.ShouldEqual, "no %(MATCH)s here")
		convey.So(plan.spec.SendIdent, convey.ShouldEqual, "device-1")
		convey.So(plan.spec.RecvType, convey.ShouldEqual, "pubsub")
		convey.So(plan.redis.RdbTimeout, convey.ShouldEqual, 3*time.Second)
		convey.So(plan.redis.RdbConnectionsSize, convey.ShouldEqual, 8)
		convey.So(plan.admin.Host, convey.ShouldEqual, "0.0.0.0")
		convey.So(plan.admin.Port, convey.ShouldEqual, 9100)
		convey.So(plan.influxdb.Server, convey.ShouldEqual, "http://127.0.0.1:8086")
		convey.So(plan.influxdb.Interval, convey.ShouldEqual, 5*time.Second)
		convey.So(plan.errorResponses, convey.ShouldBeTrue)
	})
	convey.Convey("header flags replace settings headers", t, func() {
		flags, opts, args := newTestFlags(t, "--header", "X-New=1", "--error-responses=false", "redis://127.0.0.1:6379")
		plan, err := buildServePlan(flags, opts, args, newTestConfiguration(t, serveYaml))
		convey.So(err, convey.ShouldBeNil)
		convey.So(plan.response.Headers(), convey.ShouldResemble, []responder.HeaderTemplate{{Name: "X-New", Value: "1"}})
		convey.So(plan.errorResponses, convey.ShouldBeFalse)
	})
}

func TestBuildServePlanErrors(t *testing.T) {
	convey.Convey("invalid code", t, func() {
		for _, code := range []string{"abc", "0", "-1", "0x12C", "302.5"} {
			flags, opts, args := newTestFlags(t, "--code", code, "redis://127.0.0.1:6379")
			_, err := buildServePlan(flags, opts, args, newTestConfiguration(t, nil))
			convey.So(errors.Is(err, responder.ErrConfiguration), convey.ShouldBeTrue)
		}
	})
	convey.Convey("leading zero code is decimal", t, func() {
		flags, opts, args := newTestFlags(t, "--code", "0302", "redis://127.0.0.1:6379")
		plan, err := buildServePlan(flags, opts, args, newTestConfiguration(t, nil))
		convey.So(err, convey.ShouldBeNil)
		convey.So(plan.response.Code(), convey.ShouldEqual, 302)
	})
	convey.Convey("invalid header", t, func() {
		flags, opts, args := newTestFlags(t, "--header", "broken", "redis://127.0.0.1:6379")
		_, err := buildServePlan(flags, opts, args, newTestConfiguration(t, nil))
		convey.So(errors.Is(err, responder.ErrConfiguration), convey.ShouldBeTrue)
	})
	convey.Convey("positional argument count", t, func() {
		flags, opts, _ := newTestFlags(t)
		_, err := buildServePlan(flags, opts, nil, newTestConfiguration(t, nil))
		convey.So(errors.Is(err, responder.ErrConfiguration), convey.ShouldBeTrue)
		_, err = buildServePlan(flags, opts, []string{"a", "b", "c"}, newTestConfiguration(t, nil))
		convey.So(errors.Is(err, responder.ErrConfiguration), convey.ShouldBeTrue)

		cmd := newServeCmd()
		convey.So(cmd.Args(cmd, []string{}), convey.ShouldNotBeNil)
		convey.So(cmd.Args(cmd, []string{"a"}), convey.ShouldBeNil)
		convey.So(cmd.Args(cmd, []string{"a", "b"}), convey.ShouldBeNil)
		convey.So(cmd.Args(cmd, []string{"a", "b", "c"}), convey.ShouldNotBeNil)
	})
	convey.Convey("serve subcommand is registered", t, func() {
		serveCmd, _, err := RootCmd.Find([]string{"serve"})
		convey.So(err, convey.ShouldBeNil)
		convey.So(serveCmd.Name(), convey.ShouldEqual, "serve")
		convey.So(serveCmd.Flags().Lookup("header"), convey.ShouldNotBeNil)
	})
}

func TestServe(t *testing.T) {
	convey.Convey("serve answers requests over redis", t, func() {
		mr := miniredis.RunT(t)
		flags, opts, args := newTestFlags(t,
			"--code", "302", "--status", "Found",
			"--header-Location=http://www.example.com%(PATH)s", "--send-ident", "device-1",
			"redis://"+mr.Addr()+"/0#out", "redis://"+mr.Addr()+"/0#in")
		plan, err := buildServePlan(flags, opts, args, newTestConfiguration(t, nil))
		convey.So(err, convey.ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		done := make(chan error, 1)
		go func() {
			done <- serve(ctx, plan)
		}()
		_, err = mr.Lpush("in", `{"sender":"upstream","conn_id":"7","path":"/docs","headers":{"PATTERN":"/(.*)","PATH":"/docs"}}`)
		convey.So(err, convey.ShouldBeNil)

		var replies []string
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if mr.Exists("out") {
				replies, _ = mr.List("out")
				if len(replies) > 0 {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
		}
		cancel()
		convey.So(<-done, convey.ShouldBeNil)
		convey.So(len(replies), convey.ShouldEqual, 1)

		envelope := struct {
			Ident   string   `json:"ident"`
			Sender  string   `json:"sender"`
			ConnIDs []string `json:"conn_ids"`
			Data    []byte   `json:"data"`
		}{}
		convey.So(json.Unmarshal([]byte(replies[0]), &envelope), convey.ShouldBeNil)
		convey.So(envelope.Ident, convey.ShouldEqual, "device-1")
		convey.So(envelope.Sender, convey.ShouldEqual, "upstream")
		convey.So(envelope.ConnIDs, convey.ShouldResemble, []string{"7"})
		convey.So(string(envelope.Data), convey.ShouldEqual,
			"HTTP/1.1 302 Found\r\nLocation: http://www.example.com/docs\r\nContent-Length: 0\r\n\r\n")
	})
	convey.Convey("serve fails on unreachable redis", t, func() {
		flags, opts, args := newTestFlags(t, "redis://127.0.0.1:1/0")
		plan, err := buildServePlan(flags, opts, args, newTestConfiguration(t, nil))
		convey.So(err, convey.ShouldBeNil)
		plan.redis.ConnectRetry = 0
		plan.redis.RdbMaxRetry = -1
		convey.So(serve(context.Background(), plan), convey.ShouldNotBeNil)
	})
}
