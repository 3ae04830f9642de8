package metric

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
	"github.com/wetrycode/responder"
)

type fakeInfluxdb struct {
	mu     sync.Mutex
	writes []string
	server *httptest.Server
}

func newFakeInfluxdb() *fakeInfluxdb {
	f := &fakeInfluxdb{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/write" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body io.Reader = r.Body
		if r.Header.Get("Content-Encoding") == "gzip" {
			gz, err := gzip.NewReader(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			defer gz.Close()
			body = gz
		}
		data, _ := io.ReadAll(body)
		f.mu.Lock()
		f.writes = append(f.writes, string(data))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	return f
}

func (f *fakeInfluxdb) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.writes...)
}

func TestCollect(t *testing.T) {
	convey.Convey("collect writes device counters", t, func() {
		influx := newFakeInfluxdb()
		defer influx.server.Close()
		device := responder.NewDevice(responder.DefaultResponseConfig())
		collector := NewDeviceMetricCollector(influx.server.URL, "token", "bucket", "org", device)
		defer collector.Close()

		stats := device.GetStatistic().GetAllStats()
		convey.So(stats, convey.ShouldContainKey, responder.RequestStats)
		convey.So(stats[responder.RequestStats], convey.ShouldEqual, 0)
		convey.So(collector.Collect(context.Background()), convey.ShouldBeNil)
		convey.So(len(influx.Writes()), convey.ShouldEqual, 0)

		device.GetStatistic().Incr(responder.RequestStats)
		device.GetStatistic().Incr(responder.RequestStats)
		device.GetStatistic().Incr(responder.ResponseStats)
		convey.So(collector.Collect(context.Background()), convey.ShouldBeNil)
		writes := influx.Writes()
		convey.So(len(writes), convey.ShouldEqual, 1)
		convey.So(writes[0], convey.ShouldStartWith, Measurement+",device=")
		convey.So(writes[0], convey.ShouldContainSubstring, "requests=2u")
		convey.So(writes[0], convey.ShouldContainSubstring, "responses=1u")
		convey.So(writes[0], convey.ShouldContainSubstring, "status=stop")
		convey.So(writes[0], convey.ShouldContainSubstring, "malformed=0u")
	})
	convey.Convey("collect reports write errors", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()
		device := responder.NewDevice(responder.DefaultResponseConfig())
		device.GetStatistic().Incr(responder.RequestStats)
		collector := NewDeviceMetricCollector(server.URL, "token", "bucket", "org", device)
		defer collector.Close()
		convey.So(collector.Collect(context.Background()), convey.ShouldNotBeNil)
	})
}

func TestStart(t *testing.T) {
	convey.Convey("start collects until ctx done", t, func() {
		influx := newFakeInfluxdb()
		defer influx.server.Close()
		device := responder.NewDevice(responder.DefaultResponseConfig())
		device.GetStatistic().Incr(responder.RequestStats)
		collector := NewDeviceMetricCollector(influx.server.URL, "token", "bucket", "org", device)
		defer collector.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
		defer cancel()
		convey.So(collector.Start(ctx, 20*time.Millisecond), convey.ShouldBeNil)
		convey.So(len(influx.Writes()), convey.ShouldBeGreaterThanOrEqualTo, 2)
	})
}
