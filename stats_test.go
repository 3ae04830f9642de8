package responder

import (
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"
)

func TestIncrNewMetric(t *testing.T) {
	convey.Convey("Test a new metric incr", t, func() {
		d := NewDefaultStatistic()
		d.Incr("403")
		d.IncrCode(403)
		convey.So(d.Get("403"), convey.ShouldEqual, 2)
		convey.So(d.Get("unknown"), convey.ShouldEqual, 0)
		stats := d.GetAllStats()
		convey.So(stats, convey.ShouldContainKey, RequestStats)
		convey.So(stats, convey.ShouldContainKey, TemplateErrorStats)
		convey.So(stats["403"], convey.ShouldEqual, 2)
	})
	convey.Convey("Test concurrent incr", t, func() {
		d := NewDefaultStatistic()
		wg := &sync.WaitGroup{}
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					d.Incr(RequestStats)
				}
			}()
		}
		wg.Wait()
		convey.So(d.Get(RequestStats), convey.ShouldEqual, 3200)
	})
}

func TestRuntimeStatus(t *testing.T) {
	convey.Convey("Test runtime status", t, func() {
		r := NewRuntimeStatus()
		convey.So(r.GetStatusOn(), convey.ShouldEqual, ON_STOP)
		convey.So(r.GetDuration(), convey.ShouldEqual, 0)
		r.SetStatus(ON_START)
		convey.So(r.GetStatusOn().GetTypeName(), convey.ShouldEqual, "running")
		convey.So(r.GetStartAt(), convey.ShouldBeGreaterThan, 0)
		r.mutex.Lock()
		r.StartAt = time.Now().Add(-90 * time.Second).Unix()
		r.mutex.Unlock()
		r.SetStatus(ON_STOP)
		convey.So(r.GetStatusOn().GetTypeName(), convey.ShouldEqual, "stop")
		convey.So(r.GetStopAt(), convey.ShouldBeGreaterThan, 0)
		convey.So(r.GetDuration(), convey.ShouldBeBetweenOrEqual, 89, 91)
		convey.So(StatusType(9).GetTypeName(), convey.ShouldEqual, "unknown")
	})
}
