package metric

import (
	"context"
	"fmt"
	"sort"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/wetrycode/responder"
)

var metricLog = responder.GetLogger("metric")

// Measurement 写入influxdb的measurement名称
const Measurement = "responder"

// DeviceMetricCollector 设备统计指标采集器
// 周期性地把设备的计数器写入influxdb
type DeviceMetricCollector struct {
	client        influxdb2.Client
	influxdbWrite api.WriteAPIBlocking
	device        *responder.Device
}

// NewInfluxdb 构建influxdb 客户端
func NewInfluxdb(serverURL string, token string, bucket string, org string) (influxdb2.Client, api.WriteAPIBlocking) {
	client := influxdb2.NewClientWithOptions(serverURL, token, influxdb2.DefaultOptions().SetUseGZip(true).SetMaxRetries(3))
	return client, client.WriteAPIBlocking(org, bucket)
}

// NewDeviceMetricCollector 构建采集器
func NewDeviceMetricCollector(serverURL string, token string, bucket string, org string, device *responder.Device) *DeviceMetricCollector {
	client, write := NewInfluxdb(serverURL, token, bucket, org)
	return &DeviceMetricCollector{
		client:        client,
		influxdbWrite: write,
		device:        device,
	}
}

// Collect 采集一次设备的全部计数器
// 所有计数都为0时不写入
func (c *DeviceMetricCollector) Collect(ctx context.Context) error {
	stats := c.device.GetStatistic().GetAllStats()
	if !hasCounts(stats) {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	p := influxdb2.NewPointWithMeasurement(Measurement).
		AddTag("device", responder.GetDeviceID()).
		AddTag("status", c.device.GetStatusOn().GetTypeName()).
		SetTime(time.Now())
	for _, key := range keys {
		p.AddField(key, stats[key])
	}
	if err := c.influxdbWrite.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("write metric point error: %w", err)
	}
	metricLog.Debugf("采集到%d项数据指标", len(keys))
	return nil
}

// Start 启动搜集器,每隔interval采集一次直到ctx结束
// 退出前再采集一次
func (c *DeviceMetricCollector) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := c.Collect(flushCtx); err != nil {
				metricLog.Errorf("采集数据错误:%s", err.Error())
			}
			return nil
		case <-ticker.C:
			if err := c.Collect(ctx); err != nil {
				metricLog.Errorf("采集数据错误:%s", err.Error())
			}
		}
	}
}

func hasCounts(stats map[string]uint64) bool {
	for _, value := range stats {
		if value > 0 {
			return true
		}
	}
	return false
}

func (c *DeviceMetricCollector) Close() {
	c.client.Close()
}
