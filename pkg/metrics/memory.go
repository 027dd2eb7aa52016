package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MemoryUsagePercent = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sci_cam_memory_usage_percent",
		Help: "Current memory usage as a percentage of the configured limit",
	})

	MemoryAllocMB = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sci_cam_memory_alloc_mb",
		Help: "Heap memory currently allocated, in megabytes",
	})

	MemoryLevel = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sci_cam_memory_level",
		Help: "Memory pressure level (0=Normal, 1=Warning, 2=Critical, 3=Emergency)",
	})

	MemoryGCCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sci_cam_memory_gc_total",
		Help: "Total forced garbage collections",
	})

	CaptureThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sci_cam_capture_throttled_total",
		Help: "Times the capture loop was slowed down due to memory pressure",
	})

	CapturePaused = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sci_cam_capture_paused_total",
		Help: "Times the capture loop was paused due to memory pressure",
	})
)
