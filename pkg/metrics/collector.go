package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ImagesPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sci_cam_images_published_total",
			Help: "Total image/info message pairs published to the bus",
		},
	)

	FramesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sci_cam_frames_dropped_total",
			Help: "Total frames dropped before reaching the bus, by reason",
		},
		[]string{"reason"},
	)

	FramesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sci_cam_frames_skipped_total",
			Help: "Frames skipped because publishing is disabled",
		},
	)

	CaptureLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sci_cam_capture_latency_seconds",
			Help:    "Latency of grabbing one frame from the camera",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	ProcessLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sci_cam_process_latency_seconds",
			Help:    "Latency of decode/resize/grayscale/encode for one frame",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	PublishLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sci_cam_publish_latency_seconds",
			Help:    "Latency of the bus publish call",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"topic"},
	)

	ImageSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sci_cam_image_size_bytes",
			Help:    "Size of re-encoded JPEG payloads",
			Buckets: []float64{1024, 5120, 10240, 51200, 102400, 512000, 1048576, 5242880},
		},
	)

	BusConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sci_cam_bus_connected",
			Help: "Bus connection status (0=disconnected, 1=connected)",
		},
	)

	CameraConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sci_cam_camera_connected",
			Help: "Camera capture status (0=down, 1=up)",
		},
	)

	WorkerPoolQueueSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sci_cam_worker_pool_queue_size",
			Help: "Current worker pool queue depth",
		},
		[]string{"pool_name"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sci_cam_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
		},
		[]string{"breaker_name"},
	)

	StorageOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sci_cam_storage_operations_total",
			Help: "Total frame cache operations",
		},
		[]string{"operation", "status"},
	)
)
