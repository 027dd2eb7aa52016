package scicam

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/starhopp3r/sci-cam-edge/pkg/bus"
	"github.com/starhopp3r/sci-cam-edge/pkg/imaging"
	"github.com/starhopp3r/sci-cam-edge/pkg/logger"
	"github.com/starhopp3r/sci-cam-edge/pkg/metrics"
)

const (
	// FrameID labels the sensor frame on both outbound messages.
	FrameID = "sci_camera"

	ImageFormat = "jpeg"

	PublishTypeColor     = "color"
	PublishTypeGrayscale = "grayscale"
)

const (
	// DefaultWidth and DefaultHeight match the size the ground tools expect
	// when nobody has reconfigured the stream.
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ErrNotConnected is returned when a frame arrives while the bus connection
// is down. The frame is dropped; the caller logs and keeps feeding.
var ErrNotConnected = errors.New("bus connection not established")

// Sample is one raw encoded frame handed to Publish. It is owned by the
// calling goroutine for the duration of the call and not retained.
type Sample struct {
	Data            []byte
	Width           int
	Height          int
	TimestampMillis int64
}

// Settings is a snapshot of the mutable publish configuration.
type Settings struct {
	Enabled bool   `json:"enabled"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Type    string `json:"type"`
}

// Publisher transforms raw science camera frames and emits paired
// compressed-image and camera-info messages. A single mutex serializes
// Publish and every setter, so a publish in flight can never observe a
// half-updated configuration.
type Publisher struct {
	mu          sync.Mutex
	enabled     bool
	width       int
	height      int
	publishType string

	client      bus.Client
	imageHandle bus.Handle
	infoHandle  bus.Handle
}

// NewPublisher registers the image and info publishers on the bus and starts
// with publishing enabled at 640x480 color.
func NewPublisher(client bus.Client) (*Publisher, error) {
	imageHandle, err := client.RegisterPublisher(bus.ImageTopic())
	if err != nil {
		return nil, fmt.Errorf("register image publisher: %w", err)
	}

	infoHandle, err := client.RegisterPublisher(bus.InfoTopic())
	if err != nil {
		return nil, fmt.Errorf("register info publisher: %w", err)
	}

	return &Publisher{
		enabled:     true,
		width:       DefaultWidth,
		height:      DefaultHeight,
		publishType: PublishTypeColor,
		client:      client,
		imageHandle: imageHandle,
		infoHandle:  infoHandle,
	}, nil
}

// SetEnabled turns publishing on or off. Always succeeds.
func (p *Publisher) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// SetPublishSize replaces the target resolution. Returns false and leaves the
// configuration unchanged if either dimension is not positive.
func (p *Publisher) SetPublishSize(width, height int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width = width
	p.height = height
	return true
}

// SetPublishType replaces the color mode. Returns false unless the mode is
// exactly "color" or "grayscale".
func (p *Publisher) SetPublishType(publishType string) bool {
	if publishType != PublishTypeColor && publishType != PublishTypeGrayscale {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.publishType = publishType
	return true
}

// GetSettings returns a consistent snapshot of the publish configuration.
func (p *Publisher) GetSettings() Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Settings{
		Enabled: p.enabled,
		Width:   p.width,
		Height:  p.height,
		Type:    p.publishType,
	}
}

// Publish transforms one frame and emits the image and camera-info pair with
// the same timestamp and frame id. Errors are returned, never propagated as
// panics, and are not fatal: a failed frame is simply dropped. The lock is
// released on every path.
func (p *Publisher) Publish(ctx context.Context, sample Sample) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.enabled {
		logger.Log.Debugw("Received frame but publishing is disabled")
		metrics.FramesSkipped.Inc()
		return nil
	}

	if !p.client.Connected() {
		metrics.FramesDropped.WithLabelValues("bus_disconnected").Inc()
		return ErrNotConnected
	}

	start := time.Now()
	payload, err := p.processLocked(sample)
	if err != nil {
		metrics.FramesDropped.WithLabelValues("process_failed").Inc()
		return fmt.Errorf("process frame: %w", err)
	}
	metrics.ProcessLatency.Observe(time.Since(start).Seconds())
	metrics.ImageSizeBytes.Observe(float64(len(payload)))

	secs, nsecs := splitTimestamp(sample.TimestampMillis)

	img := &bus.CompressedImage{
		Format:     ImageFormat,
		StampSecs:  secs,
		StampNsecs: nsecs,
		FrameID:    FrameID,
		Data:       payload,
	}

	pubStart := time.Now()
	if err := p.imageHandle.Publish(ctx, img.Data, img.Headers()); err != nil {
		metrics.FramesDropped.WithLabelValues("publish_failed").Inc()
		return fmt.Errorf("publish image: %w", err)
	}
	metrics.PublishLatency.WithLabelValues(p.imageHandle.Topic()).Observe(time.Since(pubStart).Seconds())

	// The camera info always reports the configured publish resolution, not
	// the source resolution of the frame that was processed.
	info := &bus.CameraInfo{
		StampSecs:  secs,
		StampNsecs: nsecs,
		FrameID:    FrameID,
		Width:      p.width,
		Height:     p.height,
	}
	body, err := info.Marshal()
	if err != nil {
		metrics.FramesDropped.WithLabelValues("publish_failed").Inc()
		return fmt.Errorf("marshal camera info: %w", err)
	}

	pubStart = time.Now()
	if err := p.infoHandle.Publish(ctx, body, info.Headers()); err != nil {
		metrics.FramesDropped.WithLabelValues("publish_failed").Inc()
		return fmt.Errorf("publish camera info: %w", err)
	}
	metrics.PublishLatency.WithLabelValues(p.infoHandle.Topic()).Observe(time.Since(pubStart).Seconds())

	metrics.ImagesPublished.Inc()
	return nil
}

// processLocked runs the decode/resize/grayscale/encode pipeline under the
// settings lock.
func (p *Publisher) processLocked(sample Sample) ([]byte, error) {
	img, err := imaging.Decode(sample.Data)
	if err != nil {
		return nil, err
	}

	if sample.Width != p.width || sample.Height != p.height {
		img = imaging.Resize(img, p.width, p.height)
	}

	if p.publishType == PublishTypeGrayscale {
		img = imaging.Grayscale(img)
	}

	return imaging.EncodeJPEG(img, imaging.MaxQuality)
}

// splitTimestamp converts a capture time in milliseconds into whole seconds
// and remainder nanoseconds.
func splitTimestamp(millis int64) (int32, int32) {
	secs := millis / 1000
	nsecs := (millis % 1000) * 1000000
	return int32(secs), int32(nsecs)
}
