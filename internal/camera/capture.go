package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"os/exec"
	"time"

	"github.com/starhopp3r/sci-cam-edge/internal/scicam"
	"github.com/starhopp3r/sci-cam-edge/internal/storage"
	"github.com/starhopp3r/sci-cam-edge/pkg/buffer"
	"github.com/starhopp3r/sci-cam-edge/pkg/circuit"
	"github.com/starhopp3r/sci-cam-edge/pkg/config"
	"github.com/starhopp3r/sci-cam-edge/pkg/logger"
	"github.com/starhopp3r/sci-cam-edge/pkg/memcontrol"
	"github.com/starhopp3r/sci-cam-edge/pkg/metrics"
	"github.com/starhopp3r/sci-cam-edge/pkg/worker"
)

// Capture grabs frames from the science camera at a fixed cadence and feeds
// them to the publisher through the frame buffer and worker pool. Capture
// failures trip the circuit breaker so a dead camera is not hammered.
type Capture struct {
	ctx        context.Context
	config     config.CameraConfig
	interval   time.Duration
	publisher  *scicam.Publisher
	frameCache *storage.FrameCache

	frameBuffer    *buffer.FrameBuffer
	workerPool     *worker.Pool
	circuitBreaker *circuit.Breaker
	memController  *memcontrol.Controller
	monitor        *Monitor
}

func NewCapture(
	ctx context.Context,
	cfg config.CameraConfig,
	interval time.Duration,
	publisher *scicam.Publisher,
	frameCache *storage.FrameCache,
	frameBuffer *buffer.FrameBuffer,
	workerPool *worker.Pool,
	circuitBreaker *circuit.Breaker,
	memController *memcontrol.Controller,
) *Capture {
	return &Capture{
		ctx:            ctx,
		config:         cfg,
		interval:       interval,
		publisher:      publisher,
		frameCache:     frameCache,
		frameBuffer:    frameBuffer,
		workerPool:     workerPool,
		circuitBreaker: circuitBreaker,
		memController:  memController,
		monitor:        NewMonitor(cfg.ID, 3),
	}
}

func (c *Capture) Monitor() *Monitor {
	return c.monitor
}

// Start launches the capture and dispatch loops.
func (c *Capture) Start() {
	go c.captureLoop()
	go c.dispatchLoop()
}

func (c *Capture) captureLoop() {
	logger.Log.Infow("Starting capture loop",
		"camera_id", c.config.ID,
		"url", c.config.URL,
		"interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			logger.Log.Infow("Stopping capture loop", "camera_id", c.config.ID)
			metrics.CameraConnected.Set(0)
			return

		case <-ticker.C:
			if c.memController != nil {
				if c.memController.Paused() {
					metrics.CapturePaused.Inc()
					metrics.FramesDropped.WithLabelValues("memory_pressure").Inc()
					continue
				}
				if delay := c.memController.ThrottleDelay(); delay > 0 {
					metrics.CaptureThrottled.Inc()
					time.Sleep(delay)
				}
			}
			c.captureFrame()
		}
	}
}

func (c *Capture) captureFrame() {
	start := time.Now()

	err := c.circuitBreaker.Call(c.grabFrame)
	if err != nil {
		c.monitor.RecordFailure(err)
		metrics.FramesDropped.WithLabelValues("capture_failed").Inc()
		logger.Log.Errorw("Frame capture failed",
			"camera_id", c.config.ID,
			"error", err)
		return
	}

	c.monitor.RecordSuccess()
	metrics.CaptureLatency.Observe(time.Since(start).Seconds())
}

// grabFrame shells out to ffmpeg for one MJPEG still and pushes it into the
// frame buffer.
func (c *Capture) grabFrame() error {
	var args []string
	if c.config.Transport == "rtsp" {
		args = []string{
			"-rtsp_transport", "tcp",
			"-i", c.config.URL,
			"-frames:v", "1",
			"-f", "image2pipe",
			"-vcodec", "mjpeg",
			"-q:v", "2",
			"-",
		}
	} else {
		args = []string{
			"-f", "v4l2",
			"-i", c.config.URL,
			"-frames:v", "1",
			"-f", "image2pipe",
			"-vcodec", "mjpeg",
			"-q:v", "2",
			"-",
		}
	}

	cmd := exec.CommandContext(c.ctx, "ffmpeg", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg capture: %w (stderr: %s)", err, stderr.String())
	}

	raw := stdout.Bytes()
	if len(raw) == 0 {
		return errors.New("empty frame captured")
	}

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("captured frame is not a valid jpeg: %w", err)
	}

	data := getFrameBuffer(len(raw))
	copy(data, raw)

	frame := buffer.Frame{
		Data:            data,
		Width:           cfg.Width,
		Height:          cfg.Height,
		TimestampMillis: time.Now().UnixMilli(),
		Release:         func() { releaseFrameBuffer(data) },
	}

	if err := c.frameBuffer.Push(frame); err != nil {
		// Oldest frame evicted; the new one is in. Not a capture failure.
		metrics.FramesDropped.WithLabelValues("buffer_full").Inc()
		logger.Log.Debugw("Frame buffer full, oldest frame dropped",
			"camera_id", c.config.ID)
	}

	return nil
}

func (c *Capture) dispatchLoop() {
	for {
		frame, ok := c.frameBuffer.PopBlocking(c.ctx)
		if !ok {
			return
		}

		job := &publishJob{
			cameraID:   c.config.ID,
			frame:      frame,
			publisher:  c.publisher,
			frameCache: c.frameCache,
		}

		if err := c.workerPool.Submit(job); err != nil {
			logger.Log.Warnw("Worker pool full, processing frame inline",
				"camera_id", c.config.ID)
			if err := job.Process(c.ctx); err != nil {
				logger.Log.Errorw("Inline frame publish failed",
					"camera_id", c.config.ID,
					"error", err)
			}
		}
	}
}

// publishJob carries one frame through the publisher and the frame cache.
type publishJob struct {
	cameraID   string
	frame      buffer.Frame
	publisher  *scicam.Publisher
	frameCache *storage.FrameCache
}

func (j *publishJob) GetID() string {
	return fmt.Sprintf("%s_%d", j.cameraID, j.frame.TimestampMillis)
}

func (j *publishJob) Process(ctx context.Context) error {
	defer func() {
		if j.frame.Release != nil {
			j.frame.Release()
		}
	}()

	sample := scicam.Sample{
		Data:            j.frame.Data,
		Width:           j.frame.Width,
		Height:          j.frame.Height,
		TimestampMillis: j.frame.TimestampMillis,
	}

	if err := j.publisher.Publish(ctx, sample); err != nil {
		if errors.Is(err, scicam.ErrNotConnected) {
			logger.Log.Warnw("Bus not connected, frame dropped",
				"camera_id", j.cameraID)
		} else {
			logger.Log.Errorw("Frame publish failed",
				"camera_id", j.cameraID,
				"error", err)
		}
		return err
	}

	if j.frameCache != nil && j.frameCache.Enabled() {
		ts := time.UnixMilli(j.frame.TimestampMillis)
		if _, err := j.frameCache.SaveFrame(ctx, ts, sample.Data); err != nil {
			// Cache writes are best effort; the frame already made the bus.
			logger.Log.Warnw("Frame cache write failed",
				"camera_id", j.cameraID,
				"error", err)
		}
	}

	return nil
}
