package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/starhopp3r/sci-cam-edge/internal/scicam"
	"github.com/starhopp3r/sci-cam-edge/pkg/buffer"
	"github.com/starhopp3r/sci-cam-edge/pkg/bus"
	"github.com/starhopp3r/sci-cam-edge/pkg/imaging"
	"github.com/starhopp3r/sci-cam-edge/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.InitLogger(true); err != nil {
		panic(err)
	}
	m.Run()
}

func jpegFrame(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x * 3), G: uint8(y * 3), B: 64, A: 255})
		}
	}
	data, err := imaging.EncodeJPEG(img, imaging.MaxQuality)
	assert.NoError(t, err)
	return data
}

func TestPublishJobProcess(t *testing.T) {
	mock := bus.NewMockClient()
	pub, err := scicam.NewPublisher(mock)
	assert.NoError(t, err)

	released := false
	job := &publishJob{
		cameraID: "sci_cam",
		frame: buffer.Frame{
			Data:            jpegFrame(t, 640, 480),
			Width:           640,
			Height:          480,
			TimestampMillis: 1500,
			Release:         func() { released = true },
		},
		publisher: pub,
	}

	assert.NoError(t, job.Process(context.Background()))
	assert.True(t, released, "frame buffer must be released after processing")

	assert.Len(t, mock.PublishedTo(bus.ImageTopic()), 1)
	assert.Len(t, mock.PublishedTo(bus.InfoTopic()), 1)
}

func TestPublishJobProcessBusDown(t *testing.T) {
	mock := bus.NewMockClient()
	pub, err := scicam.NewPublisher(mock)
	assert.NoError(t, err)
	mock.SetConnected(false)

	job := &publishJob{
		cameraID: "sci_cam",
		frame: buffer.Frame{
			Data:            jpegFrame(t, 640, 480),
			Width:           640,
			Height:          480,
			TimestampMillis: 1000,
		},
		publisher: pub,
	}

	err = job.Process(context.Background())
	assert.ErrorIs(t, err, scicam.ErrNotConnected)
	assert.Empty(t, mock.Published())
}

func TestPublishJobGetID(t *testing.T) {
	job := &publishJob{
		cameraID: "sci_cam",
		frame:    buffer.Frame{TimestampMillis: 1500},
	}
	assert.Equal(t, "sci_cam_1500", job.GetID())
}

func TestMonitorTransitions(t *testing.T) {
	m := NewMonitor("sci_cam", 3)

	var downs, ups int
	m.SetCallbacks(
		func(string) { downs++ },
		func(string) { ups++ },
	)

	m.RecordSuccess()
	assert.True(t, m.Status().IsActive)
	assert.Equal(t, 1, ups)

	// Two failures are not enough to mark the camera down.
	m.RecordFailure(errors.New("timeout"))
	m.RecordFailure(errors.New("timeout"))
	assert.True(t, m.Status().IsActive)
	assert.Equal(t, 0, downs)

	m.RecordFailure(errors.New("timeout"))
	assert.False(t, m.Status().IsActive)
	assert.Equal(t, 1, downs)
	assert.Equal(t, 3, m.Status().ConsecutiveFailures)

	// Recovery fires the up callback again.
	m.RecordSuccess()
	assert.True(t, m.Status().IsActive)
	assert.Equal(t, 2, ups)
	assert.Equal(t, 0, m.Status().ConsecutiveFailures)
}

func TestFramePoolReuse(t *testing.T) {
	buf := getFrameBuffer(1024)
	assert.Len(t, buf, 1024)

	releaseFrameBuffer(buf)

	buf2 := getFrameBuffer(512)
	assert.Len(t, buf2, 512)

	assert.Nil(t, getFrameBuffer(0))
}
