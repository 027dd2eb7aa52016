package buffer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFrameBuffer(t *testing.T) {
	fb := NewFrameBuffer(10)

	assert.NotNil(t, fb)
	assert.Equal(t, 10, fb.Capacity())
	assert.Equal(t, 0, fb.Size())
}

func TestFrameBufferPushPop(t *testing.T) {
	fb := NewFrameBuffer(5)

	frame := Frame{
		Data:            []byte("jpeg bytes"),
		Width:           640,
		Height:          480,
		TimestampMillis: 1500,
	}

	assert.NoError(t, fb.Push(frame))
	assert.Equal(t, 1, fb.Size())

	popped, ok := fb.Pop()
	assert.True(t, ok)
	assert.Equal(t, []byte("jpeg bytes"), popped.Data)
	assert.Equal(t, 640, popped.Width)
	assert.Equal(t, int64(1500), popped.TimestampMillis)
}

func TestFrameBufferPopEmpty(t *testing.T) {
	fb := NewFrameBuffer(5)

	_, ok := fb.Pop()
	assert.False(t, ok)
}

func TestFrameBufferDropsOldestWhenFull(t *testing.T) {
	fb := NewFrameBuffer(2)

	released := false
	assert.NoError(t, fb.Push(Frame{TimestampMillis: 1, Release: func() { released = true }}))
	assert.NoError(t, fb.Push(Frame{TimestampMillis: 2}))

	err := fb.Push(Frame{TimestampMillis: 3})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "buffer full")
	assert.True(t, released, "evicted frame must be released")

	// The oldest frame was evicted; the two newest remain in order.
	first, ok := fb.Pop()
	assert.True(t, ok)
	assert.Equal(t, int64(2), first.TimestampMillis)

	second, ok := fb.Pop()
	assert.True(t, ok)
	assert.Equal(t, int64(3), second.TimestampMillis)

	stats := fb.Stats()
	assert.Equal(t, int64(1), stats.DroppedFrames)
	assert.Equal(t, int64(3), stats.TotalFrames)
}

func TestFrameBufferStats(t *testing.T) {
	fb := NewFrameBuffer(3)

	for i := 0; i < 5; i++ {
		_ = fb.Push(Frame{TimestampMillis: int64(i)})
	}

	stats := fb.Stats()
	assert.Equal(t, int64(5), stats.TotalFrames)
	assert.Equal(t, int64(2), stats.DroppedFrames)
	assert.Equal(t, 3, stats.Size)
	assert.InDelta(t, 40.0, stats.DropRate, 0.01)
}

func TestFrameBufferPopBlockingCancel(t *testing.T) {
	fb := NewFrameBuffer(5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := fb.PopBlocking(ctx)
	assert.False(t, ok)
}

func TestFrameBufferClose(t *testing.T) {
	fb := NewFrameBuffer(5)
	_ = fb.Push(Frame{TimestampMillis: 1})

	fb.Close()

	_, ok := fb.PopBlocking(context.Background())
	assert.True(t, ok)

	_, ok = fb.PopBlocking(context.Background())
	assert.False(t, ok)
}
