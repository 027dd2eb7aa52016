package buffer

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Frame is one captured frame waiting to be processed. Release, when set,
// returns the underlying byte buffer to its pool.
type Frame struct {
	Data            []byte
	Width           int
	Height          int
	TimestampMillis int64
	Release         func()
}

// FrameBuffer is a bounded queue between the capture loop and the publish
// workers. When full, the oldest frame is dropped to make room: the newest
// frame from the camera is always the most valuable one.
type FrameBuffer struct {
	buffer        chan Frame
	capacity      int
	droppedFrames int64
	totalFrames   int64
}

func NewFrameBuffer(capacity int) *FrameBuffer {
	return &FrameBuffer{
		buffer:   make(chan Frame, capacity),
		capacity: capacity,
	}
}

// Push enqueues a frame, evicting the oldest one when the buffer is full.
// The returned error reports the eviction; the new frame is always kept.
func (fb *FrameBuffer) Push(frame Frame) error {
	atomic.AddInt64(&fb.totalFrames, 1)

	select {
	case fb.buffer <- frame:
		return nil
	default:
		select {
		case dropped := <-fb.buffer:
			if dropped.Release != nil {
				dropped.Release()
			}
		default:
		}
		fb.buffer <- frame
		atomic.AddInt64(&fb.droppedFrames, 1)
		return fmt.Errorf("buffer full: oldest frame replaced")
	}
}

func (fb *FrameBuffer) Pop() (Frame, bool) {
	select {
	case frame := <-fb.buffer:
		return frame, true
	default:
		return Frame{}, false
	}
}

func (fb *FrameBuffer) PopBlocking(ctx context.Context) (Frame, bool) {
	select {
	case <-ctx.Done():
		return Frame{}, false
	case frame, ok := <-fb.buffer:
		return frame, ok
	}
}

func (fb *FrameBuffer) Size() int {
	return len(fb.buffer)
}

func (fb *FrameBuffer) Capacity() int {
	return fb.capacity
}

func (fb *FrameBuffer) Stats() BufferStats {
	dropped := atomic.LoadInt64(&fb.droppedFrames)
	total := atomic.LoadInt64(&fb.totalFrames)

	dropRate := float64(0)
	if total > 0 {
		dropRate = float64(dropped) / float64(total) * 100
	}

	return BufferStats{
		Size:          fb.Size(),
		Capacity:      fb.capacity,
		DroppedFrames: dropped,
		TotalFrames:   total,
		DropRate:      dropRate,
	}
}

func (fb *FrameBuffer) Close() {
	close(fb.buffer)
}

type BufferStats struct {
	Size          int     `json:"size"`
	Capacity      int     `json:"capacity"`
	DroppedFrames int64   `json:"dropped_frames"`
	TotalFrames   int64   `json:"total_frames"`
	DropRate      float64 `json:"drop_rate"`
}

func (bs BufferStats) String() string {
	return fmt.Sprintf("Buffer: %d/%d, Total: %d, Dropped: %d (%.2f%%)",
		bs.Size, bs.Capacity, bs.TotalFrames, bs.DroppedFrames, bs.DropRate)
}
