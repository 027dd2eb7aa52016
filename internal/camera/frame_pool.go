package camera

import "sync"

// Sci cam stills at full sensor resolution re-encode to a few MB of JPEG.
const maxPooledFrameBytes = 8 * 1024 * 1024

var framePool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 256*1024)
	},
}

func getFrameBuffer(size int) []byte {
	if size <= 0 {
		return nil
	}

	if size > maxPooledFrameBytes {
		return make([]byte, size)
	}

	buf := framePool.Get().([]byte)
	if cap(buf) < size {
		buf = make([]byte, size)
	}
	return buf[:size]
}

func releaseFrameBuffer(buf []byte) {
	if buf == nil {
		return
	}

	if cap(buf) > maxPooledFrameBytes {
		return
	}

	framePool.Put(buf[:0])
}
