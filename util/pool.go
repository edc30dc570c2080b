package util

import "sync"

// ReadBufSize is the chunk size for console reads.  A 9600 baud link
// moves under 1 KiB per second, so reads rarely fill it.
const ReadBufSize = 4 * 1024

// BufPool provides reusable byte buffers for console reads.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, ReadBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer from the pool.  Callers must return it
// with [PutBuf] when finished.
func GetBuf() *[]byte {
	return BufPool.Get().(*[]byte)
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
