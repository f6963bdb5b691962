package bitio

import "encoding/binary"

const (
	// maxReadBits bounds a single ReadBits call.
	maxReadBits = 24
	// windowBits is the width of the prefetch register.
	windowBits = 64
	// minFilledBits is the minimum ready bits FillBitWindow maintains.
	minFilledBits = 32
)

// LosslessReader is VP8L's bit reader: bits are packed LSB-first in
// little-endian byte order (unlike the arithmetic boolean decoder used for
// lossy VP8), so the reader just keeps a wide sliding window of upcoming
// bits and slides it forward by whole DWORDs when it runs low.
type LosslessReader struct {
	window    uint64 // prefetched bits, low bitPos bits already consumed
	src       []byte
	srcLen    int
	srcPos    int // next unread byte of src
	bitPos    int // read cursor within window
	truncated bool
}

// NewLosslessReader wraps data for bit-at-a-time reading, priming the
// window with its first up-to-8 bytes.
func NewLosslessReader(data []byte) *LosslessReader {
	br := &LosslessReader{src: data, srcLen: len(data)}

	n := min(len(data), 8)
	var window uint64
	for i := 0; i < n; i++ {
		window |= uint64(data[i]) << uint(8*i)
	}
	br.window = window
	br.srcPos = n
	return br
}

// FillBitWindow tops the window back up to minFilledBits ready bits once
// the read cursor has drained past that point. Callers must invoke this
// before PrefetchBits whenever more than minFilledBits might have been
// consumed since the last fill.
func (br *LosslessReader) FillBitWindow() {
	if br.bitPos >= minFilledBits {
		br.refill()
	}
}

// refill slides the window forward. With 4 or more source bytes left it
// loads a whole little-endian uint32 in one shot; otherwise it falls back
// to refillByte, one byte at a time, for the tail of the stream.
func (br *LosslessReader) refill() {
	if br.srcPos+4 <= br.srcLen {
		br.window >>= minFilledBits
		br.bitPos -= minFilledBits
		br.window |= uint64(binary.LittleEndian.Uint32(br.src[br.srcPos:])) << (windowBits - minFilledBits)
		br.srcPos += 4
		return
	}
	br.refillByte()
}

// refillByte slides in single bytes until bitPos drops below one byte or
// the source is exhausted, then marks truncated if the cursor has run
// past the last available bit.
func (br *LosslessReader) refillByte() {
	for br.bitPos >= 8 && br.srcPos < br.srcLen {
		br.window >>= 8
		br.window |= uint64(br.src[br.srcPos]) << (windowBits - 8)
		br.srcPos++
		br.bitPos -= 8
	}
	if br.IsEndOfStream() {
		br.markTruncated()
	}
}

func (br *LosslessReader) markTruncated() {
	br.truncated = true
	br.bitPos = 0 // keep subsequent shifts well-defined
}

// ReadOneBit reads a single flag bit. Shorthand for ReadBits(1), used at
// the many call sites that only need one bit (transform-present,
// meta-Huffman-present, color-cache-present, and similar flags).
func (br *LosslessReader) ReadOneBit() uint32 {
	return br.ReadBits(1)
}

// HasError reports whether a read has already run past the end of input.
// This latches: once true, every further ReadBits call keeps returning
// zero rather than wrapping around into garbage.
func (br *LosslessReader) HasError() bool {
	return br.truncated
}

// ReadBits consumes and returns the next nBits (0..24) bits. Reading past
// the end of the stream, or asking for more than maxReadBits, latches
// HasError and returns zero.
func (br *LosslessReader) ReadBits(nBits int) uint32 {
	if br.truncated || nBits < 0 || nBits > maxReadBits {
		br.markTruncated()
		return 0
	}
	val := br.PrefetchBits() & readMask[nBits]
	br.bitPos += nBits
	br.refillByte()
	return val
}

// PrefetchBits exposes the next 32 bits of the window without consuming
// them. The caller must have called FillBitWindow recently enough that
// those bits are actually loaded.
func (br *LosslessReader) PrefetchBits() uint32 {
	return uint32(br.window >> uint(br.bitPos&(windowBits-1)))
}

// SetBitPos moves the read cursor directly, for callers that inspected
// PrefetchBits and already know how many of those bits they're keeping.
func (br *LosslessReader) SetBitPos(pos int) {
	br.bitPos = pos
}

// BitPos returns the read cursor's current position within the window.
func (br *LosslessReader) BitPos() int {
	return br.bitPos
}

// IsEndOfStream reports whether the read cursor has gone past every bit
// the source actually had.
func (br *LosslessReader) IsEndOfStream() bool {
	return br.truncated || (br.srcPos == br.srcLen && br.bitPos > windowBits)
}

// readMask maps a bit count (0..maxReadBits) to a mask selecting that
// many low bits.
var readMask = [maxReadBits + 1]uint32{
	0x000000, 0x000001, 0x000003, 0x000007, 0x00000f,
	0x00001f, 0x00003f, 0x00007f, 0x0000ff, 0x0001ff,
	0x0003ff, 0x0007ff, 0x000fff, 0x001fff, 0x003fff,
	0x007fff, 0x00ffff, 0x01ffff, 0x03ffff, 0x07ffff,
	0x0fffff, 0x1fffff, 0x3fffff, 0x7fffff, 0xffffff,
}
