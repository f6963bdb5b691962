package vp8l

import "errors"

// Status is the latched outcome of a decode call. It rides alongside
// the sentinel errors below so callers can branch on outcome without
// string-matching error values, mirroring the VP8StatusCode enum the
// original decoder returns through VP8Io/VP8LDecoder.
type Status int

const (
	StatusOK Status = iota
	StatusOutOfMemory
	StatusInvalidParam
	StatusBitstreamError
	StatusSuspended
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusOutOfMemory:
		return "out of memory"
	case StatusInvalidParam:
		return "invalid param"
	case StatusBitstreamError:
		return "bitstream error"
	case StatusSuspended:
		return "suspended"
	default:
		return "unknown status"
	}
}

// Sentinel errors. ErrBitstream and ErrSuspended both originate from the
// same bit-reader failure: a read that runs past the end of input is
// rewritten from BitstreamError to Suspended at the outermost decode call
// when the reader's eos flag (rather than a structural violation) caused it.
var (
	ErrBadSignature = errors.New("vp8l: bad signature")
	ErrInvalidParam = errors.New("vp8l: invalid parameter")
	ErrBitstream    = errors.New("vp8l: bitstream error")
	ErrSuspended    = errors.New("vp8l: suspended: truncated input")
)
