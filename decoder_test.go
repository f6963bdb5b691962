package vp8l

import (
	"image"
	"testing"

	"github.com/nnyo/vp8l/internal/bitio"
)

// newTestReader returns a bit reader over enough zero bytes to satisfy any
// ReadBits call a unit test makes, so tests can exercise functions that take
// a *bitio.LosslessReader without constructing a real bitstream.
func newTestReader(_ uint32) *bitio.LosslessReader {
	return bitio.NewLosslessReader(make([]byte, 16))
}

func TestDecodeHeader_Valid(t *testing.T) {
	// byte 0: 0x2f (magic)
	// bytes 1-4: width-1 (14 bits) | height-1 (14 bits) | alpha (1 bit) | version (3 bits)
	// width=1, height=1 => (0, 0 in 14 bits), alpha=0, version=0
	data := []byte{0x2f, 0x00, 0x00, 0x00, 0x00}
	dec := &Decoder{}
	err := dec.decodeHeader(data)
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if dec.Width != 1 || dec.Height != 1 {
		t.Errorf("got %dx%d, want 1x1", dec.Width, dec.Height)
	}
	if dec.HasAlpha {
		t.Error("HasAlpha should be false")
	}
	if dec.ReservedSignatureSeen {
		t.Error("ReservedSignatureSeen should be false for the canonical magic byte")
	}
}

func TestDecodeHeader_LargerSize(t *testing.T) {
	// width=100, height=50, alpha=1, version=0
	// val32 = 99 | (49 << 14) | (1 << 28) = 0x100C4063
	data := []byte{0x2f, 0x63, 0x40, 0x0C, 0x10}
	dec := &Decoder{}
	if err := dec.decodeHeader(data); err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if dec.Width != 100 || dec.Height != 50 {
		t.Errorf("got %dx%d, want 100x50", dec.Width, dec.Height)
	}
	if !dec.HasAlpha {
		t.Error("HasAlpha should be true")
	}
}

func TestDecodeHeader_ReservedSignature(t *testing.T) {
	data := []byte{vp8lMagicByteReserved, 0x00, 0x00, 0x00, 0x00}
	dec := &Decoder{}
	if err := dec.decodeHeader(data); err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if !dec.ReservedSignatureSeen {
		t.Error("ReservedSignatureSeen should be true for the reserved magic byte")
	}
}

func TestDecodeHeader_BadSignature(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x00, 0x00}
	dec := &Decoder{}
	if err := dec.decodeHeader(data); err != ErrBadSignature {
		t.Errorf("expected ErrBadSignature, got %v", err)
	}
}

func TestDecodeHeader_TooShort(t *testing.T) {
	data := []byte{0x2f, 0x00}
	dec := &Decoder{}
	if err := dec.decodeHeader(data); err != ErrBadSignature {
		t.Errorf("expected ErrBadSignature, got %v", err)
	}
}

func TestGetInfo(t *testing.T) {
	data := []byte{0x2f, 0x63, 0x40, 0x0C, 0x10}
	w, h, err := GetInfo(data)
	if err != nil {
		t.Fatalf("GetInfo: %v", err)
	}
	if w != 100 || h != 50 {
		t.Errorf("GetInfo = %dx%d, want 100x50", w, h)
	}
}

func TestDecodeImage_WrongState(t *testing.T) {
	dec := &Decoder{}
	io := &Io{ColorSpace: ColorRGBA}
	if err := dec.DecodeImage(io); err != ErrInvalidParam {
		t.Errorf("DecodeImage before DecodeHeader: got %v, want ErrInvalidParam", err)
	}
}

func TestDecodeImage_InvalidColorSpace(t *testing.T) {
	dec := acquireDecoder()
	if err := dec.DecodeHeader([]byte{0x2f, 0x00, 0x00, 0x00, 0x00}); err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	io := &Io{CropRight: 1, CropBottom: 1, ColorSpace: colorYUV, Buffer: make([]byte, 16), Stride: 4}
	if err := dec.DecodeImage(io); err != ErrInvalidParam {
		t.Errorf("DecodeImage with YUV colorspace: got %v, want ErrInvalidParam", err)
	}
}

func TestClassify_Suspended(t *testing.T) {
	// A reader that has run past end-of-stream reports HasError(); classify
	// must map the resulting ErrBitstream to Suspended rather than a hard
	// BitstreamError, since the proximate cause is truncated input.
	dec := acquireDecoder()
	data := []byte{0x2f, 0x00, 0x00, 0x00, 0x00}
	if err := dec.decodeHeader(data); err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	// Drain the reader past EOF.
	for i := 0; i < 10; i++ {
		dec.br.ReadBits(24)
	}
	if !dec.br.HasError() {
		t.Fatal("expected reader to report HasError after draining past EOF")
	}
	if got := classify(ErrBitstream, dec.br); got != StatusSuspended {
		t.Errorf("classify(ErrBitstream, exhausted reader) = %v, want StatusSuspended", got)
	}
}

func TestArgbToNRGBA(t *testing.T) {
	pixels := []uint32{
		0xffff0000, // opaque red
		0xff00ff00, // opaque green
		0xff0000ff, // opaque blue
		0x80402010, // semi-transparent
	}
	img := argbToNRGBA(pixels, 2, 2)

	tests := []struct {
		x, y       int
		r, g, b, a uint8
	}{
		{0, 0, 0xff, 0x00, 0x00, 0xff},
		{1, 0, 0x00, 0xff, 0x00, 0xff},
		{0, 1, 0x00, 0x00, 0xff, 0xff},
		{1, 1, 0x40, 0x20, 0x10, 0x80},
	}
	for _, tc := range tests {
		c := img.NRGBAAt(tc.x, tc.y)
		if c.R != tc.r || c.G != tc.g || c.B != tc.b || c.A != tc.a {
			t.Errorf("pixel(%d,%d) = (%d,%d,%d,%d), want (%d,%d,%d,%d)",
				tc.x, tc.y, c.R, c.G, c.B, c.A, tc.r, tc.g, tc.b, tc.a)
		}
	}
}

func TestNRGBAToARGB_Roundtrip(t *testing.T) {
	pixels := []uint32{0xff112233, 0x80aabbcc}
	img := argbToNRGBA(pixels, 2, 1)
	got := NRGBAToARGB(img)
	for i, want := range pixels {
		if got[i] != want {
			t.Errorf("pixel %d: got 0x%08x, want 0x%08x", i, got[i], want)
		}
	}
}

func TestARGBToNRGBAImage(t *testing.T) {
	pixels := []uint32{0xffff0000, 0xff00ff00}
	img := ARGBToNRGBA(pixels, 2, 1)
	if img.Bounds() != image.Rect(0, 0, 2, 1) {
		t.Errorf("bounds = %v, want (0,0)-(2,1)", img.Bounds())
	}
}

func TestCopyBlock32(t *testing.T) {
	data := make([]uint32, 10)
	data[0] = 0xAAAAAAAA
	data[1] = 0xBBBBBBBB
	data[2] = 0xCCCCCCCC

	copyBlock32(data, 3, 3, 3)
	if data[3] != 0xAAAAAAAA || data[4] != 0xBBBBBBBB || data[5] != 0xCCCCCCCC {
		t.Errorf("copyBlock32: got [0x%08x, 0x%08x, 0x%08x]", data[3], data[4], data[5])
	}
}

func TestCopyBlock32_Overlap(t *testing.T) {
	data := make([]uint32, 6)
	data[0] = 0x11111111

	copyBlock32(data, 1, 1, 5)
	for i := 1; i <= 5; i++ {
		if data[i] != 0x11111111 {
			t.Errorf("copyBlock32 overlap: data[%d] = 0x%08x, want 0x11111111", i, data[i])
		}
	}
}

func TestGetCopyDistance(t *testing.T) {
	br := newTestReader(0)
	if d := getCopyDistance(0, br); d != 1 {
		t.Errorf("getCopyDistance(0) = %d, want 1", d)
	}
	if d := getCopyDistance(3, br); d != 4 {
		t.Errorf("getCopyDistance(3) = %d, want 4", d)
	}
}

func TestPlaneCodeToDistance(t *testing.T) {
	if d := PlaneCodeToDistance(100, 121); d != 1 {
		t.Errorf("PlaneCodeToDistance(100, 121) = %d, want 1", d)
	}
	if d := PlaneCodeToDistance(100, 1); d != 100 {
		t.Errorf("PlaneCodeToDistance(100, 1) = %d, want 100", d)
	}
}
