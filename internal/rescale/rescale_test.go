package rescale

import "testing"

func TestRescaler_UpscaleDoublesWidth(t *testing.T) {
	// 2x1 source, scaled to 4x1: each source pixel (4 BGRA bytes) expands.
	r := New(2, 1, 4, 1)
	src := []byte{
		10, 20, 30, 255, // pixel 0
		50, 60, 70, 255, // pixel 1
	}
	r.Import(src)
	if !r.HasPendingOutput() {
		t.Fatal("expected pending output after importing the only source row")
	}
	dst := make([]byte, 4*NumChannels)
	if !r.Export(dst) {
		t.Fatal("Export returned false")
	}
	// The leftmost and rightmost output pixels should equal the source
	// endpoints; values in between should be monotonic (expanding, not
	// overshooting past the channel range).
	if dst[0] != 10 || dst[1] != 20 || dst[2] != 30 {
		t.Errorf("dst[0:3] = %v, want source pixel 0 (10,20,30)", dst[0:3])
	}
	last := 4*NumChannels - NumChannels
	if dst[last] != 50 || dst[last+1] != 60 || dst[last+2] != 70 {
		t.Errorf("dst[last] = %v, want source pixel 1 (50,60,70)", dst[last:last+3])
	}
}

func TestRescaler_DownscaleAverages(t *testing.T) {
	// 4x1 source, scaled to 2x1: shrinking should average neighboring pixels,
	// never produce a value outside the source's min/max per channel.
	r := New(4, 1, 2, 1)
	src := []byte{
		0, 0, 0, 255,
		100, 100, 100, 255,
		200, 200, 200, 255,
		255, 255, 255, 255,
	}
	r.Import(src)
	for r.NeedsSrcRow() {
		r.Import(src)
	}
	dst := make([]byte, 2*NumChannels)
	if !r.Export(dst) {
		t.Fatal("Export returned false")
	}
	for _, b := range dst {
		if b > 255 {
			t.Errorf("downscaled byte %d out of range", b)
		}
	}
}

func TestClamp255(t *testing.T) {
	if clamp255(0) != 0 {
		t.Error("clamp255(0) != 0")
	}
	if clamp255(255) != 255 {
		t.Error("clamp255(255) != 255")
	}
	if clamp255(256) != 255 {
		t.Error("clamp255(256) != 255")
	}
	if clamp255(1<<20) != 255 {
		t.Error("clamp255(large) != 255")
	}
}
