package vp8l

import "github.com/nnyo/vp8l/internal/rescale"

// Rescaler is the row-by-row box-filter scaler RowPipeline drives when
// Io.UseScaling is set. internal/rescale.Rescaler is the default
// implementation; RowPipeline only depends on this interface.
type Rescaler interface {
	Import(src []byte)
	NeedsSrcRow() bool
	HasPendingOutput() bool
	Export(dst []byte) bool
}

// rowBlockSize is the row-block cadence RowPipeline emits at, matching
// NUM_ARGB_CACHE_ROWS in the original decoder.
const rowBlockSize = numArgbCacheRows

// RowPipeline carries already-decoded, already-inverse-transformed ARGB
// pixel rows through cropping, optional rescaling, and colorspace
// conversion into an Io sink. DecodeImage drives it in rowBlockSize-row
// blocks, mirroring vp8l.c's ProcessRows cadence; because this decoder
// materializes the whole transform-adjusted ARGB buffer before the
// inverse-transform stack runs (a transform such as color-indexing changes
// the working width for the whole image, not row by row), the pipeline
// walks that finished buffer in blocks rather than interleaving with the
// entropy-decode loop itself.
type RowPipeline struct {
	io     *Io
	width  int // full (pre-crop) image width, pixels/row in the source buffer
	height int

	left, top, right, bottom int // crop window, columns/rows

	rescaler Rescaler

	srcRow    []byte // one cropped row, packed BGRA
	scaledRow []byte // one rescaled row, packed BGRA (nil if not scaling)

	lastRow int // next unconsumed source row
	outRow  int // next Io.Buffer row to write
}

func newRowPipeline(io *Io, width, height int) (*RowPipeline, error) {
	if !io.ColorSpace.valid() {
		return nil, ErrInvalidParam
	}

	left, top, right, bottom := io.CropLeft, io.CropTop, io.CropRight, io.CropBottom
	if right == 0 {
		right = width
	}
	if bottom == 0 {
		bottom = height
	}
	if left < 0 || top < 0 || right <= left || bottom <= top || right > width || bottom > height {
		return nil, ErrInvalidParam
	}
	io.CropLeft, io.CropTop, io.CropRight, io.CropBottom = left, top, right, bottom

	cropW, cropH := right-left, bottom-top

	p := &RowPipeline{
		io:     io,
		width:  width,
		height: height,
		left:   left, top: top, right: right, bottom: bottom,
		srcRow: make([]byte, cropW*rescale.NumChannels),
	}

	if io.UseScaling {
		if io.ScaledWidth <= 0 || io.ScaledHeight <= 0 {
			return nil, ErrInvalidParam
		}
		p.rescaler = rescale.New(cropW, cropH, io.ScaledWidth, io.ScaledHeight)
		p.scaledRow = make([]byte, io.ScaledWidth*rescale.NumChannels)
		io.Width, io.Height = io.ScaledWidth, io.ScaledHeight
	} else {
		io.Width, io.Height = cropW, cropH
	}

	needStride := io.Width * io.ColorSpace.bytesPerPixel()
	if io.Stride < needStride || len(io.Buffer) < io.Stride*io.Height {
		return nil, ErrInvalidParam
	}
	return p, nil
}

// processRows emits every source row in [p.lastRow, uptoRow) to the sink.
func (p *RowPipeline) processRows(pixels []uint32, uptoRow int) error {
	for y := p.lastRow; y < uptoRow && y < p.bottom; y++ {
		if y < p.top {
			continue
		}
		packRowBGRA(pixels[y*p.width+p.left:y*p.width+p.right], p.srcRow)

		if p.rescaler == nil {
			p.emit(p.srcRow)
			continue
		}
		p.rescaler.Import(p.srcRow)
		for p.rescaler.HasPendingOutput() {
			p.rescaler.Export(p.scaledRow)
			p.emit(p.scaledRow)
		}
	}
	p.lastRow = uptoRow
	return nil
}

// emit writes one packed-BGRA row (already at output width) into the next
// Io.Buffer row, converting to the requested colorspace.
func (p *RowPipeline) emit(bgra []byte) {
	if p.outRow >= p.io.Height {
		return
	}
	bpp := p.io.ColorSpace.bytesPerPixel()
	dst := p.io.Buffer[p.outRow*p.io.Stride : p.outRow*p.io.Stride+p.io.Width*bpp]
	writePixelsBGRA(bgra, p.io.ColorSpace, dst)
	p.outRow++
}

// packRowBGRA packs a row of ARGB pixels (alpha<<24|red<<16|green<<8|blue,
// this decoder's internal word layout) into packed BGRA bytes.
func packRowBGRA(argb []uint32, dst []byte) {
	for i, px := range argb {
		dst[4*i+0] = byte(px)
		dst[4*i+1] = byte(px >> 8)
		dst[4*i+2] = byte(px >> 16)
		dst[4*i+3] = byte(px >> 24)
	}
}

// writePixelsBGRA reorders a packed-BGRA row into dst using cs's byte
// layout. dst must be sized for len(bgra)/4 pixels at cs.bytesPerPixel().
func writePixelsBGRA(bgra []byte, cs ColorSpace, dst []byte) {
	n := len(bgra) / 4
	switch cs {
	case ColorBGRA:
		copy(dst, bgra)
	case ColorRGBA:
		for i := 0; i < n; i++ {
			b, g, r, a := bgra[4*i], bgra[4*i+1], bgra[4*i+2], bgra[4*i+3]
			dst[4*i], dst[4*i+1], dst[4*i+2], dst[4*i+3] = r, g, b, a
		}
	case ColorARGB:
		for i := 0; i < n; i++ {
			b, g, r, a := bgra[4*i], bgra[4*i+1], bgra[4*i+2], bgra[4*i+3]
			dst[4*i], dst[4*i+1], dst[4*i+2], dst[4*i+3] = a, r, g, b
		}
	case ColorRGB:
		for i := 0; i < n; i++ {
			b, g, r := bgra[4*i], bgra[4*i+1], bgra[4*i+2]
			dst[3*i], dst[3*i+1], dst[3*i+2] = r, g, b
		}
	case ColorBGR:
		for i := 0; i < n; i++ {
			b, g, r := bgra[4*i], bgra[4*i+1], bgra[4*i+2]
			dst[3*i], dst[3*i+1], dst[3*i+2] = b, g, r
		}
	}
}
