package vp8l

// TransformType identifies one of the four VP8L image transforms.
type TransformType int

const (
	PredictorTransform     TransformType = 0
	CrossColorTransform    TransformType = 1
	SubtractGreenTransform TransformType = 2
	ColorIndexingTransform TransformType = 3
)

// Transform is one entry of the transform stack read from the bitstream
// header and later applied, in reverse, to undo it. Bits is the tile-size
// exponent for PredictorTransform/CrossColorTransform, or log2 of the
// number of palette indices packed into each pixel for
// ColorIndexingTransform (8>>Bits bits per index); it is unused for
// SubtractGreenTransform. Data holds the transform's auxiliary image: the
// predictor-mode/color-code grid, or the color-indexing palette.
type Transform struct {
	Type  TransformType
	Bits  int
	XSize int
	YSize int
	Data  []uint32
}

// readTransform reads one transform header and its auxiliary data (if
// any) from the bitstream, recording it in dec.transforms. It returns the
// working xsize for the transform stack that follows — only
// ColorIndexingTransform changes it, by sub-sampling the index image.
func (dec *Decoder) readTransform(xsize, ysize int) (int, error) {
	kind := TransformType(dec.br.ReadBits(2))
	if dec.transformsSeen&(1<<kind) != 0 {
		return 0, ErrBitstream // each transform type may appear at most once
	}
	dec.transformsSeen |= 1 << kind

	t := &dec.transforms[dec.nextTransform]
	*t = Transform{Type: kind, XSize: xsize, YSize: ysize}
	dec.nextTransform++

	switch kind {
	case PredictorTransform, CrossColorTransform:
		t.Bits = MinTransformBits + int(dec.br.ReadBits(NumTransformBits))
		data, err := dec.decodeSubImage(VP8LSubSampleSize(xsize, t.Bits), VP8LSubSampleSize(ysize, t.Bits))
		if err != nil {
			return 0, err
		}
		t.Data = data

	case ColorIndexingTransform:
		numColors := int(dec.br.ReadBits(8)) + 1
		t.Bits = colorIndexingBitsFor(numColors)
		palette, err := dec.decodeSubImage(numColors, 1)
		if err != nil {
			return 0, err
		}
		t.Data = expandColorMap(numColors, t.Bits, palette)
		xsize = VP8LSubSampleSize(xsize, t.Bits)

	case SubtractGreenTransform:
		// Carries no auxiliary data.
	}

	return xsize, nil
}

// colorIndexingBitsFor returns log2 of how many palette indices pack into
// each byte, given a palette of numColors entries: a small enough palette
// packs more than one pixel per source byte (0 for one 8-bit index per
// byte, up to 3 for eight 1-bit indices).
func colorIndexingBitsFor(numColors int) int {
	switch {
	case numColors > 16:
		return 0
	case numColors > 4:
		return 1
	case numColors > 2:
		return 2
	default:
		return 3
	}
}

// expandColorMap turns the raw decoded palette (numColors entries, each
// delta-coded per byte against its predecessor) into a full 256-entry (or
// smaller, per bits) lookup table of absolute ARGB values.
func expandColorMap(numColors, bits int, palette []uint32) []uint32 {
	out := make([]uint32, 1<<(8>>bits))
	if len(palette) > 0 {
		out[0] = palette[0]
	}

	srcBytes := argbSliceToBytes(palette)
	dstBytes := argbSliceToBytes(out)
	for i := 4; i < 4*numColors; i++ {
		dstBytes[i] = (srcBytes[i] + dstBytes[i-4]) & 0xff
	}
	bytesToARGBSlice(dstBytes, out)
	return out
}

// argbSliceToBytes reinterprets an ARGB slice as its little-endian byte
// sequence (blue, green, red, alpha per pixel).
func argbSliceToBytes(pixels []uint32) []byte {
	b := make([]byte, len(pixels)*4)
	for i, px := range pixels {
		b[4*i+0] = byte(px)
		b[4*i+1] = byte(px >> 8)
		b[4*i+2] = byte(px >> 16)
		b[4*i+3] = byte(px >> 24)
	}
	return b
}

// bytesToARGBSlice is the inverse of argbSliceToBytes, writing into dst.
func bytesToARGBSlice(b []byte, dst []uint32) {
	for i := range dst {
		dst[i] = uint32(b[4*i]) | uint32(b[4*i+1])<<8 | uint32(b[4*i+2])<<16 | uint32(b[4*i+3])<<24
	}
}

// applyInverseTransforms walks dec.transforms in reverse (the order they
// must be undone) and returns the fully restored pixel buffer. dec's
// pooled transformBuf is reused as scratch space when it's large enough.
func (dec *Decoder) applyInverseTransforms(pixels []uint32) []uint32 {
	if dec.nextTransform == 0 {
		return pixels
	}

	n := len(pixels)
	scratch := dec.transformBuf
	if len(scratch) < n {
		scratch = make([]uint32, n)
	}

	cur := pixels
	for i := dec.nextTransform - 1; i >= 0; i-- {
		t := &dec.transforms[i]
		undoTransform(t, t.YSize, cur, scratch)
		cur = scratch
	}
	return cur[:n]
}

// undoTransform dispatches to the inverse of a single transform, writing
// full-height output into dst.
func undoTransform(t *Transform, rows int, src, dst []uint32) {
	switch t.Type {
	case SubtractGreenTransform:
		undoSubtractGreen(src, t.XSize*rows, dst)
	case PredictorTransform:
		undoPredictor(t, rows, src, dst)
	case CrossColorTransform:
		undoCrossColor(t, rows, src, dst)
	case ColorIndexingTransform:
		colorIndexInverseTransform(t, 0, rows, src, dst)
	}
}

// undoSubtractGreen reverses the subtract-green transform: the encoder
// subtracted green from red and blue to shrink their entropy, so decode
// adds it back.
func undoSubtractGreen(src []uint32, numPixels int, dst []uint32) {
	for i := 0; i < numPixels; i++ {
		argb := src[i]
		green := (argb >> 8) & 0xff
		rb := (argb & 0x00ff00ff) + (green << 16) + green
		dst[i] = (argb & 0xff00ff00) | (rb & 0x00ff00ff)
	}
}

// undoPredictor reverses the spatial predictor transform: each residual
// pixel is added to a prediction built from already-decoded neighbors,
// per one of 14 predictor modes tiled 1<<t.Bits pixels wide.
func undoPredictor(t *Transform, rowCount int, in, out []uint32) {
	width := t.XSize
	inPos, outPos := 0, 0
	yStart := 0

	// Row 0 has no neighbors above it: pixel 0 predicts from black, the
	// rest of the row predicts from its left neighbor.
	if rowCount > 0 {
		out[0] = addPixels(in[0], 0xff000000)
		for x := 1; x < width; x++ {
			out[x] = addPixels(in[x], out[x-1])
		}
		inPos, outPos = width, width
		yStart = 1
	}

	tileWidth := 1 << t.Bits
	tileMask := tileWidth - 1
	tilesPerRow := VP8LSubSampleSize(width, t.Bits)

	for y := yStart; y < rowCount; y++ {
		modeRowBase := (y >> t.Bits) * tilesPerRow
		out[outPos] = addPixels(in[inPos], out[outPos-width]) // column 0 predicts from above

		for x := 1; x < width; {
			mode := int((t.Data[modeRowBase+(x>>t.Bits)] >> 8) & 0xf)
			tileEnd := min((x &^ tileMask)+tileWidth, width)
			for ; x < tileEnd; x++ {
				topRight := out[outPos]
				if x < width-1 {
					topRight = out[outPos+x+1-width]
				}
				pred := predictPixel(mode, out[outPos+x-1], out[outPos+x-width], out[outPos+x-1-width], topRight)
				out[outPos+x] = addPixels(in[inPos+x], pred)
			}
		}
		inPos += width
		outPos += width
	}
}

// predictPixel evaluates predictor mode against its four neighbors.
func predictPixel(mode int, left, top, topLeft, topRight uint32) uint32 {
	switch mode {
	case 0:
		return 0xff000000
	case 1:
		return left
	case 2:
		return top
	case 3:
		return topRight
	case 4:
		return topLeft
	case 5:
		return average2(average2(left, topRight), top)
	case 6:
		return average2(left, topLeft)
	case 7:
		return average2(left, top)
	case 8:
		return average2(topLeft, top)
	case 9:
		return average2(top, topRight)
	case 10:
		return average2(average2(left, topLeft), average2(top, topRight))
	case 11:
		return selectPredictor(left, top, topLeft)
	case 12:
		return clampedAddSubtractFull(left, top, topLeft)
	case 13:
		return clampedAddSubtractHalf(average2(left, top), topLeft)
	default:
		return 0xff000000
	}
}

// addPixels adds two ARGB pixels per channel, wrapping mod 256 — the
// predictor-transform residual is stored wrapped, not clamped.
func addPixels(a, b uint32) uint32 {
	ag := (a & 0xff00ff00) + (b & 0xff00ff00)
	rb := (a & 0x00ff00ff) + (b & 0x00ff00ff)
	return (ag & 0xff00ff00) | (rb & 0x00ff00ff)
}

// average2 computes the per-channel floor average of two ARGB pixels.
func average2(a, b uint32) uint32 {
	return (((a ^ b) & 0xfefefefe) >> 1) + (a & b)
}

// selectPredictor picks between the left and top neighbor, whichever is
// closer (summed across channels) to the gradient predicted by topLeft.
func selectPredictor(left, top, topLeft uint32) uint32 {
	var pa int32
	for shift := uint(0); shift < 32; shift += 8 {
		topDist := channelDist(top, topLeft, shift)
		leftDist := channelDist(left, topLeft, shift)
		pa += topDist - leftDist
	}
	if pa <= 0 {
		return top
	}
	return left
}

func channelDist(a, b uint32, shift uint) int32 {
	d := int32((a>>shift)&0xff) - int32((b>>shift)&0xff)
	if d < 0 {
		d = -d
	}
	return d
}

// clampedAddSubtractFull computes, per channel, clamp(a + b - c, 0, 255).
func clampedAddSubtractFull(a, b, c uint32) uint32 {
	return combineChannels(a, b, c, func(va, vb, vc int32) int32 { return va + vb - vc })
}

// clampedAddSubtractHalf computes, per channel, clamp(avg + (avg-c)/2, 0, 255).
func clampedAddSubtractHalf(avg, c uint32) uint32 {
	return combineChannels(avg, 0, c, func(va, _, vc int32) int32 { return va + (va-vc)/2 })
}

// combineChannels applies f independently to each of the four 8-bit
// channels of a, b, c, clamping each result to [0, 255].
func combineChannels(a, b, c uint32, f func(a, b, c int32) int32) uint32 {
	var result uint32
	for shift := uint(0); shift < 32; shift += 8 {
		v := f(int32((a>>shift)&0xff), int32((b>>shift)&0xff), int32((c>>shift)&0xff))
		result |= uint32(clamp255(v)) << shift
	}
	return result
}

func clamp255(v int32) int32 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// undoCrossColor reverses the cross-color transform, tiled 1<<t.Bits
// pixels wide: each tile carries its own green-to-red/green-to-blue/
// red-to-blue multipliers in t.Data.
func undoCrossColor(t *Transform, rowCount int, src, dst []uint32) {
	width := t.XSize
	tileWidth := 1 << t.Bits
	tileMask := tileWidth - 1
	fullTileWidth := width &^ tileMask
	tilesPerRow := VP8LSubSampleSize(width, t.Bits)

	srcPos, dstPos := 0, 0
	for y := 0; y < rowCount; y++ {
		rowBase := (y >> t.Bits) * tilesPerRow
		tileIdx := 0

		x := 0
		for x < fullTileWidth {
			m := colorCodeToMultipliers(t.Data[rowBase+tileIdx])
			tileIdx++
			for i := 0; i < tileWidth; i++ {
				dst[dstPos+x+i] = transformColorInverse(m, src[srcPos+x+i])
			}
			x += tileWidth
		}
		if x < width {
			m := colorCodeToMultipliers(t.Data[rowBase+tileIdx])
			for i := 0; i < width-x; i++ {
				dst[dstPos+x+i] = transformColorInverse(m, src[srcPos+x+i])
			}
		}

		srcPos += width
		dstPos += width
	}
}

// colorMultipliers are the three signed 8-bit coefficients that describe
// one cross-color tile's correlation, packed into a single uint32 in the
// transform's Data image.
type colorMultipliers struct {
	greenToRed  uint8
	greenToBlue uint8
	redToBlue   uint8
}

func colorCodeToMultipliers(code uint32) colorMultipliers {
	return colorMultipliers{
		greenToRed:  uint8(code),
		greenToBlue: uint8(code >> 8),
		redToBlue:   uint8(code >> 16),
	}
}

// colorTransformDelta scales a signed color component by a signed
// multiplier, both fixed-point with 5 fractional bits.
func colorTransformDelta(multiplier, component int8) int32 {
	return (int32(multiplier) * int32(component)) >> 5
}

// transformColorInverse undoes the cross-color correlation for one pixel:
// red is nudged back by green, then blue is nudged back by both green
// and the (already-corrected) red.
func transformColorInverse(m colorMultipliers, argb uint32) uint32 {
	green := int8(argb >> 8)
	red := int32(argb>>16) & 0xff
	blue := int32(argb) & 0xff

	red = (red + colorTransformDelta(int8(m.greenToRed), green)) & 0xff
	blue += colorTransformDelta(int8(m.greenToBlue), green)
	blue += colorTransformDelta(int8(m.redToBlue), int8(red))
	blue &= 0xff

	return (argb & 0xff00ff00) | (uint32(red) << 16) | uint32(blue)
}

// colorIndexInverseTransform reverses the color-indexing (palette)
// transform, unpacking sub-byte-packed indices when t.Bits > 0.
func colorIndexInverseTransform(t *Transform, yStart, yEnd int, src, dst []uint32) {
	width := t.XSize
	palette := t.Data
	bitsPerPixel := 8 >> t.Bits

	srcPos, dstPos := 0, 0
	if bitsPerPixel == 8 {
		for y := yStart; y < yEnd; y++ {
			for x := 0; x < width; x++ {
				writePaletteEntry(palette, getARGBIndex(src[srcPos]), dst, dstPos)
				srcPos++
				dstPos++
			}
		}
		return
	}

	pixelsPerByte := 1 << t.Bits
	countMask := pixelsPerByte - 1
	indexMask := uint32(1<<bitsPerPixel) - 1

	for y := yStart; y < yEnd; y++ {
		var packed uint32
		for x := 0; x < width; x++ {
			if x&countMask == 0 {
				packed = getARGBIndex(src[srcPos])
				srcPos++
			}
			writePaletteEntry(palette, packed&indexMask, dst, dstPos)
			dstPos++
			packed >>= bitsPerPixel
		}
	}
}

func writePaletteEntry(palette []uint32, idx uint32, dst []uint32, dstPos int) {
	if int(idx) < len(palette) {
		dst[dstPos] = palette[idx]
	}
}

// getARGBIndex extracts a palette index packed into the green channel,
// the byte position libwebp's encoder uses for color-indexed pixels.
func getARGBIndex(argb uint32) uint32 {
	return (argb >> 8) & 0xff
}
