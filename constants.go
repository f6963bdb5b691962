package vp8l

// VP8L format constants, grounded in libwebp/src/webp/format_constants.h
// and the decode logic in libwebp/src/dec/vp8l_dec.c.

// Bitstream signature and header layout.
const (
	// VP8LMagicByte opens every VP8L chunk.
	VP8LMagicByte = 0x2f

	// VP8LVersionBits is the width of the header's version field.
	VP8LVersionBits = 3
	// VP8LVersion is the only version this decoder understands.
	VP8LVersion = 0

	// VP8LImageSizeBits is the width of the header's width/height fields.
	VP8LImageSizeBits = 14

	// VP8LHeaderSize is the signature byte plus the packed size/flags word.
	VP8LHeaderSize = 5
)

// Transform stack layout.
const (
	// NumTransforms bounds how many transforms one bitstream may stack.
	NumTransforms = 4
	// TransformPresent is the flag bit preceding each transform entry.
	TransformPresent = 1

	// MinTransformBits is the smallest legal transform tile-size exponent.
	MinTransformBits = 2
	// NumTransformBits is the width of the encoded tile-size field.
	NumTransformBits = 3
)

// Symbol alphabet sizes shared by the entropy coder and the LZ77 loop.
const (
	// NumLiteralCodes covers the 256 possible literal byte values.
	NumLiteralCodes = 256
	// NumLengthCodes covers backward-reference length symbols.
	NumLengthCodes = 24
	// NumDistanceCodes covers backward-reference distance symbols.
	NumDistanceCodes = 40
	// CodeLengthCodes is the alphabet size for the meta-alphabet that
	// itself encodes the other alphabets' code lengths.
	CodeLengthCodes = 19
)

// Canonical Huffman table construction and lookup.
const (
	// MaxAllowedCodeLength bounds a single canonical Huffman code length.
	MaxAllowedCodeLength = 15
	// DefaultCodeLength seeds the "previous code length" state used while
	// decoding a run of code lengths.
	DefaultCodeLength = 8

	// HuffmanTableBits sizes the root (first-level) decode table.
	HuffmanTableBits = 8
	// HuffmanTableMask selects the root-table index from prefetched bits.
	HuffmanTableMask = (1 << HuffmanTableBits) - 1

	// LengthsTableBits sizes the root table used to decode the
	// code-length meta-alphabet itself.
	LengthsTableBits = 7
	// LengthsTableMask selects that root-table index.
	LengthsTableMask = (1 << LengthsTableBits) - 1

	// HuffmanPackedBits sizes the packed per-pixel fast-path table.
	HuffmanPackedBits = 6
	// HuffmanPackedTableSize is 1<<HuffmanPackedBits.
	HuffmanPackedTableSize = 1 << HuffmanPackedBits

	// HuffmanCodesPerMetaCode is the number of trees bundled per tile:
	// green+length, red, blue, alpha, distance.
	HuffmanCodesPerMetaCode = 5

	// MinHuffmanBits/NumHuffmanBits bound the encoded meta-Huffman
	// subsampling precision field.
	MinHuffmanBits = 2
	NumHuffmanBits = 3
)

// Color cache sizing.
const (
	// MinCacheBits is 0, meaning the cache is disabled.
	MinCacheBits = 0
	// MaxCacheBits is the largest legal cache size exponent.
	MaxCacheBits = 11
)

// Misc.
const (
	// MaxPaletteSize bounds a color-indexing transform's palette.
	MaxPaletteSize = 256
	// ARGBBlack is opaque black, the seed value for predictor mode 0.
	ARGBBlack = 0xff000000
	// CodeToPlaneCodesCount is the size of the codeToPlane distance table.
	CodeToPlaneCodesCount = 120
)

// HuffIndex selects one of the HuffmanCodesPerMetaCode trees in an
// HTreeGroup.
type HuffIndex int

const (
	HuffGreen HuffIndex = iota
	HuffRed
	HuffBlue
	HuffAlpha
	HuffDist
)

// CodeLengthCodeOrder is the transmission order of the 19 code-length
// alphabet symbols in the bitstream header (low-frequency symbols first).
var CodeLengthCodeOrder = [CodeLengthCodes]int{
	17, 18, 0, 1, 2, 3, 4, 5, 16, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
}

// KLiteralMap classifies each of the HuffmanCodesPerMetaCode trees: 0 for
// the two variable-length alphabets (green+length, distance), 1 for the
// three fixed 256-symbol alphabets (red, blue, alpha).
var KLiteralMap = [HuffmanCodesPerMetaCode]uint8{0, 1, 1, 1, 0}

// baseAlphabetSize is each tree's symbol count before any color-cache
// entries are appended (only green gets those).
var baseAlphabetSize = [HuffmanCodesPerMetaCode]int{
	NumLiteralCodes + NumLengthCodes, // green + length
	NumLiteralCodes,                  // red
	NumLiteralCodes,                  // blue
	NumLiteralCodes,                  // alpha
	NumDistanceCodes,                 // distance
}

// AlphabetSize returns how many symbols huffIndex's tree must decode,
// given colorCacheBits color-cache entries (which only ever extend the
// green+length tree).
func AlphabetSize(huffIndex HuffIndex, colorCacheBits int) int {
	size := baseAlphabetSize[huffIndex]
	if KLiteralMap[huffIndex] == 0 && huffIndex == HuffGreen && colorCacheBits > 0 {
		size += 1 << colorCacheBits
	}
	return size
}

// CodeToPlane maps a 1-based distance-plane code to a packed
// (yoffset<<4 | 8-xoffset) byte, used by PlaneCodeToDistance to recover
// small, spatially-local backward-reference distances cheaply.
var CodeToPlane = [CodeToPlaneCodesCount]uint8{
	0x18, 0x07, 0x17, 0x19, 0x28, 0x06, 0x27, 0x29, 0x16, 0x1a,
	0x26, 0x2a, 0x38, 0x05, 0x37, 0x39, 0x15, 0x1b, 0x36, 0x3a,
	0x25, 0x2b, 0x48, 0x04, 0x47, 0x49, 0x14, 0x1c, 0x35, 0x3b,
	0x46, 0x4a, 0x24, 0x2c, 0x58, 0x45, 0x4b, 0x34, 0x3c, 0x03,
	0x57, 0x59, 0x13, 0x1d, 0x56, 0x5a, 0x23, 0x2d, 0x44, 0x4c,
	0x55, 0x5b, 0x33, 0x3d, 0x68, 0x02, 0x67, 0x69, 0x12, 0x1e,
	0x66, 0x6a, 0x22, 0x2e, 0x54, 0x5c, 0x43, 0x4d, 0x65, 0x6b,
	0x32, 0x3e, 0x78, 0x01, 0x77, 0x79, 0x53, 0x5d, 0x11, 0x1f,
	0x64, 0x6c, 0x42, 0x4e, 0x76, 0x7a, 0x21, 0x2f, 0x75, 0x7b,
	0x31, 0x3f, 0x63, 0x6d, 0x52, 0x5e, 0x00, 0x74, 0x7c, 0x41,
	0x4f, 0x10, 0x20, 0x62, 0x6e, 0x30, 0x73, 0x7d, 0x51, 0x5f,
	0x40, 0x72, 0x7e, 0x61, 0x6f, 0x50, 0x71, 0x7f, 0x60, 0x70,
}

// PlaneCodeToDistance converts a decoded distance-plane code into an
// actual pixel offset within a xsize-wide image. Codes beyond
// CodeToPlaneCodesCount are plain linear offsets (planeCode -
// CodeToPlaneCodesCount); smaller codes name one of a fixed set of short
// 2-D neighbor offsets via CodeToPlane.
func PlaneCodeToDistance(xsize int, planeCode int) int {
	if planeCode <= 0 {
		return 1
	}
	if planeCode > CodeToPlaneCodesCount {
		return planeCode - CodeToPlaneCodesCount
	}
	packed := CodeToPlane[planeCode-1]
	yoffset := int(packed >> 4)
	xoffset := 8 - int(packed&0xf)
	if dist := yoffset*xsize + xoffset; dist >= 1 {
		return dist
	}
	return 1
}

// VP8LSubSampleSize returns ceil(size / (1 << samplingBits)), the number
// of subsampled tiles needed to cover size pixels.
func VP8LSubSampleSize(size, samplingBits int) int {
	return (size + (1 << samplingBits) - 1) >> samplingBits
}

// Code-length alphabet: codes 0..15 are literal lengths, 16..18 are
// run-length repeat codes for the previous (16) or a fixed (17, 18)
// length.
const (
	CodeLengthLiterals   = 16
	CodeLengthRepeatCode = 16
)

// CodeLengthExtraBits gives the extra bit-width read after repeat codes
// 16, 17, 18 respectively.
var CodeLengthExtraBits = [3]uint8{2, 3, 7}

// CodeLengthRepeatOffsets gives the minimum repeat count for codes
// 16, 17, 18 respectively, added to the extra bits just read.
var CodeLengthRepeatOffsets = [3]uint8{3, 3, 11}
