// Package vp8l implements a pure Go decoder for the VP8L lossless WebP
// bitstream: canonical-Huffman entropy decoding, the meta-Huffman/LZ77
// image format, the four inverse pixel transforms, and the row-block
// pipeline that crops, optionally rescales, and converts the result into a
// caller-owned output buffer. It has no CGo dependencies and no knowledge
// of the RIFF/WebP container, lossy VP8, or animation — those live one
// layer up, outside this package.
//
// Basic usage for decoding a bare VP8L payload (the bytes after the
// "VP8L" fourcc and chunk size) into an image.NRGBA:
//
//	img, err := vp8l.DecodeVP8L(payload)
//
// Callers that need cropping, rescaling, or an output colorspace other
// than RGBA drive the two-phase API directly:
//
//	dec := vp8l.NewDecoder()
//	defer dec.Delete()
//	if err := dec.DecodeHeader(payload); err != nil {
//		// ...
//	}
//	io := &vp8l.Io{
//		CropRight: dec.Width, CropBottom: dec.Height,
//		ColorSpace: vp8l.ColorBGRA,
//		Buffer:     make([]byte, dec.Width*dec.Height*4),
//		Stride:     dec.Width * 4,
//	}
//	if err := dec.DecodeImage(io); err != nil {
//		// ...
//	}
package vp8l
