package impulse

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
)

// ErrInvalidLibrary is wrapped by IRLB structure errors.
var ErrInvalidLibrary = errors.New("impulse: invalid irlb library")

var (
	irlbMagic  = [4]byte{'I', 'R', 'L', 'B'}
	indexMagic = [4]byte{'I', 'N', 'D', 'X'}
	irMagic    = [4]byte{'I', 'R', '-', '-'}
	metaMagic  = [4]byte{'M', 'E', 'T', 'A'}
	audioMagic = [4]byte{'A', 'U', 'D', 'I'}
)

// NamedIR is one decoded entry of an IRLB library.
type NamedIR struct {
	Name     string
	Category string
	Buffer   *audiograph.Buffer
}

// DecodeLibrary reads every entry of an IRLB library. Corrupt entries are
// skipped; a corrupt header or index fails the whole library.
//
// Layout (little endian): "IRLB", u16 version (1), u32 count, u64 index
// offset. The index chunk is "INDX", u64 size, then per entry u64 offset,
// f64 sample rate, u32 channels, u32 frames, string name, string category.
// Each entry chunk is "IR--", u64 size and sub-chunks "META" (f64 rate,
// u32 channels, u32 frames, name, description, category, u16 tag count,
// tags) and "AUDI" (interleaved half floats). Strings are u16
// length-prefixed UTF-8.
func DecodeLibrary(data []byte) ([]NamedIR, error) {
	r := &binReader{r: bytes.NewReader(data)}

	var magic [4]byte
	r.read(&magic)

	version := r.u16()
	count := r.u32()
	indexOffset := r.u64()

	if r.err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrInvalidLibrary, r.err)
	}

	if magic != irlbMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrInvalidLibrary, magic)
	}

	if version != 1 {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidLibrary, version)
	}

	r.seek(int64(indexOffset))

	var chunk [4]byte
	r.read(&chunk)

	indexSize := r.u64()

	if r.err != nil {
		return nil, fmt.Errorf("%w: index: %w", ErrInvalidLibrary, r.err)
	}

	if chunk != indexMagic {
		return nil, fmt.Errorf("%w: expected INDX chunk, got %q", ErrInvalidLibrary, chunk)
	}

	offsets := make([]uint64, 0, count)
	start := r.pos()

	for r.err == nil && uint64(r.pos()-start) < indexSize {
		offsets = append(offsets, r.u64())
		r.f64()    // sample rate, repeated in META
		r.u32()    // channels
		r.u32()    // frames
		r.string() // name
		r.string() // category
	}

	if r.err != nil {
		return nil, fmt.Errorf("%w: index entry: %w", ErrInvalidLibrary, r.err)
	}

	irs := make([]NamedIR, 0, len(offsets))

	for _, off := range offsets {
		ir, err := readEntry(data, off)
		if err != nil {
			continue
		}

		irs = append(irs, ir)
	}

	return irs, nil
}

func readEntry(data []byte, offset uint64) (NamedIR, error) {
	r := &binReader{r: bytes.NewReader(data)}
	r.seek(int64(offset))

	var chunk [4]byte
	r.read(&chunk)

	size := r.u64()

	if r.err != nil {
		return NamedIR{}, r.err
	}

	if chunk != irMagic {
		return NamedIR{}, fmt.Errorf("%w: expected IR-- at %d", ErrInvalidLibrary, offset)
	}

	var (
		ir       NamedIR
		rate     float64
		channels int
		samples  [][]float64
		hasMeta  bool
	)

	start := r.pos()

	for r.err == nil && uint64(r.pos()-start) < size {
		var sub [4]byte
		r.read(&sub)

		subSize := r.u32()
		subStart := r.pos()

		switch sub {
		case metaMagic:
			rate = r.f64()
			channels = int(r.u32())
			r.u32() // frames
			ir.Name = r.string()
			r.string() // description
			ir.Category = r.string()

			for range r.u16() {
				r.string()
			}

			hasMeta = true
		case audioMagic:
			raw := make([]byte, subSize)
			r.read(raw)

			if r.err == nil && hasMeta && channels > 0 {
				samples = decodeInterleavedF16(raw, channels)
			}
		}

		// Skip whatever the sub-chunk holds beyond what was read.
		r.seek(subStart + int64(subSize))
	}

	if r.err != nil && !errors.Is(r.err, io.EOF) {
		return NamedIR{}, r.err
	}

	if !hasMeta || samples == nil {
		return NamedIR{}, fmt.Errorf("%w: incomplete entry at %d", ErrInvalidLibrary, offset)
	}

	ir.Buffer = &audiograph.Buffer{SampleRate: rate, Channels: samples}

	return ir, nil
}

func decodeInterleavedF16(raw []byte, channels int) [][]float64 {
	frames := len(raw) / 2 / channels
	if frames == 0 {
		return nil
	}

	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = make([]float64, frames)
	}

	for i := range frames * channels {
		h := binary.LittleEndian.Uint16(raw[i*2:])
		out[i%channels][i/channels] = float64(decodeF16(h))
	}

	return out
}

// decodeF16 converts an IEEE 754 half-precision value to float32.
func decodeF16(h uint16) float32 {
	sign := uint32(h>>15) << 31
	exp := int((h >> 10) & 0x1F)
	frac := uint32(h & 0x3FF)

	var bits uint32

	switch exp {
	case 0:
		if frac == 0 {
			bits = sign
			break
		}

		// Subnormal: shift until the implicit bit appears.
		e := 0
		for frac&0x400 == 0 {
			frac <<= 1
			e++
		}

		bits = sign | uint32(127-14-e)<<23 | (frac&0x3FF)<<13
	case 31:
		bits = sign | 0x7F800000 | frac<<13
	default:
		bits = sign | uint32(exp+112)<<23 | frac<<13
	}

	return math.Float32frombits(bits)
}

// binReader is a little-endian reader that remembers the first error.
type binReader struct {
	r   *bytes.Reader
	err error
}

func (b *binReader) read(v any) {
	if b.err != nil {
		return
	}

	b.err = binary.Read(b.r, binary.LittleEndian, v)
}

func (b *binReader) u16() uint16 {
	var v uint16
	b.read(&v)

	return v
}

func (b *binReader) u32() uint32 {
	var v uint32
	b.read(&v)

	return v
}

func (b *binReader) u64() uint64 {
	var v uint64
	b.read(&v)

	return v
}

func (b *binReader) f64() float64 {
	var v float64
	b.read(&v)

	return v
}

func (b *binReader) string() string {
	n := b.u16()
	if b.err != nil || n == 0 {
		return ""
	}

	buf := make([]byte, n)
	b.read(buf)

	return string(buf)
}

func (b *binReader) pos() int64 {
	return b.r.Size() - int64(b.r.Len())
}

func (b *binReader) seek(offset int64) {
	if b.err != nil {
		return
	}

	if offset < 0 || offset > b.r.Size() {
		b.err = fmt.Errorf("seek to %d outside %d bytes", offset, b.r.Size())
		return
	}

	_, b.err = b.r.Seek(offset, io.SeekStart)
}
