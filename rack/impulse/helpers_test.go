package impulse

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-rack/dsp/audiograph"
)

func encodeWAVBytes(t *testing.T, buf *audiograph.Buffer, bitDepth int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ir.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := EncodeWAV(f, buf, bitDepth); err != nil {
		f.Close()
		t.Fatalf("EncodeWAV: %v", err)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	return data
}

type libEntry struct {
	name    string
	rate    float64
	samples [][]float64
	corrupt bool
}

// buildLibrary writes an IRLB v1 image. Entries marked corrupt get a bad
// chunk magic.
func buildLibrary(entries ...libEntry) []byte {
	var body bytes.Buffer

	le := binary.LittleEndian
	writeString := func(w *bytes.Buffer, s string) {
		_ = binary.Write(w, le, uint16(len(s)))
		w.WriteString(s)
	}

	const headerSize = 18

	offsets := make([]uint64, len(entries))

	for i, e := range entries {
		offsets[i] = uint64(headerSize + body.Len())

		var meta bytes.Buffer
		_ = binary.Write(&meta, le, e.rate)
		_ = binary.Write(&meta, le, uint32(len(e.samples)))
		_ = binary.Write(&meta, le, uint32(len(e.samples[0])))
		writeString(&meta, e.name)
		writeString(&meta, "desc")
		writeString(&meta, "cat")
		_ = binary.Write(&meta, le, uint16(1))
		writeString(&meta, "tag")

		var audio bytes.Buffer
		for f := range e.samples[0] {
			for ch := range e.samples {
				_ = binary.Write(&audio, le, encodeF16(float32(e.samples[ch][f])))
			}
		}

		magic := "IR--"
		if e.corrupt {
			magic = "XXXX"
		}

		body.WriteString(magic)
		_ = binary.Write(&body, le, uint64(8+meta.Len()+8+audio.Len()))
		body.WriteString("META")
		_ = binary.Write(&body, le, uint32(meta.Len()))
		body.Write(meta.Bytes())
		body.WriteString("AUDI")
		_ = binary.Write(&body, le, uint32(audio.Len()))
		body.Write(audio.Bytes())
	}

	var index bytes.Buffer
	for i, e := range entries {
		_ = binary.Write(&index, le, offsets[i])
		_ = binary.Write(&index, le, e.rate)
		_ = binary.Write(&index, le, uint32(len(e.samples)))
		_ = binary.Write(&index, le, uint32(len(e.samples[0])))
		writeString(&index, e.name)
		writeString(&index, "cat")
	}

	var out bytes.Buffer
	out.WriteString("IRLB")
	_ = binary.Write(&out, le, uint16(1))
	_ = binary.Write(&out, le, uint32(len(entries)))
	_ = binary.Write(&out, le, uint64(headerSize+body.Len()))
	out.Write(body.Bytes())
	out.WriteString("INDX")
	_ = binary.Write(&out, le, uint64(index.Len()))
	out.Write(index.Bytes())

	return out.Bytes()
}

// encodeF16 handles the normal range only, which is all the tests use.
func encodeF16(f float32) uint16 {
	if f == 0 {
		return 0
	}

	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & 0x8000
	exp := int((bits>>23)&0xFF) - 127 + 15
	frac := uint16((bits >> 13) & 0x3FF)

	return sign | uint16(exp)<<10 | frac
}
