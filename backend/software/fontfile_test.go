package software

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"slices"
	"testing"

	"golang.org/x/image/font/sfnt"
)

// withTables returns a copy of the single font data with extra tables added
// to its table directory. Existing tables keep their contents.
func withTables(t *testing.T, data []byte, extra map[string][]byte) []byte {
	t.Helper()
	type record struct {
		tag            string
		offset, length uint32
	}

	numTables := int(binary.BigEndian.Uint16(data[4:6]))
	dirEnd := 12 + 16*numTables
	shift := uint32(16 * len(extra))

	records := make([]record, 0, numTables+len(extra))
	for i := range numTables {
		rec := data[12+i*16 : 28+i*16]
		records = append(records, record{
			tag:    string(rec[0:4]),
			offset: binary.BigEndian.Uint32(rec[8:12]) + shift,
			length: binary.BigEndian.Uint32(rec[12:16]),
		})
	}

	out := make([]byte, 0, len(data)+int(shift)+1024)
	out = append(out, data[:12]...)
	out = append(out, make([]byte, 16*(numTables+len(extra)))...)
	out = append(out, data[dirEnd:]...)
	for tag, body := range extra {
		if len(tag) != 4 {
			t.Fatalf("invalid table tag %q", tag)
		}
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
		records = append(records, record{tag: tag, offset: uint32(len(out)), length: uint32(len(body))})
		out = append(out, body...)
	}
	for len(out)%4 != 0 {
		out = append(out, 0)
	}

	slices.SortFunc(records, func(a, b record) int { return cmp.Compare(a.tag, b.tag) })
	binary.BigEndian.PutUint16(out[4:], uint16(len(records)))
	for i, r := range records {
		rec := out[12+i*16 : 28+i*16]
		copy(rec[0:4], r.tag)
		binary.BigEndian.PutUint32(rec[8:], r.offset)
		binary.BigEndian.PutUint32(rec[12:], r.length)
	}
	return out
}

// collection joins single fonts into a TTC file.
func collection(t *testing.T, fonts ...[]byte) []byte {
	t.Helper()
	header := 12 + 4*len(fonts)
	out := make([]byte, header)
	copy(out, "ttcf")
	binary.BigEndian.PutUint16(out[4:], 1)
	binary.BigEndian.PutUint32(out[8:], uint32(len(fonts)))

	for i, data := range fonts {
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
		base := uint32(len(out))
		binary.BigEndian.PutUint32(out[12+i*4:], base)
		font := bytes.Clone(data)
		for j := range int(binary.BigEndian.Uint16(font[4:6])) {
			rec := font[12+j*16:]
			binary.BigEndian.PutUint32(rec[8:], binary.BigEndian.Uint32(rec[8:])+base)
		}
		out = append(out, font...)
	}
	return out
}

// kernPair is one entry of a legacy kern table, in font units.
type kernPair struct {
	left, right sfnt.GlyphIndex
	value       int16
}

// kernTable builds a version 0 kern table with one horizontal format 0
// subtable.
func kernTable(pairs ...kernPair) []byte {
	pairs = slices.Clone(pairs)
	slices.SortFunc(pairs, func(a, b kernPair) int {
		return cmp.Or(cmp.Compare(a.left, b.left), cmp.Compare(a.right, b.right))
	})

	sub := make([]byte, 14, 14+6*len(pairs))
	binary.BigEndian.PutUint16(sub[2:], uint16(14+6*len(pairs)))
	sub[5] = 0x01 // horizontal
	binary.BigEndian.PutUint16(sub[6:], uint16(len(pairs)))
	for _, p := range pairs {
		e := make([]byte, 6)
		binary.BigEndian.PutUint16(e[0:], uint16(p.left))
		binary.BigEndian.PutUint16(e[2:], uint16(p.right))
		binary.BigEndian.PutUint16(e[4:], uint16(p.value))
		sub = append(sub, e...)
	}
	return append([]byte{0, 0, 0, 1}, sub...)
}

// cbdtTables builds CBLC and CBDT tables with one strike at ppem holding a
// format 17 PNG for gid.
func cbdtTables(gid sfnt.GlyphIndex, ppem uint8, pngData []byte, w, h uint8, bx, by int8) (cblcData, cbdtData []byte) {
	rec := []byte{h, w, byte(bx), byte(by), w, 0, 0, 0, 0}
	binary.BigEndian.PutUint32(rec[5:], uint32(len(pngData)))
	cbdtData = append([]byte{0, 3, 0, 0}, rec...)
	cbdtData = append(cbdtData, pngData...)

	size := make([]byte, 48)
	binary.BigEndian.PutUint32(size[0:], 56) // index subtable array
	binary.BigEndian.PutUint32(size[8:], 1)
	binary.BigEndian.PutUint16(size[40:], uint16(gid))
	binary.BigEndian.PutUint16(size[42:], uint16(gid))
	size[44], size[45], size[46] = ppem, ppem, 32

	array := make([]byte, 8)
	binary.BigEndian.PutUint16(array[0:], uint16(gid))
	binary.BigEndian.PutUint16(array[2:], uint16(gid))
	binary.BigEndian.PutUint32(array[4:], 8)

	sub := make([]byte, 16)
	binary.BigEndian.PutUint16(sub[0:], 1)  // index format
	binary.BigEndian.PutUint16(sub[2:], 17) // image format
	binary.BigEndian.PutUint32(sub[4:], 4)
	binary.BigEndian.PutUint32(sub[12:], uint32(len(rec)+len(pngData)))

	cblcData = []byte{0, 3, 0, 0, 0, 0, 0, 1}
	cblcData = append(cblcData, size...)
	cblcData = append(cblcData, array...)
	cblcData = append(cblcData, sub...)
	return cblcData, cbdtData
}

// solidPNG encodes a w×h image filled with c.
func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
