// Package sbix reads Apple's sbix table of embedded colour bitmaps
// (used by emoji fonts) from raw sfnt data.
package sbix

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
)

// Errors returned by the parser.
var (
	// ErrNoTable indicates the font has no table with the requested tag.
	ErrNoTable = errors.New("sbix: table not found")

	// ErrInvalidData indicates malformed table data.
	ErrInvalidData = errors.New("sbix: invalid table data")

	// ErrNoGlyph indicates the glyph has no bitmap in the strike.
	ErrNoGlyph = errors.New("sbix: glyph has no bitmap")

	// ErrUnsupportedFormat indicates a graphic type that cannot be decoded.
	ErrUnsupportedFormat = errors.New("sbix: unsupported graphic type")
)

// maxDupeDepth bounds chains of "dupe" records.
const maxDupeDepth = 8

// FindTable returns the bytes of the table with the given tag from a single
// (non-collection) sfnt font file.
func FindTable(data []byte, tag string) ([]byte, error) {
	if len(tag) != 4 {
		return nil, ErrNoTable
	}
	if len(data) < 12 {
		return nil, ErrInvalidData
	}
	numTables := int(binary.BigEndian.Uint16(data[4:6]))
	if 12+numTables*16 > len(data) {
		return nil, ErrInvalidData
	}
	for i := range numTables {
		rec := data[12+i*16 : 28+i*16]
		if string(rec[0:4]) != tag {
			continue
		}
		offset := binary.BigEndian.Uint32(rec[8:12])
		length := binary.BigEndian.Uint32(rec[12:16])
		end := uint64(offset) + uint64(length)
		if end > uint64(len(data)) {
			return nil, ErrInvalidData
		}
		return data[offset:end], nil
	}
	return nil, ErrNoTable
}

// Table is a parsed sbix table.
type Table struct {
	data      []byte
	numGlyphs int
	strikes   []strike
}

// strike is one bitmap size of the table.
type strike struct {
	ppem    uint16
	ppi     uint16
	offset  uint32
	offsets []uint32 // numGlyphs+1 glyph data offsets, relative to the strike
}

// Parse parses an sbix table. numGlyphs comes from the font's maxp table.
func Parse(table []byte, numGlyphs int) (*Table, error) {
	if len(table) == 0 {
		return nil, ErrNoTable
	}
	if len(table) < 8 || numGlyphs <= 0 {
		return nil, ErrInvalidData
	}
	if binary.BigEndian.Uint16(table[0:2]) != 1 {
		return nil, ErrInvalidData
	}

	numStrikes := int(binary.BigEndian.Uint32(table[4:8]))
	if numStrikes > (len(table)-8)/4 {
		return nil, ErrInvalidData
	}

	t := &Table{data: table, numGlyphs: numGlyphs, strikes: make([]strike, numStrikes)}
	for i := range numStrikes {
		off := binary.BigEndian.Uint32(table[8+i*4:])
		if err := t.parseStrike(&t.strikes[i], off); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) parseStrike(s *strike, off uint32) error {
	n := t.numGlyphs + 1
	start := uint64(off)
	if start+4+uint64(n)*4 > uint64(len(t.data)) {
		return ErrInvalidData
	}

	s.offset = off
	s.ppem = binary.BigEndian.Uint16(t.data[off:])
	s.ppi = binary.BigEndian.Uint16(t.data[off+2:])
	s.offsets = make([]uint32, n)
	for i := range n {
		s.offsets[i] = binary.BigEndian.Uint32(t.data[off+4+uint32(i)*4:])
	}
	return nil
}

// Strikes returns the ppem of every strike, in table order.
func (t *Table) Strikes() []uint16 {
	out := make([]uint16, len(t.strikes))
	for i, s := range t.strikes {
		out[i] = s.ppem
	}
	return out
}

// BestStrike returns the index of the strike to use for ppem: the smallest
// strike at least as large, or the largest strike if none is. It returns -1
// when the table has no strikes.
func (t *Table) BestStrike(ppem uint16) int {
	best := -1
	for i, s := range t.strikes {
		switch {
		case best < 0:
			best = i
		case s.ppem >= ppem && (t.strikes[best].ppem < ppem || s.ppem < t.strikes[best].ppem):
			best = i
		case t.strikes[best].ppem < ppem && s.ppem > t.strikes[best].ppem:
			best = i
		}
	}
	return best
}

// Bitmap is the bitmap of one glyph in one strike.
type Bitmap struct {
	// Tag is the graphic type, e.g. "png ".
	Tag string
	// Data is the encoded image.
	Data []byte
	// OriginX and OriginY place the bottom-left corner of the image relative
	// to the glyph origin, in strike pixels (y up).
	OriginX int16
	OriginY int16
	// PPEM is the strike size the bitmap was drawn for.
	PPEM uint16
}

// Glyph returns the bitmap of glyph gid in the given strike. Records of type
// "dupe" are followed to the glyph they reference.
func (t *Table) Glyph(gid int, strikeIndex int) (*Bitmap, error) {
	if strikeIndex < 0 || strikeIndex >= len(t.strikes) {
		return nil, ErrNoGlyph
	}
	s := &t.strikes[strikeIndex]

	for range maxDupeDepth {
		if gid < 0 || gid >= t.numGlyphs {
			return nil, ErrNoGlyph
		}
		begin, end := s.offsets[gid], s.offsets[gid+1]
		if end <= begin {
			return nil, ErrNoGlyph
		}
		if end-begin < 8 || uint64(s.offset)+uint64(end) > uint64(len(t.data)) {
			return nil, ErrInvalidData
		}

		rec := t.data[s.offset+begin : s.offset+end]
		tag := string(rec[4:8])
		if tag == "dupe" {
			if len(rec) < 10 {
				return nil, ErrInvalidData
			}
			gid = int(binary.BigEndian.Uint16(rec[8:10]))
			continue
		}
		return &Bitmap{
			Tag:     tag,
			Data:    rec[8:],
			OriginX: int16(binary.BigEndian.Uint16(rec[0:2])), //nolint:gosec // signed field
			OriginY: int16(binary.BigEndian.Uint16(rec[2:4])), //nolint:gosec // signed field
			PPEM:    s.ppem,
		}, nil
	}
	return nil, ErrInvalidData
}

// HasGlyph reports whether any strike holds a bitmap for gid.
func (t *Table) HasGlyph(gid int) bool {
	if gid < 0 || gid >= t.numGlyphs {
		return false
	}
	for _, s := range t.strikes {
		if s.offsets[gid+1] > s.offsets[gid] {
			return true
		}
	}
	return false
}

// Decode decodes the bitmap image.
func (b *Bitmap) Decode() (image.Image, error) {
	switch b.Tag {
	case "png ":
		return png.Decode(bytes.NewReader(b.Data))
	case "jpg ":
		return jpeg.Decode(bytes.NewReader(b.Data))
	default:
		return nil, ErrUnsupportedFormat
	}
}
