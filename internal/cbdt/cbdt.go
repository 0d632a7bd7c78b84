// Package cbdt reads Google's CBLC/CBDT colour bitmap tables (used by Noto
// Color Emoji and other Linux emoji fonts) from raw sfnt table data.
package cbdt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/png"
)

// Errors returned by the parser.
var (
	// ErrNoTable indicates the font lacks the CBLC or the CBDT table.
	ErrNoTable = errors.New("cbdt: table not found")

	// ErrInvalidData indicates malformed table data.
	ErrInvalidData = errors.New("cbdt: invalid table data")

	// ErrNoGlyph indicates the glyph has no bitmap in the strike.
	ErrNoGlyph = errors.New("cbdt: glyph has no bitmap")

	// ErrUnsupportedFormat indicates an index or image format that cannot be
	// read.
	ErrUnsupportedFormat = errors.New("cbdt: unsupported format")
)

const majorVersion = 3

// Index subtable formats.
const (
	indexFormat1 = 1 // variable metrics, 32-bit offsets
	indexFormat2 = 2 // constant metrics, no offset array
	indexFormat3 = 3 // variable metrics, 16-bit offsets
	indexFormat4 = 4 // variable metrics, sparse glyph ids
	indexFormat5 = 5 // constant metrics, sparse glyph ids
)

// Image formats.
const (
	imageFormat17 = 17 // small metrics + PNG
	imageFormat18 = 18 // big metrics + PNG
	imageFormat19 = 19 // metrics in CBLC, PNG only
)

const bitmapSizeLen = 48

// Table is a parsed CBLC/CBDT pair.
type Table struct {
	cbdt    []byte
	strikes []strike
}

// strike is one BitmapSize record of the CBLC table.
type strike struct {
	ppem       uint8
	start, end uint16
	subtables  []subtable
}

// subtable is one index subtable of a strike.
type subtable struct {
	first, last uint16
	indexFormat uint16
	imageFormat uint16
	dataOffset  uint32

	offsets   []uint32 // formats 1 and 3, relative to dataOffset
	imageSize uint32   // formats 2 and 5
	metrics   metrics  // formats 2 and 5
	glyphIDs  []uint16 // formats 4 and 5
}

// metrics is the part of the big and small glyph metrics the renderer needs.
type metrics struct {
	width, height      uint8
	bearingX, bearingY int8
}

// Parse parses a CBLC location table and its CBDT data table.
func Parse(cblc, cbdt []byte) (*Table, error) {
	if len(cblc) == 0 || len(cbdt) == 0 {
		return nil, ErrNoTable
	}
	if len(cblc) < 8 || len(cbdt) < 4 {
		return nil, ErrInvalidData
	}
	if v := binary.BigEndian.Uint16(cblc[0:2]); v != majorVersion {
		return nil, fmt.Errorf("%w: CBLC version %d", ErrUnsupportedFormat, v)
	}
	if v := binary.BigEndian.Uint16(cbdt[0:2]); v != majorVersion {
		return nil, fmt.Errorf("%w: CBDT version %d", ErrUnsupportedFormat, v)
	}

	numSizes := uint64(binary.BigEndian.Uint32(cblc[4:8]))
	if 8+numSizes*bitmapSizeLen > uint64(len(cblc)) {
		return nil, ErrInvalidData
	}

	t := &Table{cbdt: cbdt, strikes: make([]strike, numSizes)}
	for i := range t.strikes {
		rec := cblc[8+i*bitmapSizeLen : 8+(i+1)*bitmapSizeLen]
		if err := parseStrike(cblc, rec, &t.strikes[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func parseStrike(cblc, rec []byte, s *strike) error {
	arrayOffset := uint64(binary.BigEndian.Uint32(rec[0:4]))
	count := uint64(binary.BigEndian.Uint32(rec[8:12]))
	s.start = binary.BigEndian.Uint16(rec[40:42])
	s.end = binary.BigEndian.Uint16(rec[42:44])
	s.ppem = rec[44]

	if arrayOffset+count*8 > uint64(len(cblc)) {
		return ErrInvalidData
	}
	s.subtables = make([]subtable, 0, count)
	for i := range count {
		r := cblc[arrayOffset+i*8:]
		st := subtable{
			first: binary.BigEndian.Uint16(r[0:2]),
			last:  binary.BigEndian.Uint16(r[2:4]),
		}
		if st.last < st.first {
			return ErrInvalidData
		}
		off := arrayOffset + uint64(binary.BigEndian.Uint32(r[4:8]))
		err := parseSubtable(cblc, off, &st)
		if errors.Is(err, ErrUnsupportedFormat) {
			continue
		}
		if err != nil {
			return err
		}
		s.subtables = append(s.subtables, st)
	}
	return nil
}

func parseSubtable(cblc []byte, off uint64, st *subtable) error {
	if off+8 > uint64(len(cblc)) {
		return ErrInvalidData
	}
	h := cblc[off:]
	st.indexFormat = binary.BigEndian.Uint16(h[0:2])
	st.imageFormat = binary.BigEndian.Uint16(h[2:4])
	st.dataOffset = binary.BigEndian.Uint32(h[4:8])
	body := cblc[off+8:]
	n := int(st.last) - int(st.first) + 1

	switch st.indexFormat {
	case indexFormat1:
		if len(body) < (n+1)*4 {
			return ErrInvalidData
		}
		st.offsets = make([]uint32, n+1)
		for i := range st.offsets {
			st.offsets[i] = binary.BigEndian.Uint32(body[i*4:])
		}
	case indexFormat3:
		if len(body) < (n+1)*2 {
			return ErrInvalidData
		}
		st.offsets = make([]uint32, n+1)
		for i := range st.offsets {
			st.offsets[i] = uint32(binary.BigEndian.Uint16(body[i*2:]))
		}
	case indexFormat2:
		if len(body) < 12 {
			return ErrInvalidData
		}
		st.imageSize = binary.BigEndian.Uint32(body[0:4])
		st.metrics = parseBigMetrics(body[4:12])
	case indexFormat4:
		if len(body) < 4 {
			return ErrInvalidData
		}
		pairs := int(binary.BigEndian.Uint32(body[0:4])) + 1
		if pairs > (len(body)-4)/4 {
			return ErrInvalidData
		}
		st.glyphIDs = make([]uint16, pairs)
		st.offsets = make([]uint32, pairs)
		for i := range pairs {
			p := body[4+i*4:]
			st.glyphIDs[i] = binary.BigEndian.Uint16(p[0:2])
			st.offsets[i] = uint32(binary.BigEndian.Uint16(p[2:4]))
		}
	case indexFormat5:
		if len(body) < 16 {
			return ErrInvalidData
		}
		st.imageSize = binary.BigEndian.Uint32(body[0:4])
		st.metrics = parseBigMetrics(body[4:12])
		num := int(binary.BigEndian.Uint32(body[12:16]))
		if num > (len(body)-16)/2 {
			return ErrInvalidData
		}
		st.glyphIDs = make([]uint16, num)
		for i := range num {
			st.glyphIDs[i] = binary.BigEndian.Uint16(body[16+i*2:])
		}
	default:
		return ErrUnsupportedFormat
	}
	return nil
}

func parseBigMetrics(b []byte) metrics {
	return metrics{
		height:   b[0],
		width:    b[1],
		bearingX: int8(b[2]), //nolint:gosec // signed field
		bearingY: int8(b[3]), //nolint:gosec // signed field
	}
}

// Strikes returns the ppem of every strike, in table order.
func (t *Table) Strikes() []uint16 {
	out := make([]uint16, len(t.strikes))
	for i, s := range t.strikes {
		out[i] = uint16(s.ppem)
	}
	return out
}

// BestStrike returns the index of the strike to use for ppem: the smallest
// strike at least as large, or the largest strike if none is. It returns -1
// when the table has no strikes.
func (t *Table) BestStrike(ppem uint16) int {
	best := -1
	for i, s := range t.strikes {
		p := uint16(s.ppem)
		switch {
		case best < 0:
			best = i
		case p >= ppem && (uint16(t.strikes[best].ppem) < ppem || s.ppem < t.strikes[best].ppem):
			best = i
		case uint16(t.strikes[best].ppem) < ppem && s.ppem > t.strikes[best].ppem:
			best = i
		}
	}
	return best
}

// Bitmap is the PNG bitmap of one glyph in one strike.
type Bitmap struct {
	// Data is the encoded PNG image.
	Data []byte
	// Width and Height are the bitmap size in strike pixels.
	Width, Height int
	// BearingX is the distance from the glyph origin to the left edge and
	// BearingY the distance from the baseline up to the top edge, in strike
	// pixels.
	BearingX, BearingY int
	// PPEM is the strike size the bitmap was drawn for.
	PPEM uint16
}

// Glyph returns the bitmap of glyph gid in the given strike.
func (t *Table) Glyph(gid uint16, strikeIndex int) (*Bitmap, error) {
	if strikeIndex < 0 || strikeIndex >= len(t.strikes) {
		return nil, ErrNoGlyph
	}
	s := &t.strikes[strikeIndex]
	if gid < s.start || gid > s.end {
		return nil, ErrNoGlyph
	}
	for i := range s.subtables {
		st := &s.subtables[i]
		if gid < st.first || gid > st.last {
			continue
		}
		off, size, ok := st.locate(gid)
		if !ok || size == 0 {
			return nil, ErrNoGlyph
		}
		bm, err := t.image(st, off, size)
		if err != nil {
			return nil, err
		}
		bm.PPEM = uint16(s.ppem)
		return bm, nil
	}
	return nil, ErrNoGlyph
}

// HasGlyph reports whether any strike holds a bitmap for gid.
func (t *Table) HasGlyph(gid uint16) bool {
	for _, s := range t.strikes {
		for i := range s.subtables {
			st := &s.subtables[i]
			if gid < st.first || gid > st.last {
				continue
			}
			if _, size, ok := st.locate(gid); ok && size > 0 {
				return true
			}
		}
	}
	return false
}

// locate returns the offset and size of gid's image in the CBDT table.
func (st *subtable) locate(gid uint16) (offset, size uint64, ok bool) {
	i := int(gid) - int(st.first)
	base := uint64(st.dataOffset)

	switch st.indexFormat {
	case indexFormat1, indexFormat3:
		if i+1 >= len(st.offsets) || st.offsets[i+1] < st.offsets[i] {
			return 0, 0, false
		}
		return base + uint64(st.offsets[i]), uint64(st.offsets[i+1] - st.offsets[i]), true
	case indexFormat2:
		return base + uint64(i)*uint64(st.imageSize), uint64(st.imageSize), true
	case indexFormat4:
		for j := 0; j+1 < len(st.glyphIDs); j++ {
			if st.glyphIDs[j] == gid {
				if st.offsets[j+1] < st.offsets[j] {
					return 0, 0, false
				}
				return base + uint64(st.offsets[j]), uint64(st.offsets[j+1] - st.offsets[j]), true
			}
		}
	case indexFormat5:
		for j, id := range st.glyphIDs {
			if id == gid {
				return base + uint64(j)*uint64(st.imageSize), uint64(st.imageSize), true
			}
		}
	}
	return 0, 0, false
}

// image decodes the glyph record at off in the CBDT table.
func (t *Table) image(st *subtable, off, size uint64) (*Bitmap, error) {
	if off+size > uint64(len(t.cbdt)) {
		return nil, ErrInvalidData
	}
	rec := t.cbdt[off : off+size]

	var (
		m      metrics
		header int
	)
	switch st.imageFormat {
	case imageFormat17:
		if len(rec) < 9 {
			return nil, ErrInvalidData
		}
		m = metrics{height: rec[0], width: rec[1], bearingX: int8(rec[2]), bearingY: int8(rec[3])} //nolint:gosec // signed fields
		header = 5
	case imageFormat18:
		if len(rec) < 12 {
			return nil, ErrInvalidData
		}
		m = parseBigMetrics(rec[0:8])
		header = 8
	case imageFormat19:
		m = st.metrics
	default:
		return nil, ErrUnsupportedFormat
	}

	if len(rec) < header+4 {
		return nil, ErrInvalidData
	}
	n := uint64(binary.BigEndian.Uint32(rec[header:]))
	if uint64(header)+4+n > uint64(len(rec)) {
		return nil, ErrInvalidData
	}
	start := header + 4
	return &Bitmap{
		Data:     rec[start : start+int(n)], //nolint:gosec // bounded by len(rec)
		Width:    int(m.width),
		Height:   int(m.height),
		BearingX: int(m.bearingX),
		BearingY: int(m.bearingY),
	}, nil
}

// Decode decodes the bitmap image.
func (b *Bitmap) Decode() (image.Image, error) {
	return png.Decode(bytes.NewReader(b.Data))
}
