package coding

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/hupe1980/postcodes/model"
)

const (
	// CoordBits is the number of significant bits per stored component.
	CoordBits = 30
	// CoordMask selects the significant bits of a stored component.
	CoordMask uint32 = 1<<CoordBits - 1
	// ReservedMask selects the bits above CoordBits; they must be zero.
	ReservedMask uint32 = ^CoordMask

	// RecordSize is the width of one encoded point (x then y, little-endian).
	RecordSize = 8

	MinLon = -180.0
	MaxLon = 180.0
	MinLat = -90.0
	MaxLat = 90.0

	// PointAccuracy is the round-trip tolerance guaranteed for stored points.
	PointAccuracy = 1e-5
)

var (
	// ErrOutOfBounds is returned when a coordinate is outside the valid range.
	ErrOutOfBounds = errors.New("coding: coordinate out of bounds")
	// ErrReservedBits is returned when a stored word has reserved bits set.
	ErrReservedBits = errors.New("coding: reserved bits set")
	// ErrShortRecord is returned when a buffer is smaller than RecordSize.
	ErrShortRecord = errors.New("coding: short point record")
)

// Quantize maps v in [lo, hi] onto [0, CoordMask].
func Quantize(v, lo, hi float64) uint32 {
	if v <= lo {
		return 0
	}
	if v >= hi {
		return CoordMask
	}
	return uint32(math.Round((v - lo) / (hi - lo) * float64(CoordMask)))
}

// Dequantize is the inverse of Quantize. Reserved bits are ignored.
func Dequantize(q uint32, lo, hi float64) float64 {
	return lo + float64(q&CoordMask)/float64(CoordMask)*(hi-lo)
}

// EncodePoint quantizes p into a (x, y) pair.
func EncodePoint(p model.Point) (x, y uint32, err error) {
	if math.IsNaN(p.Lon) || math.IsNaN(p.Lat) ||
		p.Lon < MinLon || p.Lon > MaxLon || p.Lat < MinLat || p.Lat > MaxLat {
		return 0, 0, ErrOutOfBounds
	}
	return Quantize(p.Lon, MinLon, MaxLon), Quantize(p.Lat, MinLat, MaxLat), nil
}

// DecodePoint converts a quantized pair back to degrees.
func DecodePoint(x, y uint32) model.Point {
	return model.Point{
		Lon: Dequantize(x, MinLon, MaxLon),
		Lat: Dequantize(y, MinLat, MaxLat),
	}
}

// AppendPoint appends the RecordSize-byte encoding of p to dst.
func AppendPoint(dst []byte, p model.Point) ([]byte, error) {
	x, y, err := EncodePoint(p)
	if err != nil {
		return dst, err
	}
	dst = binary.LittleEndian.AppendUint32(dst, x)
	return binary.LittleEndian.AppendUint32(dst, y), nil
}

// ReadPoint decodes one record from the start of buf.
func ReadPoint(buf []byte) (model.Point, error) {
	if len(buf) < RecordSize {
		return model.Point{}, ErrShortRecord
	}
	x := binary.LittleEndian.Uint32(buf[0:])
	y := binary.LittleEndian.Uint32(buf[4:])
	if x&ReservedMask != 0 || y&ReservedMask != 0 {
		return model.Point{}, ErrReservedBits
	}
	return DecodePoint(x, y), nil
}
