// Package points decodes the dense point table of a postcode section.
package points

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/postcodes/internal/coding"
	"github.com/hupe1980/postcodes/internal/section"
	"github.com/hupe1980/postcodes/model"
)

// ErrOutOfRange is returned for ids at or beyond the table length.
// Callers treat it as index corruption.
var ErrOutOfRange = errors.New("point id out of range")

// Table is a read-only view of fixed-width point records.
// It is safe for concurrent use.
type Table struct {
	r *section.Reader
	n uint32
}

// Open wraps the point table view. The view length must be a multiple of
// the record size.
func Open(r *section.Reader) (*Table, error) {
	size := r.Size()
	if size%coding.RecordSize != 0 {
		return nil, fmt.Errorf("%w: point table size %d is not a multiple of %d", section.ErrCorruptIndex, size, coding.RecordSize)
	}
	return &Table{r: r, n: uint32(size / coding.RecordSize)}, nil
}

// Len returns the number of points.
func (t *Table) Len() int {
	return int(t.n)
}

// Get decodes the point with the given id.
func (t *Table) Get(ctx context.Context, id model.PointID) (model.Point, error) {
	if uint32(id) >= t.n {
		return model.Point{}, fmt.Errorf("%w: %d >= %d", ErrOutOfRange, id, t.n)
	}

	buf, err := t.r.ReadFull(ctx, int64(id)*coding.RecordSize, coding.RecordSize)
	if err != nil {
		return model.Point{}, err
	}

	p, err := coding.ReadPoint(buf)
	if err != nil {
		return model.Point{}, fmt.Errorf("%w: point %d: %v", section.ErrCorruptIndex, id, err)
	}
	return p, nil
}

// Encode serializes pts as a point table, ids following slice order.
func Encode(pts []model.Point) ([]byte, error) {
	buf := make([]byte, 0, len(pts)*coding.RecordSize)
	for i, p := range pts {
		var err error
		if buf, err = coding.AppendPoint(buf, p); err != nil {
			return nil, fmt.Errorf("point %d %s: %w", i, p, err)
		}
	}
	return buf, nil
}
