package query

import (
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/celldb/sample"
)

// Coverage records which samples measured which features.
//
// Each feature keeps a roaring bitmap of sample ordinals (positions in the
// input slice); results are translated back to sample ids in input order.
type Coverage struct {
	ids      []string
	features []*roaring.Bitmap
}

// NewCoverage builds the coverage index. Explicit zeros count as measured.
func NewCoverage(samples []*sample.Sample) (*Coverage, error) {
	dim, err := dimension(samples)
	if err != nil {
		return nil, err
	}
	if len(samples) > math.MaxUint32 {
		return nil, fmt.Errorf("coverage: %d samples exceed the bitmap range", len(samples))
	}

	c := &Coverage{
		ids:      make([]string, len(samples)),
		features: make([]*roaring.Bitmap, dim),
	}
	for i := range c.features {
		c.features[i] = roaring.New()
	}
	for ord, s := range samples {
		c.ids[ord] = s.ID()
		for _, idx := range s.Indices() {
			c.features[idx].Add(uint32(ord)) //nolint:gosec
		}
	}
	for _, bm := range c.features {
		bm.RunOptimize()
	}
	return c, nil
}

// Dimension returns the number of features.
func (c *Coverage) Dimension() int { return len(c.features) }

func (c *Coverage) bitmap(feature int) (*roaring.Bitmap, error) {
	if feature < 0 || feature >= len(c.features) {
		return nil, fmt.Errorf("%w: feature %d not in [0, %d)", sample.ErrIndexOutOfRange, feature, len(c.features))
	}
	return c.features[feature], nil
}

// Count returns how many samples measured feature.
func (c *Coverage) Count(feature int) (int, error) {
	bm, err := c.bitmap(feature)
	if err != nil {
		return 0, err
	}
	return int(bm.GetCardinality()), nil //nolint:gosec
}

// Measured returns the ids of samples that measured feature.
func (c *Coverage) Measured(feature int) ([]string, error) {
	bm, err := c.bitmap(feature)
	if err != nil {
		return nil, err
	}
	return c.resolve(bm), nil
}

// MeasuredAll returns the ids of samples that measured every listed feature.
// With no features it returns every sample.
func (c *Coverage) MeasuredAll(features ...int) ([]string, error) {
	if len(features) == 0 {
		all := roaring.New()
		all.AddRange(0, uint64(len(c.ids)))
		return c.resolve(all), nil
	}

	bms, err := c.bitmaps(features)
	if err != nil {
		return nil, err
	}
	return c.resolve(roaring.FastAnd(bms...)), nil
}

// MeasuredAny returns the ids of samples that measured at least one of the
// listed features.
func (c *Coverage) MeasuredAny(features ...int) ([]string, error) {
	bms, err := c.bitmaps(features)
	if err != nil {
		return nil, err
	}
	return c.resolve(roaring.FastOr(bms...)), nil
}

func (c *Coverage) bitmaps(features []int) ([]*roaring.Bitmap, error) {
	out := make([]*roaring.Bitmap, len(features))
	for i, f := range features {
		bm, err := c.bitmap(f)
		if err != nil {
			return nil, err
		}
		out[i] = bm
	}
	return out, nil
}

func (c *Coverage) resolve(bm *roaring.Bitmap) []string {
	out := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, c.ids[it.Next()])
	}
	return out
}
