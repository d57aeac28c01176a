package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/celldb/sample"
)

func readWide(c *csv.Reader, opts Options) (*Result, error) {
	header, err := c.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, io.ErrUnexpectedEOF)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: header needs an id column and at least one feature", ErrMalformed)
	}

	features := make([]string, len(header)-1)
	for i, f := range header[1:] {
		features[i] = strings.TrimSpace(f)
	}

	dim := len(features)
	if opts.Dimension != 0 && opts.Dimension != dim {
		return nil, fmt.Errorf("%w: header has %d features, dimension is %d", ErrMalformed, dim, opts.Dimension)
	}

	res := &Result{Dimension: dim, Features: features}
	seen := make(map[string]struct{})

	for {
		rec, err := c.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		id := strings.TrimSpace(rec[0])
		if id == "" {
			return nil, fmt.Errorf("%w: line %d: empty sample id", ErrMalformed, lineOf(c))
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate sample id %q", ErrMalformed, lineOf(c), id)
		}
		seen[id] = struct{}{}

		var (
			indices []int32
			values  []float64
		)
		for i, cell := range rec[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: value %q for %q in sample %q: %v", ErrMalformed, lineOf(c), cell, features[i], id, err)
			}
			indices = append(indices, int32(i))
			values = append(values, v)
		}

		s, err := sample.New(id, dim, indices, values)
		if err != nil {
			return nil, err
		}
		res.Samples = append(res.Samples, s)
		res.Entries += len(indices)
	}
	return res, nil
}
