package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/hupe1980/celldb/sample"
)

type pending struct {
	id      string
	indices []int32
	values  []float64
}

func readLong(c *csv.Reader, opts Options) (*Result, error) {
	c.FieldsPerRecord = 3

	var (
		order  []*pending
		byID   = make(map[string]*pending)
		maxIdx = int64(-1)
		first  = true
	)

	for {
		rec, err := c.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		id := strings.TrimSpace(rec[0])
		idx, err := strconv.ParseInt(strings.TrimSpace(rec[1]), 10, 32)
		if err != nil {
			if first {
				// Header line.
				first = false
				continue
			}
			return nil, fmt.Errorf("%w: line %d: index %q: %v", ErrMalformed, lineOf(c), rec[1], err)
		}
		first = false

		v, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: value %q for sample %q: %v", ErrMalformed, lineOf(c), rec[2], id, err)
		}
		if id == "" {
			return nil, fmt.Errorf("%w: line %d: empty sample id", ErrMalformed, lineOf(c))
		}

		p, ok := byID[id]
		if !ok {
			p = &pending{id: id}
			byID[id] = p
			order = append(order, p)
		}
		p.indices = append(p.indices, int32(idx))
		p.values = append(p.values, v)
		if idx > maxIdx {
			maxIdx = idx
		}
	}

	dim := opts.Dimension
	if dim == 0 {
		dim = int(maxIdx + 1)
	}
	if dim <= 0 || dim > math.MaxInt32 {
		return nil, fmt.Errorf("%w: cannot infer dimension from empty input", ErrMalformed)
	}

	res := &Result{
		Samples:   make([]*sample.Sample, 0, len(order)),
		Dimension: dim,
	}
	for _, p := range order {
		s, err := sample.New(p.id, dim, p.indices, p.values)
		if err != nil {
			return nil, err
		}
		res.Samples = append(res.Samples, s)
		res.Entries += len(p.indices)
	}
	return res, nil
}
