package ingest

import (
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hupe1980/celldb/sample"
)

// ErrMalformed is returned when a record cannot be interpreted.
var ErrMalformed = errors.New("malformed input")

// Format selects the input layout.
type Format int

const (
	// FormatLong is one "id,index,value" record per measurement.
	FormatLong Format = iota
	// FormatWide is one record per sample with a column per feature.
	FormatWide
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case FormatLong:
		return "long"
	case FormatWide:
		return "wide"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses "long" or "wide".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "":
		return FormatLong, nil
	case "wide":
		return FormatWide, nil
	default:
		return 0, fmt.Errorf("ingest: unknown format %q", s)
	}
}

// Options configures a reader.
type Options struct {
	// Delimiter separates fields. Defaults to ','.
	Delimiter rune
	// Comment starts a line that is ignored. Zero disables comments.
	Comment rune
	// Dimension fixes the sample dimension. Zero infers it: the largest index
	// plus one for long input, the number of feature columns for wide input.
	Dimension int
}

// Option configures Options.
type Option func(*Options)

// WithDelimiter sets the field delimiter.
func WithDelimiter(r rune) Option {
	return func(o *Options) { o.Delimiter = r }
}

// WithComment sets the comment rune.
func WithComment(r rune) Option {
	return func(o *Options) { o.Comment = r }
}

// WithDimension fixes the dimension instead of inferring it.
func WithDimension(dim int) Option {
	return func(o *Options) { o.Dimension = dim }
}

// Result is the outcome of reading one input.
type Result struct {
	// Samples are in order of first appearance.
	Samples []*sample.Sample
	// Dimension is shared by every sample.
	Dimension int
	// Features holds the wide header's feature names. Nil for long input.
	Features []string
	// Entries is the total number of explicit measurements.
	Entries int
}

// Read parses r in the given format.
func Read(r io.Reader, format Format, optFns ...Option) (*Result, error) {
	opts := Options{Delimiter: ','}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Dimension < 0 {
		return nil, fmt.Errorf("%w: negative dimension %d", ErrMalformed, opts.Dimension)
	}

	c := csv.NewReader(r)
	c.Comma = opts.Delimiter
	c.Comment = opts.Comment
	c.TrimLeadingSpace = true
	c.ReuseRecord = true

	switch format {
	case FormatLong:
		return readLong(c, opts)
	case FormatWide:
		return readWide(c, opts)
	default:
		return nil, fmt.Errorf("ingest: unknown format %v", format)
	}
}

// ReadFile opens path and parses it. A ".gz" suffix is gunzipped.
func ReadFile(path string, format Format, optFns ...Option) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return Read(r, format, optFns...)
}

func lineOf(c *csv.Reader) int {
	line, _ := c.FieldPos(0)
	return line
}
