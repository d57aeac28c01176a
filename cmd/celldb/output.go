package main

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/hupe1980/celldb/codec"
)

// render writes v as indented JSON when --json is set and as a table
// otherwise. rows must start with the header row.
func (a *app) render(v any, rows [][]string) error {
	if a.v.GetBool("json") {
		data, err := codec.MarshalIndent(codec.Default, v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, string(data))
		return err
	}

	s, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, s)
	return err
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatFloats(fs []float64) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = formatFloat(f)
	}
	return out
}
