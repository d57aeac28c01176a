package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/celldb"
	"github.com/hupe1980/celldb/ingest"
)

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a CSV/TSV file and commit a new version",
		Long: `Import reads a long ("id,index,value" per measurement) or wide (one column
per feature, empty cell = missing) file, adds every sample to the dataset and
commits a new version. Samples with an existing id are replaced.

Examples:
  celldb --storage ./data import --input counts.csv
  celldb --storage ./data import --input matrix.tsv.gz --format wide --delimiter '\t'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runImport(cmd)
		},
	}
	cmd.Flags().String("input", "", "Input file (.gz is decompressed)")
	cmd.Flags().String("format", "long", "Input layout: long or wide")
	cmd.Flags().Int("dimension", 0, "Number of features (0 = infer)")
	cmd.Flags().String("delimiter", ",", `Field delimiter ("\t" for TSV)`)
	cmd.Flags().String("comment", "", "Comment character")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func parseRune(flag, s string) (rune, error) {
	if s == "" {
		return 0, nil
	}
	if s == `\t` {
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, fmt.Errorf("--%s must be a single character, got %q", flag, s)
	}
	return r[0], nil
}

type importResult struct {
	Input    string           `json:"input"`
	Format   string           `json:"format"`
	Samples  int              `json:"samples"`
	Entries  int              `json:"entries"`
	Elapsed  string           `json:"elapsed"`
	Manifest *celldb.Manifest `json:"manifest"`
}

func (a *app) runImport(cmd *cobra.Command) error {
	ctx := cmd.Context()
	start := time.Now()

	format, err := ingest.ParseFormat(a.v.GetString("format"))
	if err != nil {
		return err
	}
	delim, err := parseRune("delimiter", a.v.GetString("delimiter"))
	if err != nil {
		return err
	}
	if delim == 0 {
		delim = ','
	}
	comment, err := parseRune("comment", a.v.GetString("comment"))
	if err != nil {
		return err
	}

	// An existing dataset fixes the dimension the input is read with.
	dim := a.v.GetInt("dimension")
	db, err := a.openDB(ctx, celldb.WithDimension(dim))
	switch {
	case err == nil:
		defer db.Close()
		dim = db.Dimension()
	case errors.Is(err, celldb.ErrNoCommit):
		db = nil
	default:
		return err
	}

	input := a.v.GetString("input")
	res, err := ingest.ReadFile(input, format,
		ingest.WithDelimiter(delim),
		ingest.WithComment(comment),
		ingest.WithDimension(dim),
	)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}
	a.logger.WithCount(len(res.Samples)).InfoContext(ctx, "input parsed", "input", input, "dimension", res.Dimension, "entries", res.Entries)

	if db == nil {
		db, err = a.openDB(ctx, celldb.WithDimension(res.Dimension))
		if err != nil {
			return err
		}
		defer db.Close()
	}

	if err := db.PutAll(ctx, res.Samples); err != nil {
		return err
	}
	m, err := db.Commit(ctx)
	if err != nil {
		return err
	}

	out := importResult{
		Input:    input,
		Format:   format.String(),
		Samples:  len(res.Samples),
		Entries:  res.Entries,
		Elapsed:  time.Since(start).Round(time.Millisecond).String(),
		Manifest: m,
	}
	return a.render(out, [][]string{
		{"Version", "Samples", "Entries", "Dataset rows", "Dimension", "Bytes", "Compression"},
		{
			strconv.FormatUint(m.Version, 10),
			strconv.Itoa(out.Samples),
			strconv.Itoa(out.Entries),
			strconv.Itoa(m.Rows),
			strconv.Itoa(m.Dimension),
			strconv.FormatInt(m.Bytes, 10),
			m.Compression,
		},
	})
}
