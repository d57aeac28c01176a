package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func parseFeatures(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		i, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid feature index %q", f)
		}
		out = append(out, i)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no feature indices given")
	}
	return out, nil
}

type featureRow struct {
	ID     string    `json:"id"`
	Values []float64 `json:"values"`
}

func newProjectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Print selected features of every sample (missing reads as 0)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			features, err := parseFeatures(a.v.GetString("features"))
			if err != nil {
				return err
			}

			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			byID, err := db.ProjectFeatures(ctx, features)
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(byID))
			for id := range byID {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			header := []string{"ID"}
			for _, f := range features {
				header = append(header, strconv.Itoa(f))
			}
			rows := [][]string{header}
			view := make([]featureRow, 0, len(ids))
			for _, id := range ids {
				view = append(view, featureRow{ID: id, Values: byID[id]})
				rows = append(rows, append([]string{id}, formatFloats(byID[id])...))
			}
			return a.render(view, rows)
		},
	}
	cmd.Flags().String("features", "", "Comma separated feature indices, e.g. 0,2")
	_ = cmd.MarkFlagRequired("features")
	return cmd
}
