package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the current version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			st, err := db.Stats(ctx)
			if err != nil {
				return err
			}
			return a.render(st, [][]string{
				{"Version", "Samples", "Dimension", "Entries", "True zeros", "Missing", "Sparsity"},
				{
					strconv.FormatUint(st.Version, 10),
					strconv.Itoa(st.Samples),
					strconv.Itoa(st.Dimension),
					strconv.Itoa(st.Entries),
					strconv.Itoa(st.TrueZeros),
					strconv.Itoa(st.Missing),
					strconv.FormatFloat(st.Sparsity, 'f', 4, 64),
				},
			})
		},
	}
}
