package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

type entryView struct {
	Index int32   `json:"index"`
	Value float64 `json:"value"`
}

type sampleView struct {
	ID        string      `json:"id"`
	Dimension int         `json:"dimension"`
	Active    int         `json:"active"`
	TrueZeros int         `json:"true_zeros"`
	Entries   []entryView `json:"entries"`
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show the explicit measurements of one sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			s, err := db.Get(args[0])
			if err != nil {
				return err
			}

			view := sampleView{
				ID:        s.ID(),
				Dimension: s.Dimension(),
				Active:    s.NumActive(),
				TrueZeros: s.TrueZeros(),
			}
			rows := [][]string{{"Index", "Value"}}
			for _, e := range s.Entries() {
				view.Entries = append(view.Entries, entryView{Index: e.Index, Value: e.Value})
				rows = append(rows, []string{strconv.Itoa(int(e.Index)), formatFloat(e.Value)})
			}
			return a.render(view, rows)
		},
	}
}
