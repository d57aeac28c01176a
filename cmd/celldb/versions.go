package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newVersionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List committed versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			versions, err := db.Versions(ctx)
			if err != nil {
				return err
			}

			current := db.Manifest()
			rows := [][]string{{"", "Version", "Commit", "Rows", "Entries", "Bytes", "Compression", "Created"}}
			for _, m := range versions {
				marker := ""
				if current != nil && current.CommitID == m.CommitID {
					marker = "*"
				}
				rows = append(rows, []string{
					marker,
					strconv.FormatUint(m.Version, 10),
					m.CommitID,
					strconv.Itoa(m.Rows),
					strconv.Itoa(m.Entries),
					strconv.FormatInt(m.Bytes, 10),
					m.Compression,
					m.CreatedAt.Format(time.RFC3339),
				})
			}
			return a.render(versions, rows)
		},
	}
}
