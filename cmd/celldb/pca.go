package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/celldb"
	"github.com/hupe1980/celldb/pca"
)

type pcaView struct {
	K                      int              `json:"k"`
	Eigenvalues            []float64        `json:"eigenvalues"`
	ExplainedVarianceRatio []float64        `json:"explained_variance_ratio"`
	Components             [][]float64      `json:"components"`
	Projections            []pca.Projection `json:"projections"`
}

func newPCACmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pca",
		Short: "Compute principal components and project every sample",
		Long: `pca converts every sample to a dense row (missing = 0), computes the top k
eigenvectors of the covariance matrix and projects each row onto them.

Examples:
  celldb --storage ./data pca -k 2
  celldb --storage ./data --workers 4 pca -k 10 --partitions 16 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx, celldb.WithPartitions(a.v.GetInt("partitions")))
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := db.PCA(ctx, a.v.GetInt("k"))
			if err != nil {
				return err
			}

			c := res.Components
			view := pcaView{
				K:                      c.K(),
				Eigenvalues:            c.Eigenvalues(),
				ExplainedVarianceRatio: c.ExplainedVarianceRatio(),
				Projections:            res.Projections,
			}
			header := []string{"ID"}
			for j := range c.K() {
				view.Components = append(view.Components, c.Component(j))
				header = append(header, fmt.Sprintf("PC%d", j+1))
			}

			rows := [][]string{header}
			for _, p := range res.Projections {
				rows = append(rows, append([]string{p.ID}, formatFloats(p.Vector)...))
			}
			return a.render(view, rows)
		},
	}
	cmd.Flags().IntP("k", "k", 2, "Number of components")
	cmd.Flags().Int("partitions", 0, "Projection partitions (0 = GOMAXPROCS)")
	return cmd
}
