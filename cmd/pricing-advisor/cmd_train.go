package main

import (
	"fmt"
	"io"

	"github.com/iwvelando/pricing-advisor/internal/winmodel"
	"github.com/iwvelando/pricing-advisor/pkg/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type trainReport struct {
	Path        string                `json:"path"`
	Trees       int                   `json:"trees"`
	Metrics     winmodel.Metrics      `json:"metrics"`
	TopFeatures []winmodel.Importance `json:"top_features"`
}

func (a *app) trainCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the win-probability model from historical orders",
		Long: "Joins orders with customers, products and costs, fits a random forest\n" +
			"on a seeded train split, reports holdout AUC and writes the artifact.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			if outPath == "" {
				outPath = a.conf.Model.Path
			}

			s, closer, err := a.openStore()
			if err != nil {
				return err
			}
			defer closer()

			tables, err := s.Tables(ctx)
			if err != nil {
				return fmt.Errorf("failed to read training tables: %w", err)
			}

			m, err := winmodel.Train(ctx, a.logger, tables, winmodel.TrainOptions{
				Trees:        a.conf.Model.Trees,
				MaxDepth:     a.conf.Model.MaxDepth,
				Seed:         a.conf.Model.Seed,
				TestFraction: a.conf.Model.TestFraction,
				Workers:      a.conf.Model.Workers,
			})
			if err != nil {
				return err
			}
			if err := winmodel.Save(a.logger, outPath, m); err != nil {
				return err
			}
			a.logger.Info("model written",
				zap.String("op", "main.train"),
				zap.String("path", outPath),
			)

			report := trainReport{
				Path:        outPath,
				Trees:       m.Trees(),
				Metrics:     m.Metrics(),
				TopFeatures: m.TopFeatures(5),
			}
			return a.render(report, func(w io.Writer) {
				output.PrettyTraining(w, report.Metrics, report.TopFeatures)
				_, _ = fmt.Fprintf(w, "\nSaved %d trees to %s\n", report.Trees, report.Path)
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "artifact path (defaults to model.path)")
	return cmd
}
