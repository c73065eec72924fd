package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	riskAll     bool
	riskWorkers int
)

var riskCmd = &cobra.Command{
	Use:   "risk [fnr]",
	Short: "Compute risk indicators for one or all stored companies",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		if riskAll {
			fnrs, err := env.Store.ListCompanyIDs(ctx)
			if err != nil {
				return eris.Wrap(err, "list companies")
			}

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(riskWorkers)
			for _, fnr := range fnrs {
				g.Go(func() error {
					result, err := env.Risk.Evaluate(gctx, fnr)
					if err != nil {
						zap.L().Error("risk evaluation failed", zap.String("fnr", fnr), zap.Error(err))
						return nil // keep going, a single company must not stop the batch
					}
					if result == nil || result.Score == nil {
						zap.L().Info("no risk result", zap.String("fnr", fnr))
						return nil
					}
					zap.L().Info("risk computed",
						zap.String("fnr", fnr),
						zap.Float64("score", *result.Score),
					)
					return nil
				})
			}
			return g.Wait()
		}

		if len(args) != 1 {
			return eris.New("a firmenbuchnummer is required unless --all is set")
		}

		result, err := env.Risk.Evaluate(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "evaluate risk")
		}
		if result == nil {
			return eris.Errorf("company not found: %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	riskCmd.Flags().BoolVar(&riskAll, "all", false, "evaluate every stored company")
	riskCmd.Flags().IntVar(&riskWorkers, "workers", 4, "concurrent evaluations with --all")
	rootCmd.AddCommand(riskCmd)
}
