package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show store row counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		m, err := env.Store.Metrics(ctx)
		if err != nil {
			return eris.Wrap(err, "load metrics")
		}

		fmt.Printf("companies:        %d\n", m.Companies)
		fmt.Printf("addresses:        %d\n", m.Addresses)
		fmt.Printf("partners:         %d\n", m.Partners)
		fmt.Printf("registry entries: %d\n", m.RegistryEntries)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(metricsCmd)
}
