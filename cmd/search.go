package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stored companies by name or Firmenbuchnummer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		results, err := env.Store.SearchCompanies(ctx, args[0], searchLimit)
		if err != nil {
			return eris.Wrap(err, "search companies")
		}
		if len(results) == 0 {
			fmt.Println("no matches")
			return nil
		}
		for _, c := range results {
			fmt.Printf("%-14s %s", c.Firmenbuchnummer, c.Name)
			if c.Seat != "" {
				fmt.Printf(" (%s)", c.Seat)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum results")
	rootCmd.AddCommand(searchCmd)
}
