package main

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bizray/registry-cli/internal/auszug"
)

var importCmd = &cobra.Command{
	Use:   "import <file-or-dir>...",
	Short: "Import Firmenbuch extract XML files into the store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		var files []string
		for _, arg := range args {
			info, err := os.Stat(arg)
			if err != nil {
				return eris.Wrapf(err, "stat %s", arg)
			}
			if !info.IsDir() {
				files = append(files, arg)
				continue
			}
			matches, err := filepath.Glob(filepath.Join(arg, "*.xml"))
			if err != nil {
				return eris.Wrapf(err, "glob %s", arg)
			}
			files = append(files, matches...)
		}

		imported := 0
		for _, file := range files {
			data, err := os.ReadFile(file)
			if err != nil {
				return eris.Wrapf(err, "read %s", file)
			}
			company, err := auszug.Parse(data)
			if err != nil {
				zap.L().Warn("skipping unparseable extract",
					zap.String("file", file),
					zap.Error(err),
				)
				continue
			}
			if err := env.Store.UpsertCompany(ctx, *company); err != nil {
				return eris.Wrapf(err, "upsert %s", company.Firmenbuchnummer)
			}
			imported++
		}

		zap.L().Info("import complete",
			zap.Int("imported", imported),
			zap.Int("files", len(files)),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
