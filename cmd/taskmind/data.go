package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// exportCmd writes a user's tasks as YAML
var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export tasks to YAML",
	Long: `Writes all tasks for the selected user as YAML, to the given file or
to stdout when no file is named.

Example:
  taskmind export --user alice backup.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		out := os.Stdout
		if len(args) == 1 {
			f, err := os.Create(args[0])
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			defer f.Close()
			out = f
		}

		if err := store.ExportYAML(cmd.Context(), userName, out); err != nil {
			return err
		}
		if len(args) == 1 {
			logger.Info("Exported tasks", zap.String("user", userName), zap.String("file", args[0]))
		}
		return nil
	},
}

// reembedCmd backfills embeddings after the engine was enabled or changed
var reembedCmd = &cobra.Command{
	Use:   "reembed",
	Short: "Regenerate missing embeddings",
	Long: `Generates embeddings for the selected user's tasks that do not have one
yet, for example after enabling semantic search on an existing database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		count, err := store.ReembedAll(cmd.Context(), userName)
		if err != nil {
			return err
		}
		logger.Info("Reembedded tasks", zap.String("user", userName), zap.Int("count", count))
		fmt.Printf("Generated embeddings for %d tasks\n", count)
		return nil
	},
}

// importCmd loads tasks from a YAML export
var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import tasks from YAML",
	Long: `Reads tasks from a YAML export, from the given file or from stdin when
no file is named, and adds them to the selected user.

Example:
  taskmind import --user alice backup.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		in := os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open import file: %w", err)
			}
			defer f.Close()
			in = f
		}

		count, err := store.ImportYAML(cmd.Context(), userName, in)
		if err != nil {
			return err
		}
		logger.Info("Imported tasks", zap.String("user", userName), zap.Int("count", count))
		fmt.Printf("Imported %d tasks for user %s\n", count, userName)
		return nil
	},
}
