package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"taskmind/internal/config"
	"taskmind/internal/embedding"
	"taskmind/internal/logging"
	"taskmind/internal/memory"
)

var (
	// Global flags
	configPath string
	dataDir    string
	userName   string
	verbose    bool

	// Loaded in PersistentPreRunE, shared by all commands
	cfg *config.Config

	// Logger for non-interactive commands
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "taskmind",
	Short: "taskmind - AI-powered personal task manager",
	Long: `taskmind is a personal task manager driven by natural language.

Commands like "add a task called 'buy groceries' with high priority" are
interpreted by a deterministic rule-based engine, tasks are stored in SQLite
with vector embeddings for semantic search, and built-in analytics turn the
task history into reports and suggestions.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if dataDir != "" {
			cfg.DataDir = dataDir
		}

		if err := logging.Initialize(cfg.GetDataDir()); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		}

		// Interactive mode has its own UI; skip the structured logger.
		if cmd.Use == "taskmind" && cmd.CalledAs() == "taskmind" {
			return nil
		}

		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.taskmind/config.json)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Data directory (default: ~/.taskmind)")
	rootCmd.PersistentFlags().StringVarP(&userName, "user", "u", "default", "User whose tasks to operate on")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(reembedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore opens the task store and attaches the embedding engine. An
// unreachable embedding backend is not fatal; search falls back to keyword
// matching.
func openStore() (*memory.Store, error) {
	store, err := memory.NewStore(cfg.TasksDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open task store: %w", err)
	}

	emb := cfg.GetEmbedding()
	if emb.Disabled {
		return store, nil
	}
	engine, err := embedding.NewEngine(embedding.Config{
		Provider:       emb.Provider,
		OllamaEndpoint: emb.OllamaEndpoint,
		OllamaModel:    emb.OllamaModel,
		GenAIAPIKey:    emb.GenAIAPIKey,
		GenAIModel:     emb.GenAIModel,
		TaskType:       emb.TaskType,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: semantic search unavailable: %v\n", err)
		return store, nil
	}
	store.SetEngine(engine)
	return store, nil
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
