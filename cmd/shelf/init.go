package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/papershelf/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file and library database",
	Long: `Create the config file (if missing) and the library database, and stamp
the stored collection with the current schema version.

Running init on an existing library is safe: it migrates any legacy records.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

// InitResponse is the response for the init command.
type InitResponse struct {
	Status     string `json:"status"`
	ConfigPath string `json:"config_path"`
	DBPath     string `json:"db_path"`
	Version    string `json:"version"`
	Papers     int    `json:"papers"`
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()

	configPath := config.Path()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		defaults := &config.Config{
			DataDir:   config.DefaultDataDir,
			LogLevel:  cfg.LogLevel,
			LogFormat: cfg.LogFormat,
			PDFReader: cfg.PDFReader,
		}
		if err := defaults.Save(configPath); err != nil {
			exitWithError(ExitConfigError, "writing config: %v", err)
		}
	}

	store := mustOpenStore()
	defer store.Close()

	lib := openLibrary(store)
	outcome, err := lib.Migrate(context.Background())
	if err != nil {
		exitWithErr(err, "initializing library")
	}

	if humanOutput {
		outputHuman("Initialized shelf at %s\n", store.Path())
		outputHuman("Config: %s\n", configPath)
		outputHuman("Schema version %s, %d paper(s)\n", outcome.Version, outcome.Count)
		return nil
	}
	return outputJSON(InitResponse{
		Status:     "initialized",
		ConfigPath: configPath,
		DBPath:     store.Path(),
		Version:    outcome.Version,
		Papers:     outcome.Count,
	})
}
