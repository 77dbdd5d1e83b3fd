package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/YelzhanWeb/bulkplan/internal/adapter/logger"
	"github.com/YelzhanWeb/bulkplan/internal/config"
)

const defaultConfigPath = "config.yaml"

var (
	configPath string
	cfg        *config.Config
	lgr        logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "bulkplan",
	Short: "Bulk production scheduling demo",
	Long: `bulkplan builds a four-stage production schedule from a list of bulk orders
and lets operators reshape it with short typed or spoken commands such as
"delay order 5 by 2 hours" or "swap ORD-003 with ORD-007".`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML config (config.yaml when present)")
	rootCmd.AddCommand(serveCmd, subscribeCmd, sendCmd, timelineCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads .env, then the config file, and sets up the logger.
func loadConfig(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	path := configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat config: %w", err)
		}
	}

	c, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cfg = c
	lgr = logger.New("bulkplan-"+cmd.Name(), cfg.App.LogLevel)
	return nil
}
