package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fanout-cli/internal/config"
)

var cfg *config.Config

var catalogPath string

var rootCmd = &cobra.Command{
	Use:   "fanout-cli",
	Short: "Fan a prompt out to multiple AI providers",
	Long:  "Dispatches one prompt to several AI providers concurrently, tracks each response as it lands, keeps a searchable session history, and records correction links between responses.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		if catalogPath != "" {
			cat, err := config.LoadCatalog(catalogPath)
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			cat.Apply(c)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "path to a providers.yaml overriding endpoints, models, and pricing")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
