package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/orderops/internal/artifact"
	"github.com/sells-group/orderops/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "orderops",
	Short: "Supply-chain document analysis pipeline",
	Long:  "Parses EDI 850/856, ERP exports, and carrier feeds into provenance-tracked canonical orders, reconciles delivery ETAs, and runs deterministic root-cause analysis.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
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

// initStore opens the artifact store named by store.driver.
func initStore() (artifact.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return artifact.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return artifact.NewFS(cfg.Store.Dir)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
