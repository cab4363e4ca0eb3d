// Command amrie interprets antimicrobial susceptibility test results against
// clinical guidelines and expert rules.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cgps-group/AMRIE/internal/api"
	"github.com/cgps-group/AMRIE/internal/config"
	"github.com/cgps-group/AMRIE/internal/logging"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	version   = "dev"

	cfg    *config.Config
	logger *logrus.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amrie",
		Short: "Antimicrobial resistance interpretation engine",
		Long: `amrie turns raw AST results (categories, MIC or disk measurements) into
final interpretive categories, applying guideline expert rules such as
intrinsic resistance, methicillin resistance, inducible clindamycin
resistance and AmpC derepression.`,
		Version:           version,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: amrie.yaml in ., ./config or /etc/amrie)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format override (json, text)")

	cmd.AddCommand(interpretCmd())
	cmd.AddCommand(serveCmd())
	cmd.AddCommand(catalogCmd())

	return cmd
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	manager, err := config.NewManager(cfgFile)
	if err != nil {
		return err
	}
	cfg = manager.GetConfig()

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger = logging.NewLogger(cfg.Logging)
	api.Version = version
	if used := manager.ConfigFileUsed(); used != "" {
		logger.WithField("config_file", used).Debug("Loaded configuration file")
	}
	return nil
}
