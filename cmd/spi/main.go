package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/config"
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/service"
	"github.com/SwiftPackageIndex/SwiftPackageIndex-Server-sub000/internal/storage"
)

// app carries the state shared by every subcommand.
type app struct {
	configDir string
	output    string
	noColor   bool

	cfg config.Config
	svc *service.Service
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(&app{}).ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "spi",
		Short:        "Reconcile package versions and summarise build compatibility",
		SilenceUsage: true,
		Long: `spi keeps the stored versions of a package in sync with the branches and
tags of its git repository, records build results and aggregates them into
platform and Swift version compatibility matrices.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.svc == nil {
				return nil
			}
			return a.svc.Close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configDir, "config-dir", ".", "Directory containing spi.yaml")
	flags.StringVarP(&a.output, "output", "o", outputTable, "Output format: table, json or yaml")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newAnalyzeCmd(a))
	rootCmd.AddCommand(newBuildCmd(a))
	rootCmd.AddCommand(newMatrixCmd(a))
	rootCmd.AddCommand(newVersionsCmd(a))
	rootCmd.AddCommand(newPackagesCmd(a))
	return rootCmd
}

func (a *app) setup(ctx context.Context) error {
	if err := validateOutput(a.output); err != nil {
		return err
	}

	cfg, err := config.Load(a.configDir)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg.Log); err != nil {
		return err
	}
	a.cfg = cfg

	if cfg.Storage.Backend == config.StorageBackendMemory {
		logrus.Debug("using in-memory storage, nothing is kept between runs")
	}

	svc, err := service.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialise service: %w", err)
	}
	a.svc = svc
	return nil
}

func setupLogging(cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// exitCode maps storage errors onto distinct process exit codes.
func exitCode(err error) int {
	var (
		validation *storage.ValidationError
		notFound   *storage.NotFoundError
		conflict   *storage.ConflictError
	)
	switch {
	case errors.As(err, &validation):
		return 2
	case errors.As(err, &notFound):
		return 3
	case errors.As(err, &conflict):
		return 4
	}
	return 1
}
