package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/uptime-industries/nixie-clock/internal/controller"
	"github.com/uptime-industries/nixie-clock/pkg/hal"
	"github.com/uptime-industries/nixie-clock/pkg/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	configFile  string
	simulate    bool
	development bool
)

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "/etc/nixie-clock/nixie-clock.yaml", "daemon configuration file")
	rootCmd.Flags().BoolVar(&simulate, "simulate", false, "drive a simulated tube controller instead of the hardware")
	rootCmd.Flags().BoolVar(&development, "development", false, "human readable debug logging")
}

var rootCmd = &cobra.Command{
	Use:          "nixie-clock",
	Short:        "nixie-clock drives a four tube nixie clock through its tube controller",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         run,
}

func run(cmd *cobra.Command, _ []string) error {
	// setup logger
	zapLogger, err := log.New(development, "nixie-clock")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = zapLogger.Sync() }()
	_ = zap.ReplaceGlobals(zapLogger.With(zap.String("scope", "global")))
	baseCtx := log.IntoContext(cmd.Context(), zapLogger)

	cfg, err := loadConfig(configFile)
	if err != nil {
		log.FromContext(baseCtx).Error("Failed to load configuration", zap.Error(err))
		return err
	}
	if simulate {
		cfg.Hardware.Transport = hal.TransportSimulated
	}

	clock, err := controller.New(log.Named(baseCtx, "controller"), cfg)
	if err != nil {
		log.FromContext(baseCtx).Error("Failed to initialize clock", zap.Error(err))
		return err
	}

	group, groupCtx := errgroup.WithContext(baseCtx)
	ctx, cancelCtx := context.WithCancelCause(groupCtx)
	defer cancelCtx(context.Canceled)

	// setup stop signal handlers
	group.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)

		// Wait for context cancel or signal
		select {
		case <-ctx.Done():
		case sig := <-sigs:
			// On signal, cancel context
			cancelCtx(fmt.Errorf("signal %s received", sig))
		}
		return nil
	})

	// Run clock; it owns the bus for its whole lifetime
	group.Go(func() error {
		defer cancelCtx(context.Canceled)
		err := clock.Run(log.Named(ctx, "controller"))
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		log.FromContext(baseCtx).Error("Clock failed", zap.Error(err))
		return err
	}
	log.FromContext(baseCtx).Info("Exiting", zap.NamedError("cause", context.Cause(ctx)))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
