package main

import (
	"github.com/spf13/cobra"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/spec-kit/parking-service/internal/allocator"
	"github.com/spec-kit/parking-service/internal/config"
	"github.com/spec-kit/parking-service/internal/console"
	"github.com/spec-kit/parking-service/internal/observability"
	"github.com/spec-kit/parking-service/internal/service"
)

type rootOptions struct {
	tier1Capacity int
	tier2Capacity int
	logLevel      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "parkctl",
		Short: "Interactive two-tier parking console",
		Long: `parkctl runs the parking menu in the terminal.

Without flags it asks how many 2-wheelers and 3/4-wheelers to admit,
sizes Tier 2 and Tier 1 to match and registers that many vehicles
before showing the main menu. With --tier1/--tier2 the tiers are sized
from the flags and registration is skipped.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.tier1Capacity, "tier1", 10, "Tier 1 (3/4-wheeler) capacity")
	cmd.Flags().IntVar(&opts.tier2Capacity, "tier2", 10, "Tier 2 (2-wheeler) capacity")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")
	cmd.CompletionOptions.DisableDefaultCmd = true
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func runConsole(cmd *cobra.Command, opts *rootOptions) error {
	logger, err := observability.NewLogger(config.LoggerConfig{
		Level:       opts.logLevel,
		Encoding:    "console",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	shell := console.NewShell(cmd.InOrStdin(), cmd.OutOrStdout())

	var reg console.Registration
	capacities := config.ParkingConfig{Tier1Capacity: opts.tier1Capacity, Tier2Capacity: opts.tier2Capacity}
	if !cmd.Flags().Changed("tier1") && !cmd.Flags().Changed("tier2") {
		reg, err = shell.AskCapacities()
		if err != nil {
			return err
		}
		capacities = config.ParkingConfig{Tier1Capacity: reg.ThreeFourWheelers, Tier2Capacity: reg.TwoWheelers}
	}
	if err := capacities.Validate(); err != nil {
		return err
	}

	base, err := allocator.NewSlotAllocator(capacities.Tier1Capacity, capacities.Tier2Capacity)
	if err != nil {
		return err
	}
	slots, err := allocator.NewInstrumentedAllocator(base,
		tracenoop.NewTracerProvider().Tracer("parkctl"),
		metricnoop.NewMeterProvider().Meter("parkctl"))
	if err != nil {
		return err
	}

	parking := service.NewParkingService(service.ParkingDependencies{
		Allocator: slots,
		Logger:    logger,
	})
	return shell.Run(cmd.Context(), parking, reg)
}
