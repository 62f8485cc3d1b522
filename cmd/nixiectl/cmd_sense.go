package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptime-industries/nixie-clock/pkg/brightness"
	"github.com/uptime-industries/nixie-clock/pkg/proto"
)

var (
	loopInterval time.Duration
	loopCount    int
	senseWindow  int
)

func init() {
	for _, cmd := range []*cobra.Command{cmdLight, cmdWatchdog, cmdSenseAndDim} {
		cmd.Flags().DurationVar(&loopInterval, "interval", time.Second, "time between iterations")
		cmd.Flags().IntVar(&loopCount, "count", 0, "number of iterations, 0 runs until interrupted")
		rootCmd.AddCommand(cmd)
	}
	cmdSenseAndDim.Flags().IntVar(&senseWindow, "window", 5, "number of light readings averaged")
}

var (
	cmdLight = &cobra.Command{
		Use:   "light",
		Short: "Print the ambient light sensor reading while keeping the watchdog alive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			codec := codecFromContext(ctx)
			return every(ctx, loopInterval, loopCount, func(int) error {
				sensor, err := codec.ReadLightSensor()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "light sensor: %d brightness: %d\n", sensor, brightness.Estimate(sensor))
				return pingWatchdog(ctx, codec)
			})
		},
	}

	cmdWatchdog = &cobra.Command{
		Use:   "watchdog",
		Short: "Ping the watchdog until it stops answering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			codec := codecFromContext(ctx)
			return every(ctx, loopInterval, loopCount, func(i int) error {
				if err := pingWatchdog(ctx, codec); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ping %d: ok\n", i)
				return nil
			})
		},
	}

	cmdSenseAndDim = &cobra.Command{
		Use:   "sense-and-dim",
		Short: "Cycle test digits with the brightness following the ambient light",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			codec := codecFromContext(ctx)
			filter, err := brightness.NewFilter(senseWindow)
			if err != nil {
				return err
			}
			return every(ctx, loopInterval, loopCount, func(i int) error {
				sensor, err := codec.ReadLightSensor()
				if err != nil {
					return err
				}
				level := filter.Update(sensor)
				fmt.Fprintf(cmd.OutOrStdout(), "light sensor: %d brightness: %d\n", sensor, level)

				if err := codec.SendDisplay(testPattern(i), level); err != nil {
					return err
				}
				return pingWatchdog(ctx, codec)
			})
		},
	}
)

// testPattern lights a different digit on every tube for each step of a five step cycle
func testPattern(i int) proto.Digits {
	n := i % 5
	return proto.Digits{
		proto.Digit(n + 5),
		proto.Digit((2*n + 1) % 10),
		proto.Digit((2 * n) % 10),
		proto.Digit(n),
	}
}
