package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/uptime-industries/nixie-clock/internal/controller"
	"github.com/uptime-industries/nixie-clock/pkg/effects"
	"github.com/uptime-industries/nixie-clock/pkg/proto"
)

var dateFlag string

func init() {
	cmdDate.Flags().StringVar(&dateFlag, "date", "", "date to show (YYYY-MM-DD), defaults to today")

	rootCmd.AddCommand(cmdSlotMachine)
	rootCmd.AddCommand(cmdDate)
}

func newPlayer(cmd *cobra.Command) *effects.Player {
	p := peripheralFromContext(cmd.Context())
	codec := proto.NewCodec(p)
	return effects.NewPlayer(effects.PlayerOpts{
		Display: codec,
		Kicker:  controller.NewWatchdog(codec, p),
	})
}

var (
	cmdSlotMachine = &cobra.Command{
		Use:     "slot-machine [digits]",
		Example: "nixiectl slot-machine 12:34",
		Short:   "Play the slot machine effect, settling on the given digits or the current time",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := controller.ComputeDigits(time.Now(), false)
			if len(args) == 1 {
				var err error
				if target, err = proto.ParseDigits(args[0]); err != nil {
					return err
				}
			}
			return newPlayer(cmd).Play(cmd.Context(), effects.SlotMachine(target))
		},
	}

	cmdDate = &cobra.Command{
		Use:   "date",
		Short: "Play the date reveal sequence and return to the current time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			date := now
			if dateFlag != "" {
				var err error
				if date, err = time.ParseInLocation(time.DateOnly, dateFlag, time.Local); err != nil {
					return fmt.Errorf("parse date: %w", err)
				}
			}
			restore := controller.ComputeDigits(now, false)
			return newPlayer(cmd).Play(cmd.Context(), effects.DateReveal(date, restore))
		},
	}
)
