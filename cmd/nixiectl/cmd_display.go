package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/uptime-industries/nixie-clock/pkg/proto"
)

var digitsBrightness int

func init() {
	cmdDigits.Flags().IntVar(&digitsBrightness, "brightness", int(proto.LevelUnchanged), "brightness level 0-10, -1 leaves it unchanged")

	rootCmd.AddCommand(cmdDigits)
	rootCmd.AddCommand(cmdDim)
	rootCmd.AddCommand(cmdVersion)
	rootCmd.AddCommand(cmdReset)
	rootCmd.AddCommand(cmdRaw)
}

var (
	cmdDigits = &cobra.Command{
		Use:     "digits <digits>",
		Example: "nixiectl digits 12:34\nnixiectl digits _9:-- --brightness 5",
		Short:   "Show digits on the tubes, \"_\" blanks a tube and \"-\" leaves it untouched",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digits, err := proto.ParseDigits(args[0])
			if err != nil {
				return err
			}
			return codecFromContext(cmd.Context()).SendDisplay(digits, proto.Level(digitsBrightness))
		},
	}

	cmdDim = &cobra.Command{
		Use:     "dim <level>",
		Example: "nixiectl dim 3",
		Short:   "Set the brightness level (0 turns the high voltage off, 10 is the brightest)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := strconv.Atoi(args[0])
			if err != nil {
				return err
			}
			if level < 0 || level > int(proto.MaxLevel) {
				return fmt.Errorf("level %d out of range 0-%d", level, proto.MaxLevel)
			}
			return codecFromContext(cmd.Context()).SetBrightness(proto.Level(level))
		},
	}

	cmdVersion = &cobra.Command{
		Use:   "version",
		Short: "Print the tube controller firmware version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			version, err := codecFromContext(cmd.Context()).ReadVersion()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), proto.FormatVersion(version))
			return nil
		},
	}

	cmdReset = &cobra.Command{
		Use:   "reset",
		Short: "Pulse the tube controller reset line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// the root command already reset unless told otherwise
			if !noReset {
				return nil
			}
			return peripheralFromContext(cmd.Context()).Reset()
		},
	}

	cmdRaw = &cobra.Command{
		Use:     "raw <byte>...",
		Example: "nixiectl raw 85 255",
		Short:   "Exchange raw bytes with the tube controller and print the replies",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := peripheralFromContext(cmd.Context())
			for _, arg := range args {
				b, err := strconv.ParseUint(arg, 0, 8)
				if err != nil {
					return err
				}
				reply, err := p.Transfer(byte(b))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "sent: %d returned: %d\n", b, reply)
			}
			return nil
		},
	}
)
