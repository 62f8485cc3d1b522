package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
	"github.com/uptime-industries/nixie-clock/internal/controller"
	"github.com/uptime-industries/nixie-clock/pkg/config"
)

// loadConfig reads the daemon configuration. Every key can be overridden from the
// environment, e.g. NIXIE_HARDWARE_TRANSPORT=serial. A missing file yields the defaults.
func loadConfig(path string) (controller.Config, error) {
	cfg := controller.DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("read %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode configuration: %w", err)
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply without a file entry.
func setDefaults(v *viper.Viper, cfg controller.Config) {
	for key, value := range map[string]any{
		"hardware.transport":        string(cfg.Hardware.Transport),
		"hardware.spi_device":       cfg.Hardware.SPIDevice,
		"hardware.spi_frequency_hz": cfg.Hardware.SPIFrequencyHz,
		"hardware.serial_port":      cfg.Hardware.SerialPort,
		"hardware.serial_baudrate":  cfg.Hardware.SerialBaudrate,
		"hardware.reset_chip":       cfg.Hardware.ResetChip,
		"hardware.reset_offset":     cfg.Hardware.ResetOffset,
		"schedule.poll":             cfg.Schedule.Poll,
		"schedule.watchdog":         cfg.Schedule.Watchdog,
		"schedule.display":          cfg.Schedule.Display,
		"schedule.configuration":    cfg.Schedule.Configuration,
		"schedule.metrics":          cfg.Schedule.Metrics,
		"clock_config_file":         cfg.ClockConfigFile,
		"timezone":                  cfg.Timezone,
		"brightness_window":         cfg.BrightnessWindow,
		"metrics_textfile":          cfg.MetricsTextfile,
	} {
		v.SetDefault(key, value)
	}
}
