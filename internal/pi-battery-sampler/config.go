package sampler

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	goconfig "github.com/TheCacophonyProject/go-config"
	"github.com/p3t3r50n-cz/picovina/ina219"
	"github.com/p3t3r50n-cz/picovina/telemetry"
)

const DefaultConfigFile = "/etc/pi-battery/config.toml"

type Config struct {
	Battery     BatteryConfig     `toml:"battery"`
	INA219      INA219Config      `toml:"ina219"`
	Sampling    SamplingConfig    `toml:"sampling"`
	Calibration CalibrationConfig `toml:"calibration"`
	Status      StatusConfig      `toml:"status"`
}

type BatteryConfig struct {
	Cells            int   `toml:"cells"`
	CellCapacityMAh  int64 `toml:"cell_capacity_mah"`
	CellFullMV       int64 `toml:"cell_full_mv"`
	CellEmptyMV      int64 `toml:"cell_empty_mv"`
	CellHysteresisMV int64 `toml:"cell_hysteresis_mv"`
}

type INA219Config struct {
	Bus          string  `toml:"bus"`
	Address      uint16  `toml:"address"`
	Calibration  uint16  `toml:"calibration"`
	CurrentLSBmA float64 `toml:"current_lsb_ma"`
	PowerLSBW    float64 `toml:"power_lsb_w"`
}

type SamplingConfig struct {
	PeriodSeconds int `toml:"period_seconds"`
	Window        int `toml:"window"`
	MaxHistory    int `toml:"max_history"`
}

type CalibrationConfig struct {
	File            string `toml:"file"`
	IntervalSeconds int    `toml:"interval_seconds"`
}

// StatusConfig holds the empirically chosen charge direction thresholds and
// the clamp to full.
type StatusConfig struct {
	DischargeThresholdMV float64 `toml:"discharge_threshold_mv"`
	ChargeThresholdMV    float64 `toml:"charge_threshold_mv"`
	FullClamp            int64   `toml:"full_clamp"`
	FullCurrentUA        int64   `toml:"full_current_ua"`
}

func DefaultConfig() Config {
	pack := telemetry.DefaultPack
	return Config{
		Battery: BatteryConfig{
			Cells:            pack.Cells,
			CellCapacityMAh:  pack.CellCapacityMilliAh,
			CellFullMV:       pack.CellFullMilliV,
			CellEmptyMV:      pack.CellEmptyMilliV,
			CellHysteresisMV: pack.CellHysteresisMilliV,
		},
		INA219: INA219Config{
			Bus:          "2",
			Address:      ina219.DefaultAddress,
			Calibration:  ina219.DefaultCalibration,
			CurrentLSBmA: ina219.DefaultScale.CurrentLSBMilliA,
			PowerLSBW:    ina219.DefaultScale.PowerLSBW,
		},
		Sampling: SamplingConfig{
			PeriodSeconds: 2,
			Window:        telemetry.DefaultWindowSize,
			MaxHistory:    telemetry.DefaultMaxHistory,
		},
		Calibration: CalibrationConfig{
			File:            telemetry.DefaultCalibrationFile,
			IntervalSeconds: int(telemetry.DefaultCalibrationInterval / time.Second),
		},
		Status: StatusConfig{
			DischargeThresholdMV: telemetry.DefaultThresholds.DischargeMilliV,
			ChargeThresholdMV:    telemetry.DefaultThresholds.ChargeMilliV,
			FullClamp:            100,
			FullCurrentUA:        1000,
		},
	}
}

// LoadConfig reads the TOML file at path over the defaults. A missing file
// gives the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if err := c.Pack().Validate(); err != nil {
		return err
	}
	if c.Sampling.PeriodSeconds < 1 {
		return fmt.Errorf("invalid sampling period %d", c.Sampling.PeriodSeconds)
	}
	if c.Calibration.IntervalSeconds < 1 {
		return fmt.Errorf("invalid calibration interval %d", c.Calibration.IntervalSeconds)
	}
	if c.Sampling.Window < 1 || c.Sampling.MaxHistory < c.Sampling.Window {
		return fmt.Errorf("invalid averaging window %d with history %d", c.Sampling.Window, c.Sampling.MaxHistory)
	}
	if c.Status.DischargeThresholdMV > c.Status.ChargeThresholdMV {
		return errors.New("discharge threshold is above charge threshold")
	}
	if c.Calibration.File == "" {
		return errors.New("no calibration file set")
	}
	return nil
}

func (c Config) Pack() telemetry.Pack {
	return telemetry.Pack{
		Cells:                c.Battery.Cells,
		CellCapacityMilliAh:  c.Battery.CellCapacityMAh,
		CellFullMilliV:       c.Battery.CellFullMV,
		CellEmptyMilliV:      c.Battery.CellEmptyMV,
		CellHysteresisMilliV: c.Battery.CellHysteresisMV,
	}
}

func (c Config) Telemetry() telemetry.Config {
	return telemetry.Config{
		Pack:       c.Pack(),
		WindowSize: c.Sampling.Window,
		MaxHistory: c.Sampling.MaxHistory,
		Thresholds: telemetry.Thresholds{
			DischargeMilliV: c.Status.DischargeThresholdMV,
			ChargeMilliV:    c.Status.ChargeThresholdMV,
		},
		FullClamp:         c.Status.FullClamp,
		FullCurrentMicroA: c.Status.FullCurrentUA,
	}
}

func (c Config) Scale() ina219.Scale {
	return ina219.Scale{
		CurrentLSBMilliA: c.INA219.CurrentLSBmA,
		PowerLSBW:        c.INA219.PowerLSBW,
	}
}

func (c Config) Period() time.Duration {
	return time.Duration(c.Sampling.PeriodSeconds) * time.Second
}

func (c Config) CalibrationInterval() time.Duration {
	return time.Duration(c.Calibration.IntervalSeconds) * time.Second
}

// DeviceConfigKey is the section of the device config (go-config) that can
// override the pack on a particular device.
const DeviceConfigKey = "pi-battery"

// DevicePack is the pack override from the device config. Zero fields keep
// the sampler's own setting.
type DevicePack struct {
	Cells            int   `mapstructure:"cells"`
	CellCapacityMAh  int64 `mapstructure:"cell-capacity-mah"`
	CellFullMV       int64 `mapstructure:"cell-full-mv"`
	CellEmptyMV      int64 `mapstructure:"cell-empty-mv"`
	CellHysteresisMV int64 `mapstructure:"cell-hysteresis-mv"`
}

func loadDevicePack(configDir string) (DevicePack, error) {
	conf, err := goconfig.New(configDir)
	if err != nil {
		return DevicePack{}, err
	}
	var p DevicePack
	if err := conf.Unmarshal(DeviceConfigKey, &p); err != nil {
		return DevicePack{}, fmt.Errorf("failed to load %s config: %w", DeviceConfigKey, err)
	}
	return p, nil
}

func applyDevicePack(c *Config, p DevicePack) {
	if p == (DevicePack{}) {
		return
	}
	log.Infof("Using device pack settings: %+v", p)
	setIf(&c.Battery.Cells, p.Cells)
	setIf(&c.Battery.CellCapacityMAh, p.CellCapacityMAh)
	setIf(&c.Battery.CellFullMV, p.CellFullMV)
	setIf(&c.Battery.CellEmptyMV, p.CellEmptyMV)
	setIf(&c.Battery.CellHysteresisMV, p.CellHysteresisMV)
}

func setIf[T int | int64](dst *T, v T) {
	if v > 0 {
		*dst = v
	}
}

// loadConfig resolves the sampler configuration from the TOML file and the
// device config.
func loadConfig(args Args) (Config, error) {
	cfg, err := LoadConfig(args.ConfigFile)
	if err != nil {
		return cfg, err
	}
	p, err := loadDevicePack(args.ConfigDir)
	if err != nil {
		log.Warnf("Not using device config: %v", err)
		return cfg, nil
	}
	applyDevicePack(&cfg, p)
	return cfg, cfg.Validate()
}
