// Package telemetry turns INA219 readings into battery telemetry: smoothed
// measurements, state of charge, a learned full charge, charge direction and
// time remaining.
package telemetry

import (
	"math"
	"time"

	"github.com/p3t3r50n-cz/picovina/battery"
	"github.com/p3t3r50n-cz/picovina/ina219"
)

// Config holds the tunables of an Estimator.
type Config struct {
	Pack       Pack
	WindowSize int
	MaxHistory int
	Thresholds Thresholds

	// FullClamp is the capacity from which an idle or charging pack is
	// reported as full. FullCurrentMicroA is reported as current_now then.
	FullClamp         int64
	FullCurrentMicroA int64
}

func DefaultConfig() Config {
	return Config{
		Pack:              DefaultPack,
		WindowSize:        DefaultWindowSize,
		MaxHistory:        DefaultMaxHistory,
		Thresholds:        DefaultThresholds,
		FullClamp:         100,
		FullCurrentMicroA: 1000,
	}
}

// Estimate is the outcome of one sampling cycle.
type Estimate struct {
	Reading ina219.Reading
	// Samples is how many readings the averages are taken over.
	Samples int

	BusAvgMilliV   int64
	ShuntAvgMilliV float64
	CurrentAvgA    float64
	PowerAvgW      float64

	Capacity         int64
	VoltageMinDesign int64 // µV
	ChargeFullDesign int64 // µAh
	ChargeFull       int64 // µAh
	ChargeNow        int64 // µAh
	CurrentNow       int64 // µA
	Direction        Direction

	// Remaining is only meaningful when HasRemaining is set.
	Remaining    time.Duration
	HasRemaining bool

	Calibrated bool
}

// ACPresent is true unless the pack is discharging.
func (e Estimate) ACPresent() bool {
	return e.Direction != Discharging
}

// Batch is the control write for this estimate.
func (e Estimate) Batch() battery.Batch {
	var b battery.Batch
	b.Set(battery.KeyVoltageMinDesign, e.VoltageMinDesign)
	b.Set(battery.KeyVoltageNow, e.Reading.BusMilliV*1000)
	b.Set(battery.KeyCurrentNow, e.CurrentNow)
	b.Set(battery.KeyChargeFullDesign, e.ChargeFullDesign)
	b.Set(battery.KeyChargeFull, e.ChargeFull)
	b.Set(battery.KeyChargeNow, e.ChargeNow)
	b.Set(battery.KeyCapacity, e.Capacity)
	charging := int64(0)
	if e.ACPresent() {
		charging = 1
	}
	b.Set(battery.KeyCharging, charging)
	return b
}

// Estimator keeps the sample windows and the calibrator across cycles. It is
// not safe for concurrent use.
type Estimator struct {
	cfg     Config
	cal     *Calibrator
	bus     *Window
	shunt   *Window
	current *Window
	power   *Window
}

func NewEstimator(cfg Config, cal *Calibrator) *Estimator {
	return &Estimator{
		cfg:     cfg,
		cal:     cal,
		bus:     NewWindow(cfg.WindowSize, cfg.MaxHistory),
		shunt:   NewWindow(cfg.WindowSize, cfg.MaxHistory),
		current: NewWindow(cfg.WindowSize, cfg.MaxHistory),
		power:   NewWindow(cfg.WindowSize, cfg.MaxHistory),
	}
}

// Calibration is the learned full charge and when it last moved.
func (e *Estimator) Calibration() Record {
	return e.cal.Record()
}

// Step folds one reading into the windows and computes the estimate. A
// returned error means a calibration could not be saved; the estimate is
// still complete.
func (e *Estimator) Step(now time.Time, r ina219.Reading) (Estimate, error) {
	pack := e.cfg.Pack
	est := Estimate{
		Reading:          r,
		BusAvgMilliV:     int64(math.Round(e.bus.Add(float64(r.BusMilliV)))),
		ShuntAvgMilliV:   e.shunt.Add(math.Abs(r.ShuntMilliV)),
		CurrentAvgA:      e.current.Add(math.Abs(r.CurrentA)),
		PowerAvgW:        e.power.Add(math.Abs(r.PowerW)),
		VoltageMinDesign: pack.EmptyMilliV() * 1000,
		ChargeFullDesign: pack.DesignChargeMicroAh(),
		ChargeFull:       e.cal.LearnedFull(),
	}
	est.Samples = e.bus.Len()
	est.Capacity = pack.CapacityPercent(est.BusAvgMilliV)
	est.ChargeNow = est.ChargeFull * est.Capacity / 100

	avgMicroA := int64(math.Round(est.CurrentAvgA * 1e6))
	est.CurrentNow = avgMicroA
	if r.CurrentA < 0 {
		est.CurrentNow = -avgMicroA
	}

	var err error
	est.Calibrated, err = e.cal.Observe(now, r.BusMilliV, est.ChargeNow)

	est.Direction = e.cfg.Thresholds.Classify(r.ShuntMilliV)
	if est.Capacity >= e.cfg.FullClamp && est.Direction != Discharging {
		est.Capacity = 100
		est.ChargeNow = est.ChargeFull
		est.CurrentNow = e.cfg.FullCurrentMicroA
		est.Direction = Idle
	}

	est.Remaining, est.HasRemaining = TimeRemaining(est.Direction, est.ChargeNow, est.ChargeFull, avgMicroA)
	return est, err
}
