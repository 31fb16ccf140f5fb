package sampler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/p3t3r50n-cz/picovina/battery"
	"github.com/p3t3r50n-cz/picovina/ina219"
	"github.com/p3t3r50n-cz/picovina/telemetry"
)

var sleepFn = time.Sleep

// Sensor is the power monitor chip.
type Sensor interface {
	Configure(calibration, config uint16) error
	ReadRaw() (ina219.Raw, error)
}

// Submitter delivers a batch to the battery engine.
type Submitter interface {
	Submit(battery.Batch) error
}

type sampler struct {
	sensor    Sensor
	submitter Submitter
	estimator *telemetry.Estimator
	conf      Config
	now       func() time.Time
}

func newSampler(sensor Sensor, submitter Submitter, estimator *telemetry.Estimator, conf Config) *sampler {
	return &sampler{
		sensor:    sensor,
		submitter: submitter,
		estimator: estimator,
		conf:      conf,
		now:       time.Now,
	}
}

// configureSensor keeps trying until the chip accepts its configuration,
// then waits for the first conversion.
func (s *sampler) configureSensor() {
	for {
		err := s.sensor.Configure(s.conf.INA219.Calibration, ina219.DefaultConfig)
		if err == nil {
			break
		}
		log.Errorf("Failed to configure INA219: %v", err)
		sleepFn(s.conf.Period())
	}
	sleepFn(time.Second)
}

// cycle reads the sensor once and submits the resulting batch.
func (s *sampler) cycle() (telemetry.Estimate, error) {
	raw, err := s.sensor.ReadRaw()
	if err != nil {
		return telemetry.Estimate{}, fmt.Errorf("sensor read failed: %w", err)
	}
	reading := ina219.Convert(raw, s.conf.Scale())

	est, err := s.estimator.Step(s.now(), reading)
	if err != nil {
		log.Warnf("Failed to save calibration: %v", err)
	}
	if est.Calibrated {
		rec := s.estimator.Calibration()
		log.Infof("Learned full charge is now %d uAh", rec.LearnedFullMicroAh)
		reportCalibration(est, rec)
	}

	log.Debug("\n" + dumpEstimate(raw, est, s.conf.Pack()))

	if err := s.submitter.Submit(est.Batch()); err != nil {
		return est, fmt.Errorf("failed to submit batch: %w", err)
	}
	return est, nil
}

// run samples until ctx is done. Failed cycles are logged and the next one
// starts after the usual period.
func (s *sampler) run(ctx context.Context) {
	for ctx.Err() == nil {
		if _, err := s.cycle(); err != nil {
			log.Errorf("Sampling cycle failed: %v", err)
		}
		if ctx.Err() != nil {
			break
		}
		sleepFn(s.conf.Period())
	}
	log.Info("Sampling stopped")
}

func dumpEstimate(raw ina219.Raw, est telemetry.Estimate, pack telemetry.Pack) string {
	r := est.Reading
	var b strings.Builder
	fmt.Fprintf(&b, "Battery values\n")
	fmt.Fprintf(&b, "bus_raw:             %d\n", raw.Bus)
	fmt.Fprintf(&b, "bus_voltage:         %d mV\n", r.BusMilliV)
	fmt.Fprintf(&b, "bus_voltage_avg:     %d mV\n", est.BusAvgMilliV)
	fmt.Fprintf(&b, "shunt_raw:           %d\n", ina219.Signed(raw.Shunt))
	fmt.Fprintf(&b, "shunt_voltage:       %.3f mV\n", r.ShuntMilliV)
	fmt.Fprintf(&b, "shunt_voltage_avg:   %.3f mV\n", est.ShuntAvgMilliV)
	fmt.Fprintf(&b, "current_raw:         %d\n", ina219.Signed(raw.Current))
	fmt.Fprintf(&b, "current:             %.6f A\n", r.CurrentA)
	fmt.Fprintf(&b, "current_avg:         %.6f A\n", est.CurrentAvgA)
	fmt.Fprintf(&b, "power:               %.3f W\n", r.PowerW)
	fmt.Fprintf(&b, "power_avg:           %.3f W\n", est.PowerAvgW)
	fmt.Fprintf(&b, "samples:             %d\n", est.Samples)
	fmt.Fprintf(&b, "Battery info\n")
	fmt.Fprintf(&b, "Design capacity:     %d mAh (%d mAh * %d)\n",
		pack.DesignChargeMicroAh()/1000, pack.CellCapacityMilliAh, pack.Cells)
	fmt.Fprintf(&b, "Last max. capacity:  %d mAh\n", est.ChargeFull/1000)
	fmt.Fprintf(&b, "Remaining capacity:  %d mAh\n", est.ChargeNow/1000)
	fmt.Fprintf(&b, "Voltage:             %d mV (min. design: %d mV)\n", r.BusMilliV, pack.EmptyMilliV())
	fmt.Fprintf(&b, "Status:              %s\n", est.Direction)
	fmt.Fprintf(&b, "Charge:              %d %%\n", est.Capacity)
	if est.HasRemaining {
		fmt.Fprintf(&b, "Remaining time:      %s", telemetry.FormatRemaining(est.Remaining))
	} else {
		fmt.Fprintf(&b, "Remaining time:      Fully charged")
	}
	return b.String()
}
