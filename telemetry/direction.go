package telemetry

import (
	"fmt"
	"time"
)

// Direction is the charge direction seen across the shunt.
type Direction int

const (
	Idle Direction = iota
	Charging
	Discharging
)

func (d Direction) String() string {
	switch d {
	case Idle:
		return "Full"
	case Charging:
		return "Charging"
	case Discharging:
		return "Discharging"
	}
	return "Unknown"
}

// Thresholds classify the instantaneous shunt voltage.
type Thresholds struct {
	DischargeMilliV float64
	ChargeMilliV    float64
}

var DefaultThresholds = Thresholds{
	DischargeMilliV: -3.0,
	ChargeMilliV:    0.5,
}

// Classify returns Idle for shunt voltages between the two thresholds.
func (t Thresholds) Classify(shuntMilliV float64) Direction {
	switch {
	case shuntMilliV < t.DischargeMilliV:
		return Discharging
	case shuntMilliV > t.ChargeMilliV:
		return Charging
	}
	return Idle
}

// TimeRemaining estimates time to empty when discharging and time to full
// when charging. There is no estimate while idle. A current of zero or less
// gives zero.
func TimeRemaining(d Direction, chargeNow, chargeFull, currentMicroA int64) (time.Duration, bool) {
	var charge int64
	switch d {
	case Discharging:
		charge = chargeNow
	case Charging:
		charge = chargeFull - chargeNow
	default:
		return 0, false
	}
	if currentMicroA <= 0 {
		return 0, true
	}
	return time.Duration(charge*3600/currentMicroA) * time.Second, true
}

// FormatRemaining renders a duration as hours and minutes.
func FormatRemaining(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d h %02d min", secs/3600, (secs%3600)/60)
}
