package telemetry

import (
	"errors"
	"io/fs"
	"time"
)

const DefaultCalibrationInterval = time.Hour

// Calibrator learns the usable full charge of the pack. While the pack sits
// near full voltage the learned value is pulled towards the charge estimated
// from that voltage, at most once per interval and never upwards.
type Calibrator struct {
	store           Store
	interval        time.Duration
	thresholdMilliV int64
	rec             Record
}

// NewCalibrator loads the last record from store. If there is none, or it
// can not be read, the design charge is used. Read failures other than a
// missing record are returned along with a usable calibrator.
func NewCalibrator(store Store, pack Pack, interval time.Duration) (*Calibrator, error) {
	c := &Calibrator{
		store:           store,
		interval:        interval,
		thresholdMilliV: pack.FullMilliV() - pack.HysteresisMilliV(),
		rec:             Record{LearnedFullMicroAh: pack.DesignChargeMicroAh()},
	}
	if store == nil {
		return c, nil
	}
	rec, err := store.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, err
	}
	if rec.LearnedFullMicroAh > 0 {
		c.rec.LearnedFullMicroAh = rec.LearnedFullMicroAh
	}
	c.rec.LastCalibration = rec.LastCalibration
	return c, nil
}

// LearnedFull is the current full charge estimate in µAh.
func (c *Calibrator) LearnedFull() int64 {
	return c.rec.LearnedFullMicroAh
}

func (c *Calibrator) Record() Record {
	return c.rec
}

// Observe offers one sample to the calibration. It reports whether the
// learned value changed. The new value is kept even when saving it fails.
func (c *Calibrator) Observe(now time.Time, busMilliV, chargeNow int64) (bool, error) {
	if now.Unix()-c.rec.LastCalibration < int64(c.interval/time.Second) {
		return false, nil
	}
	if busMilliV < c.thresholdMilliV || chargeNow >= c.rec.LearnedFullMicroAh {
		return false, nil
	}
	c.rec.LearnedFullMicroAh = (c.rec.LearnedFullMicroAh*19 + chargeNow) / 20
	c.rec.LastCalibration = now.Unix()
	if c.store == nil {
		return true, nil
	}
	return true, c.store.Save(c.rec)
}
