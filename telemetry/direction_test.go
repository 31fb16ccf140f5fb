package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	th := DefaultThresholds
	assert.Equal(t, Discharging, th.Classify(-3.01))
	assert.Equal(t, Idle, th.Classify(-3.0))
	assert.Equal(t, Idle, th.Classify(0))
	assert.Equal(t, Idle, th.Classify(0.5))
	assert.Equal(t, Charging, th.Classify(0.51))

	custom := Thresholds{DischargeMilliV: -1, ChargeMilliV: 0.2}
	assert.Equal(t, Discharging, custom.Classify(-2))
	assert.Equal(t, Charging, custom.Classify(0.3))
}

func TestTimeRemaining(t *testing.T) {
	d, ok := TimeRemaining(Discharging, 2000000, 7800000, 1000000)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Hour, d)
	assert.Equal(t, "2 h 00 min", FormatRemaining(d))

	d, ok = TimeRemaining(Charging, 3900000, 7800000, 500000)
	assert.True(t, ok)
	assert.Equal(t, "7 h 48 min", FormatRemaining(d))

	d, ok = TimeRemaining(Discharging, 2000000, 7800000, 0)
	assert.True(t, ok)
	assert.Zero(t, d)

	d, ok = TimeRemaining(Charging, 2000000, 7800000, -5)
	assert.True(t, ok)
	assert.Zero(t, d)

	_, ok = TimeRemaining(Idle, 7800000, 7800000, 1000)
	assert.False(t, ok)
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "0 h 00 min", FormatRemaining(0))
	assert.Equal(t, "0 h 59 min", FormatRemaining(59*time.Minute+59*time.Second))
	assert.Equal(t, "26 h 05 min", FormatRemaining(26*time.Hour+5*time.Minute))
}
