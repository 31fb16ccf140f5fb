package monitor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/p3t3r50n-cz/picovina/battery"
	"github.com/p3t3r50n-cz/picovina/batteryclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// engineProps reads a supply from a local engine the way GetAll returns it.
func engineProps(t *testing.T, e *battery.Engine, supply battery.Supply) map[string]interface{} {
	fields, err := e.Properties(supply)
	require.NoError(t, err)
	props := map[string]interface{}{}
	for _, f := range fields {
		props[string(f.Property)] = f.Value.Interface()
	}
	return props
}

func useEngine(t *testing.T, e *battery.Engine) {
	getAll = func(supply battery.Supply) (map[string]interface{}, error) {
		if _, err := battery.ParseSupply(string(supply)); err != nil {
			return nil, err
		}
		return engineProps(t, e, supply), nil
	}
	t.Cleanup(func() { getAll = batteryclient.GetAll })
}

func TestFormatUeventBattery(t *testing.T) {
	e := battery.NewEngine(nil)
	_, err := e.Write([]byte("capacity=42\ncharging=0\nvoltage_now=11000000\n"))
	require.NoError(t, err)

	out := formatUevent(battery.Battery, engineProps(t, e, battery.Battery))
	lines := bytes.Split([]byte(out), []byte("\n"))
	assert.Equal(t, "POWER_SUPPLY_NAME=BAT0", string(lines[0]))
	assert.Equal(t, "POWER_SUPPLY_STATUS=Discharging", string(lines[1]))
	assert.Contains(t, out, "POWER_SUPPLY_VOLTAGE_NOW=11000000\n")
	assert.Contains(t, out, "POWER_SUPPLY_CAPACITY=42\n")
	assert.Contains(t, out, "POWER_SUPPLY_CAPACITY_LEVEL=Normal\n")
	assert.Contains(t, out, "POWER_SUPPLY_SERIAL_NUMBER=P1B4TT3RY\n")
	assert.NotContains(t, out, "POWER_SUPPLY_ONLINE")
}

func TestFormatUeventAC(t *testing.T) {
	props := map[string]interface{}{"online": int64(1), "bogus": "x"}
	assert.Equal(t, "POWER_SUPPLY_NAME=AC0\nPOWER_SUPPLY_ONLINE=1\n", formatUevent(battery.AC, props))
}

func TestSignalSupply(t *testing.T) {
	supply, ok := signalSupply(&dbus.Signal{Name: batteryclient.ChangedSignal, Body: []interface{}{"AC0"}})
	assert.True(t, ok)
	assert.Equal(t, battery.AC, supply)

	for _, s := range []*dbus.Signal{
		nil,
		{Name: "org.example.Other", Body: []interface{}{"BAT0"}},
		{Name: batteryclient.ChangedSignal},
		{Name: batteryclient.ChangedSignal, Body: []interface{}{int32(1)}},
		{Name: batteryclient.ChangedSignal, Body: []interface{}{"BAT1"}},
	} {
		_, ok := signalSupply(s)
		assert.False(t, ok)
	}
}

func TestWatchReportsChangedSupplies(t *testing.T) {
	e := battery.NewEngine(nil)
	_, err := e.Write([]byte("charging=0\n"))
	require.NoError(t, err)
	useEngine(t, e)

	signals := make(chan *dbus.Signal, 3)
	signals <- &dbus.Signal{Name: batteryclient.ChangedSignal, Body: []interface{}{"AC0"}}
	signals <- &dbus.Signal{Name: "org.example.Other", Body: []interface{}{"BAT0"}}
	signals <- &dbus.Signal{Name: batteryclient.ChangedSignal, Body: []interface{}{"BAT0"}}
	close(signals)

	var out bytes.Buffer
	watch(&out, signals)
	assert.Equal(t, 2, bytes.Count(out.Bytes(), []byte("POWER_SUPPLY_NAME=")))
	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("POWER_SUPPLY_NAME=AC0\nPOWER_SUPPLY_ONLINE=0\n\n")))
	assert.Contains(t, out.String(), "POWER_SUPPLY_STATUS=Discharging\n")
}

func TestReportError(t *testing.T) {
	getAll = func(supply battery.Supply) (map[string]interface{}, error) {
		return nil, errors.New("no engine")
	}
	defer func() { getAll = batteryclient.GetAll }()

	var out bytes.Buffer
	assert.Error(t, report(&out, battery.Battery))
	assert.Empty(t, out.String())
}
