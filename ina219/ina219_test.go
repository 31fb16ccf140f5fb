package ina219

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestConfigure(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddress, W: []byte{RegCalibration, 0x68, 0xF4}},
			{Addr: DefaultAddress, W: []byte{RegConfig, 0x1E, 0xEF}},
		},
	}
	d := New(bus, DefaultAddress)
	require.NoError(t, d.Configure(DefaultCalibration, DefaultConfig))
	require.NoError(t, bus.Close())
}

func TestReadRaw(t *testing.T) {
	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultAddress, W: []byte{RegBusVolt}, R: []byte{0x5D, 0x52}},
			{Addr: DefaultAddress, W: []byte{RegShuntVolt}, R: []byte{0xFE, 0x0C}},
			{Addr: DefaultAddress, W: []byte{RegCurrent}, R: []byte{0xF3, 0x3C}},
			{Addr: DefaultAddress, W: []byte{RegPower}, R: []byte{0x01, 0x2C}},
		},
	}
	d := New(bus, DefaultAddress)
	raw, err := d.ReadRaw()
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	assert.Equal(t, Raw{Bus: 0x5D52, Shunt: 0xFE0C, Current: 0xF33C, Power: 0x012C}, raw)
}

func TestReadRawError(t *testing.T) {
	bus := &i2ctest.Playback{DontPanic: true}
	_, err := New(bus, DefaultAddress).ReadRaw()
	assert.Error(t, err)
}

func TestSigned(t *testing.T) {
	assert.Equal(t, int64(0), Signed(0))
	assert.Equal(t, int64(32767), Signed(32767))
	assert.Equal(t, int64(-32767), Signed(32768))
	assert.Equal(t, int64(0), Signed(65535))
	assert.Equal(t, int64(-500), Signed(65035))
}

func TestBusMilliVolts(t *testing.T) {
	// 0x5D52 >> 3 = 2986, x4
	assert.Equal(t, int64(11944), BusMilliVolts(0x5D52))
	assert.Equal(t, int64(11944), BusMilliVolts(0x5D55), "status bits are ignored")
	assert.Equal(t, int64(0), BusMilliVolts(0x0007))
}

func TestConvert(t *testing.T) {
	r := Convert(Raw{Bus: 0x5D52, Shunt: 65035, Current: 65035, Power: 100}, DefaultScale)
	assert.Equal(t, int64(11944), r.BusMilliV)
	assert.InDelta(t, -5.0, r.ShuntMilliV, 1e-9)
	assert.InDelta(t, -0.0762, r.CurrentA, 1e-9)
	assert.InDelta(t, 0.3048, r.PowerW, 1e-9)

	r = Convert(Raw{Shunt: 50, Current: 6562}, DefaultScale)
	assert.InDelta(t, 0.5, r.ShuntMilliV, 1e-9)
	assert.InDelta(t, 1.0000488, r.CurrentA, 1e-6)
}
