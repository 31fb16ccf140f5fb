package ina219

// Raw holds the unconverted register values of one reading.
type Raw struct {
	Bus     uint16
	Shunt   uint16
	Current uint16
	Power   uint16
}

// Scale holds the LSB weights that follow from the calibration value.
type Scale struct {
	CurrentLSBMilliA float64
	PowerLSBW        float64
}

// DefaultScale goes with DefaultCalibration.
var DefaultScale = Scale{
	CurrentLSBMilliA: 0.1524,
	PowerLSBW:        0.003048,
}

// Reading is one sample in physical units.
type Reading struct {
	BusMilliV   int64
	ShuntMilliV float64
	CurrentA    float64
	PowerW      float64
}

// Signed interprets a register as a signed value. Values above 32767 are
// offset by 65535.
func Signed(raw uint16) int64 {
	if raw <= 32767 {
		return int64(raw)
	}
	return int64(raw) - 65535
}

// BusMilliVolts drops the three status bits, the remaining LSB is 4 mV.
func BusMilliVolts(raw uint16) int64 {
	return int64(raw>>3) * 4
}

// Convert turns raw register values into physical units.
func Convert(raw Raw, scale Scale) Reading {
	return Reading{
		BusMilliV:   BusMilliVolts(raw.Bus),
		ShuntMilliV: float64(Signed(raw.Shunt)) * 0.01,
		CurrentA:    float64(Signed(raw.Current)) * scale.CurrentLSBMilliA / 1000,
		PowerW:      float64(Signed(raw.Power)) * scale.PowerLSBW,
	}
}
