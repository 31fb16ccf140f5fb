/*
ina219 - Reading the INA219 current/power monitor over I2C.
Copyright (C) 2025, The pi-battery Authors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package ina219

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
)

const (
	DefaultAddress = 0x41

	RegConfig      = 0x00
	RegShuntVolt   = 0x01
	RegBusVolt     = 0x02
	RegPower       = 0x03
	RegCurrent     = 0x04
	RegCalibration = 0x05

	// DefaultCalibration matches a 0.01 ohm shunt with a 0.1524 mA current LSB.
	DefaultCalibration = 26868

	// 16V bus range, 320mV shunt range, 12 bit x32 averaging for bus and
	// shunt, continuous shunt and bus conversion.
	DefaultConfig = (0x00 << 13) | (0x03 << 11) | (0x0D << 7) | (0x0D << 3) | 0x07
)

// Dev is an INA219 on an I2C bus.
type Dev struct {
	c conn.Conn
}

// New returns a device at addr on bus. Nothing is sent to the chip until
// Configure or ReadRaw is called.
func New(bus i2c.Bus, addr uint16) *Dev {
	return &Dev{c: &i2c.Dev{Bus: bus, Addr: addr}}
}

// Configure writes the calibration register and then the config register.
// The chip needs a moment after this before the first conversion is ready.
func (d *Dev) Configure(calibration, config uint16) error {
	if err := d.writeRegister(RegCalibration, calibration); err != nil {
		return err
	}
	return d.writeRegister(RegConfig, config)
}

// ReadRaw reads the bus voltage, shunt voltage, current and power registers,
// in that order.
func (d *Dev) ReadRaw() (Raw, error) {
	var raw Raw
	regs := []struct {
		reg byte
		val *uint16
	}{
		{RegBusVolt, &raw.Bus},
		{RegShuntVolt, &raw.Shunt},
		{RegCurrent, &raw.Current},
		{RegPower, &raw.Power},
	}
	for _, r := range regs {
		v, err := d.readRegister(r.reg)
		if err != nil {
			return Raw{}, err
		}
		*r.val = v
	}
	return raw, nil
}

// Registers are 16 bits, MSB first.
func (d *Dev) readRegister(reg byte) (uint16, error) {
	data := make([]byte, 2)
	if err := d.c.Tx([]byte{reg}, data); err != nil {
		return 0, fmt.Errorf("failed to read register 0x%02x: %w", reg, err)
	}
	return uint16(data[0])<<8 | uint16(data[1]), nil
}

func (d *Dev) writeRegister(reg byte, val uint16) error {
	if err := d.c.Tx([]byte{reg, byte(val >> 8), byte(val)}, nil); err != nil {
		return fmt.Errorf("failed to write 0x%04x to register 0x%02x: %w", val, reg, err)
	}
	return nil
}
