package telemetry

import (
	"errors"
	"fmt"
)

// Pack describes the battery pack in per cell figures.
type Pack struct {
	Cells                int
	CellCapacityMilliAh  int64
	CellFullMilliV       int64
	CellEmptyMilliV      int64
	CellHysteresisMilliV int64
}

// DefaultPack is three 2600 mAh Li-ion cells.
var DefaultPack = Pack{
	Cells:                3,
	CellCapacityMilliAh:  2600,
	CellFullMilliV:       4128,
	CellEmptyMilliV:      3100,
	CellHysteresisMilliV: 50,
}

func (p Pack) Validate() error {
	if p.Cells < 1 {
		return fmt.Errorf("invalid cell count %d", p.Cells)
	}
	if p.CellCapacityMilliAh <= 0 {
		return fmt.Errorf("invalid cell capacity %d mAh", p.CellCapacityMilliAh)
	}
	if p.CellFullMilliV <= p.CellEmptyMilliV {
		return errors.New("cell full voltage must be above cell empty voltage")
	}
	if p.CellHysteresisMilliV < 0 {
		return fmt.Errorf("invalid hysteresis %d mV", p.CellHysteresisMilliV)
	}
	return nil
}

func (p Pack) FullMilliV() int64 {
	return p.CellFullMilliV * int64(p.Cells)
}

func (p Pack) EmptyMilliV() int64 {
	return p.CellEmptyMilliV * int64(p.Cells)
}

func (p Pack) HysteresisMilliV() int64 {
	return p.CellHysteresisMilliV * int64(p.Cells)
}

// DesignChargeMicroAh is the nominal capacity of the pack.
func (p Pack) DesignChargeMicroAh() int64 {
	return p.CellCapacityMilliAh * int64(p.Cells) * 1000
}

// CapacityPercent interpolates linearly between the empty and full pack
// voltage. Fractions round up.
func (p Pack) CapacityPercent(milliV int64) int64 {
	full, empty := p.FullMilliV(), p.EmptyMilliV()
	if milliV >= full {
		return 100
	}
	if milliV <= empty {
		return 0
	}
	num := (milliV - empty) * 100
	den := full - empty
	pct := num / den
	if num%den != 0 {
		pct++
	}
	return pct
}
