package battery

// Status values use the numbering of the Linux power_supply ABI.
type Status int

const (
	StatusCharging    Status = 1
	StatusDischarging Status = 2
	StatusFull        Status = 4
)

func (s Status) String() string {
	switch s {
	case StatusCharging:
		return "Charging"
	case StatusDischarging:
		return "Discharging"
	case StatusFull:
		return "Full"
	}
	return "Unknown"
}

// CapacityLevel is the coarse bucket reported next to the percentage.
type CapacityLevel int

const (
	LevelCritical CapacityLevel = 1
	LevelLow      CapacityLevel = 2
	LevelNormal   CapacityLevel = 3
	LevelHigh     CapacityLevel = 4
	LevelFull     CapacityLevel = 5
)

func (l CapacityLevel) String() string {
	switch l {
	case LevelCritical:
		return "Critical"
	case LevelLow:
		return "Low"
	case LevelNormal:
		return "Normal"
	case LevelHigh:
		return "High"
	case LevelFull:
		return "Full"
	}
	return "Unknown"
}

// State is the battery and AC state held by an Engine. Voltages are in µV,
// currents in µA and charges in µAh.
type State struct {
	Status           Status
	VoltageMinDesign int64
	VoltageNow       int64
	CurrentNow       int64
	ChargeFullDesign int64
	ChargeFull       int64
	ChargeNow        int64
	Capacity         int64
	CapacityLevel    CapacityLevel

	ACPresent bool
}

// NewState returns the state a freshly created engine reports before its
// first update.
func NewState() State {
	return State{
		Status:        StatusFull,
		CapacityLevel: LevelFull,
		ACPresent:     true,
	}
}

// DeriveStatus returns the charging status for the given AC presence and
// capacity percentage.
func DeriveStatus(acPresent bool, capacity int64) Status {
	if !acPresent {
		return StatusDischarging
	}
	if capacity < 100 {
		return StatusCharging
	}
	return StatusFull
}

// LevelForCapacity maps a capacity percentage onto its capacity level.
func LevelForCapacity(capacity int64) CapacityLevel {
	switch {
	case capacity >= 98:
		return LevelFull
	case capacity >= 70:
		return LevelHigh
	case capacity >= 30:
		return LevelNormal
	case capacity >= 5:
		return LevelLow
	default:
		return LevelCritical
	}
}

func (s *State) derive() {
	s.Status = DeriveStatus(s.ACPresent, s.Capacity)
	s.CapacityLevel = LevelForCapacity(s.Capacity)
}
