package battery

import (
	"fmt"
	"strconv"
)

// Supply names one of the two logical power supplies exposed by the engine.
type Supply string

const (
	Battery Supply = "BAT0"
	AC      Supply = "AC0"
)

// Supplies lists the logical devices in the order change notifications are sent.
var Supplies = []Supply{Battery, AC}

// ParseSupply validates a supply name.
func ParseSupply(name string) (Supply, error) {
	switch s := Supply(name); s {
	case Battery, AC:
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSupply, name)
}

// Property is a power_supply property name as it appears in sysfs.
type Property string

const (
	PropStatus           Property = "status"
	PropChargeType       Property = "charge_type"
	PropHealth           Property = "health"
	PropPresent          Property = "present"
	PropOnline           Property = "online"
	PropTechnology       Property = "technology"
	PropVoltageMinDesign Property = "voltage_min_design"
	PropVoltageNow       Property = "voltage_now"
	PropCurrentNow       Property = "current_now"
	PropChargeFullDesign Property = "charge_full_design"
	PropChargeFull       Property = "charge_full"
	PropChargeNow        Property = "charge_now"
	PropCapacity         Property = "capacity"
	PropCapacityLevel    Property = "capacity_level"
	PropModelName        Property = "model_name"
	PropManufacturer     Property = "manufacturer"
	PropSerialNumber     Property = "serial_number"

	// Known to consumers but deliberately not reported by the battery.
	PropTimeToEmptyNow   Property = "time_to_empty_now"
	PropTimeToFullNow    Property = "time_to_full_now"
	PropTemperature      Property = "temperature"
	PropEnergyNow        Property = "energy_now"
	PropEnergyFull       Property = "energy_full"
	PropEnergyFullDesign Property = "energy_full_design"
	PropPowerNow         Property = "power_now"
	PropCycleCount       Property = "cycle_count"
)

var batteryProperties = []Property{
	PropStatus,
	PropVoltageMinDesign,
	PropVoltageNow,
	PropCurrentNow,
	PropChargeFullDesign,
	PropChargeFull,
	PropChargeNow,
	PropCapacity,
	PropCapacityLevel,
	PropChargeType,
	PropHealth,
	PropPresent,
	PropTechnology,
	PropModelName,
	PropManufacturer,
	PropSerialNumber,
}

var acProperties = []Property{
	PropOnline,
}

// SupportedProperties returns the properties a supply reports, in the order
// they are listed by Engine.Properties.
func SupportedProperties(s Supply) []Property {
	switch s {
	case Battery:
		return append([]Property(nil), batteryProperties...)
	case AC:
		return append([]Property(nil), acProperties...)
	}
	return nil
}

// Static identity of the emulated battery.
const (
	ModelName    = "Pi battery"
	Manufacturer = "Pi"
	SerialNumber = "P1B4TT3RY"
)

const (
	chargeTypeFast  = 3
	healthGood      = 1
	technologyLiIon = 2
)

// Value is the result of a property read. Enumerated properties carry both
// their ABI number in Int and their label in Text.
type Value struct {
	Int  int64
	Text string
}

// IntValue returns a plain integer value.
func IntValue(v int64) Value {
	return Value{Int: v}
}

// TextValue returns a plain string value.
func TextValue(s string) Value {
	return Value{Text: s}
}

func enumValue(n int, label string) Value {
	return Value{Int: int64(n), Text: label}
}

// Interface returns the label for text and enumerated values and the integer
// otherwise.
func (v Value) Interface() interface{} {
	if v.Text != "" {
		return v.Text
	}
	return v.Int
}

func (v Value) String() string {
	if v.Text != "" {
		return v.Text
	}
	return strconv.FormatInt(v.Int, 10)
}

// Field pairs a property with its value.
type Field struct {
	Property Property
	Value    Value
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func (s *State) batteryProperty(p Property) (Value, bool) {
	switch p {
	case PropModelName:
		return TextValue(ModelName), true
	case PropSerialNumber:
		return TextValue(SerialNumber), true
	case PropManufacturer:
		return TextValue(Manufacturer), true
	case PropStatus:
		return enumValue(int(s.Status), s.Status.String()), true
	case PropChargeType:
		return enumValue(chargeTypeFast, "Fast"), true
	case PropHealth:
		return enumValue(healthGood, "Good"), true
	case PropPresent:
		return IntValue(1), true
	case PropTechnology:
		return enumValue(technologyLiIon, "Li-ion"), true
	case PropCapacityLevel:
		return enumValue(int(s.CapacityLevel), s.CapacityLevel.String()), true
	case PropCapacity:
		return IntValue(s.Capacity), true
	case PropChargeNow:
		return IntValue(s.ChargeNow), true
	case PropChargeFullDesign:
		return IntValue(s.ChargeFullDesign), true
	case PropChargeFull:
		return IntValue(s.ChargeFull), true
	case PropVoltageMinDesign:
		return IntValue(s.VoltageMinDesign), true
	case PropVoltageNow:
		return IntValue(s.VoltageNow), true
	case PropCurrentNow:
		return IntValue(s.CurrentNow), true
	}
	return Value{}, false
}

func (s *State) acProperty(p Property) (Value, bool) {
	if p == PropOnline {
		return IntValue(boolInt(s.ACPresent)), true
	}
	return Value{}, false
}

func (s *State) property(supply Supply, p Property) (Value, error) {
	var v Value
	var ok bool
	switch supply {
	case Battery:
		v, ok = s.batteryProperty(p)
	case AC:
		v, ok = s.acProperty(p)
	default:
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownSupply, supply)
	}
	if !ok {
		return Value{}, fmt.Errorf("%w: %s on %s", ErrUnsupportedProperty, p, supply)
	}
	return v, nil
}
