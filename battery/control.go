package battery

import (
	"bytes"
	"strconv"
	"strings"
)

// Key identifies a field that can be set through the control protocol.
type Key int

const (
	KeyVoltageMinDesign Key = iota
	KeyVoltageNow
	KeyCurrentNow
	KeyChargeFullDesign
	KeyChargeFull
	KeyChargeNow
	KeyCapacity
	KeyCharging

	numKeys
)

var keyNames = [numKeys]string{
	KeyVoltageMinDesign: "voltage_min_design",
	KeyVoltageNow:       "voltage_now",
	KeyCurrentNow:       "current_now",
	KeyChargeFullDesign: "charge_full_design",
	KeyChargeFull:       "charge_full",
	KeyChargeNow:        "charge_now",
	KeyCapacity:         "capacity",
	KeyCharging:         "charging",
}

func (k Key) String() string {
	if k < 0 || k >= numKeys {
		return "Key(" + strconv.Itoa(int(k)) + ")"
	}
	return keyNames[k]
}

// ParseKey looks up a key by its protocol name. Only exact names match.
func ParseKey(name string) (Key, bool) {
	for k, n := range keyNames {
		if n == name {
			return Key(k), true
		}
	}
	return 0, false
}

// Assignment is a single parsed control line.
type Assignment struct {
	Key   Key
	Value int64
}

func (a Assignment) apply(s *State) {
	switch a.Key {
	case KeyVoltageMinDesign:
		s.VoltageMinDesign = a.Value
	case KeyVoltageNow:
		s.VoltageNow = a.Value
	case KeyCurrentNow:
		s.CurrentNow = a.Value
	case KeyChargeFullDesign:
		s.ChargeFullDesign = a.Value
	case KeyChargeFull:
		s.ChargeFull = a.Value
	case KeyChargeNow:
		s.ChargeNow = a.Value
	case KeyCapacity:
		s.Capacity = a.Value
	case KeyCharging:
		s.ACPresent = a.Value != 0
	}
}

// ParseLine parses one "key = value" line.
func ParseLine(line string) (Assignment, error) {
	name, value, ok := strings.Cut(line, "=")
	if !ok {
		return Assignment{}, ErrMalformedLine
	}
	key, ok := ParseKey(strings.TrimSpace(name))
	if !ok {
		return Assignment{}, ErrUnknownKey
	}
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return Assignment{}, ErrInvalidValue
	}
	return Assignment{Key: key, Value: v}, nil
}

// ParseBatch parses every line of a control write. Blank lines are skipped.
// The first bad line fails the whole batch.
func ParseBatch(p []byte) ([]Assignment, error) {
	lines := strings.Split(string(p), "\n")
	assignments := make([]Assignment, 0, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		a, err := ParseLine(line)
		if err != nil {
			return nil, &ProtocolError{Line: i + 1, Text: line, Err: err}
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

// Batch is an ordered set of assignments sent as one control write.
type Batch []Assignment

// Set appends an assignment to the batch.
func (b *Batch) Set(k Key, v int64) {
	*b = append(*b, Assignment{Key: k, Value: v})
}

// Encode renders the batch as newline terminated key=value lines.
func (b Batch) Encode() []byte {
	var buf bytes.Buffer
	for _, a := range b {
		buf.WriteString(a.Key.String())
		buf.WriteByte('=')
		buf.WriteString(strconv.FormatInt(a.Value, 10))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
