package battery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Assignment
		err  error
	}{
		{"capacity=55", Assignment{KeyCapacity, 55}, nil},
		{"  current_now =  -1500000 ", Assignment{KeyCurrentNow, -1500000}, nil},
		{"charge_full_design=7800000", Assignment{KeyChargeFullDesign, 7800000}, nil},
		{"charge_full=7500000", Assignment{KeyChargeFull, 7500000}, nil},
		{"charging = 1", Assignment{KeyCharging, 1}, nil},
		{"capacity", Assignment{}, ErrMalformedLine},
		{"charge_full_designx=1", Assignment{}, ErrUnknownKey},
		{"capacityy=1", Assignment{}, ErrUnknownKey},
		{"=1", Assignment{}, ErrUnknownKey},
		{"capacity=fifty", Assignment{}, ErrInvalidValue},
		{"capacity=", Assignment{}, ErrInvalidValue},
		{"capacity=1=2", Assignment{}, ErrInvalidValue},
		{"capacity=1.5", Assignment{}, ErrInvalidValue},
	}
	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			got, err := ParseLine(tc.line)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseKeyIsExact(t *testing.T) {
	for k := Key(0); k < numKeys; k++ {
		got, ok := ParseKey(k.String())
		require.True(t, ok, k.String())
		assert.Equal(t, k, got)
	}
	_, ok := ParseKey("charge")
	assert.False(t, ok)
	_, ok = ParseKey("Capacity")
	assert.False(t, ok)
}

func TestParseBatchReportsLine(t *testing.T) {
	_, err := ParseBatch([]byte("capacity=10\n\nvoltage_now=abc\n"))
	var perr *ProtocolError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 3, perr.Line)
	assert.Equal(t, "voltage_now=abc", perr.Text)
	assert.ErrorIs(t, err, ErrInvalidValue)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestParseBatchSkipsBlankLines(t *testing.T) {
	got, err := ParseBatch([]byte("\ncapacity=10\n  \ncharging=0"))
	require.NoError(t, err)
	assert.Equal(t, []Assignment{{KeyCapacity, 10}, {KeyCharging, 0}}, got)
}

func TestBatchEncode(t *testing.T) {
	var b Batch
	b.Set(KeyVoltageNow, 11500000)
	b.Set(KeyCurrentNow, -250000)
	b.Set(KeyCharging, 0)
	assert.Equal(t, "voltage_now=11500000\ncurrent_now=-250000\ncharging=0\n", string(b.Encode()))

	parsed, err := ParseBatch(b.Encode())
	require.NoError(t, err)
	assert.Equal(t, []Assignment(b), parsed)
}
