package telemetry

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	rec     Record
	loadErr error
	saveErr error
	saves   int
}

func (s *memStore) Load() (Record, error) {
	return s.rec, s.loadErr
}

func (s *memStore) Save(r Record) error {
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.rec = r
	return nil
}

// 12300 mV is inside the hysteresis band of the default pack (>= 12234 mV).
const nearFullMilliV = 12300

func TestNewCalibratorDefaults(t *testing.T) {
	c, err := NewCalibrator(&memStore{loadErr: fs.ErrNotExist}, DefaultPack, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(7800000), c.LearnedFull())
	assert.Zero(t, c.Record().LastCalibration)

	c, err = NewCalibrator(nil, DefaultPack, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(7800000), c.LearnedFull())
}

func TestNewCalibratorLoadsRecord(t *testing.T) {
	store := &memStore{rec: Record{LearnedFullMicroAh: 7000000, LastCalibration: 1234}}
	c, err := NewCalibrator(store, DefaultPack, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, Record{LearnedFullMicroAh: 7000000, LastCalibration: 1234}, c.Record())

	store = &memStore{rec: Record{LearnedFullMicroAh: 0, LastCalibration: 1234}}
	c, err = NewCalibrator(store, DefaultPack, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(7800000), c.LearnedFull())
	assert.Equal(t, int64(1234), c.Record().LastCalibration)
}

func TestNewCalibratorLoadError(t *testing.T) {
	loadErr := errors.New("corrupt")
	c, err := NewCalibrator(&memStore{loadErr: loadErr}, DefaultPack, time.Hour)
	assert.ErrorIs(t, err, loadErr)
	require.NotNil(t, c)
	assert.Equal(t, int64(7800000), c.LearnedFull())
}

func TestCalibrationOncePerInterval(t *testing.T) {
	store := &memStore{loadErr: fs.ErrNotExist}
	c, err := NewCalibrator(store, DefaultPack, time.Hour)
	require.NoError(t, err)

	start := time.Unix(1700000000, 0)
	changed, err := c.Observe(start, nearFullMilliV, 7644000)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, int64(7792200), c.LearnedFull())
	assert.Equal(t, Record{LearnedFullMicroAh: 7792200, LastCalibration: 1700000000}, store.rec)

	for i := 1; i < 1800; i++ {
		changed, err := c.Observe(start.Add(time.Duration(i)*2*time.Second), nearFullMilliV, 7644000)
		require.NoError(t, err)
		require.False(t, changed)
	}
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, int64(7792200), c.LearnedFull())

	changed, err = c.Observe(start.Add(time.Hour), nearFullMilliV, 7644000)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, store.saves)
}

func TestCalibrationNeverRaises(t *testing.T) {
	c, err := NewCalibrator(nil, DefaultPack, time.Hour)
	require.NoError(t, err)
	now := time.Unix(1700000000, 0)

	changed, _ := c.Observe(now, nearFullMilliV, 7800000)
	assert.False(t, changed)
	changed, _ = c.Observe(now, nearFullMilliV, 9000000)
	assert.False(t, changed)
	assert.Equal(t, int64(7800000), c.LearnedFull())
}

func TestCalibrationNeedsNearFullVoltage(t *testing.T) {
	c, err := NewCalibrator(nil, DefaultPack, time.Hour)
	require.NoError(t, err)

	changed, _ := c.Observe(time.Unix(1700000000, 0), 12233, 7000000)
	assert.False(t, changed)
	changed, _ = c.Observe(time.Unix(1700000000, 0), 12234, 7000000)
	assert.True(t, changed)
}

func TestCalibrationSaveFailureKeepsValue(t *testing.T) {
	saveErr := errors.New("read-only file system")
	store := &memStore{loadErr: fs.ErrNotExist, saveErr: saveErr}
	c, err := NewCalibrator(store, DefaultPack, time.Hour)
	require.NoError(t, err)

	changed, err := c.Observe(time.Unix(1700000000, 0), nearFullMilliV, 7644000)
	assert.True(t, changed)
	assert.ErrorIs(t, err, saveErr)
	assert.Equal(t, int64(7792200), c.LearnedFull())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batmon", "calibration_data")
	s := FileStore{Path: path}

	_, err := s.Load()
	assert.ErrorIs(t, err, fs.ErrNotExist)

	rec := Record{LearnedFullMicroAh: 7792200, LastCalibration: 1700000000}
	require.NoError(t, s.Save(rec))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "last_calibration_unix_time=1700000000\nlearned_full_charge_uAh=7792200\n", string(data))
	_, err = os.Stat(path + ".tmp")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestFileStoreLegacyKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration_data")
	content := "# written by batmon\nDYNAMIC_CHARGE_FULL=7500000\n\nLAST_CALIBRATION_TIME=1690000000\nOTHER=1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	got, err := FileStore{Path: path}.Load()
	require.NoError(t, err)
	assert.Equal(t, Record{LearnedFullMicroAh: 7500000, LastCalibration: 1690000000}, got)
}

func TestFileStoreCurrentKeysWinOverLegacy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration_data")
	content := "DYNAMIC_CHARGE_FULL=7500000\nlearned_full_charge_uAh=7792200\nLAST_CALIBRATION_TIME=1690000000\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	got, err := FileStore{Path: path}.Load()
	require.NoError(t, err)
	assert.Equal(t, Record{LearnedFullMicroAh: 7792200, LastCalibration: 1690000000}, got)
}

func TestFileStoreSaveReplacesOldFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration_data")
	require.NoError(t, os.WriteFile(path, []byte("DYNAMIC_CHARGE_FULL=7500000\nLAST_CALIBRATION_TIME=1690000000\n"), 0644))

	s := FileStore{Path: path}
	require.NoError(t, s.Save(Record{LearnedFullMicroAh: 7600000, LastCalibration: 1700003600}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "DYNAMIC_CHARGE_FULL")
	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Record{LearnedFullMicroAh: 7600000, LastCalibration: 1700003600}, got)
}

func TestFileStoreBadValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration_data")
	require.NoError(t, os.WriteFile(path, []byte("learned_full_charge_uAh=lots\n"), 0644))
	_, err := FileStore{Path: path}.Load()
	assert.Error(t, err)
}
