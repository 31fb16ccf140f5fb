package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const DefaultCalibrationFile = "/var/lib/batmon/calibration_data"

// Record is the persisted calibration result.
type Record struct {
	LearnedFullMicroAh int64
	LastCalibration    int64 // unix seconds
}

// Store persists a calibration Record. Load returns an error matching
// fs.ErrNotExist when nothing has been saved yet.
type Store interface {
	Load() (Record, error)
	Save(Record) error
}

// FileStore keeps the record in a key=value text file.
type FileStore struct {
	Path string
}

const (
	keyLearnedFull     = "learned_full_charge_uAh"
	keyLastCalibration = "last_calibration_unix_time"

	// Written by earlier versions of the monitor.
	legacyKeyLearnedFull     = "DYNAMIC_CHARGE_FULL"
	legacyKeyLastCalibration = "LAST_CALIBRATION_TIME"
)

func (s FileStore) Load() (Record, error) {
	env, err := godotenv.Read(s.Path)
	if err != nil {
		return Record{}, err
	}
	var r Record
	if r.LearnedFullMicroAh, err = recordValue(env, keyLearnedFull, legacyKeyLearnedFull); err != nil {
		return Record{}, err
	}
	if r.LastCalibration, err = recordValue(env, keyLastCalibration, legacyKeyLastCalibration); err != nil {
		return Record{}, err
	}
	return r, nil
}

// recordValue reads key, falling back to the legacy name. A missing key is 0.
func recordValue(env map[string]string, key, legacy string) (int64, error) {
	value, ok := env[key]
	if !ok {
		if value, ok = env[legacy]; !ok {
			return 0, nil
		}
		key = legacy
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid calibration value %s=%q: %w", key, value, err)
	}
	return v, nil
}

// Save writes to a temporary file, syncs it and renames it over the old one
// so the file on disk is always complete.
func (s FileStore) Save(r Record) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return err
	}
	content, err := godotenv.Marshal(map[string]string{
		keyLearnedFull:     strconv.FormatInt(r.LearnedFullMicroAh, 10),
		keyLastCalibration: strconv.FormatInt(r.LastCalibration, 10),
	})
	if err != nil {
		return err
	}

	tmp := s.Path + ".tmp"
	if err := writeSynced(tmp, content+"\n"); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func writeSynced(path, content string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
