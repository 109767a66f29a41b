/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package srv

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"github.com/nfcglucose/go-libre/pkg/log"
)

const (
	SensorsBucket    = "sensors"
	ScanBucketPrefix = "scans_"
	dbOpenTimeout    = time.Second
)

// SensorRecord is a registered sensor as journaled
type SensorRecord struct {
	UID          []byte    `json:"uid"`
	PatchInfo    []byte    `json:"patchInfo"`
	RegisteredAt time.Time `json:"registeredAt"`
}

// ScanRecord is a raw FRAM capture as journaled. Snapshots are never stored,
// they are decoded again from FRAM when needed.
type ScanRecord struct {
	ID         string    `json:"id"`
	CapturedAt time.Time `json:"capturedAt"`
	FRAM       []byte    `json:"fram"`
}

// State is the scan journal
type State struct {
	context.Context
	DB *bbolt.DB
}

func NewState(ctx context.Context, dbPath string) (*State, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, errors.Wrapf(err, "creating database dir for %s", dbPath)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: dbOpenTimeout})
	if err != nil {
		return nil, errors.Wrapf(err, "opening database %s", dbPath)
	}
	if err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(SensorsBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating sensors bucket")
	}
	return &State{
		Context: ctx,
		DB:      db,
	}, nil
}

func (s *State) Close() error {
	return s.DB.Close()
}

func scanBucketName(uid string) string {
	return fmt.Sprintf("%s%s", ScanBucketPrefix, uid)
}

func uint64ToByte(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// AddSensor journals a new sensor and creates its scan bucket
func (s *State) AddSensor(record *SensorRecord) error {
	uid := hex.EncodeToString(record.UID)
	log.Debug("Adding sensor: uid: %s", uid)
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(SensorsBucket))
		if b.Get([]byte(uid)) != nil {
			return ErrSensorExists{UID: uid}
		}
		data, err := yaml.Marshal(record)
		if err != nil {
			return err
		}
		if err := b.Put([]byte(uid), data); err != nil {
			return err
		}
		_, err = tx.CreateBucketIfNotExists([]byte(scanBucketName(uid)))
		return err
	})
}

// Sensor returns the journaled sensor by hex UID
func (s *State) Sensor(uid string) (*SensorRecord, error) {
	record := &SensorRecord{}
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(SensorsBucket)).Get([]byte(uid))
		if data == nil {
			return ErrSensorNotFound{UID: uid}
		}
		return yaml.Unmarshal(data, record)
	}); err != nil {
		return nil, err
	}
	return record, nil
}

// Sensors returns all journaled sensors ordered by UID
func (s *State) Sensors() ([]*SensorRecord, error) {
	log.Debug("Getting all sensors")
	records := []*SensorRecord{}
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(SensorsBucket)).ForEach(func(k, v []byte) error {
			record := &SensorRecord{}
			if err := yaml.Unmarshal(v, record); err != nil {
				return errors.Wrapf(err, "decoding sensor %s", k)
			}
			records = append(records, record)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return records, nil
}

// AppendScan journals a raw capture for a registered sensor
func (s *State) AppendScan(uid string, fram []byte, capturedAt time.Time) (*ScanRecord, error) {
	record := &ScanRecord{
		ID:         uuid.NewString(),
		CapturedAt: capturedAt,
		FRAM:       append([]byte{}, fram...),
	}
	log.Debug("Appending scan: uid: %s id: %s length: %d", uid, record.ID, len(fram))
	if err := s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(scanBucketName(uid)))
		if b == nil {
			return ErrSensorNotFound{UID: uid}
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(record)
		if err != nil {
			return err
		}
		return b.Put(uint64ToByte(seq), data)
	}); err != nil {
		return nil, err
	}
	return record, nil
}

// Scans returns the journal of a sensor, oldest first
func (s *State) Scans(uid string) ([]*ScanRecord, error) {
	records := []*ScanRecord{}
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(scanBucketName(uid)))
		if b == nil {
			return ErrSensorNotFound{UID: uid}
		}
		return b.ForEach(func(k, v []byte) error {
			record := &ScanRecord{}
			if err := yaml.Unmarshal(v, record); err != nil {
				return errors.Wrapf(err, "decoding scan %d", binary.BigEndian.Uint64(k))
			}
			records = append(records, record)
			return nil
		})
	}); err != nil {
		return nil, err
	}
	return records, nil
}

// Scan returns a journaled scan by id
func (s *State) Scan(uid, id string) (*ScanRecord, error) {
	var record *ScanRecord
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(scanBucketName(uid)))
		if b == nil {
			return ErrSensorNotFound{UID: uid}
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			candidate := &ScanRecord{}
			if err := yaml.Unmarshal(v, candidate); err != nil {
				return errors.Wrapf(err, "decoding scan %d", binary.BigEndian.Uint64(k))
			}
			if candidate.ID == id {
				record = candidate
				return nil
			}
		}
		return ErrScanNotFound{UID: uid, ID: id}
	}); err != nil {
		return nil, err
	}
	return record, nil
}

// LatestScan returns the last journaled scan or nil when the sensor was never scanned
func (s *State) LatestScan(uid string) (*ScanRecord, error) {
	var record *ScanRecord
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(scanBucketName(uid)))
		if b == nil {
			return ErrSensorNotFound{UID: uid}
		}
		_, v := b.Cursor().Last()
		if v == nil {
			return nil
		}
		record = &ScanRecord{}
		return yaml.Unmarshal(v, record)
	}); err != nil {
		return nil, err
	}
	return record, nil
}
