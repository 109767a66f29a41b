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

package device

import (
	"encoding/hex"
	"time"

	"github.com/nfcglucose/go-libre/pkg/fram"
	"github.com/nfcglucose/go-libre/pkg/log"
	"github.com/nfcglucose/go-libre/pkg/sensor"
)

const (
	// SerialUIDLen is the number of UID bytes that carry the serial number
	SerialUIDLen    = 6
	serialAlphabet  = "0123456789ACDEFGHJKLMNPQRTUVWXYZ"
	serialGroups    = 10
	serialGroupBits = 5
)

// Sensor is one physical sensor and the latest scan taken from it.
// Sensor is not safe for concurrent use, owners serialize SetFRAM calls.
type Sensor struct {
	uid        []byte
	patchInfo  []byte
	sensorType sensor.Type
	raw        []byte
	snapshot   *fram.Snapshot
	lastScan   time.Time
}

// NewSensor copies uid and patchInfo and classifies the sensor once
func NewSensor(uid, patchInfo []byte) *Sensor {
	s := &Sensor{
		uid:        append([]byte{}, uid...),
		patchInfo:  append([]byte{}, patchInfo...),
		sensorType: sensor.ClassifyPatchInfo(patchInfo),
	}
	log.Debug("New sensor %s type %s", s.UIDString(), s.sensorType)
	return s
}

// SetFRAM replaces the memory snapshot with a new scan taken at date.
// The previous snapshot is kept when the capture cannot be decoded.
func (s *Sensor) SetFRAM(data []byte, date time.Time) error {
	snapshot, err := fram.Parse(data, date)
	if err != nil {
		return err
	}
	if !snapshot.State.Recognized() {
		log.Debug("Sensor %s reports unrecognized state %s", s.UIDString(), snapshot.State)
	}
	if !snapshot.Checksums.Header {
		log.Debug("Sensor %s header checksum mismatch", s.UIDString())
	}
	s.raw = append([]byte{}, data...)
	s.snapshot = snapshot
	s.lastScan = date
	return nil
}

func (s *Sensor) UID() []byte {
	return append([]byte{}, s.uid...)
}

// UIDString is the UID in lower case hex
func (s *Sensor) UIDString() string {
	return hex.EncodeToString(s.uid)
}

func (s *Sensor) PatchInfo() []byte {
	return append([]byte{}, s.patchInfo...)
}

func (s *Sensor) Type() sensor.Type {
	return s.sensorType
}

// FRAM returns a copy of the last decoded capture, nil before the first scan
func (s *Sensor) FRAM() []byte {
	if s.raw == nil {
		return nil
	}
	return append([]byte{}, s.raw...)
}

// Snapshot returns the last decoded scan, nil before the first scan
func (s *Sensor) Snapshot() *fram.Snapshot {
	return s.snapshot
}

func (s *Sensor) LastScan() time.Time {
	return s.lastScan
}

func (s *Sensor) SerialNumber() string {
	return SerialNumber(s.uid)
}

// SerialNumber renders the serial printed on the sensor package.
// uid[5..0] is read as a big endian bit string and encoded in 5 bit groups.
func SerialNumber(uid []byte) string {
	if len(uid) < SerialUIDLen {
		return ""
	}
	var v uint64
	for i := SerialUIDLen - 1; i >= 0; i-- {
		v = v<<8 | uint64(uid[i])
	}
	v <<= 64 - SerialUIDLen*8

	serial := make([]byte, 0, serialGroups+1)
	serial = append(serial, '0')
	for i := 0; i < serialGroups; i++ {
		shift := 64 - serialGroupBits*(i+1)
		serial = append(serial, serialAlphabet[(v>>uint(shift))&0x1f])
	}
	return string(serial)
}
