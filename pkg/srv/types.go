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
	"time"

	"github.com/nfcglucose/go-libre/pkg/fram"
	"github.com/nfcglucose/go-libre/pkg/sensor"
)

// SensorRequest registers a sensor, both fields are hex
type SensorRequest struct {
	UID       string `json:"uid"`
	PatchInfo string `json:"patchInfo"`
}

// SensorInfo describes a registered sensor. Snapshot is only filled for a single sensor.
type SensorInfo struct {
	UID          string         `json:"uid"`
	PatchInfo    string         `json:"patchInfo"`
	SerialNumber string         `json:"serialNumber"`
	Type         sensor.Type    `json:"type"`
	State        *sensor.State  `json:"state,omitempty"`
	LastScan     *time.Time     `json:"lastScan,omitempty"`
	Snapshot     *fram.Snapshot `json:"snapshot,omitempty"`
}

// ScanRequest uploads a FRAM capture in hex. CapturedAt defaults to the time of upload.
type ScanRequest struct {
	FRAM       string     `json:"fram"`
	CapturedAt *time.Time `json:"capturedAt,omitempty"`
}

// ScanInfo is a journal entry without the capture itself
type ScanInfo struct {
	ID         string    `json:"id"`
	CapturedAt time.Time `json:"capturedAt"`
	Length     int       `json:"length"`
}
