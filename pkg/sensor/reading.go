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

package sensor

import "time"

// GlucoseReading is one decoded trend or history record.
// ID is the sensor age in minutes the record belongs to.
type GlucoseReading struct {
	ID                    int         `json:"id"`
	Timestamp             time.Time   `json:"timestamp"`
	RawValue              uint16      `json:"rawValue"`
	RawTemperature        uint16      `json:"rawTemperature"`
	TemperatureAdjustment int16       `json:"temperatureAdjustment"`
	HasError              bool        `json:"hasError"`
	Quality               DataQuality `json:"quality"`
	QualityFlags          uint8       `json:"qualityFlags"`
}

// CalibrationInfo holds the factory calibration coefficients burned into FRAM.
// The zero value is used when the footer was not captured.
type CalibrationInfo struct {
	I1 int32 `json:"i1"`
	I2 int32 `json:"i2"`
	I3 int32 `json:"i3"`
	I4 int32 `json:"i4"`
	I5 int32 `json:"i5"`
	I6 int32 `json:"i6"`
}

// IsZero reports whether no coefficient was decoded
func (c CalibrationInfo) IsZero() bool {
	return c == CalibrationInfo{}
}
