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

import (
	"fmt"
	"strings"
)

// DataQuality is the fault mask attached to every glucose record
type DataQuality uint16

const (
	QualityOK                   DataQuality = 0x0000
	QualitySD14FIFOOverflow     DataQuality = 0x0001
	QualityFilterDelta          DataQuality = 0x0002
	QualityWorkVoltage          DataQuality = 0x0004
	QualityPeakDeltaExceeded    DataQuality = 0x0008
	QualityAvgDeltaExceeded     DataQuality = 0x0010
	QualityRF                   DataQuality = 0x0020
	QualityRefR                 DataQuality = 0x0040
	QualitySignalSaturated      DataQuality = 0x0080
	QualitySensorSignalLow      DataQuality = 0x0100
	QualityThermistorOutOfRange DataQuality = 0x0800
	QualityTempHigh             DataQuality = 0x2000
	QualityTempLow              DataQuality = 0x4000
	QualityInvalidData          DataQuality = 0x8000
)

type qualityFlag struct {
	flag DataQuality
	name string
}

// declaration order is rendering order
var qualityFlags = []qualityFlag{
	{QualitySD14FIFOOverflow, "SD14_FIFO_OVERFLOW"},
	{QualityFilterDelta, "FILTER_DELTA"},
	{QualityWorkVoltage, "WORK_VOLTAGE"},
	{QualityPeakDeltaExceeded, "PEAK_DELTA_EXCEEDED"},
	{QualityAvgDeltaExceeded, "AVG_DELTA_EXCEEDED"},
	{QualityRF, "RF"},
	{QualityRefR, "REF_R"},
	{QualitySignalSaturated, "SIGNAL_SATURATED"},
	{QualitySensorSignalLow, "SENSOR_SIGNAL_LOW"},
	{QualityThermistorOutOfRange, "THERMISTOR_OUT_OF_RANGE"},
	{QualityTempHigh, "TEMP_HIGH"},
	{QualityTempLow, "TEMP_LOW"},
	{QualityInvalidData, "INVALID_DATA"},
}

// Contains reports whether q and other share at least one bit
func (q DataQuality) Contains(other DataQuality) bool {
	return q&other != 0
}

// Flags returns the named flags set in q
func (q DataQuality) Flags() []DataQuality {
	var flags []DataQuality
	for _, f := range qualityFlags {
		if q.Contains(f.flag) {
			flags = append(flags, f.flag)
		}
	}
	return flags
}

func (q DataQuality) names() []string {
	if q == QualityOK {
		return []string{"OK"}
	}
	var names []string
	for _, f := range qualityFlags {
		if q.Contains(f.flag) {
			names = append(names, f.name)
		}
	}
	return names
}

func (q DataQuality) String() string {
	return fmt.Sprintf("0x%04x %s", uint16(q), strings.Join(q.names(), ","))
}
