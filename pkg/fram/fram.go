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

// Package fram turns a raw FRAM capture into a timestamped snapshot.
//
// The memory map itself is decoded by the FRAM layers in pkg/layers. This package
// reconstructs the two ring buffers in time order and anchors the sensor relative
// minute counters to the host clock of the scan.
package fram

import (
	"time"

	"github.com/google/gopacket"

	"github.com/nfcglucose/go-libre/pkg/layers"
	"github.com/nfcglucose/go-libre/pkg/sensor"
)

const (
	// HistoryInterval is the width of a history bucket in minutes
	HistoryInterval = 15
	// HistoryWriteDelay is how many minutes the firmware waits before it closes a history bucket
	HistoryWriteDelay = 3
)

// Checksums reports the CRC of every section that was decoded
type Checksums struct {
	Header bool `json:"header"`
	Body   bool `json:"body"`
	Footer bool `json:"footer"`
}

// Snapshot is everything a single scan tells about a sensor.
// Trend and History are newest first.
type Snapshot struct {
	State           sensor.State            `json:"state"`
	Region          sensor.Region           `json:"region"`
	MaxLife         uint16                  `json:"maxLife"`
	Age             uint16                  `json:"age"`
	Initializations uint8                   `json:"initializations"`
	StartDate       time.Time               `json:"startDate"`
	Calibration     sensor.CalibrationInfo  `json:"calibration"`
	Trend           []sensor.GlucoseReading `json:"trend"`
	History         []sensor.GlucoseReading `json:"history"`
	Checksums       Checksums               `json:"checksums"`
}

// Parse decodes fram captured at lastReadingDate (host clock).
// Short captures are not an error: sections that were not captured are left
// at their zero values. Only a capture without the state byte is rejected.
// Parse keeps no state and is safe for concurrent use.
func Parse(fram []byte, lastReadingDate time.Time) (*Snapshot, error) {
	if len(fram) < layers.FRAMMinStateLen {
		return nil, ErrFRAMTooShort{Length: len(fram)}
	}

	packet := gopacket.NewPacket(fram, layers.FRAMHeaderLayerType, gopacket.Default)
	if errLayer := packet.ErrorLayer(); errLayer != nil {
		return nil, ErrFRAMDecode{Err: errLayer.Error()}
	}

	snapshot := &Snapshot{
		State:   sensor.StateUnknown,
		Region:  sensor.RegionUnknown,
		Trend:   []sensor.GlucoseReading{},
		History: []sensor.GlucoseReading{},
	}

	header, ok := packet.Layer(layers.FRAMHeaderLayerType).(*layers.FRAMHeaderLayer)
	if !ok {
		return nil, ErrFRAMDecode{Err: ErrMissingSection{Section: "header"}}
	}
	snapshot.State = header.State
	snapshot.Checksums.Header = header.CrcValid

	body, ok := packet.Layer(layers.FRAMBodyLayerType).(*layers.FRAMBodyLayer)
	if !ok {
		return snapshot, nil
	}
	snapshot.Checksums.Body = body.CrcValid
	snapshot.Age = body.Age
	snapshot.Initializations = body.Initializations
	snapshot.StartDate = lastReadingDate.Add(-minutes(int(body.Age)))
	snapshot.Trend = trend(body, snapshot.StartDate)
	snapshot.History = history(body, snapshot.StartDate, lastReadingDate)

	footer, ok := packet.Layer(layers.FRAMFooterLayerType).(*layers.FRAMFooterLayer)
	if !ok {
		return snapshot, nil
	}
	snapshot.Checksums.Footer = footer.CrcValid
	snapshot.Region = footer.Region
	snapshot.MaxLife = footer.MaxLife
	snapshot.Calibration = sensor.CalibrationInfo{
		I1: header.CalibrationI1,
		I2: header.CalibrationI2,
		I3: footer.CalibrationI3,
		I4: footer.CalibrationI4,
		I5: footer.CalibrationI5,
		I6: footer.CalibrationI6,
	}
	return snapshot, nil
}

// trend walks the minute ring backwards from the slot written last
func trend(body *layers.FRAMBodyLayer, startDate time.Time) []sensor.GlucoseReading {
	age := int(body.Age)
	readings := make([]sensor.GlucoseReading, 0, layers.TrendSize)
	for i := 0; i < layers.TrendSize; i++ {
		slot := ringSlot(int(body.TrendIndex), i, layers.TrendSize)
		id := age - i
		readings = append(readings, reading(body.Trend[slot], id, startDate.Add(minutes(id))))
	}
	return readings
}

// history walks the 15 minute ring backwards. The newest bucket is written a few
// minutes after it closes, so the first timestamp depends on whether the firmware
// already advanced historyIndex for the current bucket.
func history(body *layers.FRAMBodyLayer, startDate, lastReadingDate time.Time) []sensor.GlucoseReading {
	age := int(body.Age)
	// truncating division and remainder, the firmware does the same for age < 3
	preciseHistoryIndex := ringMod((age-HistoryWriteDelay)/HistoryInterval, layers.HistorySize)
	delay := (age-HistoryWriteDelay)%HistoryInterval + HistoryWriteDelay

	var readingDate time.Time
	if preciseHistoryIndex == int(body.HistoryIndex) {
		readingDate = lastReadingDate.Add(-minutes(delay))
	} else {
		readingDate = lastReadingDate.Add(minutes(HistoryInterval - delay))
	}

	readings := make([]sensor.GlucoseReading, 0, layers.HistorySize)
	for i := 0; i < layers.HistorySize; i++ {
		slot := ringSlot(int(body.HistoryIndex), i, layers.HistorySize)
		id := age - delay - HistoryInterval*i
		timestamp := startDate
		if id > -1 {
			timestamp = readingDate.Add(-minutes(HistoryInterval * i))
		}
		readings = append(readings, reading(body.History[slot], id, timestamp))
	}
	return readings
}

func reading(r layers.GlucoseRecord, id int, timestamp time.Time) sensor.GlucoseReading {
	return sensor.GlucoseReading{
		ID:                    id,
		Timestamp:             timestamp,
		RawValue:              r.RawValue,
		RawTemperature:        r.RawTemperature,
		TemperatureAdjustment: r.TemperatureAdjustment,
		HasError:              r.HasError,
		Quality:               r.Quality,
		QualityFlags:          r.QualityFlags,
	}
}

// ringSlot is the physical slot of logical position i counted back from the
// next write index: (index - 1 - i) mod size
func ringSlot(index, i, size int) int {
	return ringMod(index-1-i, size)
}

// ringMod is a modulo that never returns a negative slot
func ringMod(a, n int) int {
	return ((a % n) + n) % n
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
