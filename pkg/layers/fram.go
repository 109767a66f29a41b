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

package layers

/*
FRAM memory map (offsets are absolute, every section starts with its own CRC16)

0x000  header  24 bytes
       [0:2]   crc16 over [2:24]
       [2]     calibration i1 (3 bits @0), i2 (10 bits @3)
       [4]     sensor state
0x018  body    296 bytes
       [24:26] crc16 over [26:320]
       [26]    trend index (next slot to be written)
       [27]    history index (next slot to be written)
       [28]    trend ring, 16 records x 6 bytes
       [124]   history ring, 32 records x 6 bytes
       [316]   sensor age in minutes, little endian
       [318]   number of initializations
0x140  footer  24 bytes
       [320:322] crc16 over [322:344]
       [323]   region
       [326]   max life in minutes, little endian
       [336]   calibration i3..i6

Record (6 bytes, bit offsets from the record start)
       raw value               14 bits @0x00
       quality                 11 bits @0x0e (low 9 bits flags, bits 9-10 quality flags)
       has error                1 bit  @0x19
       raw temperature         12 bits @0x1a, << 2
       temperature adjustment   9 bits @0x26, << 2, negative when bit 0x2f is set
*/

import (
	"encoding/binary"
	"math/bits"

	"github.com/sigurn/crc16"

	"github.com/nfcglucose/go-libre/pkg/bitfield"
	"github.com/nfcglucose/go-libre/pkg/sensor"
)

const (
	// FRAMHeaderLayerNum identifies the header layer
	FRAMHeaderLayerNum = 1990
	// FRAMBodyLayerNum identifies the body layer
	FRAMBodyLayerNum = 1991
	// FRAMFooterLayerNum identifies the footer layer
	FRAMFooterLayerNum = 1992
)

const (
	FRAMHeaderOffset = 0
	FRAMHeaderLen    = 24
	FRAMBodyOffset   = FRAMHeaderOffset + FRAMHeaderLen
	FRAMBodyLen      = 296
	FRAMFooterOffset = FRAMBodyOffset + FRAMBodyLen
	FRAMFooterLen    = 24
	// FRAMMinStateLen is the shortest buffer the sensor state can be read from
	FRAMMinStateLen = FRAMStateOffset + 1
	// FRAMMinBodyLen is the shortest buffer the trend and history rings can be read from
	FRAMMinBodyLen = FRAMFooterOffset
	// FRAMMinFooterLen is the shortest buffer region and calibration can be read from
	FRAMMinFooterLen = FRAMFooterOffset + FRAMFooterLen
)

const (
	FRAMCalibrationHeaderOffset = 2
	FRAMStateOffset             = 4

	FRAMTrendIndexOffset      = 26
	FRAMHistoryIndexOffset    = 27
	FRAMTrendOffset           = 28
	FRAMHistoryOffset         = 124
	FRAMAgeOffset             = 316
	FRAMInitializationsOffset = 318

	FRAMRegionOffset            = 323
	FRAMMaxLifeOffset           = 326
	FRAMCalibrationFooterOffset = 0x150
)

const (
	TrendSize   = 16
	HistorySize = 32
	RecordLen   = 6
)

// record bit layout
const (
	recordRawValueBit       = 0x00
	recordRawValueBits      = 14
	recordQualityBit        = 0x0e
	recordQualityBits       = 11
	recordQualityMask       = 0x1ff
	recordQualityFlagsShift = 9
	recordQualityFlagsMask  = 0x3
	recordErrorBit          = 0x19
	recordTemperatureBit    = 0x1a
	recordTemperatureBits   = 12
	recordAdjustmentBit     = 0x26
	recordAdjustmentBits    = 9
	recordAdjustmentSignBit = 0x2f
	recordTemperatureShift  = 2
)

// GlucoseRecord is a trend or history record as stored by the firmware,
// before it is placed on the time line
type GlucoseRecord struct {
	RawValue              uint16
	Quality               sensor.DataQuality
	QualityFlags          uint8
	HasError              bool
	RawTemperature        uint16
	TemperatureAdjustment int16
}

// DecodeGlucoseRecord decodes the 6 byte record starting at offset
func DecodeGlucoseRecord(data []byte, offset int) GlucoseRecord {
	quality := bitfield.Extract(data, offset, recordQualityBit, recordQualityBits)
	adjustment := int16(bitfield.Extract(data, offset, recordAdjustmentBit, recordAdjustmentBits) << recordTemperatureShift)
	if bitfield.Extract(data, offset, recordAdjustmentSignBit, 1) == 1 {
		adjustment = -adjustment
	}
	return GlucoseRecord{
		RawValue:              uint16(bitfield.Extract(data, offset, recordRawValueBit, recordRawValueBits)),
		Quality:               sensor.DataQuality(quality & recordQualityMask),
		QualityFlags:          uint8((quality >> recordQualityFlagsShift) & recordQualityFlagsMask),
		HasError:              bitfield.Extract(data, offset, recordErrorBit, 1) == 1,
		RawTemperature:        uint16(bitfield.Extract(data, offset, recordTemperatureBit, recordTemperatureBits) << recordTemperatureShift),
		TemperatureAdjustment: adjustment,
	}
}

var crcTable = crc16.MakeTable(crc16.CRC16_MCRF4XX)

// SectionCRC computes the checksum the firmware keeps in the first two bytes of a section.
// The firmware stores the MCRF4XX value with its bits reversed.
func SectionCRC(section []byte) uint16 {
	if len(section) < 2 {
		return 0
	}
	return bits.Reverse16(crc16.Checksum(section[2:], crcTable))
}

// StoredCRC returns the checksum kept in the section itself
func StoredCRC(section []byte) uint16 {
	if len(section) < 2 {
		return 0
	}
	return binary.LittleEndian.Uint16(section[0:2])
}

// SectionCRCValid compares the stored and the computed checksums
func SectionCRCValid(section []byte) bool {
	return len(section) >= 2 && StoredCRC(section) == SectionCRC(section)
}
