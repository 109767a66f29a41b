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

// Package framtest builds synthetic FRAM captures for tests.
//
// Offsets are literal and not shared with the decoder under test.
package framtest

import (
	"encoding/binary"
	"math/bits"
)

const (
	StateOnlyLen = 300
	BodyLen      = 320
	FullLen      = 344
)

// Record is a trend or history record in its stored (unshifted) form
type Record struct {
	RawValue           uint32 // 14 bits
	Quality            uint32 // 11 bits, flags in bits 9-10
	HasError           bool
	RawTemperature     uint32 // 12 bits, stored value before << 2
	Adjustment         uint32 // 9 bits, stored value before << 2
	AdjustmentNegative bool
}

// Calibration is the stored form of the calibration coefficients
type Calibration struct {
	I1         uint32 // 3 bits
	I2         uint32 // 10 bits
	I3         uint32 // 8 bits
	I3Negative bool
	I4         uint32 // 14 bits
	I5         uint32 // 12 bits, before << 2
	I6         uint32 // 12 bits, before << 2
}

// PutBits writes the low bitCount bits of value LSB first at the given position
func PutBits(buf []byte, byteOffset, bitOffset, bitCount int, value uint32) {
	base := byteOffset*8 + bitOffset
	for i := 0; i < bitCount; i++ {
		pos := base + i
		mask := byte(1) << uint(pos&7)
		if value&(1<<uint(i)) != 0 {
			buf[pos>>3] |= mask
		} else {
			buf[pos>>3] &^= mask
		}
	}
}

func New(length int) []byte {
	return make([]byte, length)
}

func SetState(buf []byte, state byte) {
	buf[4] = state
}

func SetIndices(buf []byte, trendIndex, historyIndex byte) {
	buf[26] = trendIndex
	buf[27] = historyIndex
}

func SetAge(buf []byte, age uint16) {
	binary.LittleEndian.PutUint16(buf[316:318], age)
}

func SetInitializations(buf []byte, n byte) {
	buf[318] = n
}

func SetRegion(buf []byte, region byte) {
	buf[323] = region
}

func SetMaxLife(buf []byte, maxLife uint16) {
	binary.LittleEndian.PutUint16(buf[326:328], maxLife)
}

func PutRecord(buf []byte, offset int, r Record) {
	PutBits(buf, offset, 0, 14, r.RawValue)
	PutBits(buf, offset, 0x0e, 11, r.Quality)
	PutBits(buf, offset, 0x19, 1, boolBit(r.HasError))
	PutBits(buf, offset, 0x1a, 12, r.RawTemperature)
	PutBits(buf, offset, 0x26, 9, r.Adjustment)
	PutBits(buf, offset, 0x2f, 1, boolBit(r.AdjustmentNegative))
}

// PutTrend writes a record into physical trend slot
func PutTrend(buf []byte, slot int, r Record) {
	PutRecord(buf, 28+slot*6, r)
}

// PutHistory writes a record into physical history slot
func PutHistory(buf []byte, slot int, r Record) {
	PutRecord(buf, 124+slot*6, r)
}

func PutCalibration(buf []byte, c Calibration) {
	PutBits(buf, 2, 0, 3, c.I1)
	PutBits(buf, 2, 3, 10, c.I2)
	PutBits(buf, 0x150, 0, 8, c.I3)
	PutBits(buf, 0x150, 0x21, 1, boolBit(c.I3Negative))
	PutBits(buf, 0x150, 8, 14, c.I4)
	PutBits(buf, 0x150, 0x28, 12, c.I5)
	PutBits(buf, 0x150, 0x34, 12, c.I6)
}

// CRC is a bitwise CRC-16 (reflected 0x8408, init 0xffff) over section[2:], bit reversed
func CRC(section []byte) uint16 {
	crc := uint16(0xffff)
	for _, b := range section[2:] {
		crc ^= uint16(b)
		for i := 0; i < 8; i++ {
			if crc&1 == 1 {
				crc = (crc >> 1) ^ 0x8408
			} else {
				crc >>= 1
			}
		}
	}
	return bits.Reverse16(crc)
}

// StampCRCs writes valid checksums into every section present in buf
func StampCRCs(buf []byte) {
	sections := [][2]int{{0, 24}, {24, 320}, {320, 344}}
	for _, s := range sections {
		if len(buf) < s[1] {
			return
		}
		section := buf[s[0]:s[1]]
		binary.LittleEndian.PutUint16(section[0:2], CRC(section))
	}
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
