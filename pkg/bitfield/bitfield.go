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

// Package bitfield reads unsigned integers that are not aligned to byte boundaries.
//
// Bits are numbered LSB first inside every byte, so bit N of a buffer is
// (buf[N/8] >> (N%8)) & 1. This is the order the sensor firmware packs its records in.
package bitfield

const (
	// MaxBits is the widest field Extract can return
	MaxBits = 32
)

// Extract returns bitCount bits starting at bit bitOffset of byte byteOffset.
// Output bit i is taken from absolute position byteOffset*8 + bitOffset + i.
// Bits outside of buf read as zero, so truncated captures never panic.
func Extract(buf []byte, byteOffset, bitOffset, bitCount int) uint32 {
	if bitCount <= 0 {
		return 0
	}
	if bitCount > MaxBits {
		bitCount = MaxBits
	}
	var value uint32
	base := byteOffset*8 + bitOffset
	for i := 0; i < bitCount; i++ {
		pos := base + i
		if pos < 0 {
			continue
		}
		idx := pos >> 3
		if idx >= len(buf) {
			break
		}
		if (buf[idx]>>uint(pos&7))&1 == 1 {
			value |= 1 << uint(i)
		}
	}
	return value
}

// Uint16 assembles a little endian 16 bit word, missing bytes read as zero
func Uint16(buf []byte, offset int) uint16 {
	return uint16(Extract(buf, offset, 0, 16))
}
