package bitfield

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		name       string
		buf        []byte
		byteOffset int
		bitOffset  int
		bitCount   int
		expected   uint32
	}{
		{
			name:     "zero width",
			buf:      []byte{0xff, 0xff},
			bitCount: 0,
			expected: 0,
		},
		{
			name:     "negative width",
			buf:      []byte{0xff},
			bitCount: -3,
			expected: 0,
		},
		{
			name:     "full byte",
			buf:      []byte{0xa5},
			bitCount: 8,
			expected: 0xa5,
		},
		{
			name:     "little endian word",
			buf:      []byte{0x34, 0x12},
			bitCount: 16,
			expected: 0x1234,
		},
		{
			name:      "low nibble shifted out",
			buf:       []byte{0xf0},
			bitOffset: 4,
			bitCount:  4,
			expected:  0x0f,
		},
		{
			name:      "field crossing a byte boundary",
			buf:       []byte{0x80, 0x01},
			bitOffset: 7,
			bitCount:  2,
			expected:  0x03,
		},
		{
			name:       "byte offset",
			buf:        []byte{0x00, 0x00, 0x3c},
			byteOffset: 2,
			bitOffset:  2,
			bitCount:   4,
			expected:   0x0f,
		},
		{
			name:     "14 bit raw value",
			buf:      []byte{0xff, 0xff, 0xff},
			bitCount: 14,
			expected: 0x3fff,
		},
		{
			name:      "bit offset larger than a byte",
			buf:       []byte{0x00, 0x00, 0x00, 0x02},
			bitOffset: 0x19,
			bitCount:  1,
			expected:  1,
		},
		{
			name:     "past the end reads zero",
			buf:      []byte{0xff},
			bitCount: 16,
			expected: 0xff,
		},
		{
			name:       "entirely out of range",
			buf:        []byte{0xff},
			byteOffset: 10,
			bitCount:   8,
			expected:   0,
		},
		{
			name:     "nil buffer",
			buf:      nil,
			bitCount: 32,
			expected: 0,
		},
		{
			name:     "width clamped to 32",
			buf:      []byte{0xff, 0xff, 0xff, 0xff, 0xff},
			bitCount: 40,
			expected: 0xffffffff,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Extract(tt.buf, tt.byteOffset, tt.bitOffset, tt.bitCount)
			if result != tt.expected {
				t.Errorf("Extract() = 0x%X, want 0x%X", result, tt.expected)
			}
		})
	}
}

func TestExtractWidthBound(t *testing.T) {
	buf := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	for n := 0; n <= MaxBits; n++ {
		for bitOffset := 0; bitOffset < 8; bitOffset++ {
			result := uint64(Extract(buf, 0, bitOffset, n))
			if result >= uint64(1)<<uint(n) {
				t.Fatalf("Extract(n=%d, bitOffset=%d) = 0x%X, not below 2^%d", n, bitOffset, result, n)
			}
			if result != uint64(1)<<uint(n)-1 {
				t.Errorf("Extract(n=%d, bitOffset=%d) = 0x%X, want all ones", n, bitOffset, result)
			}
		}
	}
}

func TestExtractZeroWidthIgnoresOffsets(t *testing.T) {
	buf := []byte{0xff}
	for _, off := range []int{-100, -1, 0, 3, 1000} {
		if v := Extract(buf, off, off, 0); v != 0 {
			t.Errorf("Extract(%d, %d, 0) = %d, want 0", off, off, v)
		}
	}
}

func TestUint16(t *testing.T) {
	buf := []byte{0x00, 0xcd, 0xab}
	if v := Uint16(buf, 1); v != 0xabcd {
		t.Errorf("Uint16() = 0x%04X, want 0xABCD", v)
	}
	if v := Uint16(buf, 2); v != 0x00ab {
		t.Errorf("Uint16() at the tail = 0x%04X, want 0x00AB", v)
	}
}
