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

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/nfcglucose/go-libre/pkg/bitfield"
	"github.com/nfcglucose/go-libre/pkg/log"
	"github.com/nfcglucose/go-libre/pkg/sensor"
)

type FRAMFooterLayer struct {
	layers.BaseLayer
	Crc           uint16
	CrcValid      bool
	Region        sensor.Region
	MaxLife       uint16 // minutes
	CalibrationI3 int32
	CalibrationI4 int32
	CalibrationI5 int32
	CalibrationI6 int32
}

var FRAMFooterLayerType = gopacket.RegisterLayerType(FRAMFooterLayerNum,
	gopacket.LayerTypeMetadata{Name: "FRAMFooterLayerType", Decoder: gopacket.DecodeFunc(decodeFRAMFooterLayer)})

// LayerType returns the type of the FRAM footer layer in the layer catalog
func (f *FRAMFooterLayer) LayerType() gopacket.LayerType {
	return FRAMFooterLayerType
}

func footerOffset(offset int) int {
	return offset - FRAMFooterOffset
}

// DecodeFromBytes decodes the footer section, data starts at FRAM offset 320
func (f *FRAMFooterLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < FRAMFooterLen {
		df.SetTruncated()
		return ErrSectionTooShort{Section: "footer", Length: len(data), Need: FRAMFooterLen}
	}
	f.BaseLayer = layers.BaseLayer{
		Contents: data[:FRAMFooterLen],
		Payload:  data[FRAMFooterLen:],
	}

	f.Crc = StoredCRC(f.Contents)
	f.CrcValid = SectionCRCValid(f.Contents)
	if !f.CrcValid {
		log.Debug("FRAM footer crc mismatch: stored: 0x%04x computed: 0x%04x", f.Crc, SectionCRC(f.Contents))
	}

	f.Region = sensor.RegionFromByte(data[footerOffset(FRAMRegionOffset)])
	f.MaxLife = bitfield.Uint16(data, footerOffset(FRAMMaxLifeOffset))

	cal := footerOffset(FRAMCalibrationFooterOffset)
	f.CalibrationI3 = int32(bitfield.Extract(data, cal, 0, 8))
	if bitfield.Extract(data, cal, 0x21, 1) == 1 {
		f.CalibrationI3 = -f.CalibrationI3
	}
	f.CalibrationI4 = int32(bitfield.Extract(data, cal, 8, 14))
	f.CalibrationI5 = int32(bitfield.Extract(data, cal, 0x28, 12) << 2)
	f.CalibrationI6 = int32(bitfield.Extract(data, cal, 0x34, 12) << 2)
	return nil
}

// NextLayerType returns payload for any bytes captured past the footer
func (f *FRAMFooterLayer) NextLayerType() gopacket.LayerType {
	return gopacket.LayerTypePayload
}

func decodeFRAMFooterLayer(data []byte, p gopacket.PacketBuilder) error {
	f := &FRAMFooterLayer{}
	err := f.DecodeFromBytes(data, p)
	if err != nil {
		log.Debug("Error while decoding FRAM footer layer: %s", err)
		return err
	}
	p.AddLayer(f)
	return p.NextDecoder(f.NextLayerType())
}
