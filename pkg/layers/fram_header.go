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

// FRAMHeaderLayer is the first FRAM section. A truncated header still
// yields the state as long as its byte was captured.
type FRAMHeaderLayer struct {
	layers.BaseLayer
	Crc           uint16
	CrcValid      bool
	State         sensor.State
	CalibrationI1 int32
	CalibrationI2 int32
}

var FRAMHeaderLayerType = gopacket.RegisterLayerType(FRAMHeaderLayerNum,
	gopacket.LayerTypeMetadata{Name: "FRAMHeaderLayerType", Decoder: gopacket.DecodeFunc(decodeFRAMHeaderLayer)})

// LayerType returns the type of the FRAM header layer in the layer catalog
func (h *FRAMHeaderLayer) LayerType() gopacket.LayerType {
	return FRAMHeaderLayerType
}

// DecodeFromBytes decodes the header section, data is the whole capture
func (h *FRAMHeaderLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < FRAMMinStateLen {
		df.SetTruncated()
		return ErrSectionTooShort{Section: "header", Length: len(data), Need: FRAMMinStateLen}
	}
	headerLen := FRAMHeaderLen
	if len(data) < headerLen {
		headerLen = len(data)
	}
	h.BaseLayer = layers.BaseLayer{
		Contents: data[:headerLen],
		Payload:  data[headerLen:],
	}

	h.State = sensor.StateFromByte(data[FRAMStateOffset])
	if !h.State.Recognized() {
		log.Debug("Unrecognized sensor state byte: 0x%02x", h.State.Raw())
	}
	h.CalibrationI1 = int32(bitfield.Extract(data, FRAMCalibrationHeaderOffset, 0, 3))
	h.CalibrationI2 = int32(bitfield.Extract(data, FRAMCalibrationHeaderOffset, 3, 10))

	if headerLen == FRAMHeaderLen {
		h.Crc = StoredCRC(h.Contents)
		h.CrcValid = SectionCRCValid(h.Contents)
		if !h.CrcValid {
			log.Debug("FRAM header crc mismatch: stored: 0x%04x computed: 0x%04x", h.Crc, SectionCRC(h.Contents))
		}
	}
	return nil
}

// NextLayerType selects the body only when all of it was captured,
// anything shorter is left as plain payload
func (h *FRAMHeaderLayer) NextLayerType() gopacket.LayerType {
	if len(h.Payload) >= FRAMBodyLen {
		return FRAMBodyLayerType
	}
	return gopacket.LayerTypePayload
}

func decodeFRAMHeaderLayer(data []byte, p gopacket.PacketBuilder) error {
	h := &FRAMHeaderLayer{}
	err := h.DecodeFromBytes(data, p)
	if err != nil {
		log.Debug("Error while decoding FRAM header layer: %s", err)
		return err
	}
	p.AddLayer(h)
	return p.NextDecoder(h.NextLayerType())
}
