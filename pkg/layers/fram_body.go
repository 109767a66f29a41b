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
)

// FRAMBodyLayer holds both ring buffers in physical slot order.
// TrendIndex and HistoryIndex point at the slot the firmware writes next.
type FRAMBodyLayer struct {
	layers.BaseLayer
	Crc             uint16
	CrcValid        bool
	TrendIndex      uint8
	HistoryIndex    uint8
	Trend           [TrendSize]GlucoseRecord
	History         [HistorySize]GlucoseRecord
	Age             uint16 // minutes since activation
	Initializations uint8
}

var FRAMBodyLayerType = gopacket.RegisterLayerType(FRAMBodyLayerNum,
	gopacket.LayerTypeMetadata{Name: "FRAMBodyLayerType", Decoder: gopacket.DecodeFunc(decodeFRAMBodyLayer)})

// LayerType returns the type of the FRAM body layer in the layer catalog
func (b *FRAMBodyLayer) LayerType() gopacket.LayerType {
	return FRAMBodyLayerType
}

// body relative offset of an absolute FRAM offset
func bodyOffset(offset int) int {
	return offset - FRAMBodyOffset
}

// DecodeFromBytes decodes the body section, data starts at FRAM offset 24
func (b *FRAMBodyLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < FRAMBodyLen {
		df.SetTruncated()
		return ErrSectionTooShort{Section: "body", Length: len(data), Need: FRAMBodyLen}
	}
	b.BaseLayer = layers.BaseLayer{
		Contents: data[:FRAMBodyLen],
		Payload:  data[FRAMBodyLen:],
	}

	b.Crc = StoredCRC(b.Contents)
	b.CrcValid = SectionCRCValid(b.Contents)
	if !b.CrcValid {
		log.Debug("FRAM body crc mismatch: stored: 0x%04x computed: 0x%04x", b.Crc, SectionCRC(b.Contents))
	}

	b.TrendIndex = data[bodyOffset(FRAMTrendIndexOffset)]
	b.HistoryIndex = data[bodyOffset(FRAMHistoryIndexOffset)]
	for slot := 0; slot < TrendSize; slot++ {
		b.Trend[slot] = DecodeGlucoseRecord(data, bodyOffset(FRAMTrendOffset)+slot*RecordLen)
	}
	for slot := 0; slot < HistorySize; slot++ {
		b.History[slot] = DecodeGlucoseRecord(data, bodyOffset(FRAMHistoryOffset)+slot*RecordLen)
	}
	b.Age = bitfield.Uint16(data, bodyOffset(FRAMAgeOffset))
	b.Initializations = data[bodyOffset(FRAMInitializationsOffset)]
	return nil
}

// NextLayerType selects the footer only when all of it was captured
func (b *FRAMBodyLayer) NextLayerType() gopacket.LayerType {
	if len(b.Payload) >= FRAMFooterLen {
		return FRAMFooterLayerType
	}
	return gopacket.LayerTypePayload
}

func decodeFRAMBodyLayer(data []byte, p gopacket.PacketBuilder) error {
	b := &FRAMBodyLayer{}
	err := b.DecodeFromBytes(data, p)
	if err != nil {
		log.Debug("Error while decoding FRAM body layer: %s", err)
		return err
	}
	p.AddLayer(b)
	return p.NextDecoder(b.NextLayerType())
}
