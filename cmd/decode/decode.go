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

package decode

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nfcglucose/go-libre/pkg/cmd"
	"github.com/nfcglucose/go-libre/pkg/device"
	"github.com/nfcglucose/go-libre/pkg/fram"
	"github.com/nfcglucose/go-libre/pkg/log"
	"github.com/nfcglucose/go-libre/pkg/sensor"
)

const (
	HexOptionName       = "hex"
	AtOptionName        = "at"
	UIDOptionName       = "uid"
	PatchInfoOptionName = "patch-info"
	OutputOptionName    = "output"
	OutputYAML          = "yaml"
	OutputJSON          = "json"
)

type SensorSummary struct {
	UID          string      `json:"uid"`
	SerialNumber string      `json:"serialNumber,omitempty"`
	Type         sensor.Type `json:"type"`
}

// Output is a decoded capture, with the sensor it belongs to when uid or patch info was given
type Output struct {
	Sensor *SensorSummary `json:"sensor,omitempty"`
	*fram.Snapshot
}

func NewCommand() *cobra.Command {
	var hexData, at, uid, patchInfo, output string
	command := &cobra.Command{
		Use:   "decode [file|-]",
		Short: "Decode a FRAM capture",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			data, err := cmd.ReadFRAM(path, hexData, c.InOrStdin())
			if err != nil {
				return err
			}
			scanTime, err := cmd.ParseTime(at, time.Now())
			if err != nil {
				return err
			}
			result, err := Decode(data, scanTime, uid, patchInfo)
			if err != nil {
				return err
			}
			return render(c.OutOrStdout(), output, result)
		},
	}
	command.Flags().StringVar(&hexData, HexOptionName, "", "FRAM capture as hex instead of a file")
	command.Flags().StringVar(&at, AtOptionName, "", "Time of the scan in RFC 3339. Defaults to now")
	command.Flags().StringVar(&uid, UIDOptionName, "", "Sensor UID as hex")
	command.Flags().StringVar(&patchInfo, PatchInfoOptionName, "", "Sensor patch info as hex")
	command.Flags().StringVarP(&output, OutputOptionName, "o", OutputYAML, "Output format. Must be one of: yaml, json.")
	return command
}

// Decode parses data scanned at the given time. With a uid or patch info the
// capture is applied to a sensor so type and serial number are reported too.
func Decode(data []byte, at time.Time, uidHex, patchInfoHex string) (*Output, error) {
	if uidHex == "" && patchInfoHex == "" {
		snapshot, err := fram.Parse(data, at)
		if err != nil {
			return nil, err
		}
		warnChecksums(snapshot)
		return &Output{Snapshot: snapshot}, nil
	}

	uid, err := cmd.DecodeHex(uidHex)
	if err != nil {
		return nil, err
	}
	patchInfo, err := cmd.DecodeHex(patchInfoHex)
	if err != nil {
		return nil, err
	}
	s := device.NewSensor(uid, patchInfo)
	if err := s.SetFRAM(data, at); err != nil {
		return nil, err
	}
	warnChecksums(s.Snapshot())
	return &Output{
		Sensor: &SensorSummary{
			UID:          s.UIDString(),
			SerialNumber: s.SerialNumber(),
			Type:         s.Type(),
		},
		Snapshot: s.Snapshot(),
	}, nil
}

func warnChecksums(snapshot *fram.Snapshot) {
	if !snapshot.Checksums.Header {
		log.Warning("FRAM header checksum mismatch")
	}
	if len(snapshot.Trend) > 0 && !snapshot.Checksums.Body {
		log.Warning("FRAM body checksum mismatch")
	}
}

func render(out io.Writer, format string, result *Output) error {
	switch format {
	case OutputYAML:
		return cmd.PrintYAML(out, result)
	case OutputJSON:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}
