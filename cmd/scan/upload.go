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

package scan

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/nfcglucose/go-libre/pkg/cmd"
	"github.com/nfcglucose/go-libre/pkg/command"
	"github.com/nfcglucose/go-libre/pkg/config"
)

func NewUploadCommand(cfg *config.Config) *cobra.Command {
	var hexData, at string
	c := &cobra.Command{
		Use:   "upload <uid> [file|-]",
		Short: "Upload a FRAM capture and print the decoded snapshot",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(c *cobra.Command, args []string) error {
			path := ""
			if len(args) == 2 {
				path = args[1]
			}
			data, err := cmd.ReadFRAM(path, hexData, c.InOrStdin())
			if err != nil {
				return err
			}
			var capturedAt *time.Time
			if at != "" {
				t, err := cmd.ParseTime(at, time.Time{})
				if err != nil {
					return err
				}
				capturedAt = &t
			}
			snapshot, err := command.NewApiClient(cfg).UploadScan(args[0], data, capturedAt)
			if err != nil {
				return err
			}
			return cmd.PrintYAML(c.OutOrStdout(), snapshot)
		},
	}
	c.Flags().StringVar(&hexData, HexOptionName, "", "FRAM capture as hex instead of a file")
	c.Flags().StringVar(&at, AtOptionName, "", "Time of the scan in RFC 3339. Defaults to the time of upload")
	return c
}
