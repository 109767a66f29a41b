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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfcglucose/go-libre/pkg/cmd"
	"github.com/nfcglucose/go-libre/pkg/command"
	"github.com/nfcglucose/go-libre/pkg/config"
)

func NewExportCommand(cfg *config.Config) *cobra.Command {
	var dir, prefix string
	c := &cobra.Command{
		Use:   "export <uid> [scan id...]",
		Short: "Download raw FRAM captures into binary files",
		Long:  "Download raw FRAM captures into binary files. Without scan ids the whole journal of the sensor is exported.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			client := command.NewApiClient(cfg)
			uid := args[0]
			ids := args[1:]
			if len(ids) == 0 {
				scans, err := client.ListScans(uid)
				if err != nil {
					return err
				}
				for _, scan := range scans {
					ids = append(ids, scan.ID)
				}
			}
			writer, err := cmd.NewWriter(dir, prefix)
			if err != nil {
				return err
			}
			for _, id := range ids {
				data, capturedAt, err := client.DownloadScan(uid, id)
				if err != nil {
					return err
				}
				path, err := writer.Write(id, capturedAt, data)
				if err != nil {
					return err
				}
				fmt.Fprintln(c.OutOrStdout(), path)
			}
			return nil
		},
	}
	c.Flags().StringVar(&dir, DirOptionName, ".", "Directory to write captures to")
	c.Flags().StringVar(&prefix, PrefixOptionName, cmd.DefaultExportPrefix, "File name prefix")
	return c
}
