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

package sensors

import (
	"github.com/spf13/cobra"

	"github.com/nfcglucose/go-libre/pkg/cmd"
	"github.com/nfcglucose/go-libre/pkg/command"
	"github.com/nfcglucose/go-libre/pkg/config"
)

func NewAddCommand(cfg *config.Config) *cobra.Command {
	var uid, patchInfo string
	c := &cobra.Command{
		Use:   "add",
		Short: "Register a sensor",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			info, err := command.NewApiClient(cfg).AddSensor(uid, patchInfo)
			if err != nil {
				return err
			}
			return cmd.PrintYAML(c.OutOrStdout(), info)
		},
	}
	c.Flags().StringVar(&uid, UIDOptionName, "", "Sensor UID as hex")
	c.Flags().StringVar(&patchInfo, PatchInfoOptionName, "", "Sensor patch info as hex")
	c.MarkFlagRequired(UIDOptionName)
	c.MarkFlagRequired(PatchInfoOptionName)
	return c
}
