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
	"github.com/spf13/cobra"

	"github.com/nfcglucose/go-libre/pkg/cmd"
	"github.com/nfcglucose/go-libre/pkg/command"
	"github.com/nfcglucose/go-libre/pkg/config"
)

func NewListCommand(cfg *config.Config) *cobra.Command {
	c := &cobra.Command{
		Use:   "list <uid>",
		Short: "List journaled scans of a sensor",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			scans, err := command.NewApiClient(cfg).ListScans(args[0])
			if err != nil {
				return err
			}
			return cmd.PrintYAML(c.OutOrStdout(), scans)
		},
	}
	return c
}
