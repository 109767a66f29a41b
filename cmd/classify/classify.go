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

package classify

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfcglucose/go-libre/pkg/cmd"
	"github.com/nfcglucose/go-libre/pkg/sensor"
)

func NewCommand() *cobra.Command {
	command := &cobra.Command{
		Use:     "classify <patch-info-hex>",
		Short:   "Print the sensor type for a patch info",
		Example: "  go-libre classify 9d0830017625",
		Args:    cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			patchInfo, err := cmd.DecodeHex(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.OutOrStdout(), sensor.ClassifyPatchInfo(patchInfo))
			return err
		},
	}
	return command
}
