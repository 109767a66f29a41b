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

package command

import (
	"context"

	"github.com/nfcglucose/go-libre/pkg/config"
	"github.com/nfcglucose/go-libre/pkg/srv"
)

// StartScanServer runs the scan service until ctx is canceled
func StartScanServer(ctx context.Context, cfg *config.Config) error {
	s, err := srv.NewScanServer(ctx, cfg)
	if err != nil {
		return err
	}
	return s.Run()
}
