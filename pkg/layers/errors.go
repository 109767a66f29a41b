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
	"fmt"
)

// ErrSectionTooShort returned when a FRAM section layer gets less data than it needs
type ErrSectionTooShort struct {
	Section string
	Length  int
	Need    int
}

func (e ErrSectionTooShort) Error() string {
	return fmt.Sprintf("FRAM %s too short: %d bytes, need %d", e.Section, e.Length, e.Need)
}
