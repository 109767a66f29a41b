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

package fram

import (
	"fmt"
)

// ErrFRAMTooShort returned when the capture does not even contain the state byte
type ErrFRAMTooShort struct {
	Length int
}

func (e ErrFRAMTooShort) Error() string {
	return fmt.Sprintf("FRAM capture too short: %d bytes", e.Length)
}

// ErrFRAMDecode wraps a failure reported by the FRAM layers
type ErrFRAMDecode struct {
	Err error
}

func (e ErrFRAMDecode) Error() string {
	return fmt.Sprintf("Error while decoding FRAM: %s", e.Err)
}

func (e ErrFRAMDecode) Unwrap() error {
	return e.Err
}

type ErrMissingSection struct {
	Section string
}

func (e ErrMissingSection) Error() string {
	return fmt.Sprintf("FRAM %s section missing", e.Section)
}
