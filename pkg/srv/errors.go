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

package srv

import (
	"fmt"
)

type ErrSensorNotFound struct {
	UID string
}

func (e ErrSensorNotFound) Error() string {
	return fmt.Sprintf("Sensor not found: %s", e.UID)
}

type ErrSensorExists struct {
	UID string
}

func (e ErrSensorExists) Error() string {
	return fmt.Sprintf("Sensor already registered: %s", e.UID)
}

type ErrScanNotFound struct {
	UID string
	ID  string
}

func (e ErrScanNotFound) Error() string {
	return fmt.Sprintf("Scan %s not found for sensor %s", e.ID, e.UID)
}

// ErrBadHex returned when a request field is not a hex string
type ErrBadHex struct {
	Field string
	Err   error
}

func (e ErrBadHex) Error() string {
	return fmt.Sprintf("Error while decoding %s: %s", e.Field, e.Err)
}

func (e ErrBadHex) Unwrap() error {
	return e.Err
}
