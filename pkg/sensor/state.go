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

package sensor

import "fmt"

// State is the life cycle state byte stored at FRAM offset 4.
// Values outside of the named set are kept as is, see Recognized.
type State uint8

const (
	StateUnknown      State = 0x00
	StateNotActivated State = 0x01
	StateWarmingUp    State = 0x02
	StateActive       State = 0x03
	StateExpired      State = 0x04
	StateShutdown     State = 0x05
	StateFailure      State = 0x06
)

var stateNames = map[State]string{
	StateUnknown:      "unknown",
	StateNotActivated: "notActivated",
	StateWarmingUp:    "warmingUp",
	StateActive:       "active",
	StateExpired:      "expired",
	StateShutdown:     "shutdown",
	StateFailure:      "failure",
}

// StateFromByte never fails, an unexpected raw byte becomes an unrecognized State
func StateFromByte(raw byte) State {
	return State(raw)
}

// Recognized reports whether the raw byte is one of the documented states
func (s State) Recognized() bool {
	_, ok := stateNames[s]
	return ok
}

// Raw returns the byte the state was decoded from
func (s State) Raw() byte {
	return byte(s)
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unrecognized(0x%02x)", byte(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	var raw byte
	if _, err := fmt.Sscanf(string(text), "unrecognized(0x%02x)", &raw); err != nil {
		return fmt.Errorf("unknown sensor state %q", text)
	}
	*s = State(raw)
	return nil
}
