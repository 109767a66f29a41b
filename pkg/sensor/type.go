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

// Type is the hardware variant of a sensor as reported by its patch info
type Type uint8

const (
	TypeUnknown Type = iota
	TypeLibre1
	TypeLibreUS14day
	TypeLibreProH
	TypeLibre2
	TypeLibre2US
	TypeLibre2CA
	TypeLibreSense
	TypeLibre3
)

const (
	// PatchInfoMinLen is the number of patch info bytes the classifier looks at.
	// Anything longer than that with an unknown family byte is a Libre 3.
	PatchInfoMinLen = 6
)

var typeNames = map[Type]string{
	TypeUnknown:      "unknown",
	TypeLibre1:       "libre1",
	TypeLibreUS14day: "libreUS14day",
	TypeLibreProH:    "libreProH",
	TypeLibre2:       "libre2",
	TypeLibre2US:     "libre2US",
	TypeLibre2CA:     "libre2CA",
	TypeLibreSense:   "libreSense",
	TypeLibre3:       "libre3",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return typeNames[TypeUnknown]
}

// MarshalText renders the type by name in JSON and YAML output
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	*t = TypeUnknown
	for typ, name := range typeNames {
		if name == string(text) {
			*t = typ
		}
	}
	return nil
}

// ClassifyPatchInfo maps patch info header bytes to a sensor type.
// It is total: short or unexpected input yields TypeUnknown.
func ClassifyPatchInfo(patchInfo []byte) Type {
	if len(patchInfo) == 0 {
		return TypeUnknown
	}
	switch patchInfo[0] {
	case 0xdf, 0xa2:
		return TypeLibre1
	case 0xe5:
		return TypeLibreUS14day
	case 0x70:
		return TypeLibreProH
	case 0x9d:
		return TypeLibre2
	case 0x76:
		if len(patchInfo) > 3 {
			switch patchInfo[3] {
			case 0x02:
				return TypeLibre2US
			case 0x04:
				return TypeLibre2CA
			}
		}
		if len(patchInfo) > 2 && patchInfo[2]>>4 == 7 {
			return TypeLibreSense
		}
		return TypeUnknown
	}
	if len(patchInfo) > PatchInfoMinLen {
		return TypeLibre3
	}
	return TypeUnknown
}
