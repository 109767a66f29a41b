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

// Region is the market a sensor was manufactured for (FRAM offset 323)
type Region uint8

const (
	RegionUnknown            Region = 0
	RegionEuropean           Region = 1
	RegionUSA                Region = 2
	RegionAustralianCanadian Region = 4
	RegionEasternROW         Region = 8
)

var regionNames = map[Region]string{
	RegionUnknown:            "Unknown",
	RegionEuropean:           "European",
	RegionUSA:                "USA",
	RegionAustralianCanadian: "AustralianCanadian",
	RegionEasternROW:         "EasternROW",
}

// RegionFromByte maps anything it does not know to RegionUnknown
func RegionFromByte(raw byte) Region {
	if _, ok := regionNames[Region(raw)]; ok {
		return Region(raw)
	}
	return RegionUnknown
}

func (r Region) String() string {
	if name, ok := regionNames[r]; ok {
		return name
	}
	return regionNames[RegionUnknown]
}

func (r Region) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText, anything else is RegionUnknown
func (r *Region) UnmarshalText(text []byte) error {
	*r = RegionUnknown
	for region, name := range regionNames {
		if name == string(text) {
			*r = region
		}
	}
	return nil
}
