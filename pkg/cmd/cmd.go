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

// Package cmd holds helpers shared by the CLI subcommands.
package cmd

import (
	"encoding/hex"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"
)

const (
	// StdinPath reads the capture from standard input
	StdinPath = "-"
)

// ReadFRAM returns the capture given either as hex or as a binary file.
// Whitespace and colons inside hex are ignored so hexdumps can be pasted.
func ReadFRAM(path, hexData string, stdin io.Reader) ([]byte, error) {
	switch {
	case hexData != "" && path != "":
		return nil, errors.New("FRAM must be given either as hex or as a file, not both")
	case hexData != "":
		return DecodeHex(hexData)
	case path == StdinPath:
		data, err := io.ReadAll(stdin)
		return data, errors.Wrap(err, "reading FRAM from stdin")
	case path != "":
		data, err := os.ReadFile(path)
		return data, errors.Wrapf(err, "reading FRAM from %s", path)
	}
	return nil, errors.New("FRAM is required")
}

func DecodeHex(s string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':':
			return -1
		}
		return r
	}, s)
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, errors.Wrap(err, "decoding hex")
	}
	return data, nil
}

// ParseTime accepts RFC 3339 and falls back to now for an empty value
func ParseTime(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return now, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parsing time %q", value)
	}
	return t, nil
}

// PrintYAML renders v through its JSON form so field names match the API
func PrintYAML(out io.Writer, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
