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

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/nfcglucose/go-libre/pkg/log"
)

const (
	DefaultExportPrefix = "fram"
	exportTimeLayout    = "20060102T150405Z"
	exportIDLen         = 8
)

// Writer stores raw FRAM captures as binary files in a directory
type Writer struct {
	dir    string
	prefix string
}

func NewWriter(dir, prefix string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Error("Error while creating directory: %s", dir)
		return nil, errors.Wrapf(err, "creating %s", dir)
	}
	if prefix == "" {
		prefix = DefaultExportPrefix
	}
	return &Writer{
		dir:    dir,
		prefix: prefix,
	}, nil
}

// Filename is <prefix>_<UTC capture time>_<first 8 chars of id>.bin
func (w *Writer) Filename(id string, capturedAt time.Time) string {
	if len(id) > exportIDLen {
		id = id[:exportIDLen]
	}
	return filepath.Join(w.dir, fmt.Sprintf("%s_%s_%s.bin", w.prefix, capturedAt.UTC().Format(exportTimeLayout), id))
}

// Write stores data and returns the path of the created file
func (w *Writer) Write(id string, capturedAt time.Time, data []byte) (string, error) {
	path := w.Filename(id, capturedAt)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrapf(err, "writing %s", path)
	}
	log.Debug("Capture written: %s", path)
	return path, nil
}
