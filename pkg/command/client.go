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
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/imroc/req"

	"github.com/nfcglucose/go-libre/pkg/config"
	"github.com/nfcglucose/go-libre/pkg/fram"
	"github.com/nfcglucose/go-libre/pkg/srv"
)

// ErrApi returned when the scan service answers with an unexpected status
type ErrApi struct {
	Status  string
	Message string
}

func (e ErrApi) Error() string {
	return fmt.Sprintf("Error from scan service: %s: %s", e.Status, e.Message)
}

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s%s", cfg.ApiAddr(), srv.ApiPrefix),
	}
}

func (c *ApiClient) sensorsUrl() string {
	return fmt.Sprintf("%s/sensors", c.ApiPrefix)
}

func (c *ApiClient) sensorUrl(uid string) string {
	return fmt.Sprintf("%s/sensors/%s", c.ApiPrefix, uid)
}

func (c *ApiClient) scansUrl(uid string) string {
	return fmt.Sprintf("%s/sensors/%s/scans", c.ApiPrefix, uid)
}

func (c *ApiClient) scanUrl(uid, id string) string {
	return fmt.Sprintf("%s/sensors/%s/scans/%s", c.ApiPrefix, uid, id)
}

func checkStatus(r *req.Resp, expected int) error {
	if r.Response().StatusCode != expected {
		return ErrApi{
			Status:  r.Response().Status,
			Message: strings.TrimSpace(r.String()),
		}
	}
	return nil
}

// ListSensors requests all registered sensors
func (c *ApiClient) ListSensors() ([]*srv.SensorInfo, error) {
	r, err := req.Get(c.sensorsUrl())
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r, http.StatusOK); err != nil {
		return nil, err
	}
	var sensors []*srv.SensorInfo
	if err := r.ToJSON(&sensors); err != nil {
		return nil, err
	}
	return sensors, nil
}

// AddSensor registers a sensor, uid and patchInfo are hex strings
func (c *ApiClient) AddSensor(uid, patchInfo string) (*srv.SensorInfo, error) {
	request := &srv.SensorRequest{
		UID:       uid,
		PatchInfo: patchInfo,
	}
	r, err := req.Post(c.sensorsUrl(), req.BodyJSON(request))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r, http.StatusCreated); err != nil {
		return nil, err
	}
	info := &srv.SensorInfo{}
	if err := r.ToJSON(info); err != nil {
		return nil, err
	}
	return info, nil
}

// GetSensor requests a sensor with its latest snapshot
func (c *ApiClient) GetSensor(uid string) (*srv.SensorInfo, error) {
	r, err := req.Get(c.sensorUrl(uid))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r, http.StatusOK); err != nil {
		return nil, err
	}
	info := &srv.SensorInfo{}
	if err := r.ToJSON(info); err != nil {
		return nil, err
	}
	return info, nil
}

// UploadScan sends a FRAM capture. A nil capturedAt lets the service use its own clock.
func (c *ApiClient) UploadScan(uid string, data []byte, capturedAt *time.Time) (*fram.Snapshot, error) {
	request := &srv.ScanRequest{
		FRAM:       hex.EncodeToString(data),
		CapturedAt: capturedAt,
	}
	r, err := req.Post(c.scansUrl(uid), req.BodyJSON(request))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r, http.StatusOK); err != nil {
		return nil, err
	}
	snapshot := &fram.Snapshot{}
	if err := r.ToJSON(snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ListScans requests the scan journal of a sensor
func (c *ApiClient) ListScans(uid string) ([]*srv.ScanInfo, error) {
	r, err := req.Get(c.scansUrl(uid))
	if err != nil {
		return nil, err
	}
	if err := checkStatus(r, http.StatusOK); err != nil {
		return nil, err
	}
	var scans []*srv.ScanInfo
	if err := r.ToJSON(&scans); err != nil {
		return nil, err
	}
	return scans, nil
}

// DownloadScan requests the raw FRAM capture of a journaled scan
func (c *ApiClient) DownloadScan(uid, id string) ([]byte, time.Time, error) {
	r, err := req.Get(c.scanUrl(uid, id))
	if err != nil {
		return nil, time.Time{}, err
	}
	if err := checkStatus(r, http.StatusOK); err != nil {
		return nil, time.Time{}, err
	}
	capturedAt, err := time.Parse(time.RFC3339Nano, r.Response().Header.Get(srv.CapturedAtHeader))
	if err != nil {
		return nil, time.Time{}, err
	}
	return r.Bytes(), capturedAt, nil
}
