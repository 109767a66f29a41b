package srv

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.etcd.io/bbolt"

	"github.com/nfcglucose/go-libre/internal/framtest"
	"github.com/nfcglucose/go-libre/pkg/config"
	"github.com/nfcglucose/go-libre/pkg/fram"
	"github.com/nfcglucose/go-libre/pkg/sensor"
)

const (
	testUID       = "0102030405060708"
	testPatchInfo = "9d0830017625"
)

var testCapturedAt = time.Date(2024, time.July, 4, 9, 15, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "scans.db")
	return cfg
}

func testServer(t *testing.T, cfg *config.Config) (*ScanServer, *httptest.Server) {
	t.Helper()
	s, err := NewScanServer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewScanServer() error = %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	return s, ts
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	request, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatal(err)
	}
	request.Header.Set("Content-Type", "application/json")
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, url, err)
	}
	t.Cleanup(func() { response.Body.Close() })
	return response
}

func decode(t *testing.T, response *http.Response, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(response.Body).Decode(v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

func activeFRAM() []byte {
	buf := framtest.New(framtest.FullLen)
	framtest.SetState(buf, 0x03)
	framtest.SetAge(buf, 1440)
	framtest.SetIndices(buf, 3, 7)
	framtest.SetRegion(buf, 0x01)
	framtest.PutTrend(buf, 2, framtest.Record{RawValue: 1500})
	framtest.StampCRCs(buf)
	return buf
}

func TestSensorRegistration(t *testing.T) {
	s, ts := testServer(t, testConfig(t))
	defer s.Close()
	defer ts.Close()

	response := doJSON(t, "POST", ts.URL+"/api/sensors", &SensorRequest{UID: testUID, PatchInfo: testPatchInfo})
	if response.StatusCode != http.StatusCreated {
		t.Fatalf("POST /api/sensors status = %d", response.StatusCode)
	}
	info := &SensorInfo{}
	decode(t, response, info)
	if info.UID != testUID || info.Type != sensor.TypeLibre2 || len(info.SerialNumber) != 11 {
		t.Errorf("SensorInfo = %+v", info)
	}
	if info.State != nil || info.Snapshot != nil {
		t.Errorf("a sensor without scans must not report state: %+v", info)
	}

	tests := []struct {
		name     string
		request  *SensorRequest
		expected int
	}{
		{"duplicate", &SensorRequest{UID: testUID, PatchInfo: testPatchInfo}, http.StatusConflict},
		{"duplicate upper case", &SensorRequest{UID: strings.ToUpper(testUID), PatchInfo: testPatchInfo}, http.StatusConflict},
		{"bad uid", &SensorRequest{UID: "xyz", PatchInfo: testPatchInfo}, http.StatusBadRequest},
		{"empty patch info", &SensorRequest{UID: "0a0b", PatchInfo: ""}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := doJSON(t, "POST", ts.URL+"/api/sensors", tt.request)
			if response.StatusCode != tt.expected {
				t.Errorf("status = %d, want %d", response.StatusCode, tt.expected)
			}
		})
	}

	var infos []*SensorInfo
	decode(t, doJSON(t, "GET", ts.URL+"/api/sensors", nil), &infos)
	if len(infos) != 1 || infos[0].UID != testUID {
		t.Errorf("GET /api/sensors = %+v", infos)
	}

	if response := doJSON(t, "GET", ts.URL+"/api/sensors/ffff", nil); response.StatusCode != http.StatusNotFound {
		t.Errorf("GET unknown sensor status = %d", response.StatusCode)
	}
}

func TestScanUpload(t *testing.T) {
	s, ts := testServer(t, testConfig(t))
	defer s.Close()
	defer ts.Close()

	doJSON(t, "POST", ts.URL+"/api/sensors", &SensorRequest{UID: testUID, PatchInfo: testPatchInfo})

	response := doJSON(t, "POST", ts.URL+"/api/sensors/"+testUID+"/scans", &ScanRequest{
		FRAM:       hex.EncodeToString(activeFRAM()),
		CapturedAt: &testCapturedAt,
	})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("POST scans status = %d", response.StatusCode)
	}
	snapshot := &fram.Snapshot{}
	decode(t, response, snapshot)
	if snapshot.State != sensor.StateActive || snapshot.Region != sensor.RegionEuropean {
		t.Errorf("Snapshot = %+v", snapshot)
	}
	if len(snapshot.Trend) != 16 || snapshot.Trend[0].RawValue != 1500 {
		t.Errorf("Trend = %+v", snapshot.Trend)
	}
	if !snapshot.StartDate.Equal(testCapturedAt.Add(-1440 * time.Minute)) {
		t.Errorf("StartDate = %s", snapshot.StartDate)
	}
	if snapshot.Checksums != (fram.Checksums{Header: true, Body: true, Footer: true}) {
		t.Errorf("Checksums = %+v", snapshot.Checksums)
	}

	info := &SensorInfo{}
	decode(t, doJSON(t, "GET", ts.URL+"/api/sensors/"+testUID, nil), info)
	if info.State == nil || *info.State != sensor.StateActive || info.Snapshot == nil {
		t.Errorf("SensorInfo = %+v", info)
	}
	if info.LastScan == nil || !info.LastScan.Equal(testCapturedAt) {
		t.Errorf("LastScan = %v", info.LastScan)
	}

	tests := []struct {
		name     string
		uid      string
		request  *ScanRequest
		expected int
	}{
		{"unknown sensor", "ffff", &ScanRequest{FRAM: hex.EncodeToString(activeFRAM())}, http.StatusNotFound},
		{"not hex", testUID, &ScanRequest{FRAM: "zz"}, http.StatusBadRequest},
		{"too short", testUID, &ScanRequest{FRAM: "01020304"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response := doJSON(t, "POST", ts.URL+"/api/sensors/"+tt.uid+"/scans", tt.request)
			if response.StatusCode != tt.expected {
				t.Errorf("status = %d, want %d", response.StatusCode, tt.expected)
			}
		})
	}

	// state only capture without capturedAt is stamped with the server clock
	s.mu.Lock()
	s.now = func() time.Time { return testCapturedAt.Add(time.Hour) }
	s.mu.Unlock()
	response = doJSON(t, "POST", ts.URL+"/api/sensors/"+testUID+"/scans", &ScanRequest{
		FRAM: hex.EncodeToString(activeFRAM()[:framtest.StateOnlyLen]),
	})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("POST scans status = %d", response.StatusCode)
	}

	var scans []*ScanInfo
	decode(t, doJSON(t, "GET", ts.URL+"/api/sensors/"+testUID+"/scans", nil), &scans)
	if len(scans) != 2 {
		t.Fatalf("len(scans) = %d, want 2", len(scans))
	}
	if scans[0].Length != framtest.FullLen || scans[1].Length != framtest.StateOnlyLen {
		t.Errorf("scans = %+v", scans)
	}
	if !scans[1].CapturedAt.Equal(testCapturedAt.Add(time.Hour)) {
		t.Errorf("CapturedAt = %s", scans[1].CapturedAt)
	}
	if response := doJSON(t, "GET", ts.URL+"/api/sensors/ffff/scans", nil); response.StatusCode != http.StatusNotFound {
		t.Errorf("GET scans of unknown sensor status = %d", response.StatusCode)
	}
}

func TestRestoreFromJournal(t *testing.T) {
	cfg := testConfig(t)
	s, ts := testServer(t, cfg)
	doJSON(t, "POST", ts.URL+"/api/sensors", &SensorRequest{UID: testUID, PatchInfo: testPatchInfo})
	doJSON(t, "POST", ts.URL+"/api/sensors/"+testUID+"/scans", &ScanRequest{
		FRAM:       hex.EncodeToString(activeFRAM()),
		CapturedAt: &testCapturedAt,
	})
	ts.Close()
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, ts = testServer(t, cfg)
	defer s.Close()
	defer ts.Close()

	info := &SensorInfo{}
	decode(t, doJSON(t, "GET", ts.URL+"/api/sensors/"+testUID, nil), info)
	if info.Snapshot == nil || info.Snapshot.State != sensor.StateActive {
		t.Fatalf("restored SensorInfo = %+v", info)
	}
	if info.Snapshot.Trend[0].RawValue != 1500 || !info.LastScan.Equal(testCapturedAt) {
		t.Errorf("restored snapshot = %+v", info.Snapshot)
	}
}

func TestApiDescription(t *testing.T) {
	s, ts := testServer(t, testConfig(t))
	defer s.Close()
	defer ts.Close()

	doc := map[string]interface{}{}
	response := doJSON(t, "GET", ts.URL+SwaggerPath, nil)
	decode(t, response, &doc)
	if doc["swagger"] != "2.0" {
		t.Errorf("swagger = %v", doc["swagger"])
	}

	response = doJSON(t, "GET", ts.URL+"/"+DocsPath, nil)
	body, _ := io.ReadAll(response.Body)
	if response.StatusCode != http.StatusOK || !strings.Contains(string(body), SwaggerPath) {
		t.Errorf("GET /docs status = %d body = %s", response.StatusCode, body)
	}
}

func TestSnapshotResponseIsCompressed(t *testing.T) {
	s, ts := testServer(t, testConfig(t))
	defer s.Close()
	defer ts.Close()

	doJSON(t, "POST", ts.URL+"/api/sensors", &SensorRequest{UID: testUID, PatchInfo: testPatchInfo})
	doJSON(t, "POST", ts.URL+"/api/sensors/"+testUID+"/scans", &ScanRequest{
		FRAM:       hex.EncodeToString(activeFRAM()),
		CapturedAt: &testCapturedAt,
	})

	request, err := http.NewRequest("GET", ts.URL+"/api/sensors/"+testUID, nil)
	if err != nil {
		t.Fatal(err)
	}
	request.Header.Set("Accept-Encoding", "gzip")
	response, err := http.DefaultClient.Do(request)
	if err != nil {
		t.Fatal(err)
	}
	defer response.Body.Close()
	if response.Header.Get("Content-Encoding") != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", response.Header.Get("Content-Encoding"))
	}
}

func TestScanDownload(t *testing.T) {
	s, ts := testServer(t, testConfig(t))
	defer s.Close()
	defer ts.Close()

	doJSON(t, "POST", ts.URL+"/api/sensors", &SensorRequest{UID: testUID, PatchInfo: testPatchInfo})
	capture := activeFRAM()
	doJSON(t, "POST", ts.URL+"/api/sensors/"+testUID+"/scans", &ScanRequest{
		FRAM:       hex.EncodeToString(capture),
		CapturedAt: &testCapturedAt,
	})
	var scans []*ScanInfo
	decode(t, doJSON(t, "GET", ts.URL+"/api/sensors/"+testUID+"/scans", nil), &scans)
	if len(scans) != 1 {
		t.Fatalf("GET scans = %+v", scans)
	}

	response := doJSON(t, "GET", ts.URL+"/api/sensors/"+testUID+"/scans/"+scans[0].ID, nil)
	if response.StatusCode != http.StatusOK {
		t.Fatalf("GET scan status = %d", response.StatusCode)
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(body, capture) {
		t.Errorf("GET scan body differs from the upload")
	}
	capturedAt, err := time.Parse(time.RFC3339Nano, response.Header.Get(CapturedAtHeader))
	if err != nil || !capturedAt.Equal(testCapturedAt) {
		t.Errorf("%s = %q", CapturedAtHeader, response.Header.Get(CapturedAtHeader))
	}

	tests := []struct {
		name string
		url  string
	}{
		{"unknown scan", "/api/sensors/" + testUID + "/scans/00000000-0000-0000-0000-000000000000"},
		{"unknown sensor", "/api/sensors/ffff/scans/" + scans[0].ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if response := doJSON(t, "GET", ts.URL+tt.url, nil); response.StatusCode != http.StatusNotFound {
				t.Errorf("status = %d, want 404", response.StatusCode)
			}
		})
	}
}

func TestScanUploadKeepsSnapshotWhenJournalFails(t *testing.T) {
	s, ts := testServer(t, testConfig(t))
	defer s.Close()
	defer ts.Close()

	doJSON(t, "POST", ts.URL+"/api/sensors", &SensorRequest{UID: testUID, PatchInfo: testPatchInfo})
	first := activeFRAM()
	response := doJSON(t, "POST", ts.URL+"/api/sensors/"+testUID+"/scans", &ScanRequest{
		FRAM:       hex.EncodeToString(first),
		CapturedAt: &testCapturedAt,
	})
	if response.StatusCode != http.StatusOK {
		t.Fatalf("first upload status = %d", response.StatusCode)
	}

	if err := s.state.DB.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket([]byte(scanBucketName(testUID)))
	}); err != nil {
		t.Fatal(err)
	}

	second := framtest.New(framtest.FullLen)
	framtest.SetState(second, 0x05)
	framtest.SetAge(second, 20000)
	later := testCapturedAt.Add(time.Hour)
	response = doJSON(t, "POST", ts.URL+"/api/sensors/"+testUID+"/scans", &ScanRequest{
		FRAM:       hex.EncodeToString(second),
		CapturedAt: &later,
	})
	if response.StatusCode == http.StatusOK {
		t.Fatalf("upload must fail when the journal write fails")
	}

	info := &SensorInfo{}
	decode(t, doJSON(t, "GET", ts.URL+"/api/sensors/"+testUID, nil), info)
	if info.Snapshot == nil || info.Snapshot.State != sensor.StateActive || info.Snapshot.Age != 1440 {
		t.Errorf("snapshot after failed upload = %+v, want the journaled one", info.Snapshot)
	}
	if info.LastScan == nil || !info.LastScan.Equal(testCapturedAt) {
		t.Errorf("LastScan = %v, want %s", info.LastScan, testCapturedAt)
	}
}
