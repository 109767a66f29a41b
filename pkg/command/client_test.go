package command

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nfcglucose/go-libre/internal/framtest"
	"github.com/nfcglucose/go-libre/pkg/config"
	"github.com/nfcglucose/go-libre/pkg/sensor"
	"github.com/nfcglucose/go-libre/pkg/srv"
)

func testClient(t *testing.T) *ApiClient {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "scans.db")
	s, err := srv.NewScanServer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewScanServer() error = %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	c := NewApiClient(cfg)
	c.ApiPrefix = ts.URL + srv.ApiPrefix
	return c
}

func TestNewApiClient(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Api.Port = 9000
	if c := NewApiClient(cfg); c.ApiPrefix != "http://127.0.0.1:9000/api" {
		t.Errorf("ApiPrefix = %s", c.ApiPrefix)
	}
}

func TestApiClient(t *testing.T) {
	c := testClient(t)
	uid := "a1b2c3d4e5f607e0"

	info, err := c.AddSensor(uid, "70000000aabb")
	if err != nil {
		t.Fatalf("AddSensor() error = %v", err)
	}
	if info.Type != sensor.TypeLibreProH {
		t.Errorf("Type = %s", info.Type)
	}

	_, err = c.AddSensor(uid, "70000000aabb")
	var apiErr ErrApi
	if !errors.As(err, &apiErr) || !strings.Contains(apiErr.Status, "409") {
		t.Errorf("AddSensor() error = %v, want conflict", err)
	}

	buf := framtest.New(framtest.FullLen)
	framtest.SetState(buf, 0x02)
	framtest.SetAge(buf, 30)
	capturedAt := time.Date(2024, time.August, 2, 7, 0, 0, 0, time.UTC)
	snapshot, err := c.UploadScan(uid, buf, &capturedAt)
	if err != nil {
		t.Fatalf("UploadScan() error = %v", err)
	}
	if snapshot.State != sensor.StateWarmingUp || len(snapshot.History) != 32 {
		t.Errorf("UploadScan() = %+v", snapshot)
	}

	sensors, err := c.ListSensors()
	if err != nil {
		t.Fatalf("ListSensors() error = %v", err)
	}
	if len(sensors) != 1 || sensors[0].State == nil || *sensors[0].State != sensor.StateWarmingUp {
		t.Errorf("ListSensors() = %+v", sensors)
	}

	info, err = c.GetSensor(uid)
	if err != nil {
		t.Fatalf("GetSensor() error = %v", err)
	}
	if info.Snapshot == nil || info.Snapshot.Age != 30 {
		t.Errorf("GetSensor() = %+v", info)
	}

	scans, err := c.ListScans(uid)
	if err != nil {
		t.Fatalf("ListScans() error = %v", err)
	}
	if len(scans) != 1 || scans[0].Length != framtest.FullLen || scans[0].ID == "" {
		t.Errorf("ListScans() = %+v", scans)
	}

	data, at, err := c.DownloadScan(uid, scans[0].ID)
	if err != nil {
		t.Fatalf("DownloadScan() error = %v", err)
	}
	if !bytes.Equal(data, buf) || !at.Equal(capturedAt) {
		t.Errorf("DownloadScan() = %d bytes at %s", len(data), at)
	}
	if _, _, err := c.DownloadScan(uid, "missing"); !errors.As(err, &apiErr) {
		t.Errorf("DownloadScan() error = %v, want ErrApi", err)
	}

	if _, err := c.GetSensor("ffff"); !errors.As(err, &apiErr) {
		t.Errorf("GetSensor() error = %v, want ErrApi", err)
	}
	if _, err := c.UploadScan(uid, []byte{1, 2}, nil); !errors.As(err, &apiErr) {
		t.Errorf("UploadScan() error = %v, want ErrApi", err)
	}
}
