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

// go-libre API
//
// Registers glucose sensors, journals FRAM scans and serves decoded snapshots.
// The API description is embedded from swagger.json and rendered at /docs.
package srv

import (
	"context"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/go-openapi/loads"
	"github.com/go-openapi/runtime/middleware"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/nfcglucose/go-libre/pkg/config"
	"github.com/nfcglucose/go-libre/pkg/device"
	"github.com/nfcglucose/go-libre/pkg/fram"
	"github.com/nfcglucose/go-libre/pkg/log"
)

const (
	ApiPrefix   = "/api"
	SwaggerPath = "/swagger.json"
	DocsPath    = "docs"

	// CapturedAtHeader carries the scan time of a downloaded capture
	CapturedAtHeader = "X-Captured-At"
	shutdownTimeout  = 5 * time.Second
)

//go:embed swagger.json
var swaggerSpec []byte

type ScanServer struct {
	context.Context
	*config.Config
	*mux.Router
	state   *State
	mu      sync.Mutex
	sensors map[string]*device.Sensor
	now     func() time.Time
}

func NewScanServer(ctx context.Context, cfg *config.Config) (*ScanServer, error) {
	log.Info("Initializing scan server with address: %s port: %d db: %s", cfg.Api.Address, cfg.Api.Port, cfg.DBPath)

	if _, err := loads.Analyzed(swaggerSpec, ""); err != nil {
		return nil, errors.Wrap(err, "loading API description")
	}

	state, err := NewState(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	s := &ScanServer{
		Context: ctx,
		Config:  cfg,
		state:   state,
		sensors: make(map[string]*device.Sensor),
		now:     time.Now,
	}
	if err := s.restore(); err != nil {
		state.Close()
		return nil, err
	}
	s.configureRouter()
	return s, nil
}

// restore rebuilds sensors from the journal and decodes their latest scan again
func (s *ScanServer) restore() error {
	records, err := s.state.Sensors()
	if err != nil {
		return err
	}
	for _, record := range records {
		sensor := device.NewSensor(record.UID, record.PatchInfo)
		uid := sensor.UIDString()
		latest, err := s.state.LatestScan(uid)
		if err != nil {
			return err
		}
		if latest != nil {
			if err := sensor.SetFRAM(latest.FRAM, latest.CapturedAt); err != nil {
				log.Warning("Can not decode latest scan %s of sensor %s: %s", latest.ID, uid, err)
			}
		}
		s.sensors[uid] = sensor
	}
	log.Info("Restored %d sensors", len(records))
	return nil
}

func (s *ScanServer) Close() error {
	return s.state.Close()
}

// Handler is the router wrapped with compression, access logging and panic recovery
func (s *ScanServer) Handler() http.Handler {
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(true),
	)
	return recovery(handlers.LoggingHandler(log.Writer(), gziphandler.GzipHandler(s.Router)))
}

func (s *ScanServer) Run() error {
	log.Info("Starting scan server: address: %s", s.ApiAddr())
	httpServer := &http.Server{
		Handler: s.Handler(),
		Addr:    s.ApiAddr(),
	}

	go func() {
		<-s.Context.Done()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error("Error while shutting down scan server: %s", err)
		}
	}()

	err := httpServer.ListenAndServe()
	if closeErr := s.Close(); closeErr != nil {
		log.Error("Error while closing database: %s", closeErr)
	}
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *ScanServer) configureRouter() {
	s.Router = mux.NewRouter()
	subRouter := s.Router.PathPrefix(ApiPrefix).Subrouter()
	subRouter.HandleFunc("/sensors", s.handleSensors()).Methods("GET")
	subRouter.HandleFunc("/sensors", s.handleSensorAdd()).Methods("POST")
	subRouter.HandleFunc("/sensors/{uid:[0-9a-fA-F]+}", s.handleSensor()).Methods("GET")
	subRouter.HandleFunc("/sensors/{uid:[0-9a-fA-F]+}/scans", s.handleScans()).Methods("GET")
	subRouter.HandleFunc("/sensors/{uid:[0-9a-fA-F]+}/scans", s.handleScanUpload()).Methods("POST")
	subRouter.HandleFunc("/sensors/{uid:[0-9a-fA-F]+}/scans/{id}", s.handleScanDownload()).Methods("GET")
	s.Router.HandleFunc(SwaggerPath, s.handleSwagger()).Methods("GET")
	s.Router.Handle("/"+DocsPath, middleware.Redoc(middleware.RedocOpts{
		BasePath: "/",
		Path:     DocsPath,
		SpecURL:  SwaggerPath,
		Title:    "go-libre API",
	}, http.NotFoundHandler())).Methods("GET")
}

func (s *ScanServer) handleSensors() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Handling sensors request")
		s.mu.Lock()
		uids := make([]string, 0, len(s.sensors))
		for uid := range s.sensors {
			uids = append(uids, uid)
		}
		sort.Strings(uids)
		infos := make([]*SensorInfo, 0, len(uids))
		for _, uid := range uids {
			infos = append(infos, sensorInfo(s.sensors[uid], false))
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, infos)
	}
}

func (s *ScanServer) handleSensorAdd() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		request := &SensorRequest{}
		if err := json.NewDecoder(r.Body).Decode(request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		uid, err := decodeHex("uid", request.UID)
		if err != nil {
			writeError(w, err)
			return
		}
		patchInfo, err := decodeHex("patchInfo", request.PatchInfo)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Debug("Handling sensor add request: uid: %s", hex.EncodeToString(uid))

		s.mu.Lock()
		defer s.mu.Unlock()
		sensor := device.NewSensor(uid, patchInfo)
		if _, ok := s.sensors[sensor.UIDString()]; ok {
			writeError(w, ErrSensorExists{UID: sensor.UIDString()})
			return
		}
		record := &SensorRecord{
			UID:          uid,
			PatchInfo:    patchInfo,
			RegisteredAt: s.now(),
		}
		if err := s.state.AddSensor(record); err != nil {
			writeError(w, err)
			return
		}
		s.sensors[sensor.UIDString()] = sensor
		log.Info("Registered sensor %s type %s serial %s", sensor.UIDString(), sensor.Type(), sensor.SerialNumber())
		writeJSON(w, http.StatusCreated, sensorInfo(sensor, false))
	}
}

func (s *ScanServer) handleSensor() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := strings.ToLower(mux.Vars(r)["uid"])
		log.Debug("Handling sensor request: uid: %s", uid)
		s.mu.Lock()
		sensor, ok := s.sensors[uid]
		var info *SensorInfo
		if ok {
			info = sensorInfo(sensor, true)
		}
		s.mu.Unlock()
		if !ok {
			writeError(w, ErrSensorNotFound{UID: uid})
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}

func (s *ScanServer) handleScans() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := strings.ToLower(mux.Vars(r)["uid"])
		log.Debug("Handling scans request: uid: %s", uid)
		records, err := s.state.Scans(uid)
		if err != nil {
			writeError(w, err)
			return
		}
		scans := make([]*ScanInfo, 0, len(records))
		for _, record := range records {
			scans = append(scans, &ScanInfo{
				ID:         record.ID,
				CapturedAt: record.CapturedAt,
				Length:     len(record.FRAM),
			})
		}
		writeJSON(w, http.StatusOK, scans)
	}
}

func (s *ScanServer) handleScanUpload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := strings.ToLower(mux.Vars(r)["uid"])
		request := &ScanRequest{}
		if err := json.NewDecoder(r.Body).Decode(request); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, err := decodeHex("fram", request.FRAM)
		if err != nil {
			writeError(w, err)
			return
		}
		log.Debug("Handling scan upload: uid: %s length: %d", uid, len(data))

		s.mu.Lock()
		defer s.mu.Unlock()
		capturedAt := s.now()
		if request.CapturedAt != nil {
			capturedAt = *request.CapturedAt
		}
		sensor, ok := s.sensors[uid]
		if !ok {
			writeError(w, ErrSensorNotFound{UID: uid})
			return
		}
		// the sensor only takes the scan once it is journaled
		snapshot, err := fram.Parse(data, capturedAt)
		if err != nil {
			writeError(w, err)
			return
		}
		if !snapshot.Checksums.Header {
			log.Warning("Sensor %s scan header checksum mismatch", uid)
		}
		if _, err := s.state.AppendScan(uid, data, capturedAt); err != nil {
			writeError(w, err)
			return
		}
		if err := sensor.SetFRAM(data, capturedAt); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sensor.Snapshot())
	}
}

// handleScanDownload returns the raw capture of a journaled scan
func (s *ScanServer) handleScanDownload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		uid := strings.ToLower(vars["uid"])
		log.Debug("Handling scan download: uid: %s id: %s", uid, vars["id"])
		record, err := s.state.Scan(uid, vars["id"])
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set(CapturedAtHeader, record.CapturedAt.Format(time.RFC3339Nano))
		w.Write(record.FRAM)
	}
}

func (s *ScanServer) handleSwagger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(swaggerSpec)
	}
}

func sensorInfo(sensor *device.Sensor, withSnapshot bool) *SensorInfo {
	info := &SensorInfo{
		UID:          sensor.UIDString(),
		PatchInfo:    hex.EncodeToString(sensor.PatchInfo()),
		SerialNumber: sensor.SerialNumber(),
		Type:         sensor.Type(),
	}
	if snapshot := sensor.Snapshot(); snapshot != nil {
		state := snapshot.State
		lastScan := sensor.LastScan()
		info.State = &state
		info.LastScan = &lastScan
		if withSnapshot {
			info.Snapshot = snapshot
		}
	}
	return info
}

func decodeHex(field, value string) ([]byte, error) {
	if value == "" {
		return nil, ErrBadHex{Field: field, Err: errors.New("empty value")}
	}
	data, err := hex.DecodeString(value)
	if err != nil {
		return nil, ErrBadHex{Field: field, Err: err}
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Error while encoding response: %s", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	var notFound ErrSensorNotFound
	var scanNotFound ErrScanNotFound
	var exists ErrSensorExists
	var badHex ErrBadHex
	var tooShort fram.ErrFRAMTooShort
	switch {
	case errors.As(err, &notFound), errors.As(err, &scanNotFound):
		code = http.StatusNotFound
	case errors.As(err, &exists):
		code = http.StatusConflict
	case errors.As(err, &badHex), errors.As(err, &tooShort):
		code = http.StatusBadRequest
	default:
		log.Error("Error while handling request: %s", err)
	}
	http.Error(w, err.Error(), code)
}

type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	log.Error("Recovered from panic: %s", fmt.Sprint(v...))
}
