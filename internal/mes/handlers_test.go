package mes

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestAPI() *API {
	p, _ := newTestPlant()
	return NewAPI(p, testLogger())
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
}

func TestHandleUpdateTask(t *testing.T) {
	api := newTestAPI()

	rec := postForm(t, api.Router(), "/production/update/1", url.Values{"action": {"start"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Task    Task `json:"task"`
	}
	decode(t, rec, &resp)
	if !resp.Success || resp.Task.ID != 1 || resp.Task.Status != TaskInProgress {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleUpdateTask_Failures(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		action     string
		wantStatus int
	}{
		{"unknown task", "/production/update/99", "start", http.StatusNotFound},
		{"unknown action", "/production/update/1", "explode", http.StatusBadRequest},
		{"missing action", "/production/update/1", "", http.StatusBadRequest},
		{"unknown equipment", "/equipment/update/99", "repair", http.StatusNotFound},
		{"unknown equipment action", "/equipment/update/1", "scrap", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI()
			rec := postForm(t, api.Router(), tt.path, url.Values{"action": {tt.action}})

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			decode(t, rec, &resp)
			if resp.Success || resp.Message == "" {
				t.Errorf("response = %+v, want failure with message", resp)
			}
		})
	}
}

func TestHandleUpdateTask_NonNumericID(t *testing.T) {
	api := newTestAPI()
	rec := postForm(t, api.Router(), "/production/update/abc", url.Values{"action": {"start"}})

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleUpdateTask_WrongMethod(t *testing.T) {
	api := newTestAPI()
	rec := get(t, api.Router(), "/production/update/1")

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleAddQualityRecord(t *testing.T) {
	api := newTestAPI()

	form := url.Values{
		"product":   {"Product C"},
		"batch":     {"Batch 007"},
		"inspector": {"Lin"},
		"result":    {ResultUnqualified},
		"defects[]": {"scratch", "misalignment"},
	}
	rec := postForm(t, api.Router(), "/quality/add", form)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool          `json:"success"`
		Record  QualityRecord `json:"record"`
	}
	decode(t, rec, &resp)
	if !resp.Success || resp.Record.ID != 2 || resp.Record.Batch != "Batch 007" {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Record.Defects) != 2 || resp.Record.Defects[1] != "misalignment" {
		t.Errorf("Defects = %v", resp.Record.Defects)
	}

	var stats QualityStats
	decode(t, get(t, api.Router(), "/api/quality-stats"), &stats)
	if stats.Total != 2 || stats.Unqualified != 1 || stats.QualificationRate != 50 {
		t.Errorf("quality stats = %+v", stats)
	}
}

func TestHandleUpdateEquipment(t *testing.T) {
	api := newTestAPI()

	rec := postForm(t, api.Router(), "/equipment/update/2", url.Values{"action": {"maintenance"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success   bool      `json:"success"`
		Equipment Equipment `json:"equipment"`
	}
	decode(t, rec, &resp)
	if !resp.Success || resp.Equipment.Status != EquipmentMaintenance || len(resp.Equipment.MaintenanceRecords) != 1 {
		t.Errorf("response = %+v", resp)
	}

	var stats EquipmentStats
	decode(t, get(t, api.Router(), "/api/equipment-stats"), &stats)
	if stats != (EquipmentStats{Total: 2, Running: 1, Maintenance: 1}) {
		t.Errorf("equipment stats = %+v", stats)
	}
}

func TestStatsEndpoints(t *testing.T) {
	api := newTestAPI()
	postForm(t, api.Router(), "/production/update/1", url.Values{"action": {"complete"}})

	var prod ProductionStats
	decode(t, get(t, api.Router(), "/api/production-stats"), &prod)
	if prod.Total != 2 || prod.Completed != 1 || prod.Pending != 1 || prod.CompletionRate != 50 {
		t.Errorf("production stats = %+v", prod)
	}

	var dash DashboardStats
	rec := get(t, api.Router(), "/api/dashboard-stats")
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	decode(t, rec, &dash)
	if dash.Production != prod || dash.Quality.Total != 1 || dash.Equipment.Total != 2 {
		t.Errorf("dashboard stats = %+v", dash)
	}
}

func TestListEndpoints(t *testing.T) {
	api := newTestAPI()

	var tasks []Task
	decode(t, get(t, api.Router(), "/api/tasks"), &tasks)
	if len(tasks) != 2 {
		t.Errorf("len(tasks) = %d, want 2", len(tasks))
	}

	var records []QualityRecord
	decode(t, get(t, api.Router(), "/api/quality-records"), &records)
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}

	var equipment []Equipment
	decode(t, get(t, api.Router(), "/api/equipment"), &equipment)
	if len(equipment) != 2 {
		t.Errorf("len(equipment) = %d, want 2", len(equipment))
	}
}

func TestListenAndServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()

	api := newTestAPI()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- api.ListenAndServe(ctx, port) }()

	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get("http://127.0.0.1:" + strconv.Itoa(port) + "/api/equipment-stats")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("backend never came up: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ListenAndServe() did not return after cancel")
	}
}

func TestListenAndServe_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = ln.Close() }()

	err = newTestAPI().ListenAndServe(context.Background(), ln.Addr().(*net.TCPAddr).Port)
	if err == nil || !strings.Contains(err.Error(), "failed to bind") {
		t.Errorf("error = %v, want bind failure", err)
	}
}
