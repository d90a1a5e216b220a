package mes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 5 * time.Second

// API serves a [Plant] over HTTP.
type API struct {
	plant  *Plant
	logger *slog.Logger
	router *mux.Router
}

// NewAPI creates the HTTP API for p.
//
// Routes:
//
//	POST /production/update/{id}   form field action: start|pause|resume|complete|reset
//	POST /quality/add              form fields product, batch, inspector, result, defects[]
//	POST /equipment/update/{id}    form field action: maintenance|repair|standby
//	GET  /api/dashboard-stats
//	GET  /api/production-stats
//	GET  /api/quality-stats
//	GET  /api/equipment-stats
//	GET  /api/tasks
//	GET  /api/quality-records
//	GET  /api/equipment
func NewAPI(p *Plant, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	a := &API{
		plant:  p,
		logger: logger,
		router: mux.NewRouter(),
	}
	a.setupRoutes()
	return a
}

func (a *API) setupRoutes() {
	a.router.HandleFunc("/production/update/{id:[0-9]+}", a.handleUpdateTask).Methods(http.MethodPost)
	a.router.HandleFunc("/quality/add", a.handleAddQualityRecord).Methods(http.MethodPost)
	a.router.HandleFunc("/equipment/update/{id:[0-9]+}", a.handleUpdateEquipment).Methods(http.MethodPost)

	api := a.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dashboard-stats", a.handleDashboardStats).Methods(http.MethodGet)
	api.HandleFunc("/production-stats", a.handleProductionStats).Methods(http.MethodGet)
	api.HandleFunc("/quality-stats", a.handleQualityStats).Methods(http.MethodGet)
	api.HandleFunc("/equipment-stats", a.handleEquipmentStats).Methods(http.MethodGet)
	api.HandleFunc("/tasks", a.handleTasks).Methods(http.MethodGet)
	api.HandleFunc("/quality-records", a.handleQualityRecords).Methods(http.MethodGet)
	api.HandleFunc("/equipment", a.handleEquipment).Methods(http.MethodGet)
}

// Router returns the API's router.
func (a *API) Router() *mux.Router {
	return a.router
}

// ListenAndServe serves the API on port until ctx is cancelled, then shuts
// down gracefully.
func (a *API) ListenAndServe(ctx context.Context, port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", port, err)
	}

	srv := &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	a.logger.Info("mes backend listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *API) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		a.respondFailure(w, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := a.plant.UpdateTask(id, r.FormValue("action"))
	if err != nil {
		a.respondPlantError(w, err, "task not found")
		return
	}

	a.logger.Info("task updated", "task_id", task.ID, "status", task.Status)
	a.respondJSON(w, http.StatusOK, map[string]any{"success": true, "task": task})
}

func (a *API) handleAddQualityRecord(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.respondFailure(w, http.StatusBadRequest, "invalid form: "+err.Error())
		return
	}

	rec := a.plant.AddQualityRecord(NewQualityRecord{
		Product:   r.PostForm.Get("product"),
		Batch:     r.PostForm.Get("batch"),
		Inspector: r.PostForm.Get("inspector"),
		Result:    r.PostForm.Get("result"),
		Defects:   r.PostForm["defects[]"],
	})

	a.logger.Info("quality record added", "record_id", rec.ID, "result", rec.Result)
	a.respondJSON(w, http.StatusOK, map[string]any{"success": true, "record": rec})
}

func (a *API) handleUpdateEquipment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		a.respondFailure(w, http.StatusBadRequest, "invalid equipment id")
		return
	}

	eq, err := a.plant.UpdateEquipment(id, r.FormValue("action"))
	if err != nil {
		a.respondPlantError(w, err, "equipment not found")
		return
	}

	a.logger.Info("equipment updated", "equipment_id", eq.ID, "status", eq.Status)
	a.respondJSON(w, http.StatusOK, map[string]any{"success": true, "equipment": eq})
}

func (a *API) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, a.plant.DashboardStats())
}

func (a *API) handleProductionStats(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, a.plant.ProductionStats())
}

func (a *API) handleQualityStats(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, a.plant.QualityStats())
}

func (a *API) handleEquipmentStats(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, a.plant.EquipmentStats())
}

func (a *API) handleTasks(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, a.plant.Tasks())
}

func (a *API) handleQualityRecords(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, a.plant.QualityRecords())
}

func (a *API) handleEquipment(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, a.plant.Equipment())
}

func (a *API) respondPlantError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, ErrNotFound):
		a.respondFailure(w, http.StatusNotFound, notFound)
	case errors.Is(err, ErrUnknownAction):
		a.respondFailure(w, http.StatusBadRequest, err.Error())
	default:
		a.respondFailure(w, http.StatusInternalServerError, err.Error())
	}
}

func (a *API) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Error("failed to encode JSON response", "error", err)
	}
}

func (a *API) respondFailure(w http.ResponseWriter, status int, message string) {
	a.respondJSON(w, status, map[string]any{"success": false, "message": message})
}
