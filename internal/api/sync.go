package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/2beens/macrotrack/internal/autosync"
	"github.com/2beens/macrotrack/internal/diary"
	"github.com/2beens/macrotrack/internal/persistence"
	"github.com/2beens/macrotrack/internal/telemetry/tracing"
	"github.com/2beens/macrotrack/pkg"

	log "github.com/sirupsen/logrus"
)

const healthCheckTimeout = 2 * time.Second

type StateResponse struct {
	Status    string               `json:"status"`
	Data      *diary.Snapshot      `json:"data"`
	Selection diary.Selection      `json:"selection"`
	Pending   diary.PendingChanges `json:"pending"`
}

type SyncStatusResponse struct {
	StoreStatus string               `json:"storeStatus"`
	Scheduler   autosync.Status      `json:"scheduler"`
	Pending     diary.PendingChanges `json:"pending"`
}

type HealthResponse struct {
	Store   string `json:"store"`
	Backend string `json:"backend"`
	Redis   string `json:"redis"`
}

func (handler *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.state")
	defer span.End()

	status, _ := handler.store.Status()
	pkg.WriteJSON(w, StateResponse{
		Status:    status.String(),
		Data:      handler.store.Snapshot(),
		Selection: handler.store.Selection(),
		Pending:   handler.store.Pending(),
	}, http.StatusOK)
}

func (handler *Handler) HandleSyncStatus(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.sync.status")
	defer span.End()

	status, _ := handler.store.Status()
	pkg.WriteJSON(w, SyncStatusResponse{
		StoreStatus: status.String(),
		Scheduler:   handler.scheduler.Status(),
		Pending:     handler.store.Pending(),
	}, http.StatusOK)
}

// HandleSyncNow is the manual save.
func (handler *Handler) HandleSyncNow(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sync.now")
	defer span.End()

	if status, _ := handler.store.Status(); status != diary.StatusReady {
		handler.writeStoreError(w, "sync now", diary.ErrNotReady)
		return
	}

	err := handler.scheduler.FlushNow(ctx)
	switch {
	case err == nil:
	case errors.Is(err, autosync.ErrSyncInProgress):
		pkg.WriteJSONError(w, err.Error(), http.StatusConflict)
		return
	case persistence.IsConnectionError(err):
		pkg.WriteJSONError(w, err.Error(), http.StatusServiceUnavailable)
		return
	default:
		log.Errorf("manual sync: %s", err)
		pkg.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, SyncStatusResponse{
		StoreStatus: diary.StatusReady.String(),
		Scheduler:   handler.scheduler.Status(),
		Pending:     handler.store.Pending(),
	}, http.StatusOK)
}

// HandleReload loads everything from the backend again. It is how a failed
// store recovers. A ready store with unsaved changes is left alone.
func (handler *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.reload")
	defer span.End()

	if status, _ := handler.store.Status(); status == diary.StatusReady && handler.store.HasPending() {
		pkg.WriteJSONError(w, "unsaved changes, sync first", http.StatusConflict)
		return
	}

	snapshot, err := handler.loader.LoadAll(ctx)
	if err != nil {
		log.Errorf("reload: %s", err)
		handler.store.MarkFailed(err)
		handler.writeStoreError(w, "reload", diary.ErrNotReady)
		return
	}
	loaded := persistence.OrDefault(snapshot)
	if err := handler.store.Hydrate(loaded); err != nil {
		handler.writeStoreError(w, "reload hydrate", err)
		return
	}

	log.Infof("store reloaded, %d profiles, %d products", len(loaded.Profiles), len(loaded.Products))
	handler.HandleState(w, r)
}

func (handler *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.health")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	status, _ := handler.store.Status()
	resp := HealthResponse{
		Store:   status.String(),
		Backend: "ok",
		Redis:   "ok",
	}
	healthy := status == diary.StatusReady

	if err := handler.loader.Ping(ctx); err != nil {
		log.Warnf("health: backend ping: %s", err)
		resp.Backend = err.Error()
		healthy = false
	}
	if handler.redis != nil {
		if err := handler.redis.Ping(ctx).Err(); err != nil {
			// redis only backs rate limiting and tracing, not fatal
			log.Warnf("health: redis ping: %s", err)
			resp.Redis = err.Error()
		}
	} else {
		resp.Redis = "disabled"
	}

	statusCode := http.StatusOK
	if !healthy {
		statusCode = http.StatusServiceUnavailable
	}
	pkg.WriteJSON(w, resp, statusCode)
}
