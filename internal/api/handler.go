// Package api exposes the diary store over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/2beens/macrotrack/internal/autosync"
	"github.com/2beens/macrotrack/internal/diary"
	"github.com/2beens/macrotrack/internal/middleware"
	"github.com/2beens/macrotrack/internal/persistence"
	"github.com/2beens/macrotrack/internal/telemetry/metrics"
	"github.com/2beens/macrotrack/pkg"

	"github.com/coocood/freecache"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=api_test

type syncScheduler interface {
	FlushNow(ctx context.Context) error
	Status() autosync.Status
}

type snapshotLoader interface {
	LoadAll(ctx context.Context) (*diary.Snapshot, error)
	Ping(ctx context.Context) error
}

type redisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type Handler struct {
	store          *diary.Store
	scheduler      syncScheduler
	loader         snapshotLoader
	redis          redisPinger
	summaryCache   *freecache.Cache
	metricsManager *metrics.Manager
}

type NewHandlerParams struct {
	Store          *diary.Store
	Scheduler      syncScheduler
	Loader         snapshotLoader
	Redis          redisPinger
	SummaryCache   *freecache.Cache
	MetricsManager *metrics.Manager
}

func NewHandler(params NewHandlerParams) *Handler {
	summaryCache := params.SummaryCache
	if summaryCache == nil {
		summaryCache = freecache.NewCache(defaultSummaryCacheSize)
	}
	return &Handler{
		store:          params.Store,
		scheduler:      params.Scheduler,
		loader:         params.Loader,
		redis:          params.Redis,
		summaryCache:   summaryCache,
		metricsManager: params.MetricsManager,
	}
}

func (handler *Handler) SetupRoutes(
	r *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	syncRateLimitPerMin int,
) {
	r.HandleFunc("/health", handler.HandleHealth).Methods("GET", "OPTIONS").Name("health")
	r.HandleFunc("/sync", handler.HandleSyncStatus).Methods("GET", "OPTIONS").Name("sync-status")
	r.HandleFunc("/reload", handler.HandleReload).Methods("POST", "OPTIONS").Name("reload")

	// manual save hits the backing store directly, so it is rate limited
	syncRateLimit := middleware.RateLimit(rateLimiter, "sync", syncRateLimitPerMin, handler.metricsManager)
	r.Handle("/sync", syncRateLimit(http.HandlerFunc(handler.HandleSyncNow))).Methods("POST").Name("sync-now")

	// everything below needs a loaded store
	storeRouter := r.NewRoute().Subrouter()
	storeRouter.Use(handler.RequireReady)
	storeRouter.HandleFunc("/state", handler.HandleState).Methods("GET", "OPTIONS").Name("state")

	storeRouter.HandleFunc("/profiles", handler.HandleListProfiles).Methods("GET", "OPTIONS").Name("list-profiles")
	storeRouter.HandleFunc("/profiles", handler.HandleAddProfile).Methods("POST", "OPTIONS").Name("new-profile")
	storeRouter.HandleFunc("/profiles/{id}", handler.HandleUpdateProfile).Methods("PUT", "OPTIONS").Name("update-profile")
	storeRouter.HandleFunc("/profiles/{id}", handler.HandleDeleteProfile).Methods("DELETE", "OPTIONS").Name("delete-profile")
	storeRouter.HandleFunc("/profiles/{id}/targets", handler.HandleRecalculateTargets).Methods("POST", "OPTIONS").Name("recalculate-targets")

	storeRouter.HandleFunc("/selection", handler.HandleGetSelection).Methods("GET", "OPTIONS").Name("get-selection")
	storeRouter.HandleFunc("/selection/profile", handler.HandleSetActiveProfile).Methods("PUT", "OPTIONS").Name("set-active-profile")
	storeRouter.HandleFunc("/selection/date", handler.HandleSetDate).Methods("PUT", "OPTIONS").Name("set-date")
	storeRouter.HandleFunc("/selection/mode", handler.HandleSetSelectionMode).Methods("PUT", "OPTIONS").Name("set-selection-mode")
	storeRouter.HandleFunc("/selection/editing", handler.HandleSetEditing).Methods("PUT", "OPTIONS").Name("set-editing")

	storeRouter.HandleFunc("/products", handler.HandleListProducts).Methods("GET", "OPTIONS").Name("list-products")
	storeRouter.HandleFunc("/products", handler.HandleAddProduct).Methods("POST", "OPTIONS").Name("new-product")
	storeRouter.HandleFunc("/products/{id}", handler.HandleGetProduct).Methods("GET", "OPTIONS").Name("get-product")
	storeRouter.HandleFunc("/products/{id}", handler.HandleUpdateProduct).Methods("PUT", "OPTIONS").Name("update-product")
	storeRouter.HandleFunc("/products/{id}", handler.HandleDeleteProduct).Methods("DELETE", "OPTIONS").Name("delete-product")

	storeRouter.HandleFunc("/sets", handler.HandleListSets).Methods("GET", "OPTIONS").Name("list-sets")
	storeRouter.HandleFunc("/sets", handler.HandleAddSet).Methods("POST", "OPTIONS").Name("new-set")
	storeRouter.HandleFunc("/sets/{id}", handler.HandleUpdateSet).Methods("PUT", "OPTIONS").Name("update-set")
	storeRouter.HandleFunc("/sets/{id}", handler.HandleDeleteSet).Methods("DELETE", "OPTIONS").Name("delete-set")
	storeRouter.HandleFunc("/sets/{id}/totals", handler.HandleSetTotals).Methods("GET", "OPTIONS").Name("set-totals")
	storeRouter.HandleFunc("/sets/{id}/log", handler.HandleLogSet).Methods("POST", "OPTIONS").Name("log-set")

	storeRouter.HandleFunc("/entries", handler.HandleListEntries).Methods("GET", "OPTIONS").Name("list-entries")
	storeRouter.HandleFunc("/entries", handler.HandleAddEntry).Methods("POST", "OPTIONS").Name("new-entry")
	storeRouter.HandleFunc("/entries/{id}", handler.HandleUpdateEntry).Methods("PUT", "OPTIONS").Name("update-entry")
	storeRouter.HandleFunc("/entries/{id}", handler.HandleRemoveEntry).Methods("DELETE", "OPTIONS").Name("remove-entry")

	storeRouter.HandleFunc("/measurements", handler.HandleListMeasurements).Methods("GET", "OPTIONS").Name("list-measurements")
	storeRouter.HandleFunc("/measurements", handler.HandleAddMeasurement).Methods("POST", "OPTIONS").Name("new-measurement")
	storeRouter.HandleFunc("/measurements/{id}", handler.HandleUpdateMeasurement).Methods("PUT", "OPTIONS").Name("update-measurement")
	storeRouter.HandleFunc("/measurements/{id}", handler.HandleDeleteMeasurement).Methods("DELETE", "OPTIONS").Name("delete-measurement")

	storeRouter.HandleFunc("/summary/day", handler.HandleDaySummary).Methods("GET", "OPTIONS").Name("day-summary")
	storeRouter.HandleFunc("/summary/week", handler.HandleWeekSummary).Methods("GET", "OPTIONS").Name("week-summary")
}

// IDResponse is returned by deletes.
type IDResponse struct {
	ID string `json:"id"`
}

// RequireReady answers 503 while the store is still loading or failed to load.
func (handler *Handler) RequireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status, _ := handler.store.Status(); status != diary.StatusReady {
			handler.writeStoreError(w, "require ready", diary.ErrNotReady)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

// writeStoreError maps store errors to status codes. A store that failed to
// load answers 503 with {"error": "connection"} until reloaded.
func (handler *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, diary.ErrNotReady):
		status, loadErr := handler.store.Status()
		if status == diary.StatusFailed && persistence.IsConnectionError(loadErr) {
			pkg.WriteJSONError(w, "connection", http.StatusServiceUnavailable)
			return
		}
		pkg.WriteJSONError(w, status.String(), http.StatusServiceUnavailable)
	case errors.Is(err, diary.ErrNotFound):
		pkg.WriteJSONError(w, "not found", http.StatusNotFound)
	case errors.Is(err, diary.ErrInvalidWeight),
		errors.Is(err, diary.ErrInvalidDate),
		errors.Is(err, diary.ErrInvalidCategory),
		errors.Is(err, diary.ErrNoActiveProfile):
		pkg.WriteJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("%s: %s", op, err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	pkg.WriteJSONError(w, message, http.StatusBadRequest)
}
