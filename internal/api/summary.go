package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/2beens/macrotrack/internal/telemetry/tracing"
	"github.com/2beens/macrotrack/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultSummaryCacheSize = 10 * 1024 * 1024
	summaryCacheTTLSeconds  = 10 * 60
)

// summaryQuery resolves ?date= and ?profile=, defaulting to the selection.
func (handler *Handler) summaryQuery(r *http.Request) (profileID, date string) {
	selection := handler.store.Selection()
	date = r.URL.Query().Get("date")
	if date == "" {
		date = selection.Date
	}
	profileID = r.URL.Query().Get("profile")
	if profileID == "" {
		profileID = selection.ActiveProfileID
	}
	return profileID, date
}

// summaryCacheKey includes the store revision, so any mutation makes older
// entries unreachable and they simply age out.
func (handler *Handler) summaryCacheKey(kind, profileID, date string) []byte {
	return []byte(fmt.Sprintf("%s::%s::%s::%d", kind, profileID, date, handler.store.Revision()))
}

func (handler *Handler) HandleDaySummary(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.summary.day")
	defer span.End()

	profileID, date := handler.summaryQuery(r)
	span.SetAttributes(attribute.String("date", date))

	handler.writeCachedSummary(w, handler.summaryCacheKey("day", profileID, date), func() (any, error) {
		return handler.store.DaySummary(profileID, date)
	})
}

func (handler *Handler) HandleWeekSummary(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.summary.week")
	defer span.End()

	profileID, date := handler.summaryQuery(r)
	span.SetAttributes(attribute.String("date", date))

	handler.writeCachedSummary(w, handler.summaryCacheKey("week", profileID, date), func() (any, error) {
		return handler.store.WeekSummary(profileID, date)
	})
}

func (handler *Handler) writeCachedSummary(w http.ResponseWriter, key []byte, compute func() (any, error)) {
	if cached, err := handler.summaryCache.Get(key); err == nil {
		log.Tracef("summary cache hit: %s", key)
		pkg.WriteResponseBytes(w, pkg.ContentType.JSON, cached, http.StatusOK)
		return
	}

	summary, err := compute()
	if err != nil {
		handler.writeStoreError(w, "summary", err)
		return
	}

	summaryBytes, err := json.Marshal(summary)
	if err != nil {
		log.Errorf("marshal summary: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if err := handler.summaryCache.Set(key, summaryBytes, summaryCacheTTLSeconds); err != nil {
		log.Errorf("cache summary %s: %s", key, err)
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, summaryBytes, http.StatusOK)
}
