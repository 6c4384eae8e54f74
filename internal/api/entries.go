package api

import (
	"net/http"

	"github.com/2beens/macrotrack/internal/diary"
	"github.com/2beens/macrotrack/internal/telemetry/tracing"
	"github.com/2beens/macrotrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// EntryRequest logs a food. With a product id and no macros, the macros are
// derived from the product's per 100g values and the weight. Macros are sent
// as all four or none, a partial set is rejected.
type EntryRequest struct {
	ProductID string         `json:"productId,omitempty"`
	Name      string         `json:"name,omitempty"`
	Date      string         `json:"date,omitempty"`
	Category  diary.Category `json:"category"`
	Weight    float64        `json:"weight"`
	Calories  *float64       `json:"calories,omitempty"`
	Protein   *float64       `json:"protein,omitempty"`
	Fat       *float64       `json:"fat,omitempty"`
	Carbs     *float64       `json:"carbs,omitempty"`
}

func (e EntryRequest) macroCount() int {
	n := 0
	for _, m := range []*float64{e.Calories, e.Protein, e.Fat, e.Carbs} {
		if m != nil {
			n++
		}
	}
	return n
}

func (e EntryRequest) hasMacros() bool {
	return e.macroCount() == 4
}

type UpdateEntryRequest struct {
	Weight float64 `json:"weight"`
}

type ListEntriesResponse struct {
	ProfileID string            `json:"profileId"`
	Date      string            `json:"date"`
	Entries   []diary.MealEntry `json:"entries"`
}

func (handler *Handler) HandleListEntries(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.list")
	defer span.End()

	selection := handler.store.Selection()
	date := r.URL.Query().Get("date")
	if date == "" {
		date = selection.Date
	}
	profileID := r.URL.Query().Get("profile")
	if profileID == "" {
		profileID = selection.ActiveProfileID
	}
	span.SetAttributes(attribute.String("date", date))

	if _, err := handler.store.FindProfile(profileID); err != nil {
		handler.writeStoreError(w, "list entries", err)
		return
	}

	entries := handler.store.EntriesFor(profileID, date)
	if entries == nil {
		entries = []diary.MealEntry{}
	}
	pkg.WriteJSON(w, ListEntriesResponse{
		ProfileID: profileID,
		Date:      date,
		Entries:   entries,
	}, http.StatusOK)
}

func (handler *Handler) HandleAddEntry(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.new")
	defer span.End()

	var req EntryRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Tracef("new entry: %s", err)
		writeBadRequest(w, "invalid entry json")
		return
	}

	if n := req.macroCount(); n > 0 && n < 4 {
		writeBadRequest(w, "all four macros or none required")
		return
	}

	entry := diary.MealEntry{
		ProductID: req.ProductID,
		Name:      req.Name,
		Date:      req.Date,
		Category:  req.Category,
		Weight:    req.Weight,
	}

	switch {
	case req.hasMacros():
		entry.Calories = *req.Calories
		entry.Protein = *req.Protein
		entry.Fat = *req.Fat
		entry.Carbs = *req.Carbs
	case req.ProductID != "":
		product, err := handler.store.FindProduct(req.ProductID)
		if err != nil {
			handler.writeStoreError(w, "new entry product", err)
			return
		}
		factor := req.Weight / 100
		entry.Calories = product.Calories * factor
		entry.Protein = product.Protein * factor
		entry.Fat = product.Fat * factor
		entry.Carbs = product.Carbs * factor
		if entry.Name == "" {
			entry.Name = product.Name
		}
	default:
		writeBadRequest(w, "macros or product id required")
		return
	}
	if entry.Name == "" {
		writeBadRequest(w, "name empty")
		return
	}

	id, err := handler.store.AddEntry(entry)
	if err != nil {
		handler.writeStoreError(w, "add entry", err)
		return
	}
	if handler.metricsManager != nil {
		handler.metricsManager.CounterEntriesLogged.Inc()
	}

	added, err := handler.store.FindEntry(id)
	if err != nil {
		handler.writeStoreError(w, "find new entry", err)
		return
	}
	log.Debugf("entry logged: [%s] %s %.0fg, %s %s", added.ID, added.Name, added.Weight, added.Date, added.Category)
	pkg.WriteJSON(w, added, http.StatusCreated)
}

func (handler *Handler) HandleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.update")
	defer span.End()

	id := mux.Vars(r)["id"]
	if _, err := handler.store.FindEntry(id); err != nil {
		handler.writeStoreError(w, "update entry", err)
		return
	}

	var req UpdateEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Tracef("update entry %s: %s", id, err)
		writeBadRequest(w, "invalid entry json")
		return
	}
	if err := handler.store.UpdateEntry(id, req.Weight); err != nil {
		handler.writeStoreError(w, "update entry", err)
		return
	}

	updated, err := handler.store.FindEntry(id)
	if err != nil {
		handler.writeStoreError(w, "find updated entry", err)
		return
	}
	pkg.WriteJSON(w, updated, http.StatusOK)
}

func (handler *Handler) HandleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.entries.remove")
	defer span.End()

	id := mux.Vars(r)["id"]
	if _, err := handler.store.FindEntry(id); err != nil {
		handler.writeStoreError(w, "remove entry", err)
		return
	}
	if err := handler.store.RemoveEntry(id); err != nil {
		handler.writeStoreError(w, "remove entry", err)
		return
	}
	pkg.WriteJSON(w, IDResponse{ID: id}, http.StatusOK)
}
