package api

import (
	"net/http"

	"github.com/2beens/macrotrack/internal/diary"
	"github.com/2beens/macrotrack/internal/telemetry/tracing"
	"github.com/2beens/macrotrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type SetRequest struct {
	Name  string          `json:"name"`
	Items []diary.SetItem `json:"items"`
	Icon  string          `json:"icon,omitempty"`
	Color string          `json:"color,omitempty"`
}

func (s SetRequest) validate() string {
	if s.Name == "" {
		return "name empty"
	}
	for _, item := range s.Items {
		if item.ProductID == "" {
			return "set item without product id"
		}
		if item.Weight <= 0 {
			return "set item weight must be positive"
		}
	}
	return ""
}

func (s SetRequest) set() diary.ProductSet {
	return diary.ProductSet{
		Name:  s.Name,
		Items: s.Items,
		Icon:  s.Icon,
		Color: s.Color,
	}
}

type SetWithTotals struct {
	diary.ProductSet
	Totals diary.Macros `json:"totals"`
}

type ListSetsResponse struct {
	Sets  []SetWithTotals `json:"sets"`
	Total int             `json:"total"`
}

type LogSetRequest struct {
	Date     string         `json:"date,omitempty"`
	Category diary.Category `json:"category"`
}

type LogSetResponse struct {
	EntryIDs []string `json:"entryIds"`
}

func (handler *Handler) HandleListSets(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.sets.list")
	defer span.End()

	sets := handler.store.Sets()
	resp := make([]SetWithTotals, 0, len(sets))
	for _, set := range sets {
		totals, err := handler.store.SetTotals(set.ID)
		if err != nil {
			// deleted in between
			continue
		}
		resp = append(resp, SetWithTotals{ProductSet: set, Totals: totals})
	}
	pkg.WriteJSON(w, ListSetsResponse{
		Sets:  resp,
		Total: len(resp),
	}, http.StatusOK)
}

func (handler *Handler) HandleAddSet(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.sets.new")
	defer span.End()

	var req SetRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Tracef("new set: %s", err)
		writeBadRequest(w, "invalid set json")
		return
	}
	if msg := req.validate(); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	id, err := handler.store.AddSet(req.set())
	if err != nil {
		handler.writeStoreError(w, "add set", err)
		return
	}
	set, err := handler.store.FindSet(id)
	if err != nil {
		handler.writeStoreError(w, "find new set", err)
		return
	}
	log.Debugf("new set added: [%s] %s, %d items", set.ID, set.Name, len(set.Items))
	pkg.WriteJSON(w, set, http.StatusCreated)
}

func (handler *Handler) HandleUpdateSet(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.sets.update")
	defer span.End()

	id := mux.Vars(r)["id"]
	if _, err := handler.store.FindSet(id); err != nil {
		handler.writeStoreError(w, "update set", err)
		return
	}

	var req SetRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Tracef("update set %s: %s", id, err)
		writeBadRequest(w, "invalid set json")
		return
	}
	if msg := req.validate(); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	if err := handler.store.UpdateSet(id, req.set()); err != nil {
		handler.writeStoreError(w, "update set", err)
		return
	}
	set, err := handler.store.FindSet(id)
	if err != nil {
		handler.writeStoreError(w, "find updated set", err)
		return
	}
	pkg.WriteJSON(w, set, http.StatusOK)
}

func (handler *Handler) HandleDeleteSet(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.sets.delete")
	defer span.End()

	id := mux.Vars(r)["id"]
	if _, err := handler.store.FindSet(id); err != nil {
		handler.writeStoreError(w, "delete set", err)
		return
	}
	if err := handler.store.DeleteSet(id); err != nil {
		handler.writeStoreError(w, "delete set", err)
		return
	}
	pkg.WriteJSON(w, IDResponse{ID: id}, http.StatusOK)
}

func (handler *Handler) HandleSetTotals(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.sets.totals")
	defer span.End()

	totals, err := handler.store.SetTotals(mux.Vars(r)["id"])
	if err != nil {
		handler.writeStoreError(w, "set totals", err)
		return
	}
	pkg.WriteJSON(w, totals, http.StatusOK)
}

func (handler *Handler) HandleLogSet(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.sets.log")
	defer span.End()

	id := mux.Vars(r)["id"]
	if _, err := handler.store.FindSet(id); err != nil {
		handler.writeStoreError(w, "log set", err)
		return
	}

	var req LogSetRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Tracef("log set %s: %s", id, err)
		writeBadRequest(w, "invalid log set json")
		return
	}

	ids, err := handler.store.AddSetToMeal(id, req.Date, req.Category)
	if err != nil {
		handler.writeStoreError(w, "log set", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	if handler.metricsManager != nil {
		handler.metricsManager.CounterEntriesLogged.Add(float64(len(ids)))
	}
	pkg.WriteJSON(w, LogSetResponse{EntryIDs: ids}, http.StatusCreated)
}
