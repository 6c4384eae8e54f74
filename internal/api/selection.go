package api

import (
	"errors"
	"net/http"

	"github.com/2beens/macrotrack/internal/diary"
	"github.com/2beens/macrotrack/internal/telemetry/tracing"
	"github.com/2beens/macrotrack/pkg"

	log "github.com/sirupsen/logrus"
)

type SetActiveProfileRequest struct {
	ProfileID string `json:"profileId"`
}

type SetDateRequest struct {
	Date string `json:"date"`
}

type SetSelectionModeRequest struct {
	Active        bool           `json:"active"`
	Category      diary.Category `json:"category,omitempty"`
	IsSetCreation bool           `json:"isSetCreation,omitempty"`
	SetID         string         `json:"setId,omitempty"`
}

// SetEditingRequest sets or clears (null) the product and set being edited.
type SetEditingRequest struct {
	Product *diary.Product    `json:"product"`
	Set     *diary.ProductSet `json:"set"`
}

func (handler *Handler) HandleGetSelection(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.selection.get")
	defer span.End()

	pkg.WriteJSON(w, handler.store.Selection(), http.StatusOK)
}

func (handler *Handler) HandleSetActiveProfile(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.selection.profile")
	defer span.End()

	var req SetActiveProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Tracef("set active profile: %s", err)
		writeBadRequest(w, "invalid selection json")
		return
	}
	// the store ignores unknown ids, the API reports them
	if _, err := handler.store.FindProfile(req.ProfileID); err != nil {
		handler.writeStoreError(w, "set active profile", err)
		return
	}
	if err := handler.store.SetActiveProfile(req.ProfileID); err != nil {
		handler.writeStoreError(w, "set active profile", err)
		return
	}
	pkg.WriteJSON(w, handler.store.Selection(), http.StatusOK)
}

func (handler *Handler) HandleSetDate(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.selection.date")
	defer span.End()

	var req SetDateRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Tracef("set date: %s", err)
		writeBadRequest(w, "invalid selection json")
		return
	}
	if err := handler.store.SetDate(req.Date); err != nil {
		if errors.Is(err, diary.ErrInvalidDate) {
			writeBadRequest(w, "date must be YYYY-MM-DD")
			return
		}
		handler.writeStoreError(w, "set date", err)
		return
	}
	pkg.WriteJSON(w, handler.store.Selection(), http.StatusOK)
}

func (handler *Handler) HandleSetSelectionMode(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.selection.mode")
	defer span.End()

	var req SetSelectionModeRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Tracef("set selection mode: %s", err)
		writeBadRequest(w, "invalid selection json")
		return
	}
	if req.Active && req.Category != "" && !req.Category.IsValid() {
		writeBadRequest(w, "unknown category")
		return
	}
	handler.store.SetSelectionMode(req.Active, req.Category, req.IsSetCreation, req.SetID)
	pkg.WriteJSON(w, handler.store.Selection(), http.StatusOK)
}

func (handler *Handler) HandleSetEditing(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.selection.editing")
	defer span.End()

	var req SetEditingRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Tracef("set editing: %s", err)
		writeBadRequest(w, "invalid selection json")
		return
	}
	handler.store.SetEditingProduct(req.Product)
	handler.store.SetEditingSet(req.Set)
	pkg.WriteJSON(w, handler.store.Selection(), http.StatusOK)
}
