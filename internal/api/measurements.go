package api

import (
	"net/http"

	"github.com/2beens/macrotrack/internal/diary"
	"github.com/2beens/macrotrack/internal/telemetry/tracing"
	"github.com/2beens/macrotrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type MeasurementRequest struct {
	Date   string   `json:"date,omitempty"`
	Weight float64  `json:"weight"`
	Chest  *float64 `json:"chest,omitempty"`
	Biceps *float64 `json:"biceps,omitempty"`
	Waist  *float64 `json:"waist,omitempty"`
	Thigh  *float64 `json:"thigh,omitempty"`
	Calf   *float64 `json:"calf,omitempty"`
}

func (m MeasurementRequest) validate() string {
	for field, v := range map[string]*float64{
		"chest":  m.Chest,
		"biceps": m.Biceps,
		"waist":  m.Waist,
		"thigh":  m.Thigh,
		"calf":   m.Calf,
	} {
		if v != nil && *v <= 0 {
			return field + " must be positive"
		}
	}
	return ""
}

func (m MeasurementRequest) measurement() diary.Measurement {
	return diary.Measurement{
		Date:   m.Date,
		Weight: m.Weight,
		Chest:  m.Chest,
		Biceps: m.Biceps,
		Waist:  m.Waist,
		Thigh:  m.Thigh,
		Calf:   m.Calf,
	}
}

type ListMeasurementsResponse struct {
	ProfileID    string              `json:"profileId"`
	Measurements []diary.Measurement `json:"measurements"`
}

func (handler *Handler) HandleListMeasurements(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.measurements.list")
	defer span.End()

	profileID := r.URL.Query().Get("profile")
	if profileID == "" {
		profileID = handler.store.Selection().ActiveProfileID
	}
	if _, err := handler.store.FindProfile(profileID); err != nil {
		handler.writeStoreError(w, "list measurements", err)
		return
	}

	measurements := handler.store.Measurements(profileID)
	if measurements == nil {
		measurements = []diary.Measurement{}
	}
	pkg.WriteJSON(w, ListMeasurementsResponse{
		ProfileID:    profileID,
		Measurements: measurements,
	}, http.StatusOK)
}

func (handler *Handler) HandleAddMeasurement(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.measurements.new")
	defer span.End()

	var req MeasurementRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Tracef("new measurement: %s", err)
		writeBadRequest(w, "invalid measurement json")
		return
	}
	if msg := req.validate(); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	id, err := handler.store.AddMeasurement(req.measurement())
	if err != nil {
		handler.writeStoreError(w, "add measurement", err)
		return
	}
	added, err := handler.store.FindMeasurement(id)
	if err != nil {
		handler.writeStoreError(w, "find new measurement", err)
		return
	}
	pkg.WriteJSON(w, added, http.StatusCreated)
}

func (handler *Handler) HandleUpdateMeasurement(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.measurements.update")
	defer span.End()

	id := mux.Vars(r)["id"]
	if _, err := handler.store.FindMeasurement(id); err != nil {
		handler.writeStoreError(w, "update measurement", err)
		return
	}

	var req MeasurementRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Tracef("update measurement %s: %s", id, err)
		writeBadRequest(w, "invalid measurement json")
		return
	}
	if msg := req.validate(); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	if err := handler.store.UpdateMeasurement(id, req.measurement()); err != nil {
		handler.writeStoreError(w, "update measurement", err)
		return
	}
	updated, err := handler.store.FindMeasurement(id)
	if err != nil {
		handler.writeStoreError(w, "find updated measurement", err)
		return
	}
	pkg.WriteJSON(w, updated, http.StatusOK)
}

func (handler *Handler) HandleDeleteMeasurement(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.measurements.delete")
	defer span.End()

	id := mux.Vars(r)["id"]
	if _, err := handler.store.FindMeasurement(id); err != nil {
		handler.writeStoreError(w, "delete measurement", err)
		return
	}
	if err := handler.store.DeleteMeasurement(id); err != nil {
		handler.writeStoreError(w, "delete measurement", err)
		return
	}
	pkg.WriteJSON(w, IDResponse{ID: id}, http.StatusOK)
}
