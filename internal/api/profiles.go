package api

import (
	"net/http"

	"github.com/2beens/macrotrack/internal/diary"
	"github.com/2beens/macrotrack/internal/targets"
	"github.com/2beens/macrotrack/internal/telemetry/tracing"
	"github.com/2beens/macrotrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type ProfileRequest struct {
	Name          string         `json:"name"`
	Icon          string         `json:"icon,omitempty"`
	Color         string         `json:"color,omitempty"`
	Age           *int           `json:"age"`
	Weight        *float64       `json:"weight"`
	Height        *float64       `json:"height"`
	Gender        targets.Gender `json:"gender"`
	ActivityLevel *float64       `json:"activityLevel"`
	Goal          targets.Goal   `json:"goal"`
	BodyFat       *float64       `json:"bodyFat,omitempty"`
}

func (p ProfileRequest) validate() string {
	switch {
	case p.Name == "":
		return "name empty"
	case p.Age == nil || *p.Age <= 0:
		return "age missing or invalid"
	case p.Weight == nil || *p.Weight <= 0:
		return "weight missing or invalid"
	case p.Height == nil || *p.Height <= 0:
		return "height missing or invalid"
	case p.ActivityLevel == nil || *p.ActivityLevel <= 0:
		return "activity level missing or invalid"
	case !validGender(p.Gender):
		return "gender must be male or female"
	case !p.Goal.IsValid():
		return "goal must be cut, maintain or bulk"
	case p.BodyFat != nil && (*p.BodyFat < 0 || *p.BodyFat >= 100):
		return "body fat out of range"
	}
	return ""
}

func validGender(g targets.Gender) bool {
	return g == targets.GenderMale || g == targets.GenderFemale
}

func validatePatch(p diary.ProfilePatch) string {
	switch {
	case p.Name != nil && *p.Name == "":
		return "name empty"
	case p.Age != nil && *p.Age <= 0:
		return "age invalid"
	case p.Weight != nil && *p.Weight <= 0:
		return "weight invalid"
	case p.Height != nil && *p.Height <= 0:
		return "height invalid"
	case p.ActivityLevel != nil && *p.ActivityLevel <= 0:
		return "activity level invalid"
	case p.Gender != nil && !validGender(*p.Gender):
		return "gender must be male or female"
	case p.Goal != nil && !p.Goal.IsValid():
		return "goal must be cut, maintain or bulk"
	case p.BodyFat != nil && (*p.BodyFat < 0 || *p.BodyFat >= 100):
		return "body fat out of range"
	}
	return ""
}

type ListProfilesResponse struct {
	Profiles        []diary.Profile `json:"profiles"`
	ActiveProfileID string          `json:"activeProfileId"`
}

func (handler *Handler) HandleListProfiles(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.list")
	defer span.End()

	pkg.WriteJSON(w, ListProfilesResponse{
		Profiles:        handler.store.Profiles(),
		ActiveProfileID: handler.store.Selection().ActiveProfileID,
	}, http.StatusOK)
}

func (handler *Handler) HandleAddProfile(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.new")
	defer span.End()

	var req ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Tracef("new profile: %s", err)
		writeBadRequest(w, "invalid profile json")
		return
	}
	if msg := req.validate(); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	id, err := handler.store.AddProfile(diary.Profile{
		Name:  req.Name,
		Icon:  req.Icon,
		Color: req.Color,
		Stats: targets.Stats{
			Age:           *req.Age,
			Weight:        *req.Weight,
			Height:        *req.Height,
			Gender:        req.Gender,
			ActivityLevel: *req.ActivityLevel,
			Goal:          req.Goal,
			BodyFat:       req.BodyFat,
		},
	})
	if err != nil {
		handler.writeStoreError(w, "add profile", err)
		return
	}

	profile, err := handler.store.FindProfile(id)
	if err != nil {
		handler.writeStoreError(w, "find new profile", err)
		return
	}
	log.Debugf("new profile added: [%s] %s", profile.ID, profile.Name)
	pkg.WriteJSON(w, profile, http.StatusCreated)
}

func (handler *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.update")
	defer span.End()

	id := mux.Vars(r)["id"]
	if _, err := handler.store.FindProfile(id); err != nil {
		handler.writeStoreError(w, "update profile", err)
		return
	}

	var patch diary.ProfilePatch
	if err := decodeJSON(r, &patch); err != nil {
		log.Tracef("update profile %s: %s", id, err)
		writeBadRequest(w, "invalid profile json")
		return
	}
	if msg := validatePatch(patch); msg != "" {
		writeBadRequest(w, msg)
		return
	}

	if err := handler.store.UpdateProfile(id, patch); err != nil {
		handler.writeStoreError(w, "update profile", err)
		return
	}

	profile, err := handler.store.FindProfile(id)
	if err != nil {
		handler.writeStoreError(w, "find updated profile", err)
		return
	}
	pkg.WriteJSON(w, profile, http.StatusOK)
}

func (handler *Handler) HandleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.delete")
	defer span.End()

	id := mux.Vars(r)["id"]
	if _, err := handler.store.FindProfile(id); err != nil {
		handler.writeStoreError(w, "delete profile", err)
		return
	}
	if err := handler.store.DeleteProfile(id); err != nil {
		handler.writeStoreError(w, "delete profile", err)
		return
	}

	log.Debugf("profile deleted: %s", id)
	pkg.WriteJSON(w, IDResponse{ID: id}, http.StatusOK)
}

func (handler *Handler) HandleRecalculateTargets(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.profiles.targets")
	defer span.End()

	id := mux.Vars(r)["id"]
	if _, err := handler.store.FindProfile(id); err != nil {
		handler.writeStoreError(w, "recalculate targets", err)
		return
	}
	if err := handler.store.RecalculateTargets(id); err != nil {
		handler.writeStoreError(w, "recalculate targets", err)
		return
	}

	profile, err := handler.store.FindProfile(id)
	if err != nil {
		handler.writeStoreError(w, "find profile", err)
		return
	}
	pkg.WriteJSON(w, profile.Targets, http.StatusOK)
}
