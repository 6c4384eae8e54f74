package diary

import (
	"github.com/2beens/macrotrack/internal/targets"
)

func (s *Store) profileIndex(id string) int {
	for i := range s.data.Profiles {
		if s.data.Profiles[i].ID == id {
			return i
		}
	}
	return -1
}

// AddProfile appends a new profile with freshly computed targets and returns its id.
func (s *Store) AddProfile(p Profile) (string, error) {
	var id string
	err := s.mutate(func() ([]Collection, error) {
		id = s.newID()
		p.ID = id
		p.Targets = targets.Calculate(p.Stats)
		s.data.Profiles = append(s.data.Profiles, p)
		return []Collection{CollectionProfiles}, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateProfile shallow-merges the patch into the profile. Body stat changes
// recompute the targets. An unknown id is a no-op that still marks profiles dirty.
func (s *Store) UpdateProfile(id string, patch ProfilePatch) error {
	return s.mutate(func() ([]Collection, error) {
		i := s.profileIndex(id)
		if i < 0 {
			return []Collection{CollectionProfiles}, nil
		}

		p := &s.data.Profiles[i]
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.Icon != nil {
			p.Icon = *patch.Icon
		}
		if patch.Color != nil {
			p.Color = *patch.Color
		}
		if patch.Age != nil {
			p.Stats.Age = *patch.Age
		}
		if patch.Weight != nil {
			p.Stats.Weight = *patch.Weight
		}
		if patch.Height != nil {
			p.Stats.Height = *patch.Height
		}
		if patch.Gender != nil {
			p.Stats.Gender = *patch.Gender
		}
		if patch.ActivityLevel != nil {
			p.Stats.ActivityLevel = *patch.ActivityLevel
		}
		if patch.Goal != nil {
			p.Stats.Goal = *patch.Goal
		}
		if patch.BodyFat != nil {
			bf := *patch.BodyFat
			p.Stats.BodyFat = &bf
		}

		if patch.touchesStats() {
			p.Targets = targets.Calculate(p.Stats)
		}
		return []Collection{CollectionProfiles}, nil
	})
}

// DeleteProfile removes the profile together with its entries and measurements.
// When the active profile goes away, the first remaining one takes over.
func (s *Store) DeleteProfile(id string) error {
	return s.mutate(func() ([]Collection, error) {
		profiles := s.data.Profiles[:0]
		for _, p := range s.data.Profiles {
			if p.ID != id {
				profiles = append(profiles, p)
			}
		}
		s.data.Profiles = profiles

		entries := s.data.Entries[:0]
		for _, e := range s.data.Entries {
			if e.ProfileID != id {
				entries = append(entries, e)
			}
		}
		s.data.Entries = entries

		measurements := s.data.Measurements[:0]
		for _, m := range s.data.Measurements {
			if m.ProfileID != id {
				measurements = append(measurements, m)
			}
		}
		s.data.Measurements = measurements

		if s.data.ActiveProfileID == id {
			s.data.ActiveProfileID = ""
			if len(s.data.Profiles) > 0 {
				s.data.ActiveProfileID = s.data.Profiles[0].ID
			}
			s.selection.ActiveProfileID = s.data.ActiveProfileID
		}

		return []Collection{
			CollectionProfiles,
			CollectionEntries,
			CollectionMeasurements,
			CollectionSettings,
		}, nil
	})
}

// RecalculateTargets replaces the profile targets with ones derived from its stats.
func (s *Store) RecalculateTargets(id string) error {
	return s.mutate(func() ([]Collection, error) {
		if i := s.profileIndex(id); i >= 0 {
			s.data.Profiles[i].Targets = targets.Calculate(s.data.Profiles[i].Stats)
		}
		return []Collection{CollectionProfiles}, nil
	})
}

func (s *Store) Profiles() []Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneProfiles(s.data.Profiles)
}

func (s *Store) FindProfile(id string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.profileIndex(id)
	if i < 0 {
		return Profile{}, ErrNotFound
	}
	return cloneProfiles(s.data.Profiles[i : i+1])[0], nil
}

func (s *Store) ActiveProfile() (Profile, error) {
	s.mu.RLock()
	id := s.data.ActiveProfileID
	s.mu.RUnlock()
	return s.FindProfile(id)
}
