package diary

import (
	"sort"
)

func (s *Store) measurementIndex(id string) int {
	for i := range s.data.Measurements {
		if s.data.Measurements[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) AddMeasurement(m Measurement) (string, error) {
	var id string
	err := s.mutate(func() ([]Collection, error) {
		if s.data.ActiveProfileID == "" {
			return nil, ErrNoActiveProfile
		}
		if m.Date == "" {
			m.Date = s.selection.Date
		}
		if !validDate(m.Date) {
			return nil, ErrInvalidDate
		}
		if m.Weight <= 0 {
			return nil, ErrInvalidWeight
		}

		id = s.newID()
		m.ID = id
		m.ProfileID = s.data.ActiveProfileID
		m.Timestamp = s.now()
		s.data.Measurements = append(s.data.Measurements, cloneMeasurements([]Measurement{m})[0])
		return []Collection{CollectionMeasurements}, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateMeasurement replaces date, weight and circumferences. Owner and
// timestamp stay as they were.
func (s *Store) UpdateMeasurement(id string, m Measurement) error {
	if m.Date != "" && !validDate(m.Date) {
		return ErrInvalidDate
	}
	if m.Weight <= 0 {
		return ErrInvalidWeight
	}
	return s.mutate(func() ([]Collection, error) {
		i := s.measurementIndex(id)
		if i < 0 {
			return []Collection{CollectionMeasurements}, nil
		}
		current := s.data.Measurements[i]
		m.ID = current.ID
		m.ProfileID = current.ProfileID
		m.Timestamp = current.Timestamp
		if m.Date == "" {
			m.Date = current.Date
		}
		s.data.Measurements[i] = cloneMeasurements([]Measurement{m})[0]
		return []Collection{CollectionMeasurements}, nil
	})
}

func (s *Store) DeleteMeasurement(id string) error {
	return s.mutate(func() ([]Collection, error) {
		measurements := s.data.Measurements[:0]
		for _, m := range s.data.Measurements {
			if m.ID != id {
				measurements = append(measurements, m)
			}
		}
		s.data.Measurements = measurements
		return []Collection{CollectionMeasurements}, nil
	})
}

func (s *Store) FindMeasurement(id string) (Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.measurementIndex(id)
	if i < 0 {
		return Measurement{}, ErrNotFound
	}
	return cloneMeasurements(s.data.Measurements[i : i+1])[0], nil
}

// Measurements returns the profile measurements, newest date first.
func (s *Store) Measurements(profileID string) []Measurement {
	s.mu.RLock()
	var measurements []Measurement
	for _, m := range s.data.Measurements {
		if m.ProfileID == profileID {
			measurements = append(measurements, m)
		}
	}
	measurements = cloneMeasurements(measurements)
	s.mu.RUnlock()

	sort.SliceStable(measurements, func(i, j int) bool {
		if measurements[i].Date != measurements[j].Date {
			return measurements[i].Date > measurements[j].Date
		}
		return measurements[i].Timestamp.After(measurements[j].Timestamp)
	})
	return measurements
}
