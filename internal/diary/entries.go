package diary

import (
	"sort"
)

func (s *Store) entryIndex(id string) int {
	for i := range s.data.Entries {
		if s.data.Entries[i].ID == id {
			return i
		}
	}
	return -1
}

// AddEntry logs an entry for the active profile. An empty date means the
// currently selected one. The referenced product gets its LastUsedAt stamped.
func (s *Store) AddEntry(e MealEntry) (string, error) {
	var id string
	err := s.mutate(func() ([]Collection, error) {
		if s.data.ActiveProfileID == "" {
			return nil, ErrNoActiveProfile
		}
		if e.Date == "" {
			e.Date = s.selection.Date
		}
		if !validDate(e.Date) {
			return nil, ErrInvalidDate
		}
		if !e.Category.IsValid() {
			return nil, ErrInvalidCategory
		}
		if e.Weight <= 0 {
			return nil, ErrInvalidWeight
		}

		now := s.now()
		id = s.newID()
		e.ID = id
		e.ProfileID = s.data.ActiveProfileID
		e.Timestamp = now
		s.data.Entries = append(s.data.Entries, e)

		touched := []Collection{CollectionEntries}
		if pi := s.productIndex(e.ProductID); pi >= 0 {
			s.data.Products[pi].LastUsedAt = now
			touched = append(touched, CollectionProducts)
		}
		return touched, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// AddSetToMeal logs one entry per set item whose product still exists.
func (s *Store) AddSetToMeal(setID, date string, category Category) ([]string, error) {
	var ids []string
	err := s.mutate(func() ([]Collection, error) {
		if s.data.ActiveProfileID == "" {
			return nil, ErrNoActiveProfile
		}
		if date == "" {
			date = s.selection.Date
		}
		if !validDate(date) {
			return nil, ErrInvalidDate
		}
		if !category.IsValid() {
			return nil, ErrInvalidCategory
		}

		si := s.setIndex(setID)
		if si < 0 {
			return []Collection{CollectionEntries}, nil
		}

		now := s.now()
		for _, item := range s.data.Sets[si].Items {
			pi := s.productIndex(item.ProductID)
			if pi < 0 || item.Weight <= 0 {
				continue
			}
			product := &s.data.Products[pi]
			m := product.per100g().scale(item.Weight / 100)
			entry := MealEntry{
				ID:        s.newID(),
				ProfileID: s.data.ActiveProfileID,
				ProductID: product.ID,
				Name:      product.Name,
				Date:      date,
				Category:  category,
				Weight:    item.Weight,
				Calories:  m.Calories,
				Protein:   m.Protein,
				Fat:       m.Fat,
				Carbs:     m.Carbs,
				Timestamp: now,
			}
			s.data.Entries = append(s.data.Entries, entry)
			product.LastUsedAt = now
			ids = append(ids, entry.ID)
		}

		return []Collection{CollectionEntries, CollectionProducts}, nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *Store) RemoveEntry(id string) error {
	return s.mutate(func() ([]Collection, error) {
		entries := s.data.Entries[:0]
		for _, e := range s.data.Entries {
			if e.ID != id {
				entries = append(entries, e)
			}
		}
		s.data.Entries = entries
		return []Collection{CollectionEntries}, nil
	})
}

// UpdateEntry changes the logged weight and rescales the macros linearly from
// their current values by newWeight/oldWeight.
func (s *Store) UpdateEntry(id string, newWeight float64) error {
	if newWeight <= 0 {
		return ErrInvalidWeight
	}
	return s.mutate(func() ([]Collection, error) {
		i := s.entryIndex(id)
		if i < 0 {
			return []Collection{CollectionEntries}, nil
		}

		e := &s.data.Entries[i]
		if e.Weight <= 0 {
			return nil, ErrInvalidWeight
		}
		ratio := newWeight / e.Weight
		m := e.macros().scale(ratio)
		e.Weight = newWeight
		e.Calories = m.Calories
		e.Protein = m.Protein
		e.Fat = m.Fat
		e.Carbs = m.Carbs
		return []Collection{CollectionEntries}, nil
	})
}

func (s *Store) FindEntry(id string) (MealEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.entryIndex(id)
	if i < 0 {
		return MealEntry{}, ErrNotFound
	}
	return s.data.Entries[i], nil
}

// EntriesFor returns the profile entries of one date in logging order.
func (s *Store) EntriesFor(profileID, date string) []MealEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entriesFor(profileID, date)
}

func (s *Store) entriesFor(profileID, date string) []MealEntry {
	entries := make([]MealEntry, 0)
	for _, e := range s.data.Entries {
		if e.ProfileID == profileID && e.Date == date {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries
}
