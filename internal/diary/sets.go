package diary

func (s *Store) setIndex(id string) int {
	for i := range s.data.Sets {
		if s.data.Sets[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) AddSet(set ProductSet) (string, error) {
	var id string
	err := s.mutate(func() ([]Collection, error) {
		id = s.newID()
		now := s.now()
		set.ID = id
		set.CreatedAt = now
		set.UpdatedAt = now
		if set.Items == nil {
			set.Items = []SetItem{}
		}
		set.Items = append([]SetItem{}, set.Items...)
		s.data.Sets = append(s.data.Sets, set)
		return []Collection{CollectionSets}, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateSet(id string, set ProductSet) error {
	return s.mutate(func() ([]Collection, error) {
		i := s.setIndex(id)
		if i < 0 {
			return []Collection{CollectionSets}, nil
		}
		current := s.data.Sets[i]
		set.ID = current.ID
		set.CreatedAt = current.CreatedAt
		set.UpdatedAt = s.now()
		if set.Items == nil {
			set.Items = []SetItem{}
		}
		set.Items = append([]SetItem{}, set.Items...)
		s.data.Sets[i] = set
		return []Collection{CollectionSets}, nil
	})
}

func (s *Store) DeleteSet(id string) error {
	return s.mutate(func() ([]Collection, error) {
		sets := s.data.Sets[:0]
		for _, set := range s.data.Sets {
			if set.ID != id {
				sets = append(sets, set)
			}
		}
		s.data.Sets = sets
		return []Collection{CollectionSets}, nil
	})
}

func (s *Store) Sets() []ProductSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSets(s.data.Sets)
}

func (s *Store) FindSet(id string) (ProductSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.setIndex(id)
	if i < 0 {
		return ProductSet{}, ErrNotFound
	}
	return cloneSets(s.data.Sets[i : i+1])[0], nil
}

// SetTotals sums the set items scaled by weight/100. Items pointing at deleted
// products are skipped.
func (s *Store) SetTotals(id string) (Macros, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.setIndex(id)
	if i < 0 {
		return Macros{}, ErrNotFound
	}
	return s.setTotals(s.data.Sets[i]), nil
}

func (s *Store) setTotals(set ProductSet) Macros {
	var total Macros
	for _, item := range set.Items {
		pi := s.productIndex(item.ProductID)
		if pi < 0 {
			continue
		}
		total = total.add(s.data.Products[pi].per100g().scale(item.Weight / 100))
	}
	return total
}
