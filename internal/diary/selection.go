package diary

// SelectionMode drives the add-to-meal and set creation flows.
type SelectionMode struct {
	Active        bool     `json:"active"`
	Category      Category `json:"category,omitempty"`
	IsSetCreation bool     `json:"isSetCreation"`
	SetID         string   `json:"setId,omitempty"`
}

// Selection is UI state. Only the active profile id is persisted (as settings).
type Selection struct {
	ActiveProfileID string        `json:"activeProfileId"`
	Date            string        `json:"date"`
	EditingProduct  *Product      `json:"editingProduct,omitempty"`
	EditingSet      *ProductSet   `json:"editingSet,omitempty"`
	Mode            SelectionMode `json:"selectionMode"`
}

func (s *Store) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sel := s.selection
	if sel.EditingProduct != nil {
		p := *sel.EditingProduct
		sel.EditingProduct = &p
	}
	if sel.EditingSet != nil {
		set := cloneSets([]ProductSet{*sel.EditingSet})[0]
		sel.EditingSet = &set
	}
	return sel
}

// SetActiveProfile switches the active profile and marks settings dirty.
// Unknown ids are ignored.
func (s *Store) SetActiveProfile(id string) error {
	return s.mutate(func() ([]Collection, error) {
		if s.profileIndex(id) < 0 {
			return nil, nil
		}
		s.data.ActiveProfileID = id
		s.selection.ActiveProfileID = id
		return []Collection{CollectionSettings}, nil
	})
}

func (s *Store) SetDate(date string) error {
	if !validDate(date) {
		return ErrInvalidDate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Date = date
	return nil
}

func (s *Store) SetEditingProduct(p *Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p != nil {
		cp := *p
		p = &cp
	}
	s.selection.EditingProduct = p
}

func (s *Store) SetEditingSet(set *ProductSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set != nil {
		cp := cloneSets([]ProductSet{*set})[0]
		set = &cp
	}
	s.selection.EditingSet = set
}

func (s *Store) SetSelectionMode(active bool, category Category, isSetCreation bool, setID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !active {
		s.selection.Mode = SelectionMode{}
		return
	}
	s.selection.Mode = SelectionMode{
		Active:        true,
		Category:      category,
		IsSetCreation: isSetCreation,
		SetID:         setID,
	}
}
