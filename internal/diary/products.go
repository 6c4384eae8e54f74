package diary

import (
	"sort"
)

func (s *Store) productIndex(id string) int {
	for i := range s.data.Products {
		if s.data.Products[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) AddProduct(p Product) (string, error) {
	var id string
	err := s.mutate(func() ([]Collection, error) {
		id = s.newID()
		p.ID = id
		p.UpdatedAt = s.now()
		s.data.Products = append(s.data.Products, p)
		return []Collection{CollectionProducts}, nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateProduct replaces the editable fields and stamps UpdatedAt. Past diary
// entries keep their own macro snapshot.
func (s *Store) UpdateProduct(id string, p Product) error {
	return s.mutate(func() ([]Collection, error) {
		i := s.productIndex(id)
		if i < 0 {
			return []Collection{CollectionProducts}, nil
		}
		current := s.data.Products[i]
		p.ID = current.ID
		p.LastUsedAt = current.LastUsedAt
		p.UpdatedAt = s.now()
		s.data.Products[i] = p
		return []Collection{CollectionProducts}, nil
	})
}

// DeleteProduct does not cascade: entries are denormalized copies and sets
// referencing the product skip it when totals are computed.
func (s *Store) DeleteProduct(id string) error {
	return s.mutate(func() ([]Collection, error) {
		products := s.data.Products[:0]
		for _, p := range s.data.Products {
			if p.ID != id {
				products = append(products, p)
			}
		}
		s.data.Products = products
		return []Collection{CollectionProducts}, nil
	})
}

// Products returns all products, most recently used or edited first.
func (s *Store) Products() []Product {
	s.mu.RLock()
	products := append([]Product{}, s.data.Products...)
	s.mu.RUnlock()

	sort.SliceStable(products, func(i, j int) bool {
		return products[i].lastActivity().After(products[j].lastActivity())
	})
	return products
}

func (s *Store) FindProduct(id string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.productIndex(id)
	if i < 0 {
		return Product{}, ErrNotFound
	}
	return s.data.Products[i], nil
}
