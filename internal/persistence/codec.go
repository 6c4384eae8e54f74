package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/2beens/macrotrack/internal/diary"
)

// Row is one stored record. ProfileID and Date are only set for the owned
// collections (entries and measurements), where they are indexed columns.
type Row struct {
	ID        string
	ProfileID string
	Date      string
	Data      []byte
}

var tables = map[diary.Collection]string{
	diary.CollectionProfiles:     "profiles",
	diary.CollectionProducts:     "products",
	diary.CollectionSets:         "product_sets",
	diary.CollectionEntries:      "diary_entries",
	diary.CollectionMeasurements: "measurements",
	diary.CollectionSettings:     "settings",
}

// Table maps a collection to its table name.
func Table(c diary.Collection) string {
	return tables[c]
}

// Owned reports whether rows of the collection carry profile_id and date columns.
func Owned(c diary.Collection) bool {
	return c == diary.CollectionEntries || c == diary.CollectionMeasurements
}

// EncodeRows turns one collection of the snapshot into rows, in slice order.
// Settings are not row based and yield no rows.
func EncodeRows(s *diary.Snapshot, c diary.Collection) ([]Row, error) {
	var rows []Row
	add := func(id, profileID, date string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", c, id, err)
		}
		rows = append(rows, Row{ID: id, ProfileID: profileID, Date: date, Data: data})
		return nil
	}

	switch c {
	case diary.CollectionProfiles:
		for _, p := range s.Profiles {
			if err := add(p.ID, "", "", p); err != nil {
				return nil, err
			}
		}
	case diary.CollectionProducts:
		for _, p := range s.Products {
			if err := add(p.ID, "", "", p); err != nil {
				return nil, err
			}
		}
	case diary.CollectionSets:
		for _, set := range s.Sets {
			if err := add(set.ID, "", "", set); err != nil {
				return nil, err
			}
		}
	case diary.CollectionEntries:
		for _, e := range s.Entries {
			if err := add(e.ID, e.ProfileID, e.Date, e); err != nil {
				return nil, err
			}
		}
	case diary.CollectionMeasurements:
		for _, m := range s.Measurements {
			if err := add(m.ID, m.ProfileID, m.Date, m); err != nil {
				return nil, err
			}
		}
	case diary.CollectionSettings:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown collection %q", c)
	}

	return rows, nil
}

// DecodeInto unmarshals one stored blob and appends it to the matching slice.
func DecodeInto(s *diary.Snapshot, c diary.Collection, data []byte) error {
	var err error
	switch c {
	case diary.CollectionProfiles:
		var p diary.Profile
		if err = json.Unmarshal(data, &p); err == nil {
			s.Profiles = append(s.Profiles, p)
		}
	case diary.CollectionProducts:
		var p diary.Product
		if err = json.Unmarshal(data, &p); err == nil {
			s.Products = append(s.Products, p)
		}
	case diary.CollectionSets:
		var set diary.ProductSet
		if err = json.Unmarshal(data, &set); err == nil {
			if set.Items == nil {
				set.Items = []diary.SetItem{}
			}
			s.Sets = append(s.Sets, set)
		}
	case diary.CollectionEntries:
		var e diary.MealEntry
		if err = json.Unmarshal(data, &e); err == nil {
			s.Entries = append(s.Entries, e)
		}
	case diary.CollectionMeasurements:
		var m diary.Measurement
		if err = json.Unmarshal(data, &m); err == nil {
			s.Measurements = append(s.Measurements, m)
		}
	default:
		return fmt.Errorf("unknown collection %q", c)
	}
	if err != nil {
		return fmt.Errorf("unmarshal %s: %w", c, err)
	}
	return nil
}

// EmptySnapshot has non-nil slices for every collection.
func EmptySnapshot() *diary.Snapshot {
	return &diary.Snapshot{
		Profiles:     []diary.Profile{},
		Products:     []diary.Product{},
		Sets:         []diary.ProductSet{},
		Entries:      []diary.MealEntry{},
		Measurements: []diary.Measurement{},
	}
}

// RowCollections are the collections stored as id/data rows.
var RowCollections = []diary.Collection{
	diary.CollectionProfiles,
	diary.CollectionProducts,
	diary.CollectionSets,
	diary.CollectionEntries,
	diary.CollectionMeasurements,
}
