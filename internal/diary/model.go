package diary

import (
	"time"

	"github.com/2beens/macrotrack/internal/targets"
)

const DateLayout = "2006-01-02"

type Category string

const (
	CategoryBreakfast Category = "breakfast"
	CategoryLunch     Category = "lunch"
	CategoryDinner    Category = "dinner"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryBreakfast, CategoryLunch, CategoryDinner:
		return true
	default:
		return false
	}
}

// Categories in display order.
var Categories = []Category{CategoryBreakfast, CategoryLunch, CategoryDinner}

type Profile struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Icon    string          `json:"icon,omitempty"`
	Color   string          `json:"color,omitempty"`
	Stats   targets.Stats   `json:"stats"`
	Targets targets.Targets `json:"targets"`
}

// ProfilePatch holds the fields of a profile to be shallow-merged.
// Nil fields are left untouched.
type ProfilePatch struct {
	Name          *string         `json:"name,omitempty"`
	Icon          *string         `json:"icon,omitempty"`
	Color         *string         `json:"color,omitempty"`
	Age           *int            `json:"age,omitempty"`
	Weight        *float64        `json:"weight,omitempty"`
	Height        *float64        `json:"height,omitempty"`
	Gender        *targets.Gender `json:"gender,omitempty"`
	ActivityLevel *float64        `json:"activityLevel,omitempty"`
	Goal          *targets.Goal   `json:"goal,omitempty"`
	BodyFat       *float64        `json:"bodyFat,omitempty"`
}

func (p ProfilePatch) touchesStats() bool {
	return p.Age != nil || p.Weight != nil || p.Height != nil || p.Gender != nil ||
		p.ActivityLevel != nil || p.Goal != nil || p.BodyFat != nil
}

// Product is a reusable food definition, macros are per 100g.
type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Brand      string    `json:"brand,omitempty"`
	Calories   float64   `json:"calories"`
	Protein    float64   `json:"protein"`
	Fat        float64   `json:"fat"`
	Carbs      float64   `json:"carbs"`
	Scanned    bool      `json:"scanned,omitempty"`
	Icon       string    `json:"icon,omitempty"`
	Color      string    `json:"color,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
	LastUsedAt time.Time `json:"lastUsedAt"`
}

func (p Product) lastActivity() time.Time {
	if p.LastUsedAt.After(p.UpdatedAt) {
		return p.LastUsedAt
	}
	return p.UpdatedAt
}

type SetItem struct {
	ProductID string  `json:"productId"`
	Weight    float64 `json:"weight"`
}

// ProductSet is a named meal template.
type ProductSet struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Items     []SetItem `json:"items"`
	Icon      string    `json:"icon,omitempty"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MealEntry is a denormalized snapshot of a logged product, macros are absolute
// for the logged weight.
type MealEntry struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profileId"`
	ProductID string    `json:"productId,omitempty"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	Category  Category  `json:"category"`
	Weight    float64   `json:"weight"`
	Calories  float64   `json:"calories"`
	Protein   float64   `json:"protein"`
	Fat       float64   `json:"fat"`
	Carbs     float64   `json:"carbs"`
	Timestamp time.Time `json:"timestamp"`
}

type Measurement struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profileId"`
	Date      string    `json:"date"`
	Weight    float64   `json:"weight"`
	Chest     *float64  `json:"chest,omitempty"`
	Biceps    *float64  `json:"biceps,omitempty"`
	Waist     *float64  `json:"waist,omitempty"`
	Thigh     *float64  `json:"thigh,omitempty"`
	Calf      *float64  `json:"calf,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Macros is a plain calories/protein/fat/carbs tuple.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

func (m Macros) add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Fat:      m.Fat + o.Fat,
		Carbs:    m.Carbs + o.Carbs,
	}
}

func (m Macros) scale(factor float64) Macros {
	return Macros{
		Calories: m.Calories * factor,
		Protein:  m.Protein * factor,
		Fat:      m.Fat * factor,
		Carbs:    m.Carbs * factor,
	}
}

func (p Product) per100g() Macros {
	return Macros{Calories: p.Calories, Protein: p.Protein, Fat: p.Fat, Carbs: p.Carbs}
}

func (e MealEntry) macros() Macros {
	return Macros{Calories: e.Calories, Protein: e.Protein, Fat: e.Fat, Carbs: e.Carbs}
}

// Snapshot holds every persisted collection.
type Snapshot struct {
	Profiles        []Profile     `json:"profiles"`
	Products        []Product     `json:"products"`
	Sets            []ProductSet  `json:"sets"`
	Entries         []MealEntry   `json:"entries"`
	Measurements    []Measurement `json:"measurements"`
	ActiveProfileID string        `json:"activeProfileId"`
}

// IsEmpty reports whether the backing store had nothing in it.
func (s *Snapshot) IsEmpty() bool {
	return len(s.Profiles) == 0 && len(s.Products) == 0 && len(s.Sets) == 0 &&
		len(s.Entries) == 0 && len(s.Measurements) == 0 && s.ActiveProfileID == ""
}

const DefaultProfileID = "default"

// DefaultSnapshot is used when the backing store is empty.
func DefaultSnapshot() *Snapshot {
	stats := targets.Stats{
		Age:           30,
		Weight:        75,
		Height:        178,
		Gender:        targets.GenderMale,
		ActivityLevel: targets.ActivityLight,
		Goal:          targets.GoalMaintain,
	}
	return &Snapshot{
		Profiles: []Profile{{
			ID:      DefaultProfileID,
			Name:    "Me",
			Icon:    "user",
			Color:   "#4f46e5",
			Stats:   stats,
			Targets: targets.Calculate(stats),
		}},
		Products:        []Product{},
		Sets:            []ProductSet{},
		Entries:         []MealEntry{},
		Measurements:    []Measurement{},
		ActiveProfileID: DefaultProfileID,
	}
}

func (s *Snapshot) clone() *Snapshot {
	c := &Snapshot{
		Profiles:        cloneProfiles(s.Profiles),
		Products:        append([]Product{}, s.Products...),
		Sets:            cloneSets(s.Sets),
		Entries:         append([]MealEntry{}, s.Entries...),
		Measurements:    cloneMeasurements(s.Measurements),
		ActiveProfileID: s.ActiveProfileID,
	}
	return c
}

func cloneProfiles(in []Profile) []Profile {
	out := make([]Profile, len(in))
	for i, p := range in {
		if p.Stats.BodyFat != nil {
			bf := *p.Stats.BodyFat
			p.Stats.BodyFat = &bf
		}
		out[i] = p
	}
	return out
}

func cloneSets(in []ProductSet) []ProductSet {
	out := make([]ProductSet, len(in))
	for i, s := range in {
		s.Items = append([]SetItem{}, s.Items...)
		out[i] = s
	}
	return out
}

func cloneMeasurements(in []Measurement) []Measurement {
	out := make([]Measurement, len(in))
	for i, m := range in {
		m.Chest = cloneFloat(m.Chest)
		m.Biceps = cloneFloat(m.Biceps)
		m.Waist = cloneFloat(m.Waist)
		m.Thigh = cloneFloat(m.Thigh)
		m.Calf = cloneFloat(m.Calf)
		out[i] = m
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
