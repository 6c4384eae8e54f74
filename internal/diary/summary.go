package diary

import (
	"time"

	"github.com/2beens/macrotrack/internal/targets"
)

type DaySummary struct {
	ProfileID  string              `json:"profileId"`
	Date       string              `json:"date"`
	ByCategory map[Category]Macros `json:"byCategory"`
	Total      Macros              `json:"total"`
	Targets    targets.Targets     `json:"targets"`
	Remaining  Macros              `json:"remaining"`
	EntryCount int                 `json:"entryCount"`
}

type WeekSummary struct {
	ProfileID  string       `json:"profileId"`
	WeekStart  string       `json:"weekStart"`
	WeekEnd    string       `json:"weekEnd"`
	Days       []DaySummary `json:"days"`
	DaysLogged int          `json:"daysLogged"`
	// Average is taken over days that have at least one entry.
	Average Macros `json:"average"`
}

func (s *Store) DaySummary(profileID, date string) (DaySummary, error) {
	if !validDate(date) {
		return DaySummary{}, ErrInvalidDate
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pi := s.profileIndex(profileID)
	if pi < 0 {
		return DaySummary{}, ErrNotFound
	}
	return s.daySummary(s.data.Profiles[pi], date), nil
}

func (s *Store) daySummary(p Profile, date string) DaySummary {
	sum := DaySummary{
		ProfileID:  p.ID,
		Date:       date,
		ByCategory: make(map[Category]Macros, len(Categories)),
		Targets:    p.Targets,
	}
	for _, c := range Categories {
		sum.ByCategory[c] = Macros{}
	}

	for _, e := range s.entriesFor(p.ID, date) {
		sum.ByCategory[e.Category] = sum.ByCategory[e.Category].add(e.macros())
		sum.Total = sum.Total.add(e.macros())
		sum.EntryCount++
	}

	sum.Remaining = Macros{
		Calories: float64(p.Targets.Calories) - sum.Total.Calories,
		Protein:  float64(p.Targets.Protein) - sum.Total.Protein,
		Fat:      float64(p.Targets.Fat) - sum.Total.Fat,
		Carbs:    float64(p.Targets.Carbs) - sum.Total.Carbs,
	}
	return sum
}

// WeekSummary covers Monday to Sunday of the week containing date.
func (s *Store) WeekSummary(profileID, date string) (WeekSummary, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return WeekSummary{}, ErrInvalidDate
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pi := s.profileIndex(profileID)
	if pi < 0 {
		return WeekSummary{}, ErrNotFound
	}
	profile := s.data.Profiles[pi]

	offset := (int(day.Weekday()) + 6) % 7
	monday := day.AddDate(0, 0, -offset)

	week := WeekSummary{
		ProfileID: profileID,
		WeekStart: monday.Format(DateLayout),
		WeekEnd:   monday.AddDate(0, 0, 6).Format(DateLayout),
		Days:      make([]DaySummary, 0, 7),
	}

	var total Macros
	for i := 0; i < 7; i++ {
		d := s.daySummary(profile, monday.AddDate(0, 0, i).Format(DateLayout))
		week.Days = append(week.Days, d)
		if d.EntryCount > 0 {
			week.DaysLogged++
			total = total.add(d.Total)
		}
	}
	if week.DaysLogged > 0 {
		week.Average = total.scale(1 / float64(week.DaysLogged))
	}

	return week, nil
}
