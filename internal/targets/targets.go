// Package targets derives daily calorie and macro targets from body stats.
package targets

import "math"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type Goal string

const (
	GoalCut      Goal = "cut"
	GoalMaintain Goal = "maintain"
	GoalBulk     Goal = "bulk"
)

func (g Goal) IsValid() bool {
	switch g {
	case GoalCut, GoalMaintain, GoalBulk:
		return true
	default:
		return false
	}
}

// common activity multipliers
const (
	ActivitySedentary  = 1.2
	ActivityLight      = 1.375
	ActivityModerate   = 1.55
	ActivityActive     = 1.725
	ActivityVeryActive = 1.9
)

const (
	cutDeficit  = 500
	bulkSurplus = 300

	proteinPerKg = 2.0
	fatPerKg     = 0.8

	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

type Stats struct {
	Age           int      `json:"age"`
	Weight        float64  `json:"weight"`
	Height        float64  `json:"height"`
	Gender        Gender   `json:"gender"`
	ActivityLevel float64  `json:"activityLevel"`
	Goal          Goal     `json:"goal"`
	BodyFat       *float64 `json:"bodyFat,omitempty"`
}

type Targets struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Fat      int `json:"fat"`
	Carbs    int `json:"carbs"`
}

// BMR uses Katch-McArdle when a positive body fat percentage is known,
// Mifflin-St Jeor otherwise.
func BMR(s Stats) float64 {
	if s.BodyFat != nil && *s.BodyFat > 0 {
		leanMass := s.Weight * (1 - *s.BodyFat/100)
		return 370 + 21.6*leanMass
	}

	bmr := 10*s.Weight + 6.25*s.Height - 5*float64(s.Age)
	if s.Gender == GenderMale {
		return bmr + 5
	}
	return bmr - 161
}

// TDEE is the BMR scaled by activity and shifted by the goal.
func TDEE(s Stats) float64 {
	tdee := BMR(s) * s.ActivityLevel
	switch s.Goal {
	case GoalCut:
		tdee -= cutDeficit
	case GoalBulk:
		tdee += bulkSurplus
	}
	return tdee
}

// Calculate is pure: identical stats always give identical targets.
// Carbs get whatever calories protein and fat leave over, never below zero.
func Calculate(s Stats) Targets {
	calories := int(math.Round(TDEE(s)))
	protein := int(math.Round(s.Weight * proteinPerKg))
	fat := int(math.Round(s.Weight * fatPerKg))

	remaining := calories - protein*kcalPerGramProtein - fat*kcalPerGramFat
	carbs := int(math.Round(float64(remaining) / kcalPerGramCarbs))
	if carbs < 0 {
		carbs = 0
	}

	return Targets{
		Calories: calories,
		Protein:  protein,
		Fat:      fat,
		Carbs:    carbs,
	}
}
