package main

import (
	"encoding/json"
	"fmt"

	"github.com/2beens/macrotrack/internal/targets"

	"github.com/spf13/cobra"
)

type targetsOptions struct {
	age      int
	weight   float64
	height   float64
	gender   string
	activity float64
	goal     string
	bodyFat  float64
	json     bool
}

type targetsOutput struct {
	BMR     float64         `json:"bmr"`
	TDEE    float64         `json:"tdee"`
	Targets targets.Targets `json:"targets"`
}

func newTargetsCmd() *cobra.Command {
	opts := &targetsOptions{}
	cmd := &cobra.Command{
		Use:   "targets",
		Short: "Compute BMR, TDEE and daily macro targets from body stats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := opts.stats()
			if err != nil {
				return err
			}

			out := targetsOutput{
				BMR:     targets.BMR(stats),
				TDEE:    targets.TDEE(stats),
				Targets: targets.Calculate(stats),
			}
			if opts.json {
				b, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal targets json: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "BMR: %.0f kcal\n", out.BMR)
			fmt.Fprintf(w, "TDEE: %.0f kcal\n", out.TDEE)
			fmt.Fprintf(w, "Calories: %d kcal\n", out.Targets.Calories)
			fmt.Fprintf(w, "Protein: %dg\nFat: %dg\nCarbs: %dg\n", out.Targets.Protein, out.Targets.Fat, out.Targets.Carbs)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.age, "age", 0, "age in years")
	cmd.Flags().Float64Var(&opts.weight, "weight", 0, "body weight in kg")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "height in cm")
	cmd.Flags().StringVar(&opts.gender, "gender", string(targets.GenderMale), "male or female")
	cmd.Flags().Float64Var(&opts.activity, "activity", targets.ActivityLight, "activity multiplier, 1.2 (sedentary) to 1.9 (very active)")
	cmd.Flags().StringVar(&opts.goal, "goal", string(targets.GoalMaintain), "cut, maintain or bulk")
	cmd.Flags().Float64Var(&opts.bodyFat, "bodyfat", 0, "body fat percentage, switches to Katch-McArdle when set")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("age")
	_ = cmd.MarkFlagRequired("weight")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}

func (o *targetsOptions) stats() (targets.Stats, error) {
	switch {
	case o.age <= 0:
		return targets.Stats{}, fmt.Errorf("age must be > 0")
	case o.weight <= 0:
		return targets.Stats{}, fmt.Errorf("weight must be > 0")
	case o.height <= 0:
		return targets.Stats{}, fmt.Errorf("height must be > 0")
	case o.activity <= 0:
		return targets.Stats{}, fmt.Errorf("activity must be > 0")
	case o.bodyFat < 0 || o.bodyFat >= 100:
		return targets.Stats{}, fmt.Errorf("bodyfat must be in [0, 100)")
	}

	gender := targets.Gender(o.gender)
	if gender != targets.GenderMale && gender != targets.GenderFemale {
		return targets.Stats{}, fmt.Errorf("invalid gender %q", o.gender)
	}
	goal := targets.Goal(o.goal)
	if !goal.IsValid() {
		return targets.Stats{}, fmt.Errorf("invalid goal %q", o.goal)
	}

	stats := targets.Stats{
		Age:           o.age,
		Weight:        o.weight,
		Height:        o.height,
		Gender:        gender,
		ActivityLevel: o.activity,
		Goal:          goal,
	}
	if o.bodyFat > 0 {
		bodyFat := o.bodyFat
		stats.BodyFat = &bodyFat
	}
	return stats, nil
}
