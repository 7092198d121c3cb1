package config

import (
	"fmt"
	"os"
	"time"

	"github.com/saeid-a/CoachBookingBack/internal/policy"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type policyFile struct {
	LessonRate        *string   `yaml:"lesson_rate"`
	MaxPendingLessons *int      `yaml:"max_pending_lessons"`
	NoticeTiersHours  []float64 `yaml:"notice_tiers_hours"`
}

// LoadBookingPolicy starts from the built-in policy and applies any values
// set in the YAML file at path. An empty path returns the defaults.
func LoadBookingPolicy(path string) (policy.Booking, error) {
	rules := policy.Default()
	if path == "" {
		return rules, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read policy file: %w", err)
	}
	return ParseBookingPolicy(raw)
}

func ParseBookingPolicy(raw []byte) (policy.Booking, error) {
	rules := policy.Default()

	var file policyFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return rules, fmt.Errorf("parse policy file: %w", err)
	}

	if file.LessonRate != nil {
		rate, err := decimal.NewFromString(*file.LessonRate)
		if err != nil || rate.IsNegative() {
			return rules, fmt.Errorf("invalid lesson_rate %q", *file.LessonRate)
		}
		rules.LessonRate = rate
	}
	if file.MaxPendingLessons != nil {
		if *file.MaxPendingLessons <= 0 {
			return rules, fmt.Errorf("max_pending_lessons must be positive")
		}
		rules.MaxPendingLessons = *file.MaxPendingLessons
	}
	if len(file.NoticeTiersHours) > 0 {
		tiers := make([]time.Duration, 0, len(file.NoticeTiersHours))
		for _, hours := range file.NoticeTiersHours {
			if hours < 0 {
				return rules, fmt.Errorf("notice tier %v must not be negative", hours)
			}
			tiers = append(tiers, time.Duration(hours*float64(time.Hour)))
		}
		rules.NoticeTiers = tiers
	}
	return rules, nil
}
