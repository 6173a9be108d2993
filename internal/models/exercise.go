package models

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"gorm.io/datatypes"
)

// Exercise represents an exercise imported from ExerciseDB
type Exercise struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	ExternalID string `gorm:"column:external_id;uniqueIndex;not null" json:"external_id"` // ExerciseDB exerciseId

	Name     string `gorm:"not null" json:"name"`
	MediaURL string `gorm:"column:media_url;not null" json:"media_url"` // Animated GIF

	TargetMuscles    datatypes.JSONSlice[string] `gorm:"column:target_muscles;type:json;not null" json:"target_muscles"`
	BodyParts        datatypes.JSONSlice[string] `gorm:"column:body_parts;type:json;not null" json:"body_parts"`
	Equipment        datatypes.JSONSlice[string] `gorm:"column:equipment;type:json;not null" json:"equipment"`
	SecondaryMuscles datatypes.JSONSlice[string] `gorm:"column:secondary_muscles;type:json;not null" json:"secondary_muscles"`
	Instructions     datatypes.JSONSlice[string] `gorm:"column:instructions;type:json;not null" json:"instructions"` // Raw steps, may carry a "Step:N" prefix

	// Derived from Equipment, never supplied upstream
	Category Category `gorm:"not null;default:1" json:"category"`

	// Metadata
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table created by the migrations
func (Exercise) TableName() string {
	return "exercises"
}

var stepPrefix = regexp.MustCompile(`^Step:\d+\s*`)

// FormattedInstructions returns the instructions without their "Step:N" prefixes
func (e *Exercise) FormattedInstructions() []string {
	formatted := make([]string, 0, len(e.Instructions))
	for _, instruction := range e.Instructions {
		formatted = append(formatted, stepPrefix.ReplaceAllString(instruction, ""))
	}
	return formatted
}

var (
	cardioEquipment = map[string]struct{}{
		"elliptical machine":   {},
		"treadmill":            {},
		"stationary bike":      {},
		"stepmill machine":     {},
		"upper body ergometer": {},
	}

	strengthEquipment = map[string]struct{}{
		"barbell":          {},
		"dumbbell":         {},
		"kettlebell":       {},
		"leverage machine": {},
		"smith machine":    {},
		"cable":            {},
		"band":             {},
		"weighted":         {},
		"ez barbell":       {},
		"olympic barbell":  {},
		"rope":             {},
	}
)

// DetermineCategory classifies an exercise from its equipment list.
// The first item matching either set decides, cardio is checked before strength for
// the same item, and no match at all means bodyweight.
func DetermineCategory(equipment []string) Category {
	folder := cases.Fold()
	for _, item := range equipment {
		key := folder.String(strings.TrimSpace(item))
		if _, ok := cardioEquipment[key]; ok {
			return CategoryCardio
		}
		if _, ok := strengthEquipment[key]; ok {
			return CategoryStrength
		}
	}
	return CategoryBodyweight
}
