package models

// Category classifies an exercise by the equipment it uses
type Category int

const (
	CategoryStrength   Category = 1
	CategoryBodyweight Category = 2
	CategoryCardio     Category = 3
)

// String returns the display name of the category
func (c Category) String() string {
	switch c {
	case CategoryStrength:
		return "Strength Training"
	case CategoryBodyweight:
		return "Bodyweight"
	case CategoryCardio:
		return "Cardio"
	default:
		return "Unknown"
	}
}

// ParseCategory maps a query value ("strength", "bodyweight", "cardio" or the numeric
// constant) to a Category
func ParseCategory(value string) (Category, bool) {
	switch value {
	case "1", "strength":
		return CategoryStrength, true
	case "2", "bodyweight":
		return CategoryBodyweight, true
	case "3", "cardio":
		return CategoryCardio, true
	default:
		return 0, false
	}
}

// CursorKey is the cache key holding the last fully imported category
const CursorKey = "last_imported_muscle"

// MuscleCategories is the ordered list of category keys the upstream catalog is partitioned by
var MuscleCategories = []string{
	"abductors",
	"abs",
	"adductors",
	"biceps",
	"calves",
	"cardiovascular system",
	"delts",
	"forearms",
	"glutes",
	"hamstrings",
	"lats",
	"levator scapulae",
	"pectorals",
	"quads",
	"serratus anterior",
	"spine",
	"traps",
	"triceps",
	"upper back",
}
