package history

// Category grades how often a song has been played.
type Category string

const (
	CategoryNew        Category = "NEW"
	CategoryOccasional Category = "OCCASIONAL"
	CategoryRegular    Category = "REGULAR"
	CategoryFavorite   Category = "FAVORITE"
)

// Categorize maps a play count onto its listening category.
func Categorize(playCount int) Category {
	switch {
	case playCount > 10:
		return CategoryFavorite
	case playCount > 5:
		return CategoryRegular
	case playCount > 1:
		return CategoryOccasional
	default:
		return CategoryNew
	}
}
