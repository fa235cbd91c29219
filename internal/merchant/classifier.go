// Package merchant identifies nearby merchants and classifies them into
// spending categories.
package merchant

import "github.com/Veraticus/swipewise/internal/model"

// tagCategories maps known geo-type tags to spending categories. Tags absent
// from this table carry no classification signal.
var tagCategories = map[string]model.Category{
	// Dining
	"restaurant":    model.CategoryDining,
	"cafe":          model.CategoryDining,
	"food":          model.CategoryDining,
	"bar":           model.CategoryDining,
	"bakery":        model.CategoryDining,
	"meal_takeaway": model.CategoryDining,
	"meal_delivery": model.CategoryDining,

	// Transport
	"transit_station": model.CategoryTransport,
	"subway_station":  model.CategoryTransport,
	"train_station":   model.CategoryTransport,
	"bus_station":     model.CategoryTransport,
	"gas_station":     model.CategoryTransport,
	"taxi_stand":      model.CategoryTransport,
	"parking":         model.CategoryTransport,

	// Travel
	"airport":       model.CategoryTravel,
	"lodging":       model.CategoryTravel,
	"travel_agency": model.CategoryTravel,

	// Groceries
	"supermarket":            model.CategoryGroceries,
	"grocery_or_supermarket": model.CategoryGroceries,
	"convenience_store":      model.CategoryGroceries,

	// Bills
	"electrician":          model.CategoryBills,
	"plumber":              model.CategoryBills,
	"local_government_office": model.CategoryBills,
}

// Classify maps a merchant's raw geo-type tags to a spending category with a
// confidence grade. The winning category is the one with the most matching
// tags; ties go to the category matched first in scan order. Two or more
// matches grade high, one grades medium, and zero falls back to general/low.
func Classify(rawTypes []string) model.ClassificationResult {
	counts := make(map[model.Category]int)
	var order []model.Category

	for _, tag := range rawTypes {
		category, ok := tagCategories[tag]
		if !ok {
			continue
		}
		if counts[category] == 0 {
			order = append(order, category)
		}
		counts[category]++
	}

	if len(order) == 0 {
		return model.ClassificationResult{
			CategoryID:   model.CategoryGeneral,
			CategoryName: model.CategoryGeneral.DisplayName(),
			Confidence:   model.ConfidenceLow,
		}
	}

	// Strict greater-than keeps the first-matched category on ties.
	winner := order[0]
	for _, category := range order[1:] {
		if counts[category] > counts[winner] {
			winner = category
		}
	}

	confidence := model.ConfidenceMedium
	if counts[winner] >= 2 {
		confidence = model.ConfidenceHigh
	}

	return model.ClassificationResult{
		CategoryID:   winner,
		CategoryName: winner.DisplayName(),
		Confidence:   confidence,
	}
}
