package model

// Category is a spending category a merchant can be classified into.
type Category string

// Spending category constants.
const (
	CategoryDining    Category = "dining"
	CategoryTransport Category = "transport"
	CategoryTravel    Category = "travel"
	CategoryGroceries Category = "groceries"
	CategoryBills     Category = "bills"
	CategoryGeneral   Category = "general"
)

// DisplayName returns the user-facing name for the category.
func (c Category) DisplayName() string {
	switch c {
	case CategoryDining:
		return "Dining"
	case CategoryTransport:
		return "Transport"
	case CategoryTravel:
		return "Travel"
	case CategoryGroceries:
		return "Groceries"
	case CategoryBills:
		return "Bills & Utilities"
	case CategoryGeneral:
		return "General"
	default:
		return string(c)
	}
}

// AllCategories returns every category a user can override to.
func AllCategories() []Category {
	return []Category{
		CategoryDining,
		CategoryTransport,
		CategoryTravel,
		CategoryGroceries,
		CategoryBills,
		CategoryGeneral,
	}
}

// Confidence indicates how certain a merchant classification is.
type Confidence string

// Classification confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ClassificationResult is the outcome of classifying a merchant's raw
// geo-type tags. It is a pure function of the tags and carries no state.
type ClassificationResult struct {
	CategoryID   Category
	CategoryName string
	Confidence   Confidence
}

// MerchantCandidate is a raw place record from the nearby-places lookup.
type MerchantCandidate struct {
	Name     string
	PlaceID  string
	Address  string
	RawTypes []string // geo-type tags, in the order the lookup returned them
}

// Merchant pairs a candidate with its classification.
type Merchant struct {
	Candidate      MerchantCandidate
	Classification ClassificationResult
}
