package merchant

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/swipewise/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		rawTypes       []string
		wantCategory   model.Category
		wantConfidence model.Confidence
	}{
		{
			name:           "empty input falls back to general",
			rawTypes:       []string{},
			wantCategory:   model.CategoryGeneral,
			wantConfidence: model.ConfidenceLow,
		},
		{
			name:           "nil input falls back to general",
			rawTypes:       nil,
			wantCategory:   model.CategoryGeneral,
			wantConfidence: model.ConfidenceLow,
		},
		{
			name:           "three dining tags grade high",
			rawTypes:       []string{"restaurant", "food", "bar"},
			wantCategory:   model.CategoryDining,
			wantConfidence: model.ConfidenceHigh,
		},
		{
			name:           "single dining tag grades medium",
			rawTypes:       []string{"cafe", "point_of_interest"},
			wantCategory:   model.CategoryDining,
			wantConfidence: model.ConfidenceMedium,
		},
		{
			name:           "no known tags grade low general",
			rawTypes:       []string{"political", "locality"},
			wantCategory:   model.CategoryGeneral,
			wantConfidence: model.ConfidenceLow,
		},
		{
			name:           "majority wins over earlier single match",
			rawTypes:       []string{"cafe", "supermarket", "convenience_store"},
			wantCategory:   model.CategoryGroceries,
			wantConfidence: model.ConfidenceHigh,
		},
		{
			name:           "tie breaks to first matched in scan order",
			rawTypes:       []string{"gas_station", "supermarket"},
			wantCategory:   model.CategoryTransport,
			wantConfidence: model.ConfidenceMedium,
		},
		{
			name:           "unknown tags interleaved do not shift the tie break",
			rawTypes:       []string{"point_of_interest", "airport", "establishment", "restaurant"},
			wantCategory:   model.CategoryTravel,
			wantConfidence: model.ConfidenceMedium,
		},
		{
			name:           "two transport tags grade high",
			rawTypes:       []string{"transit_station", "subway_station"},
			wantCategory:   model.CategoryTransport,
			wantConfidence: model.ConfidenceHigh,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.rawTypes)
			assert.Equal(t, tt.wantCategory, result.CategoryID)
			assert.Equal(t, tt.wantConfidence, result.Confidence)
			assert.Equal(t, tt.wantCategory.DisplayName(), result.CategoryName)
		})
	}
}

func TestClassify_MatchCountOrderIndependent(t *testing.T) {
	// The matched count, and therefore the confidence, must not depend on
	// where in the sequence the matching tags sit.
	front := Classify([]string{"restaurant", "cafe", "locality", "political"})
	back := Classify([]string{"locality", "political", "restaurant", "cafe"})

	assert.Equal(t, front.Confidence, back.Confidence)
	assert.Equal(t, front.CategoryID, back.CategoryID)
}
