package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/swipewise/internal/model"
)

func TestStaticRecommender_Recommend(t *testing.T) {
	recommender := &StaticRecommender{
		Entries: []StaticEntry{
			{
				CardID:      "card-base",
				CardName:    "Everywhere Card",
				EarnRateMPD: 1.3,
				BaseRateMPD: 1.3,
			},
			{
				CardID:      "card-dining",
				CardName:    "Dining Card",
				Categories:  []string{"dining"},
				MonthlyCap:  "500.00",
				EarnRateMPD: 4.0,
				BaseRateMPD: 1.2,
			},
		},
	}

	t.Run("matching category ranks by earn rate", func(t *testing.T) {
		recs, err := recommender.Recommend(context.Background(), model.CategoryDining)
		require.NoError(t, err)
		require.Len(t, recs, 2)

		assert.Equal(t, "card-dining", recs[0].CardID)
		assert.True(t, recs[0].IsRecommended)
		require.NotNil(t, recs[0].MonthlyCapAmount)
		assert.Equal(t, "500.00", recs[0].MonthlyCapAmount.StringFixed(2))

		assert.Equal(t, "card-base", recs[1].CardID)
		assert.False(t, recs[1].IsRecommended)
	})

	t.Run("category-less entries match everything", func(t *testing.T) {
		recs, err := recommender.Recommend(context.Background(), model.CategoryGroceries)
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, "card-base", recs[0].CardID)
		assert.True(t, recs[0].IsRecommended)
	})

	t.Run("no entries yields empty result", func(t *testing.T) {
		empty := &StaticRecommender{}
		recs, err := empty.Recommend(context.Background(), model.CategoryDining)
		require.NoError(t, err)
		assert.Empty(t, recs)
	})
}
