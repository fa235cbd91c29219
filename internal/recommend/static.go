package recommend

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/swipewise/internal/model"
)

// StaticEntry is one config-sourced card ranking rule. An empty Categories
// list matches every category.
type StaticEntry struct {
	CardID         string   `mapstructure:"card_id"`
	CardName       string   `mapstructure:"card_name"`
	Bank           string   `mapstructure:"bank"`
	ConditionsNote string   `mapstructure:"conditions_note"`
	MonthlyCap     string   `mapstructure:"monthly_cap"`
	Categories     []string `mapstructure:"categories"`
	EarnRateMPD    float64  `mapstructure:"earn_rate_mpd"`
	BaseRateMPD    float64  `mapstructure:"base_rate_mpd"`
}

// StaticRecommender ranks cards from a fixed rule table, for running the flow
// without a recommendation backend.
type StaticRecommender struct {
	Entries []StaticEntry
}

// Recommend implements service.Recommender. Matching entries are ranked by
// earn rate, best first; the top entry is flagged as the recommendation.
func (r *StaticRecommender) Recommend(_ context.Context, category model.Category) ([]model.Recommendation, error) {
	recs := make([]model.Recommendation, 0, len(r.Entries))
	for _, entry := range r.Entries {
		if !entry.matches(category) {
			continue
		}
		rec := model.Recommendation{
			CardID:         entry.CardID,
			CardName:       entry.CardName,
			Bank:           entry.Bank,
			ConditionsNote: entry.ConditionsNote,
			EarnRateMPD:    entry.EarnRateMPD,
			BaseRateMPD:    entry.BaseRateMPD,
		}
		if entry.MonthlyCap != "" {
			if amount, err := decimal.NewFromString(entry.MonthlyCap); err == nil {
				rec.MonthlyCapAmount = &amount
			}
		}
		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].EarnRateMPD > recs[j].EarnRateMPD
	})
	if len(recs) > 0 {
		recs[0].IsRecommended = true
	}
	return recs, nil
}

func (e StaticEntry) matches(category model.Category) bool {
	if len(e.Categories) == 0 {
		return true
	}
	for _, c := range e.Categories {
		if model.Category(c) == category {
			return true
		}
	}
	return false
}
