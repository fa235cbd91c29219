package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/swipewise/internal/caps"
	"github.com/Veraticus/swipewise/internal/cli"
	"github.com/Veraticus/swipewise/internal/model"
)

func capsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caps",
		Short: "Show remaining monthly caps for your cards",
		Long: `Show how much of each card's monthly bonus cap is left this month,
per spend category, computed from the logged transactions.`,
		RunE: runCaps,
	}

	cmd.Flags().String("card", "", "limit to a single card ID")
	cmd.Flags().String("month", "", "month to report on (YYYY-MM, default current)")

	return cmd
}

func runCaps(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	month := time.Now()
	if monthFlag, _ := cmd.Flags().GetString("month"); monthFlag != "" {
		month, err = time.Parse("2006-01", monthFlag)
		if err != nil {
			return fmt.Errorf("invalid month %q, expected YYYY-MM: %w", monthFlag, err)
		}
	}

	cards, err := store.GetCards(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cards: %w", err)
	}
	if cardFlag, _ := cmd.Flags().GetString("card"); cardFlag != "" {
		filtered := cards[:0]
		for _, card := range cards {
			if card.ID == cardFlag {
				filtered = append(filtered, card)
			}
		}
		cards = filtered
	}
	if len(cards) == 0 {
		cmd.Println("No cards found. Log a transaction first, or check --card.")
		return nil
	}

	userID := viper.GetString("user.id")
	for _, card := range cards {
		rows, err := store.GetCapRows(ctx, card.ID)
		if err != nil {
			return fmt.Errorf("failed to load caps for %s: %w", card.ID, err)
		}
		txns, err := store.GetMonthTransactions(ctx, userID, card.ID, month)
		if err != nil {
			return fmt.Errorf("failed to load transactions for %s: %w", card.ID, err)
		}

		cmd.Println(cli.TitleStyle.Render(fmt.Sprintf("%s (%s)", card.Name, card.Bank)))
		if len(rows) == 0 {
			cmd.Println(cli.SubtleStyle.Render("  no caps configured"))
			continue
		}

		for _, row := range rows {
			category := model.CategoryGeneral
			label := "all categories"
			if row.CategoryID != nil {
				category = *row.CategoryID
				label = category.DisplayName()
			}
			state := caps.Remaining(rows, txns, card.ID, category, month)
			if !state.Capped() {
				continue
			}
			cmd.Printf("  %-14s cap %s, remaining %s\n",
				label, state.CapAmount.StringFixed(2), state.RemainingCap.StringFixed(2))
		}
	}

	return nil
}
