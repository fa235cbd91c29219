package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/swipewise/internal/merchant"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <tag>...",
		Short: "Classify merchant tags into a spend category",
		Long: `Classify a merchant's raw place tags into a spend category, showing the
category and the confidence of the match. Useful for checking how a
merchant would be bucketed without running the full flow.

Example:
  swipewise classify restaurant cafe food`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			result := merchant.Classify(args)
			cmd.Printf("%s (%s confidence)\n", result.CategoryName, result.Confidence)
		},
	}
}
