package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/swipewise/internal/cli"
	"github.com/Veraticus/swipewise/internal/flow"
	"github.com/Veraticus/swipewise/internal/location"
	"github.com/Veraticus/swipewise/internal/wallet"
)

func flowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Run the point-of-sale flow",
		Long: `Run the full point-of-sale flow: detect where you are, identify the
merchant, recommend the best card, hand off to the wallet, and log the
spend against your monthly caps.`,
		RunE: runFlow,
	}

	cmd.Flags().String("platform", "", "wallet platform (ios, android)")
	cmd.Flags().Duration("wallet-window", 0, "how long a wallet return counts as payment (default 60s)")
	_ = viper.BindPFlag("wallet.platform", cmd.Flags().Lookup("platform"))
	_ = viper.BindPFlag("flow.wallet_return_window", cmd.Flags().Lookup("wallet-window"))

	return cmd
}

func runFlow(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	merchants, err := initMerchants()
	if err != nil {
		return err
	}
	defer merchants.Close()

	userID := viper.GetString("user.id")
	recommender, err := initRecommender(userID)
	if err != nil {
		return err
	}

	probe := &wallet.StaticProbe{Available: viper.GetBool("wallet.available")}
	bridge := wallet.NewBridge(platformID(), probe)

	dispatcher := initAnalytics(userID)
	defer dispatcher.Close()

	cfg := flow.DefaultConfig()
	cfg.UserID = userID
	if window := viper.GetDuration("flow.wallet_return_window"); window > 0 {
		cfg.WalletReturnWindow = window
	}

	resolver := location.NewResolver(initDevice())

	controller := flow.NewController(
		resolver,
		merchants,
		recommender,
		bridge,
		store,
		dispatcher,
		nil, // no foreground lifecycle on a terminal host
		cfg,
	)

	return cli.NewPrompter(os.Stdin, os.Stdout).Run(ctx, controller)
}
