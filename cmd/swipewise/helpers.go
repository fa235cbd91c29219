package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/swipewise/internal/analytics"
	"github.com/Veraticus/swipewise/internal/location"
	"github.com/Veraticus/swipewise/internal/merchant"
	"github.com/Veraticus/swipewise/internal/model"
	"github.com/Veraticus/swipewise/internal/places"
	"github.com/Veraticus/swipewise/internal/recommend"
	"github.com/Veraticus/swipewise/internal/service"
	"github.com/Veraticus/swipewise/internal/storage"
)

// expandPath expands a leading tilde and environment variables.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// initStorage opens the database and brings the schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "~/.local/share/swipewise/swipewise.db"
	}
	dbPath = expandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initDevice builds the device locator. With no positioning stack on desktop
// hosts, a simulated device is driven by config.
func initDevice() service.DeviceLocator {
	return &location.SimulatedDevice{
		Latitude:  viper.GetFloat64("location.latitude"),
		Longitude: viper.GetFloat64("location.longitude"),
		Accuracy:  accuracyOrDefault(viper.GetFloat64("location.accuracy")),
		FixDelay:  viper.GetDuration("location.fix_delay"),
	}
}

func accuracyOrDefault(accuracy float64) float64 {
	if accuracy == 0 {
		return 15
	}
	return accuracy
}

// initSearcher builds the nearby-places lookup: the HTTP client when an
// endpoint is configured, otherwise canned candidates from config.
func initSearcher() (service.PlacesSearcher, error) {
	if baseURL := viper.GetString("places.base_url"); baseURL != "" {
		return places.NewClient(baseURL, viper.GetString("places.api_key"))
	}

	var candidates []model.MerchantCandidate
	if err := viper.UnmarshalKey("places.static", &candidates); err != nil {
		return nil, fmt.Errorf("invalid places.static config: %w", err)
	}
	return &places.StaticSearcher{Candidates: candidates}, nil
}

// initMerchants wires the merchant resolver over the configured searcher.
func initMerchants() (*merchant.Resolver, error) {
	searcher, err := initSearcher()
	if err != nil {
		return nil, err
	}
	ttl := viper.GetDuration("merchants.cache_ttl")
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return merchant.NewResolverWithTTL(searcher, ttl), nil
}

// initRecommender builds the card ranker: the HTTP client when an endpoint
// is configured, otherwise a static rule table from config.
func initRecommender(userID string) (service.Recommender, error) {
	if baseURL := viper.GetString("recommend.base_url"); baseURL != "" {
		return recommend.NewClient(baseURL, viper.GetString("recommend.api_key"), userID)
	}

	var entries []recommend.StaticEntry
	if err := viper.UnmarshalKey("recommend.static", &entries); err != nil {
		return nil, fmt.Errorf("invalid recommend.static config: %w", err)
	}
	return &recommend.StaticRecommender{Entries: entries}, nil
}

// initAnalytics builds the event dispatcher; disabled configs get a noop sink.
func initAnalytics(userID string) *analytics.Dispatcher {
	var sink analytics.Sink = analytics.NoopSink{}
	if viper.GetBool("analytics.enabled") {
		sink = analytics.LogSink{}
	}
	return analytics.NewDispatcher(sink, userID, viper.GetInt("analytics.queue_size"))
}

// platformID resolves the wallet platform: explicit config wins, otherwise
// the host OS.
func platformID() string {
	if platform := viper.GetString("wallet.platform"); platform != "" {
		return platform
	}
	return runtime.GOOS
}
