// Package flow implements the pay-flow state machine that sequences location
// resolution, merchant identification, card recommendation, the wallet
// hand-off, and transaction logging.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/swipewise/internal/caps"
	"github.com/Veraticus/swipewise/internal/common"
	"github.com/Veraticus/swipewise/internal/location"
	"github.com/Veraticus/swipewise/internal/model"
	"github.com/Veraticus/swipewise/internal/service"
)

// State identifies where the flow currently is.
type State string

// Flow states. A flow starts in StateDetecting and ends in StateSuccess, or
// exits early via skip or abandon.
const (
	StateDetecting    State = "detecting"
	StateIdentifying  State = "identifying"
	StateConfirming   State = "confirming"
	StateRecommending State = "recommending"
	StateResult       State = "result"
	StateWallet       State = "wallet"
	StateLogging      State = "logging"
	StateSuccess      State = "success"
)

// Failure is the error payload shown over the current state. Every failure
// offers exactly two recovery actions: retry from the start, or the manual
// fallback.
type Failure struct {
	Err         error
	Message     string
	RetryLabel  string
	ManualLabel string
}

// Summary is the terminal success screen's content.
type Summary struct {
	CardName    string
	Bank        string
	Amount      decimal.Decimal
	CapState    model.CapState
	EarnRateMPD float64
	BaseRateMPD float64
}

// Config holds the flow's tunables.
type Config struct {
	UserID               string
	BaseRadiusMeters     int
	WideRadiusMeters     int
	CoarseAccuracyMeters float64
	WalletReturnWindow   time.Duration
}

// DefaultConfig returns the default flow configuration.
func DefaultConfig() Config {
	return Config{
		BaseRadiusMeters:     150,
		WideRadiusMeters:     500,
		CoarseAccuracyMeters: 50,
		WalletReturnWindow:   60 * time.Second,
	}
}

// Controller owns the flow state exclusively and drives it through its
// collaborators. One controller serves one flow run at a time; transitions
// are sequential, with the single exception of the opportunistic background
// recommendation fetch guarded by a generation counter.
type Controller struct {
	location    LocationResolver
	merchants   MerchantResolver
	recommender service.Recommender
	wallet      WalletBridge
	storage     service.Storage
	analytics   service.Analytics
	lifecycle   service.Lifecycle

	cfg Config

	mu             sync.Mutex
	state          State
	failure        *Failure
	generation     int
	position       model.Position
	candidates     []model.Merchant
	category       model.Category
	recs           []model.Recommendation
	editor         AmountEditor
	summary        *Summary
	walletOpenedAt time.Time
	unsubscribe    func()
	done           bool
}

// NewController wires a controller from its collaborators. lifecycle and
// analytics may be nil.
func NewController(
	location LocationResolver,
	merchants MerchantResolver,
	recommender service.Recommender,
	walletBridge WalletBridge,
	storage service.Storage,
	analytics service.Analytics,
	lifecycle service.Lifecycle,
	cfg Config,
) *Controller {
	if cfg.BaseRadiusMeters == 0 {
		cfg.BaseRadiusMeters = DefaultConfig().BaseRadiusMeters
	}
	if cfg.WideRadiusMeters == 0 {
		cfg.WideRadiusMeters = DefaultConfig().WideRadiusMeters
	}
	if cfg.CoarseAccuracyMeters == 0 {
		cfg.CoarseAccuracyMeters = DefaultConfig().CoarseAccuracyMeters
	}
	if cfg.WalletReturnWindow == 0 {
		cfg.WalletReturnWindow = DefaultConfig().WalletReturnWindow
	}

	return &Controller{
		location:    location,
		merchants:   merchants,
		recommender: recommender,
		wallet:      walletBridge,
		storage:     storage,
		analytics:   analytics,
		lifecycle:   lifecycle,
		cfg:         cfg,
		state:       StateDetecting,
	}
}

// Start runs the flow from detection through merchant identification. It
// returns once the flow reaches confirming or a failure overlay is up.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDetecting || c.failure != nil {
		c.mu.Unlock()
		return fmt.Errorf("cannot start flow in state %s", c.state)
	}
	c.mu.Unlock()

	c.track("flow_started", nil)
	return c.detect(ctx)
}

// detect runs the detecting and identifying steps.
func (c *Controller) detect(ctx context.Context) error {
	pos, err := c.location.Resolve(ctx)
	if err != nil {
		c.fail(err)
		return err
	}

	if !location.IsAccuracyAcceptable(pos.Accuracy) {
		accuracy := "unknown"
		if pos.Accuracy != nil {
			accuracy = fmt.Sprintf("%.0fm", *pos.Accuracy)
		}
		err := fmt.Errorf("%w: accuracy %s", common.ErrLowAccuracy, accuracy)
		c.fail(err)
		return err
	}

	c.mu.Lock()
	c.position = pos
	c.state = StateIdentifying
	c.mu.Unlock()
	c.track("location_resolved", map[string]any{"from_cache": pos.FromCache})

	radius := c.cfg.BaseRadiusMeters
	if pos.Accuracy == nil || *pos.Accuracy > c.cfg.CoarseAccuracyMeters {
		radius = c.cfg.WideRadiusMeters
	}

	merchants, err := c.merchants.Detect(ctx, pos.Latitude, pos.Longitude, radius)
	if err != nil {
		c.fail(err)
		return err
	}

	c.mu.Lock()
	c.candidates = merchants
	c.category = merchants[0].Classification.CategoryID
	c.state = StateConfirming
	generation := c.generation
	category := c.category
	c.mu.Unlock()

	c.track("merchant_identified", map[string]any{
		"merchant":   merchants[0].Candidate.Name,
		"category":   string(category),
		"confidence": string(merchants[0].Classification.Confidence),
		"radius_m":   radius,
	})

	// Opportunistic prefetch. Its failure is non-fatal and its result is
	// discarded when the user-triggered fetch has already moved the flow on.
	go c.backgroundRecommend(ctx, category, generation)

	return nil
}

// backgroundRecommend races the confirming step. A stale generation or a
// state past confirming means the user already advanced; the result is
// dropped rather than applied late.
func (c *Controller) backgroundRecommend(ctx context.Context, category model.Category, generation int) {
	recs, err := c.recommender.Recommend(ctx, category)
	if err != nil {
		slog.Debug("Background recommendation fetch failed", "category", category, "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != generation || c.state != StateConfirming {
		slog.Debug("Discarding stale background recommendations", "category", category)
		return
	}
	if c.recs == nil {
		c.recs = recs
	}
}

// ConfirmCategory accepts the detected category and fetches recommendations.
func (c *Controller) ConfirmCategory(ctx context.Context) error {
	return c.recommend(ctx, "")
}

// OverrideCategory replaces the detected category and fetches recommendations.
func (c *Controller) OverrideCategory(ctx context.Context, category model.Category) error {
	return c.recommend(ctx, category)
}

// recommend runs the synchronous, user-triggered recommendation fetch. It
// always takes precedence over the background prefetch: bumping the
// generation invalidates any in-flight background result, and its own result
// overwrites whatever the prefetch may have populated.
func (c *Controller) recommend(ctx context.Context, override model.Category) error {
	c.mu.Lock()
	if c.state != StateConfirming {
		c.mu.Unlock()
		return fmt.Errorf("cannot confirm category in state %s", c.state)
	}
	if override != "" {
		c.category = override
	}
	c.generation++
	c.state = StateRecommending
	category := c.category
	c.mu.Unlock()

	c.track("category_confirmed", map[string]any{
		"category":   string(category),
		"overridden": override != "",
	})

	recs, err := c.recommender.Recommend(ctx, category)
	if err != nil {
		err = fmt.Errorf("%w: %v", common.ErrNoRecommendations, err)
		c.fail(err)
		return err
	}
	if len(recs) == 0 {
		err = fmt.Errorf("%w for category %s", common.ErrNoRecommendations, category)
		c.fail(err)
		return err
	}

	c.mu.Lock()
	c.recs = recs
	c.state = StateResult
	c.mu.Unlock()

	c.track("recommendations_shown", map[string]any{
		"category": string(category),
		"count":    len(recs),
		"top_card": recs[0].CardID,
	})

	return nil
}

// SelectAlternative swaps the alternative at index i with the current top
// pick, keeping the remainder as alternatives.
func (c *Controller) SelectAlternative(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateResult {
		return fmt.Errorf("cannot select a card in state %s", c.state)
	}
	if i <= 0 || i >= len(c.recs) {
		return fmt.Errorf("alternative index %d out of range", i)
	}

	c.recs[0], c.recs[i] = c.recs[i], c.recs[0]
	return nil
}

// OpenWallet attempts the wallet hand-off. On success the flow waits in the
// wallet state for a foreground return; when the wallet cannot open, the
// fallback prompt is shown once and the flow moves straight to logging.
func (c *Controller) OpenWallet(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateResult {
		c.mu.Unlock()
		return fmt.Errorf("cannot open wallet in state %s", c.state)
	}
	cardName := c.recs[0].CardName
	c.mu.Unlock()

	result := c.wallet.Open(ctx)
	if !result.Success {
		slog.Info("Wallet hand-off unavailable, falling back",
			"platform", result.Platform, "reason", result.Error)
		c.wallet.ShowFallback(cardName)
		c.setState(StateLogging)
		c.track("wallet_fallback", map[string]any{"reason": result.Error})
		return nil
	}

	c.mu.Lock()
	c.state = StateWallet
	c.walletOpenedAt = time.Now()
	c.mu.Unlock()

	// Foreground-return events matter only while the flow sits in the
	// wallet state.
	if c.lifecycle != nil {
		c.unsubscribe = c.lifecycle.SubscribeForeground(c.WalletReturned)
	}

	c.track("wallet_opened", map[string]any{"platform": result.Platform})
	return nil
}

// WalletReturned handles an app foreground-return signal. Returns within the
// configured window advance the flow to logging; anything later is treated as
// an unrelated app resume and ignored.
func (c *Controller) WalletReturned(at time.Time) {
	c.mu.Lock()
	if c.state != StateWallet {
		c.mu.Unlock()
		return
	}
	if at.Sub(c.walletOpenedAt) > c.cfg.WalletReturnWindow {
		slog.Debug("Ignoring foreground return outside wallet window",
			"elapsed", at.Sub(c.walletOpenedAt))
		c.mu.Unlock()
		return
	}
	c.state = StateLogging
	c.mu.Unlock()

	c.dropLifecycle()
	c.track("wallet_returned", nil)
}

// ContinueToLogging advances manually: from result it skips the wallet, from
// wallet it is the explicit continuation when no return signal arrived.
func (c *Controller) ContinueToLogging() error {
	c.mu.Lock()
	if c.state != StateResult && c.state != StateWallet {
		c.mu.Unlock()
		return fmt.Errorf("cannot continue to logging in state %s", c.state)
	}
	from := c.state
	c.state = StateLogging
	c.mu.Unlock()

	c.dropLifecycle()
	c.track("logging_entered", map[string]any{"from": string(from)})
	return nil
}

// PressDigit forwards a keypad digit to the amount editor.
func (c *Controller) PressDigit(d rune) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateLogging {
		c.editor.PressDigit(d)
	}
}

// PressDecimal forwards the keypad decimal point to the amount editor.
func (c *Controller) PressDecimal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateLogging {
		c.editor.PressDecimal()
	}
}

// Backspace removes the last entered character.
func (c *Controller) Backspace() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateLogging {
		c.editor.Backspace()
	}
}

// AmountString returns the raw keypad entry.
func (c *Controller) AmountString() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editor.String()
}

// Submit persists the transaction and recomputes the cap remainder from
// freshly queried transactions, never from the recommendation snapshot. A
// persistence failure leaves the flow in logging with the entry intact.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateLogging {
		c.mu.Unlock()
		return fmt.Errorf("cannot submit in state %s", c.state)
	}
	amount := c.editor.Amount()
	card := c.recs[0]
	category := c.category
	merchantName := c.merchantName()
	c.mu.Unlock()

	if !amount.IsPositive() {
		return errors.New("amount must be greater than zero")
	}

	txn := &model.Transaction{
		ID:           uuid.NewString(),
		UserID:       c.cfg.UserID,
		CardID:       card.CardID,
		CategoryID:   category,
		MerchantName: merchantName,
		Amount:       amount,
		Date:         time.Now(),
	}
	txn.Hash = txn.GenerateHash()

	if err := c.storage.SaveTransaction(ctx, txn); err != nil {
		common.LogError(err, "Failed to persist transaction", common.Fields{
			"card_id":  card.CardID,
			"category": category,
		})
		return fmt.Errorf("%w: %v", common.ErrPersistFailure, err)
	}

	capState := c.recomputeCap(ctx, card.CardID, category, txn.Date)

	c.mu.Lock()
	c.summary = &Summary{
		Amount:      amount,
		CardName:    card.CardName,
		Bank:        card.Bank,
		EarnRateMPD: card.EarnRateMPD,
		BaseRateMPD: card.BaseRateMPD,
		CapState:    capState,
	}
	c.state = StateSuccess
	c.mu.Unlock()

	c.track("transaction_logged", map[string]any{
		"card_id":  card.CardID,
		"category": string(category),
		"amount":   amount.StringFixed(2),
	})

	return nil
}

// recomputeCap queries ground truth for this month's spend. Read failures
// degrade to an uncapped summary rather than blocking the logged transaction.
func (c *Controller) recomputeCap(ctx context.Context, cardID string, category model.Category, month time.Time) model.CapState {
	txns, err := c.storage.GetMonthTransactions(ctx, c.cfg.UserID, cardID, month)
	if err != nil {
		slog.Warn("Could not load month transactions for cap recompute", "error", err)
		return model.CapState{}
	}
	rows, err := c.storage.GetCapRows(ctx, cardID)
	if err != nil {
		slog.Warn("Could not load cap rows for cap recompute", "error", err)
		return model.CapState{}
	}
	return caps.Remaining(rows, txns, cardID, category, month)
}

// SkipLogging exits the flow without persisting anything.
func (c *Controller) SkipLogging() error {
	c.mu.Lock()
	if c.state != StateLogging {
		c.mu.Unlock()
		return fmt.Errorf("cannot skip logging in state %s", c.state)
	}
	c.done = true
	c.mu.Unlock()

	c.track("logging_skipped", nil)
	return nil
}

// Retry restarts the flow from detection: it evicts the location cache entry
// in use and the in-memory merchant and recommendation side-tables, but does
// not touch the merchant cache's own TTL.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.failure == nil {
		c.mu.Unlock()
		return errors.New("nothing to retry")
	}
	c.failure = nil
	c.generation++
	c.candidates = nil
	c.category = ""
	c.recs = nil
	c.summary = nil
	c.position = model.Position{}
	c.editor.Reset()
	c.state = StateDetecting
	c.mu.Unlock()

	c.location.ClearCache()
	c.track("flow_retried", nil)
	return c.detect(ctx)
}

// ManualFallback dismisses the failure overlay into manual category
// selection: the flow resumes at confirming with no detected merchant.
func (c *Controller) ManualFallback() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failure == nil {
		return errors.New("no failure to fall back from")
	}
	c.failure = nil
	c.candidates = nil
	if c.category == "" {
		c.category = model.CategoryGeneral
	}
	c.generation++
	c.state = StateConfirming
	return nil
}

// Abandon exits the flow from anywhere.
func (c *Controller) Abandon() {
	c.mu.Lock()
	c.done = true
	state := c.state
	c.mu.Unlock()

	c.dropLifecycle()
	c.track("flow_abandoned", map[string]any{"state": string(state)})
}

// fail raises the error overlay over the current state. The state itself is
// left where the failure happened.
func (c *Controller) fail(err error) {
	failure := &Failure{
		Err:         err,
		Message:     messageFor(err),
		RetryLabel:  "Try again",
		ManualLabel: "Choose category manually",
	}

	c.mu.Lock()
	c.failure = failure
	state := c.state
	c.mu.Unlock()

	common.LogError(err, "Flow step failed", common.Fields{"state": state})
	c.track("flow_error", map[string]any{
		"state":   string(state),
		"message": failure.Message,
	})
}

// messageFor maps a typed error to its user-visible message.
func messageFor(err error) string {
	switch {
	case errors.Is(err, common.ErrPermissionDenied):
		return "Location access is off. Allow location to find the merchant around you."
	case errors.Is(err, common.ErrTimeout):
		return "Couldn't get a location fix in time."
	case errors.Is(err, common.ErrLowAccuracy):
		return "Your location is too imprecise to identify the merchant."
	case errors.Is(err, common.ErrNoResults):
		return "No merchant found near you."
	case errors.Is(err, common.ErrNoRecommendations):
		return "No card recommendations for this category."
	default:
		return "Something went wrong."
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Controller) dropLifecycle() {
	c.mu.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// merchantName must be called with the mutex held.
func (c *Controller) merchantName() string {
	if len(c.candidates) == 0 {
		return ""
	}
	return c.candidates[0].Candidate.Name
}

func (c *Controller) track(event string, props map[string]any) {
	if c.analytics == nil {
		return
	}
	if props == nil {
		props = map[string]any{}
	}
	if c.cfg.UserID != "" {
		props["user_id"] = c.cfg.UserID
	}
	c.analytics.Track(event, props)
}

// State returns the current flow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Failure returns the current error payload, if any.
func (c *Controller) Failure() *Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failure
}

// Position returns the resolved position.
func (c *Controller) Position() model.Position {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

// Merchants returns the detected candidates in collaborator ranking order.
func (c *Controller) Merchants() []model.Merchant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.candidates
}

// Category returns the currently selected spending category.
func (c *Controller) Category() model.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.category
}

// Recommendations returns the ranked list with the current pick first.
func (c *Controller) Recommendations() []model.Recommendation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recs
}

// Summary returns the success summary once the flow completes.
func (c *Controller) Summary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary
}

// Done reports whether the flow has been exited via skip or abandon.
func (c *Controller) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}
