package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/Veraticus/swipewise/internal/flow"
	"github.com/Veraticus/swipewise/internal/model"
)

// Prompter drives a flow.Controller through an interactive terminal session.
type Prompter struct {
	reader *NonBlockingReader
	writer io.Writer
}

// NewPrompter creates a prompter over the given streams.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// Run starts the flow and loops until it completes or the user quits.
func (p *Prompter) Run(ctx context.Context, controller *flow.Controller) error {
	fmt.Fprintln(p.writer, TitleStyle.Render("swipewise"))
	fmt.Fprintln(p.writer, SubtleStyle.Render("Finding out where you are..."))

	// A start failure still lands in the overlay loop below.
	_ = controller.Start(ctx)

	for {
		if controller.Done() {
			return nil
		}
		if failure := controller.Failure(); failure != nil {
			if err := p.handleFailure(ctx, controller, failure); err != nil {
				return err
			}
			continue
		}

		var err error
		switch controller.State() {
		case flow.StateConfirming:
			err = p.confirm(ctx, controller)
		case flow.StateResult:
			err = p.result(ctx, controller)
		case flow.StateWallet:
			err = p.wallet(ctx, controller)
		case flow.StateLogging:
			err = p.logging(ctx, controller)
		case flow.StateSuccess:
			p.summary(controller)
			return nil
		default:
			return fmt.Errorf("unexpected flow state %s", controller.State())
		}
		if err != nil {
			return err
		}
	}
}

func (p *Prompter) handleFailure(ctx context.Context, controller *flow.Controller, failure *flow.Failure) error {
	fmt.Fprintln(p.writer, ErrorStyle.Render(failure.Message))
	fmt.Fprintf(p.writer, "[r] %s   [m] %s   [q] quit\n", failure.RetryLabel, failure.ManualLabel)

	choice, err := p.reader.ReadLine(ctx)
	if err != nil {
		return err
	}
	switch choice {
	case "r":
		_ = controller.Retry(ctx)
	case "m":
		_ = controller.ManualFallback()
	case "q":
		controller.Abandon()
	}
	return nil
}

func (p *Prompter) confirm(ctx context.Context, controller *flow.Controller) error {
	merchants := controller.Merchants()
	if len(merchants) > 0 {
		top := merchants[0]
		fmt.Fprintf(p.writer, "You look like you're at %s (%s, %s confidence).\n",
			CardStyle.Render(top.Candidate.Name),
			top.Classification.CategoryName,
			top.Classification.Confidence)
	} else {
		fmt.Fprintln(p.writer, WarningStyle.Render("No merchant detected; pick a category."))
	}

	fmt.Fprintf(p.writer, "[enter] pay as %s, or override:\n", controller.Category().DisplayName())
	for i, category := range model.AllCategories() {
		fmt.Fprintf(p.writer, "  [%d] %s\n", i+1, category.DisplayName())
	}

	choice, err := p.reader.ReadLine(ctx)
	if err != nil {
		return err
	}
	if choice == "q" {
		controller.Abandon()
		return nil
	}
	if n, convErr := strconv.Atoi(choice); convErr == nil {
		all := model.AllCategories()
		if n >= 1 && n <= len(all) {
			_ = controller.OverrideCategory(ctx, all[n-1])
			return nil
		}
	}
	_ = controller.ConfirmCategory(ctx)
	return nil
}

func (p *Prompter) result(ctx context.Context, controller *flow.Controller) error {
	recs := controller.Recommendations()
	fmt.Fprintln(p.writer, TitleStyle.Render("Pay with"))
	for i, rec := range recs {
		line := fmt.Sprintf("%s (%s) %.1f mpd", rec.CardName, rec.Bank, rec.EarnRateMPD)
		if rec.ConditionsNote != "" {
			line += SubtleStyle.Render(" · " + rec.ConditionsNote)
		}
		if i == 0 {
			fmt.Fprintf(p.writer, "  %s %s\n", CardStyle.Render("→"), CardStyle.Render(line))
			continue
		}
		fmt.Fprintf(p.writer, "  [%d] %s\n", i, line)
	}
	fmt.Fprintln(p.writer, "[w] open wallet   [l] log it   [number] switch card   [q] quit")

	choice, err := p.reader.ReadLine(ctx)
	if err != nil {
		return err
	}
	switch choice {
	case "w":
		_ = controller.OpenWallet(ctx)
	case "l":
		_ = controller.ContinueToLogging()
	case "q":
		controller.Abandon()
	default:
		if n, convErr := strconv.Atoi(choice); convErr == nil {
			_ = controller.SelectAlternative(n)
		}
	}
	return nil
}

func (p *Prompter) wallet(ctx context.Context, controller *flow.Controller) error {
	fmt.Fprintln(p.writer, SubtleStyle.Render("Wallet open. Press enter once you've paid."))

	if _, err := p.reader.ReadLine(ctx); err != nil {
		return err
	}
	controller.WalletReturned(time.Now())
	if controller.State() == flow.StateWallet {
		// The return window lapsed; continue explicitly.
		_ = controller.ContinueToLogging()
	}
	return nil
}

func (p *Prompter) logging(ctx context.Context, controller *flow.Controller) error {
	// A failed submission keeps the entry; offer to resubmit it as-is.
	if current := controller.AmountString(); current != "" {
		fmt.Fprintf(p.writer, "Resubmit $%s? ([enter] yes, [c] clear, [k] skip): ", current)
		choice, err := p.reader.ReadLine(ctx)
		if err != nil {
			return err
		}
		switch choice {
		case "c":
			for controller.AmountString() != "" {
				controller.Backspace()
			}
		case "k":
			return controller.SkipLogging()
		default:
			if submitErr := controller.Submit(ctx); submitErr != nil {
				fmt.Fprintln(p.writer, ErrorStyle.Render(submitErr.Error()))
			}
		}
		return nil
	}

	fmt.Fprint(p.writer, "Amount spent ([k] to skip): ")

	line, err := p.reader.ReadLine(ctx)
	if err != nil {
		return err
	}
	if line == "k" {
		return controller.SkipLogging()
	}

	for _, key := range line {
		if key == '.' {
			controller.PressDecimal()
			continue
		}
		controller.PressDigit(key)
	}

	if submitErr := controller.Submit(ctx); submitErr != nil {
		fmt.Fprintln(p.writer, ErrorStyle.Render(submitErr.Error()))
	}
	return nil
}

func (p *Prompter) summary(controller *flow.Controller) {
	s := controller.Summary()
	if s == nil {
		return
	}

	fmt.Fprintln(p.writer, SuccessStyle.Render("Logged!"))
	fmt.Fprintf(p.writer, "  $%s on %s\n", s.Amount.StringFixed(2), CardStyle.Render(s.CardName))
	fmt.Fprintf(p.writer, "  %.1f mpd (base %.1f)\n", s.EarnRateMPD, s.BaseRateMPD)
	if s.CapState.Capped() {
		fmt.Fprintf(p.writer, "  Cap remaining this month: $%s of $%s\n",
			s.CapState.RemainingCap.StringFixed(2),
			s.CapState.CapAmount.StringFixed(2))
	}
}
