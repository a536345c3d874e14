package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospect/internal/common"
	"github.com/ternarybob/prospect/internal/interfaces"
)

const (
	loginURL     = "https://www.linkedin.com/login"
	searchURL    = "https://www.linkedin.com/sales/search/people"
	usernameSel  = "#username"
	passwordSel  = "#password"
	submitSel    = "button[type='submit']"
)

// Login signs the browser into the target site and lands it on the people
// search page. When credentials are configured it types them and submits;
// either way it then polls the URL until a signed-in marker appears or the
// deadline passes, leaving room for the operator to solve checkpoints or
// complete the sign-in by hand.
func Login(ctx context.Context, b interfaces.Browser, cfg *common.LoginConfig, deadline time.Duration, logger arbor.ILogger) error {
	if err := b.Navigate(ctx, loginURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}

	if cfg.Username != "" && cfg.Password != "" {
		if err := submitCredentials(ctx, b, cfg, logger); err != nil {
			// Automated sign-in failing is not fatal; the operator can
			// still complete it in the visible window.
			logger.Warn().Err(err).Msg("Automated sign-in failed, waiting for manual login")
		}
	} else {
		logger.Info().Msg("No credentials configured, waiting for manual login")
	}

	if err := waitForSignedIn(ctx, b, deadline, cfg.GracePeriod, logger); err != nil {
		return err
	}

	if err := b.Navigate(ctx, searchURL); err != nil {
		return fmt.Errorf("open people search: %w", err)
	}
	return nil
}

func submitCredentials(ctx context.Context, b interfaces.Browser, cfg *common.LoginConfig, logger arbor.ILogger) error {
	if err := b.WaitVisible(ctx, usernameSel, 30*time.Second); err != nil {
		// Already signed in from a persisted profile: the login form
		// never renders and the site redirects straight to the feed.
		if url, urlErr := b.CurrentURL(ctx); urlErr == nil && signedIn(url) {
			logger.Info().Msg("Existing session detected, skipping sign-in")
			return nil
		}
		return err
	}

	if err := b.SendKeys(ctx, usernameSel, cfg.Username); err != nil {
		return err
	}
	if err := b.SendKeys(ctx, passwordSel, cfg.Password); err != nil {
		return err
	}
	if err := b.Click(ctx, submitSel); err != nil {
		return err
	}
	logger.Info().Msg("Sign-in submitted")
	return nil
}

// waitForSignedIn polls the page URL until it leaves the login flow. A
// checkpoint/challenge page extends the wait by the configured grace
// period so the operator can solve it.
func waitForSignedIn(ctx context.Context, b interfaces.Browser, deadline, gracePeriod time.Duration, logger arbor.ILogger) error {
	waitCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	graceUsed := false
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			return fmt.Errorf("timed out waiting for sign-in: %w", waitCtx.Err())
		case <-ticker.C:
		}

		url, err := b.CurrentURL(waitCtx)
		if err != nil {
			continue
		}

		if signedIn(url) {
			logger.Info().Str("url", url).Msg("Sign-in confirmed")
			return nil
		}

		if !graceUsed && (strings.Contains(url, "checkpoint") || strings.Contains(url, "challenge")) {
			graceUsed = true
			logger.Info().
				Dur("grace_period", gracePeriod).
				Msg("Verification checkpoint detected, waiting for operator")
			select {
			case <-waitCtx.Done():
				return fmt.Errorf("timed out at verification checkpoint: %w", waitCtx.Err())
			case <-time.After(gracePeriod):
			}
		}
	}
}

func signedIn(url string) bool {
	return strings.Contains(url, "feed") || strings.Contains(url, "sales")
}
