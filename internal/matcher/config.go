package matcher

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MalformedPolicy decides what a run does with rows that fail normalization
type MalformedPolicy string

const (
	PolicySkip  MalformedPolicy = "skip"
	PolicyAbort MalformedPolicy = "abort"
)

// ParseMalformedPolicy accepts "skip" or "abort" in any case. An empty value
// selects skip.
func ParseMalformedPolicy(s string) (MalformedPolicy, error) {
	switch MalformedPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicySkip:
		return PolicySkip, nil
	case PolicyAbort:
		return PolicyAbort, nil
	}
	return "", fmt.Errorf("unknown malformed record policy %q (want skip or abort)", s)
}

// DefaultPaymentMarker prefixes every bank description that pays an invoice
const DefaultPaymentMarker = "Payment INV"

// Config holds the tolerance policy of the engine
type Config struct {
	MatchToleranceExact decimal.Decimal
	RoundingUpperBound  decimal.Decimal
	PaymentMarker       string
	OnMalformedRecord   MalformedPolicy
}

// DefaultConfig returns the standard reconciliation policy
func DefaultConfig() Config {
	return Config{
		MatchToleranceExact: decimal.RequireFromString("0.01"),
		RoundingUpperBound:  decimal.RequireFromString("1.0"),
		PaymentMarker:       DefaultPaymentMarker,
		OnMalformedRecord:   PolicySkip,
	}
}

// Validate checks that the thresholds are ordered and the marker is usable
func (c Config) Validate() error {
	if c.MatchToleranceExact.IsNegative() {
		return fmt.Errorf("match tolerance must not be negative, got %s", c.MatchToleranceExact)
	}
	if c.RoundingUpperBound.LessThan(c.MatchToleranceExact) {
		return fmt.Errorf("rounding upper bound %s is below match tolerance %s", c.RoundingUpperBound, c.MatchToleranceExact)
	}
	if err := validateMarker(c.PaymentMarker); err != nil {
		return err
	}
	if _, err := ParseMalformedPolicy(string(c.OnMalformedRecord)); err != nil {
		return err
	}
	return nil
}

// validateMarker requires a non-empty marker ending in the invoice id prefix
func validateMarker(marker string) error {
	if strings.TrimSpace(marker) == "" {
		return fmt.Errorf("payment marker must not be empty")
	}
	if !strings.HasSuffix(marker, "INV") {
		return fmt.Errorf("payment marker %q must end with INV", marker)
	}
	return nil
}
