package matcher

import (
	"github.com/shopspring/decimal"

	"invoice-recon/internal/domain"
)

// Classifier assigns a discrepancy category to an ERP transaction and its
// bank group.
type Classifier struct {
	exactTolerance     decimal.Decimal
	roundingUpperBound decimal.Decimal
}

func NewClassifier(exactTolerance, roundingUpperBound decimal.Decimal) *Classifier {
	return &Classifier{
		exactTolerance:     exactTolerance,
		roundingUpperBound: roundingUpperBound,
	}
}

// Classify computes the bank total, the count and the signed mismatch, and
// picks the category. Match entries report a zero mismatch.
func (c *Classifier) Classify(erp domain.ErpTransaction, group MatchGroup) domain.ReconciledEntry {
	amountBank := group.Sum()
	count := group.Count()
	mismatch := erp.Amount.Sub(amountBank)

	discrepancy := c.Discrepancy(count, mismatch)
	if discrepancy == domain.DiscrepancyMatch {
		mismatch = decimal.Zero
	}

	return domain.ReconciledEntry{
		Date:           erp.Date,
		InvoiceID:      erp.InvoiceID,
		Amount:         erp.Amount,
		Status:         erp.Status,
		AmountBank:     amountBank,
		BankCount:      count,
		Discrepancy:    discrepancy,
		MismatchAmount: mismatch,
	}
}

// Discrepancy applies the precedence rules: missing, duplicate, then the
// tolerance bands on |diff|. Match is inclusive of the exact tolerance and
// rounding covers (exact, upper].
func (c *Classifier) Discrepancy(bankCount int, diff decimal.Decimal) domain.Discrepancy {
	switch {
	case bankCount == 0:
		return domain.DiscrepancyMissing
	case bankCount > 1:
		return domain.DiscrepancyDuplicate
	}

	abs := diff.Abs()
	switch {
	case abs.LessThanOrEqual(c.exactTolerance):
		return domain.DiscrepancyMatch
	case abs.LessThanOrEqual(c.roundingUpperBound):
		return domain.DiscrepancyRounding
	default:
		return domain.DiscrepancyAmountMismatch
	}
}
