package reconciliation

import "github.com/brpay/charge-service/internal/domain"

// ExternalTransaction is one row of the provider's transaction report for the
// reconciliation window
type ExternalTransaction struct {
	ID          string
	Reference   string
	AmountCents int64
}

// pairing is one charge/transaction correspondence produced by the matcher
type pairing struct {
	chargeID      string
	transactionID string
	amountCents   int64
}

// matchOutcome is the result of matching a charge window against a provider report
type matchOutcome struct {
	pairs                 []pairing
	unmatchedCharges      []string
	unmatchedTransactions []string
}

// matchWindow pairs internal charges with external transactions.
//
// Policy: a transaction referencing a charge (by the charge's external ref or
// its id) wins first; leftovers are then paired one-to-one on exact amount.
// Anything still unpaired lands in the relevant unmatched list, each id once.
func matchWindow(charges []domain.Charge, transactions []ExternalTransaction) matchOutcome {
	var out matchOutcome

	usedTxn := make(map[string]bool, len(transactions))
	matchedCharge := make(map[string]bool, len(charges))

	// First transaction listed for a reference is the one paired with it;
	// later duplicates fall through to the amount pass.
	byReference := make(map[string]int, len(transactions))
	for i, txn := range transactions {
		if txn.Reference == "" {
			continue
		}
		if _, seen := byReference[txn.Reference]; !seen {
			byReference[txn.Reference] = i
		}
	}

	// Pass 1: reference matches
	for _, c := range charges {
		idx, ok := -1, false
		if c.ExternalRef != "" {
			if i, found := byReference[c.ExternalRef]; found && !usedTxn[transactions[i].ID] {
				idx, ok = i, true
			}
		}
		if !ok {
			if i, found := byReference[c.ID]; found && !usedTxn[transactions[i].ID] {
				idx, ok = i, true
			}
		}
		if ok {
			txn := transactions[idx]
			out.pairs = append(out.pairs, pairing{chargeID: c.ID, transactionID: txn.ID, amountCents: txn.AmountCents})
			usedTxn[txn.ID] = true
			matchedCharge[c.ID] = true
		}
	}

	// Pass 2: exact-amount matches among leftovers, first come first served
	for _, c := range charges {
		if matchedCharge[c.ID] {
			continue
		}
		for _, txn := range transactions {
			if usedTxn[txn.ID] || txn.AmountCents != c.AmountCents {
				continue
			}
			out.pairs = append(out.pairs, pairing{chargeID: c.ID, transactionID: txn.ID, amountCents: txn.AmountCents})
			usedTxn[txn.ID] = true
			matchedCharge[c.ID] = true
			break
		}
	}

	for _, c := range charges {
		if !matchedCharge[c.ID] {
			out.unmatchedCharges = append(out.unmatchedCharges, c.ID)
		}
	}
	for _, txn := range transactions {
		if !usedTxn[txn.ID] {
			out.unmatchedTransactions = append(out.unmatchedTransactions, txn.ID)
		}
	}

	return out
}
