package database

import "strings"

// QueryFilter represents the searchable subset of transaction fields. Zero
// valued fields are not applied. Time bounds are inclusive unix seconds.
type QueryFilter struct {
	AttackID   string
	SourceIP   string
	AttackType string
	Severity   string
	From       uint64
	To         uint64
}

// match reports whether the transaction satisfies every set field.
func (qf QueryFilter) match(tx EvidenceTx) bool {
	if qf.AttackID != "" && qf.AttackID != tx.Record.ID {
		return false
	}

	if qf.SourceIP != "" && !strings.EqualFold(qf.SourceIP, tx.Record.SourceIP) {
		return false
	}

	if qf.AttackType != "" && !strings.EqualFold(qf.AttackType, tx.Record.AttackType) {
		return false
	}

	if qf.Severity != "" && !strings.EqualFold(qf.Severity, tx.Record.Severity) {
		return false
	}

	if qf.From != 0 && tx.Record.TimeStamp < qf.From {
		return false
	}

	if qf.To != 0 && tx.Record.TimeStamp > qf.To {
		return false
	}

	return true
}

// =============================================================================

// Search performs a linear scan across all blocks' transactions and returns
// the matches in chain order, oldest first. The log is an audit trail, not a
// query engine; callers needing fast lookup should keep their own index.
func (db *Database) Search(filter QueryFilter) []EvidenceTx {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var matches []EvidenceTx
	for _, block := range db.blocks {
		for _, tx := range block.Transactions() {
			if filter.match(tx) {
				matches = append(matches, tx)
			}
		}
	}

	return matches
}

// FindTransaction locates a mined transaction by its unique id and reports
// the number of the block that owns it.
func (db *Database) FindTransaction(txID string) (EvidenceTx, uint64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	for _, block := range db.blocks {
		for _, tx := range block.Transactions() {
			if tx.ID == txID {
				return tx, block.Header.Number, nil
			}
		}
	}

	return EvidenceTx{}, 0, ErrTxNotFound
}
