package database

import "sync"

// Pool maintains the set of accepted transactions waiting to be mined into
// a block. Ingestion enqueues at the back and the mining scheduler drains
// from the front, so batches commit to FIFO order.
type Pool struct {
	mu  sync.Mutex
	txs []EvidenceTx
}

// NewPool constructs a new pool for pending transactions.
func NewPool() *Pool {
	return &Pool{}
}

// Count returns the current number of transactions in the pool.
func (p *Pool) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.txs)
}

// Add appends a transaction to the back of the pool and reports the new
// pool size.
func (p *Pool) Add(tx EvidenceTx) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.txs = append(p.txs, tx)

	return len(p.txs)
}

// Drain atomically removes and returns up to howMany transactions from the
// front of the pool. Transactions added after the drain started are not part
// of the returned batch.
func (p *Pool) Drain(howMany int) []EvidenceTx {
	p.mu.Lock()
	defer p.mu.Unlock()

	if howMany <= 0 || howMany > len(p.txs) {
		howMany = len(p.txs)
	}

	batch := make([]EvidenceTx, howMany)
	copy(batch, p.txs[:howMany])
	p.txs = append(p.txs[:0:0], p.txs[howMany:]...)

	return batch
}

// Requeue returns a failed batch to the front of the pool, preserving its
// original order ahead of anything enqueued since the drain.
func (p *Pool) Requeue(batch []EvidenceTx) {
	p.mu.Lock()
	defer p.mu.Unlock()

	txs := make([]EvidenceTx, 0, len(batch)+len(p.txs))
	txs = append(txs, batch...)
	txs = append(txs, p.txs...)
	p.txs = txs
}

// Copy returns a snapshot of the pending transactions in FIFO order.
func (p *Pool) Copy() []EvidenceTx {
	p.mu.Lock()
	defer p.mu.Unlock()

	txs := make([]EvidenceTx, len(p.txs))
	copy(txs, p.txs)

	return txs
}

// Truncate clears all the transactions from the pool.
func (p *Pool) Truncate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.txs = nil
}
