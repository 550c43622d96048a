package state

import "github.com/Makepad-fr/tada-remote/internal/model"

// Sequencer numbers requests per todo id so that a response older than the
// last one applied for that id can be dropped instead of overwriting it.
// Failed responses are never recorded, so they cannot hide an earlier
// success. Not safe for concurrent use; keep it on the update loop.
type Sequencer struct {
	next    uint64
	applied map[model.ID]uint64
}

// Begin returns the sequence number for a new request on id.
func (q *Sequencer) Begin(id model.ID) uint64 {
	q.next++
	return q.next
}

// Stale reports whether seq is older than the last response applied for id.
func (q *Sequencer) Stale(id model.ID, seq uint64) bool {
	return seq < q.applied[id]
}

// Applied records seq as applied for id. It reports false, and records
// nothing, when seq is stale.
func (q *Sequencer) Applied(id model.ID, seq uint64) bool {
	if q.Stale(id, seq) {
		return false
	}
	if q.applied == nil {
		q.applied = make(map[model.ID]uint64)
	}
	q.applied[id] = seq
	return true
}
