package approval

import (
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/catuhana/YuriEveryHour-bot/db"
	"github.com/catuhana/YuriEveryHour-bot/model"
)

// Registry owns the in-memory view of open approvals, indexed by message id
// and by submission id, on top of the pending_approvals table. The store is
// authoritative; the cache exists so interaction handlers can resolve a
// message id without a round-trip.
//
// Store mutations run on a caller-supplied handle (usually a transaction).
// The cache is only touched after the surrounding transaction has committed,
// via Track/Untrack, so a rollback can never leave a phantom entry. A crash
// between commit and Track is healed by Populate on the next boot.
type Registry struct {
	mu           sync.RWMutex
	byMessage    map[string]model.PendingApproval
	bySubmission map[int64]model.PendingApproval
}

func NewRegistry() *Registry {
	return &Registry{
		byMessage:    make(map[string]model.PendingApproval),
		bySubmission: make(map[int64]model.PendingApproval),
	}
}

// Add inserts the open-approval row for a submission. Call Track with the
// returned approval once the transaction has committed.
func (r *Registry) Add(tx *gorm.DB, submissionID int64, messageID string) (*model.PendingApproval, error) {
	r.mu.RLock()
	_, haveSubmission := r.bySubmission[submissionID]
	_, haveMessage := r.byMessage[messageID]
	r.mu.RUnlock()
	if haveSubmission || haveMessage {
		return nil, model.ErrDuplicateApproval
	}

	return db.AddPendingApproval(tx, submissionID, messageID)
}

// Remove deletes the matching row and returns it. Returns model.ErrNotFound
// when a competing transition already removed it; callers must treat that as
// "already resolved". Call Untrack once the transaction has committed.
func (r *Registry) Remove(tx *gorm.DB, sel model.ApprovalSelector) (*model.PendingApproval, error) {
	return db.RemovePendingApproval(tx, sel)
}

// Track adds a committed approval to the cache.
func (r *Registry) Track(approval model.PendingApproval) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byMessage[approval.MessageID] = approval
	r.bySubmission[approval.SubmissionID] = approval
}

// Untrack evicts a removed approval from the cache.
func (r *Registry) Untrack(approval model.PendingApproval) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byMessage, approval.MessageID)
	delete(r.bySubmission, approval.SubmissionID)
}

// Lookup resolves an approval from the cache.
func (r *Registry) Lookup(sel model.ApprovalSelector) (model.PendingApproval, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if messageID, ok := sel.MessageID(); ok {
		approval, found := r.byMessage[messageID]
		return approval, found
	}
	submissionID, _ := sel.SubmissionID()
	approval, found := r.bySubmission[submissionID]
	return approval, found
}

// Populate replaces the cache with the full contents of the table. Runs once
// during startup reconciliation, before any live event is processed.
func (r *Registry) Populate(tx *gorm.DB) error {
	approvals, err := db.ListPendingApprovals(tx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.byMessage = make(map[string]model.PendingApproval, len(approvals))
	r.bySubmission = make(map[int64]model.PendingApproval, len(approvals))
	for _, approval := range approvals {
		r.byMessage[approval.MessageID] = approval
		r.bySubmission[approval.SubmissionID] = approval
	}
	return nil
}

// SweepExpired deletes every approval older than the TTL, evicts them from
// the cache and returns them.
func (r *Registry) SweepExpired(tx *gorm.DB, ttl time.Duration) ([]model.PendingApproval, error) {
	expired, err := db.DeleteExpiredApprovals(tx, time.Now().UTC().Add(-ttl))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, approval := range expired {
		delete(r.byMessage, approval.MessageID)
		delete(r.bySubmission, approval.SubmissionID)
	}
	return expired, nil
}

// Open returns a snapshot of every cached approval, oldest first.
func (r *Registry) Open() []model.PendingApproval {
	r.mu.RLock()
	defer r.mu.RUnlock()

	approvals := make([]model.PendingApproval, 0, len(r.bySubmission))
	for _, approval := range r.bySubmission {
		approvals = append(approvals, approval)
	}
	return approvals
}
