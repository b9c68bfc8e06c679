package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/catuhana/YuriEveryHour-bot/db"
	"github.com/catuhana/YuriEveryHour-bot/metrics"
	"github.com/catuhana/YuriEveryHour-bot/model"
)

// ErrNotTeamMember is returned when the actor of a decision is not on the
// moderation team. No state changes.
var ErrNotTeamMember = errors.New("actor is not a team member")

// Action is a moderator's decision on an open approval.
type Action int

const (
	ActionApprove Action = iota
	ActionReject
)

// Notifier is told about transitions that happen without a triggering
// interaction, so the UI message can be restyled. Calls are best-effort.
type Notifier interface {
	ApprovalExpired(ctx context.Context, approval model.PendingApproval)
}

// Coordinator drives the per-submission lifecycle Open -> Approved |
// Rejected | Expired. Moderator actions and the per-approval countdown race
// on the pending_approvals row; whichever transaction deletes it first wins,
// the loser observes model.ErrNotFound and stands down.
type Coordinator struct {
	database *gorm.DB
	registry *Registry
	notifier Notifier
	logger   *slog.Logger

	ttl           time.Duration
	sweepInterval time.Duration
	team          map[string]struct{}

	// rootCtx outlives any single interaction; watchers and the sweep
	// loop are bound to it, not to the event that created them.
	rootCtx context.Context
	stop    context.CancelFunc

	mu       sync.Mutex
	watchers map[int64]context.CancelFunc
	wg       sync.WaitGroup
}

// Config carries the coordinator's collaborators and tuning.
type Config struct {
	Database *gorm.DB
	Registry *Registry
	Notifier Notifier
	Logger   *slog.Logger

	// TeamMemberIDs are the users allowed to approve or reject.
	TeamMemberIDs []string

	// TTL is how long an approval stays open. Zero means 24 hours.
	TTL time.Duration

	// SweepInterval is the period of the safety-net expiry sweep. Zero
	// means hourly; negative disables it.
	SweepInterval time.Duration
}

const defaultTTL = 24 * time.Hour

func NewCoordinator(cfg Config) *Coordinator {
	if cfg.TTL == 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	team := make(map[string]struct{}, len(cfg.TeamMemberIDs))
	for _, id := range cfg.TeamMemberIDs {
		team[id] = struct{}{}
	}

	rootCtx, stop := context.WithCancel(context.Background())
	return &Coordinator{
		database:      cfg.Database,
		registry:      cfg.Registry,
		notifier:      cfg.Notifier,
		logger:        cfg.Logger,
		ttl:           cfg.TTL,
		sweepInterval: cfg.SweepInterval,
		team:          team,
		rootCtx:       rootCtx,
		stop:          stop,
		watchers:      make(map[int64]context.CancelFunc),
	}
}

// IsTeamMember reports whether a user may decide approvals.
func (c *Coordinator) IsTeamMember(userID string) bool {
	_, ok := c.team[userID]
	return ok
}

// TTL returns how long an approval stays open.
func (c *Coordinator) TTL() time.Duration {
	return c.ttl
}

// Reconcile restores the coordinator's state after a restart: stale rows are
// swept (their UI restyled best-effort), the cache is rebuilt from the
// store, and a countdown is re-armed for every approval still open. Must
// complete before any live event is routed.
func (c *Coordinator) Reconcile(ctx context.Context) error {
	swept, err := c.registry.SweepExpired(c.database, c.ttl)
	if err != nil {
		return fmt.Errorf("sweeping expired approvals: %w", err)
	}
	for _, approval := range swept {
		c.logger.Info("expired stale approval from previous run",
			"submission_id", approval.SubmissionID, "message_id", approval.MessageID)
		metrics.ApprovalsExpired.Inc()
		if c.notifier != nil {
			c.notifier.ApprovalExpired(ctx, approval)
		}
	}

	if err := c.registry.Populate(c.database); err != nil {
		return fmt.Errorf("populating registry: %w", err)
	}

	open := c.registry.Open()
	for _, approval := range open {
		c.arm(approval)
	}
	c.logger.Info("reconciled pending approvals", "expired", len(swept), "open", len(open))

	if c.sweepInterval > 0 {
		c.wg.Add(1)
		go c.sweepLoop()
	}
	return nil
}

// Intake records a new submission and its approval in one transaction. The
// decision message must already exist; its id becomes the approval's key.
// The countdown is armed before returning.
func (c *Coordinator) Intake(ctx context.Context, add model.AddSubmission, messageID string) (*model.Submission, *model.PendingApproval, error) {
	var (
		submission *model.Submission
		approval   *model.PendingApproval
	)
	err := c.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		submission, err = db.AddSubmission(tx, add)
		if err != nil {
			return err
		}
		approval, err = c.registry.Add(tx, submission.SubmissionID, messageID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	c.registry.Track(*approval)
	c.arm(*approval)
	metrics.SubmissionsReceived.Inc()

	c.logger.Info("submission received",
		"submission_id", submission.SubmissionID,
		"user_id", submission.UserID,
		"message_id", messageID)
	return submission, approval, nil
}

// Decide applies a moderator's action to the approval shown by a message.
// Exactly one of approve, reject or expiry wins for any approval; a loser
// gets model.ErrNotFound. Actors outside the team get ErrNotTeamMember and
// cause no state change.
func (c *Coordinator) Decide(ctx context.Context, messageID string, actorID string, action Action) (*model.Submission, error) {
	if !c.IsTeamMember(actorID) {
		return nil, ErrNotTeamMember
	}

	approval, ok := c.registry.Lookup(model.ApprovalByMessage(messageID))
	if !ok {
		return nil, model.ErrNotFound
	}

	// A click may land after the deadline but before the watcher fires;
	// settle it as expired rather than letting the decision through.
	if time.Now().UTC().After(approval.Deadline(c.ttl)) {
		if err := c.expire(ctx, approval); err != nil && !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		return nil, model.ErrNotFound
	}

	var submission *model.Submission
	err := c.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := c.registry.Remove(tx, model.ApprovalBySubmission(approval.SubmissionID)); err != nil {
			return err
		}

		var err error
		switch action {
		case ActionApprove:
			submission, err = db.ApproveSubmission(tx, model.BySubmissionID(approval.SubmissionID))
		case ActionReject:
			submission, err = db.RejectSubmission(tx, model.BySubmissionID(approval.SubmissionID))
		default:
			err = fmt.Errorf("unknown action %d", action)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	c.registry.Untrack(approval)
	c.disarm(approval.SubmissionID)
	metrics.SubmissionsDecided.WithLabelValues(string(*submission.Decision)).Inc()

	c.logger.Info("submission decided",
		"submission_id", submission.SubmissionID,
		"decision", *submission.Decision,
		"actor_id", actorID)
	return submission, nil
}

// Close cancels every watcher and the sweep loop and waits for them to
// exit.
func (c *Coordinator) Close() {
	c.stop()
	c.mu.Lock()
	for id, cancel := range c.watchers {
		cancel()
		delete(c.watchers, id)
	}
	c.mu.Unlock()
	c.wg.Wait()
}

// arm starts the countdown watcher for an approval, replacing any previous
// one for the same submission.
func (c *Coordinator) arm(approval model.PendingApproval) {
	watchCtx, cancel := context.WithCancel(c.rootCtx)

	c.mu.Lock()
	if previous, ok := c.watchers[approval.SubmissionID]; ok {
		previous()
	}
	c.watchers[approval.SubmissionID] = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.watch(watchCtx, approval)
}

func (c *Coordinator) disarm(submissionID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cancel, ok := c.watchers[submissionID]; ok {
		cancel()
		delete(c.watchers, submissionID)
	}
}

// watch sleeps until the approval's deadline, then attempts the expiry
// transition. Losing the race to a moderator decision is the normal exit.
func (c *Coordinator) watch(ctx context.Context, approval model.PendingApproval) {
	defer c.wg.Done()

	timer := time.NewTimer(time.Until(approval.Deadline(c.ttl)))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	if err := c.expire(ctx, approval); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return // resolved by a competing transition
		}
		c.logger.Error("failed to expire approval",
			"submission_id", approval.SubmissionID, "err", err)
	}
}

// expire removes an approval past its deadline. The submission keeps no
// decision; the deleted row is the only record that the window closed.
func (c *Coordinator) expire(ctx context.Context, approval model.PendingApproval) error {
	removed, err := c.registry.Remove(c.database.WithContext(ctx), model.ApprovalBySubmission(approval.SubmissionID))
	if err != nil {
		return err
	}

	c.registry.Untrack(*removed)
	metrics.ApprovalsExpired.Inc()

	c.logger.Info("approval expired",
		"submission_id", approval.SubmissionID, "message_id", approval.MessageID)
	if c.notifier != nil {
		c.notifier.ApprovalExpired(ctx, *removed)
	}

	// Disarm last: it cancels the watcher's own context.
	c.disarm(approval.SubmissionID)
	return nil
}

// sweepLoop is a safety net behind the per-approval watchers. It catches
// rows whose timers were lost to clock jumps or missed re-arms.
func (c *Coordinator) sweepLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.rootCtx.Done():
			return
		case <-ticker.C:
		}

		swept, err := c.registry.SweepExpired(c.database.WithContext(c.rootCtx), c.ttl)
		if err != nil {
			c.logger.Error("expiry sweep failed", "err", err)
			continue
		}
		for _, approval := range swept {
			c.disarm(approval.SubmissionID)
			metrics.ApprovalsExpired.Inc()
			c.logger.Info("approval expired by sweep",
				"submission_id", approval.SubmissionID, "message_id", approval.MessageID)
			if c.notifier != nil {
				c.notifier.ApprovalExpired(c.rootCtx, approval)
			}
		}
	}
}
