package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/civium/aegis/internal/ledger"
	"github.com/civium/aegis/internal/notify"
	"github.com/civium/aegis/pkg/types"
)

// FileAppeal challenges a committed decision. It pauses the linked plan,
// stores the appeal, and appends a separate ledger entry chained off the
// challenged decision — which itself is never touched. The review panel is
// notified fire-and-forget.
func (p *Pipeline) FileAppeal(ctx context.Context, appeal types.Appeal) (types.AppealReceipt, error) {
	if _, err := p.Ledger.Get(appeal.DecisionID); err != nil {
		return types.AppealReceipt{}, fmt.Errorf("appeal target: %w", err)
	}

	if appeal.ID == "" {
		appeal.ID = p.newID()
	}
	if appeal.FiledAt == "" {
		appeal.FiledAt = p.now().UTC().Format(time.RFC3339)
	}
	if appeal.Status == "" {
		appeal.Status = types.AppealPending
	}

	scope := PlanScope(appeal.DecisionID)
	reason := fmt.Sprintf("appeal %s filed against decision %d", appeal.ID, appeal.DecisionID)
	if err := p.Pause(ctx, scope, reason, p.now()); err != nil {
		return types.AppealReceipt{}, fmt.Errorf("pause plan: %w", err)
	}

	if err := p.Ledger.Store().PutAppeal(ledger.AppealRow{
		AppealID:   appeal.ID,
		DecisionID: appeal.DecisionID,
		Submitter:  appeal.Submitter,
		Grounds:    appeal.Grounds,
		FiledAt:    appeal.FiledAt,
		Status:     string(appeal.Status),
	}); err != nil {
		return types.AppealReceipt{}, fmt.Errorf("store appeal: %w", err)
	}

	entryID, err := p.Ledger.RecordAppeal(ctx, appeal.DecisionID, appeal.ID, appeal.Submitter, appeal.Grounds, appeal.FiledAt)
	if err != nil {
		return types.AppealReceipt{}, err
	}

	p.notifyEvent(ctx, notify.Event{
		Kind:       notify.KindAppealFiled,
		Scope:      scope,
		Reason:     appeal.Grounds,
		DecisionID: appeal.DecisionID,
		OccurredAt: appeal.FiledAt,
	})

	return types.AppealReceipt{
		AppealID:      appeal.ID,
		DecisionID:    appeal.DecisionID,
		PausedScope:   scope,
		LedgerEntryID: entryID,
		FiledAt:       appeal.FiledAt,
	}, nil
}

// GetAppeal returns a stored appeal.
func (p *Pipeline) GetAppeal(appealID string) (types.Appeal, error) {
	row, ok := p.Ledger.Store().GetAppeal(appealID)
	if !ok {
		return types.Appeal{}, fmt.Errorf("%w: appeal %s", ledger.ErrNotFound, appealID)
	}
	return types.Appeal{
		ID:         row.AppealID,
		DecisionID: row.DecisionID,
		Submitter:  row.Submitter,
		Grounds:    row.Grounds,
		FiledAt:    row.FiledAt,
		Status:     types.AppealStatus(row.Status),
	}, nil
}
