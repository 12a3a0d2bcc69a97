package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/civium/aegis/internal/ledger"
	"github.com/civium/aegis/internal/notify"
	"github.com/civium/aegis/pkg/types"
)

func TestFileAppealPausesPlanAndChainsEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	committed, err := f.pipeline.RunPlanningCycle(ctx, transitPlan())
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	original, err := f.pipeline.GetDecision(committed.DecisionID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	receipt, err := f.pipeline.FileAppeal(ctx, types.Appeal{
		DecisionID: committed.DecisionID,
		Submitter:  "resident-42",
		Grounds:    "disputed population impact",
	})
	if err != nil {
		t.Fatalf("file appeal: %v", err)
	}
	if receipt.AppealID == "" || receipt.LedgerEntryID == 0 {
		t.Fatalf("receipt incomplete: %+v", receipt)
	}
	if receipt.PausedScope != PlanScope(committed.DecisionID) {
		t.Fatalf("paused scope: %s", receipt.PausedScope)
	}

	// Only the plan scope is paused, not the system.
	if _, ok := f.store.GetPause(ScopeSystem); ok {
		t.Fatalf("appeal paused the whole system")
	}
	if _, ok := f.store.GetPause(receipt.PausedScope); !ok {
		t.Fatalf("plan scope not paused")
	}

	// The appeal entry chains off the challenged decision; the original
	// record's curr_hash is untouched.
	entry, err := f.pipeline.GetDecision(receipt.LedgerEntryID)
	if err != nil {
		t.Fatalf("appeal entry: %v", err)
	}
	if entry.PrevDecisionID == nil || *entry.PrevDecisionID != committed.DecisionID {
		t.Fatalf("appeal entry not linked: %+v", entry)
	}
	after, err := f.pipeline.GetDecision(committed.DecisionID)
	if err != nil {
		t.Fatalf("get original: %v", err)
	}
	if !bytes.Equal(after.CurrHash, original.CurrHash) {
		t.Fatalf("original curr_hash changed after appeal")
	}

	report, err := f.pipeline.VerifyChain(1, 0)
	if err != nil || !report.OK {
		t.Fatalf("chain broken: err=%v report=%+v", err, report)
	}

	// Panel notified once for the appeal.
	found := false
	for _, ev := range f.notifier.events {
		if ev.Kind == notify.KindAppealFiled {
			found = true
		}
	}
	if !found {
		t.Fatalf("no appeal notification: %+v", f.notifier.events)
	}

	stored, err := f.pipeline.GetAppeal(receipt.AppealID)
	if err != nil {
		t.Fatalf("get appeal: %v", err)
	}
	if stored.Status != types.AppealPending || stored.Submitter != "resident-42" {
		t.Fatalf("stored appeal: %+v", stored)
	}
}

func TestFileAppealBlocksLinkedPlanOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	committed, err := f.pipeline.RunPlanningCycle(ctx, transitPlan())
	if err != nil {
		t.Fatalf("cycle: %v", err)
	}
	if _, err := f.pipeline.FileAppeal(ctx, types.Appeal{DecisionID: committed.DecisionID, Submitter: "r", Grounds: "g"}); err != nil {
		t.Fatalf("file appeal: %v", err)
	}

	// A follow-up cycle chained to the appealed decision is held.
	chained := transitPlan()
	chained.PrevDecisionID = &committed.DecisionID
	held, err := f.pipeline.RunPlanningCycle(ctx, chained)
	if err != nil {
		t.Fatalf("chained cycle: %v", err)
	}
	if held.Status != StatusPaused || held.State != StatePausedForAppeal {
		t.Fatalf("expected paused_for_appeal, got %+v", held)
	}

	// An unrelated plan proceeds.
	other, err := f.pipeline.RunPlanningCycle(ctx, transitPlan())
	if err != nil {
		t.Fatalf("unrelated cycle: %v", err)
	}
	if other.Status != StatusExecuted {
		t.Fatalf("unrelated plan blocked: %+v", other)
	}
}

func TestFileAppealUnknownDecision(t *testing.T) {
	f := newFixture(t)

	_, err := f.pipeline.FileAppeal(context.Background(), types.Appeal{DecisionID: 404, Submitter: "r", Grounds: "g"})
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
