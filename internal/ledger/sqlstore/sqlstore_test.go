package sqlstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/civium/aegis/internal/ledger"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	s, err := OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return s
}

func testRow(hash byte) ledger.DecisionRow {
	curr := bytes.Repeat([]byte{hash}, ledger.HashSize)
	return ledger.DecisionRow{
		TS:           "2026-01-10T00:00:00Z",
		InputsBundle: []byte(`{"region":"north"}`),
		Objectives:   []byte(`{"unemployment":4.2}`),
		Options:      []byte(`[]`),
		ChosenAction: []byte(`{"action_type":"adjust_transit_frequency"}`),
		TestsPassed:  []byte(`{"weight_validation":true}`),
		CurrHash:     curr,
	}
}

func TestDecisionInsertAndLookup(t *testing.T) {
	s := openTestStore(t)

	var id int64
	err := s.WithTx(func(tx ledger.Tx) error {
		var err error
		id, err = tx.InsertDecision(testRow(0xAA))
		return err
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected first decision_id 1, got %d", id)
	}

	got, ok := s.GetDecision(id)
	if !ok {
		t.Fatalf("expected decision %d", id)
	}
	if string(got.Objectives) != `{"unemployment":4.2}` {
		t.Fatalf("objectives mismatch: %s", got.Objectives)
	}
	if got.Approvals != nil || got.Appeals != nil || got.PostHocMetrics != nil {
		t.Fatalf("expected null optional columns, got %+v", got)
	}

	byHash, ok := s.GetDecisionByHash(bytes.Repeat([]byte{0xAA}, ledger.HashSize))
	if !ok || byHash.DecisionID != id {
		t.Fatalf("lookup by hash mismatch: ok=%v got=%+v", ok, byHash)
	}
}

func TestCurrHashUniqueIndex(t *testing.T) {
	s := openTestStore(t)

	err := s.WithTx(func(tx ledger.Tx) error {
		_, err := tx.InsertDecision(testRow(0xBB))
		return err
	})
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err = s.WithTx(func(tx ledger.Tx) error {
		_, err := tx.InsertDecision(testRow(0xBB))
		return err
	})
	if err == nil {
		t.Fatalf("expected unique violation on duplicate curr_hash")
	}
}

func TestListDecisionsRange(t *testing.T) {
	s := openTestStore(t)

	for i := byte(1); i <= 4; i++ {
		row := testRow(i)
		if err := s.WithTx(func(tx ledger.Tx) error {
			_, err := tx.InsertDecision(row)
			return err
		}); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	rows, err := s.ListDecisions(2, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].DecisionID != 2 || rows[1].DecisionID != 3 {
		t.Fatalf("range mismatch: %+v", rows)
	}

	all, err := s.ListDecisions(1, 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(all))
	}
}

func TestWithTxRollback(t *testing.T) {
	s := openTestStore(t)

	err := s.WithTx(func(tx ledger.Tx) error {
		if _, err := tx.InsertDecision(testRow(0xCC)); err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := s.GetDecisionByHash(bytes.Repeat([]byte{0xCC}, ledger.HashSize)); ok {
		t.Fatalf("expected rollback to discard decision")
	}
}

func TestAppealPauseProposalCRUD(t *testing.T) {
	s := openTestStore(t)

	appeal := ledger.AppealRow{AppealID: "ap1", DecisionID: 7, Submitter: "resident-42", Grounds: "disputed impact", FiledAt: "2026-01-10T00:00:00Z", Status: "filed"}
	if err := s.PutAppeal(appeal); err != nil {
		t.Fatalf("put appeal: %v", err)
	}
	if got, ok := s.GetAppeal("ap1"); !ok || got.Submitter != "resident-42" {
		t.Fatalf("get appeal mismatch: ok=%v got=%+v", ok, got)
	}

	appeal.Status = "upheld"
	if err := s.PutAppeal(appeal); err != nil {
		t.Fatalf("update appeal: %v", err)
	}
	if got, _ := s.GetAppeal("ap1"); got.Status != "upheld" {
		t.Fatalf("status not updated: %+v", got)
	}

	appeals, err := s.ListAppeals(7)
	if err != nil || len(appeals) != 1 {
		t.Fatalf("list appeals: err=%v len=%d", err, len(appeals))
	}

	pause := ledger.PauseRow{Scope: "plan:p1", Reason: "appeal filed", PausedAt: "2026-01-10T00:00:01Z"}
	if err := s.PutPause(pause); err != nil {
		t.Fatalf("put pause: %v", err)
	}
	if got, ok := s.GetPause("plan:p1"); !ok || got.Reason != "appeal filed" {
		t.Fatalf("get pause mismatch: ok=%v got=%+v", ok, got)
	}
	if err := s.ClearPause("plan:p1"); err != nil {
		t.Fatalf("clear pause: %v", err)
	}
	if _, ok := s.GetPause("plan:p1"); ok {
		t.Fatalf("expected pause cleared")
	}

	proposal := ledger.ProposalRow{
		ProposalID: "prop1",
		PlanID:     "p1",
		ActionJSON: []byte(`{"action_type":"modify_housing_zoning"}`),
		Status:     "pending_approval",
		CreatedAt:  "2026-01-10T00:00:02Z",
		DecisionID: 7,
	}
	if err := s.PutProposal(proposal); err != nil {
		t.Fatalf("put proposal: %v", err)
	}
	if got, ok := s.GetProposal("prop1"); !ok || got.DecisionID != 7 {
		t.Fatalf("get proposal mismatch: ok=%v got=%+v", ok, got)
	}
}

func TestLedgerOverSQLiteStore(t *testing.T) {
	s := openTestStore(t)
	l := ledger.New(s)

	ctx := context.Background()
	rec := ledger.CandidateRecord{
		InputsBundle: map[string]any{"region": "north"},
		Objectives:   map[string]float64{"unemployment": 4.2},
		Options:      []any{},
		ChosenAction: map[string]any{"action_type": "adjust_transit_frequency"},
		TestsPassed:  map[string]bool{"weight_validation": true},
	}

	first, err := l.Append(ctx, rec)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first.Idempotent {
		t.Fatalf("first append marked idempotent")
	}

	again, err := l.Append(ctx, rec)
	if err != nil {
		t.Fatalf("re-append: %v", err)
	}
	if !again.Idempotent || again.DecisionID != first.DecisionID {
		t.Fatalf("expected idempotent replay of decision %d, got %+v", first.DecisionID, again)
	}

	report, err := l.Verify(1, 0)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !report.OK || report.Checked != 1 {
		t.Fatalf("verify report: %+v", report)
	}
}
