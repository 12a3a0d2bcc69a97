package sqlstore

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"github.com/civium/aegis/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func OpenSQLite(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Migrate() error {
	return ledger.Migrate(s.db, ledger.DBSQLite)
}

func (s *Store) WithTx(fn func(ledger.Tx) error) error {
	tx, err := s.db.BeginTx(context.Background(), &sql.TxOptions{})
	if err != nil {
		return err
	}
	wrapped := &Tx{tx: tx}
	if err := fn(wrapped); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

const decisionCols = `decision_id, ts, prev_decision_id, inputs_bundle, objectives, options_considered, chosen_action, tests_passed, approvals, appeals, post_hoc_metrics, prev_hash, curr_hash`

func (s *Store) GetDecision(decisionID int64) (ledger.DecisionRow, bool) {
	row := s.db.QueryRow(`SELECT `+decisionCols+` FROM decisions WHERE decision_id = ?`, decisionID)
	return scanDecision(row)
}

func (s *Store) GetDecisionByHash(currHash []byte) (ledger.DecisionRow, bool) {
	row := s.db.QueryRow(`SELECT `+decisionCols+` FROM decisions WHERE curr_hash = ?`, currHash)
	return scanDecision(row)
}

func (s *Store) ListDecisions(fromID, toID int64) ([]ledger.DecisionRow, error) {
	query := `SELECT ` + decisionCols + ` FROM decisions WHERE decision_id >= ?`
	args := []any{fromID}
	if toID > 0 {
		query += ` AND decision_id <= ?`
		args = append(args, toID)
	}
	query += ` ORDER BY decision_id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ledger.DecisionRow{}
	for rows.Next() {
		rec, ok := scanDecision(rows)
		if !ok {
			return nil, rows.Err()
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) PutAppeal(appeal ledger.AppealRow) error {
	_, err := s.db.Exec(
		`INSERT INTO appeals(appeal_id, decision_id, submitter, grounds, filed_at, status)
VALUES(?,?,?,?,?,?)
ON CONFLICT(appeal_id) DO UPDATE SET status=excluded.status`,
		appeal.AppealID,
		appeal.DecisionID,
		appeal.Submitter,
		appeal.Grounds,
		appeal.FiledAt,
		appeal.Status,
	)
	return err
}

func (s *Store) GetAppeal(appealID string) (ledger.AppealRow, bool) {
	var rec ledger.AppealRow
	row := s.db.QueryRow(`SELECT appeal_id, decision_id, submitter, grounds, filed_at, status FROM appeals WHERE appeal_id = ?`, appealID)
	if err := row.Scan(&rec.AppealID, &rec.DecisionID, &rec.Submitter, &rec.Grounds, &rec.FiledAt, &rec.Status); err != nil {
		return ledger.AppealRow{}, false
	}
	return rec, true
}

func (s *Store) ListAppeals(decisionID int64) ([]ledger.AppealRow, error) {
	rows, err := s.db.Query(`SELECT appeal_id, decision_id, submitter, grounds, filed_at, status FROM appeals WHERE decision_id = ? ORDER BY appeal_id ASC`, decisionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ledger.AppealRow{}
	for rows.Next() {
		var rec ledger.AppealRow
		if err := rows.Scan(&rec.AppealID, &rec.DecisionID, &rec.Submitter, &rec.Grounds, &rec.FiledAt, &rec.Status); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) PutPause(pause ledger.PauseRow) error {
	_, err := s.db.Exec(
		`INSERT INTO pauses(scope, reason, paused_at)
VALUES(?,?,?)
ON CONFLICT(scope) DO UPDATE SET
  reason=excluded.reason,
  paused_at=excluded.paused_at`,
		pause.Scope, pause.Reason, pause.PausedAt,
	)
	return err
}

func (s *Store) GetPause(scope string) (ledger.PauseRow, bool) {
	var rec ledger.PauseRow
	row := s.db.QueryRow(`SELECT scope, reason, paused_at FROM pauses WHERE scope = ?`, scope)
	if err := row.Scan(&rec.Scope, &rec.Reason, &rec.PausedAt); err != nil {
		return ledger.PauseRow{}, false
	}
	return rec, true
}

func (s *Store) ClearPause(scope string) error {
	_, err := s.db.Exec(`DELETE FROM pauses WHERE scope = ?`, scope)
	return err
}

func (s *Store) PutProposal(proposal ledger.ProposalRow) error {
	_, err := s.db.Exec(
		`INSERT INTO proposals(proposal_id, plan_id, action_json, status, created_at, decision_id)
VALUES(?,?,?,?,?,?)
ON CONFLICT(proposal_id) DO UPDATE SET status=excluded.status`,
		proposal.ProposalID,
		proposal.PlanID,
		string(proposal.ActionJSON),
		proposal.Status,
		proposal.CreatedAt,
		proposal.DecisionID,
	)
	return err
}

func (s *Store) GetProposal(proposalID string) (ledger.ProposalRow, bool) {
	var rec ledger.ProposalRow
	var action string
	row := s.db.QueryRow(`SELECT proposal_id, plan_id, action_json, status, created_at, decision_id FROM proposals WHERE proposal_id = ?`, proposalID)
	if err := row.Scan(&rec.ProposalID, &rec.PlanID, &action, &rec.Status, &rec.CreatedAt, &rec.DecisionID); err != nil {
		return ledger.ProposalRow{}, false
	}
	rec.ActionJSON = []byte(action)
	return rec, true
}

type Tx struct {
	tx *sql.Tx
}

func (t *Tx) GetDecision(decisionID int64) (ledger.DecisionRow, bool) {
	row := t.tx.QueryRow(`SELECT `+decisionCols+` FROM decisions WHERE decision_id = ?`, decisionID)
	return scanDecision(row)
}

func (t *Tx) GetDecisionByHash(currHash []byte) (ledger.DecisionRow, bool) {
	row := t.tx.QueryRow(`SELECT `+decisionCols+` FROM decisions WHERE curr_hash = ?`, currHash)
	return scanDecision(row)
}

func (t *Tx) InsertDecision(rec ledger.DecisionRow) (int64, error) {
	res, err := t.tx.Exec(
		`INSERT INTO decisions(ts, prev_decision_id, inputs_bundle, objectives, options_considered, chosen_action, tests_passed, approvals, appeals, post_hoc_metrics, prev_hash, curr_hash)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		rec.TS,
		rec.PrevDecisionID,
		string(rec.InputsBundle),
		string(rec.Objectives),
		string(rec.Options),
		string(rec.ChosenAction),
		string(rec.TestsPassed),
		nullableText(rec.Approvals),
		nullableText(rec.Appeals),
		nullableText(rec.PostHocMetrics),
		rec.PrevHash,
		rec.CurrHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDecision(row scanner) (ledger.DecisionRow, bool) {
	var rec ledger.DecisionRow
	var inputs, objectives, options, chosen, tests string
	var approvals, appeals, postHoc sql.NullString
	if err := row.Scan(
		&rec.DecisionID,
		&rec.TS,
		&rec.PrevDecisionID,
		&inputs,
		&objectives,
		&options,
		&chosen,
		&tests,
		&approvals,
		&appeals,
		&postHoc,
		&rec.PrevHash,
		&rec.CurrHash,
	); err != nil {
		return ledger.DecisionRow{}, false
	}
	rec.InputsBundle = []byte(inputs)
	rec.Objectives = []byte(objectives)
	rec.Options = []byte(options)
	rec.ChosenAction = []byte(chosen)
	rec.TestsPassed = []byte(tests)
	if approvals.Valid {
		rec.Approvals = []byte(approvals.String)
	}
	if appeals.Valid {
		rec.Appeals = []byte(appeals.String)
	}
	if postHoc.Valid {
		rec.PostHocMetrics = []byte(postHoc.String)
	}
	return rec, true
}

func nullableText(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
