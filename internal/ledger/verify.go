package ledger

import (
	"bytes"
	"fmt"
)

// VerificationReport is the outcome of a chain verification pass. When a
// record fails, FirstBadID names the tamper point; every record at or after
// it is untrusted.
type VerificationReport struct {
	OK         bool   `json:"ok"`
	Checked    int    `json:"checked"`
	FirstBadID *int64 `json:"first_bad_id,omitempty"`
	Untrusted  int    `json:"untrusted,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Err converts a failed report into an ErrHashMismatch for callers that
// want an error channel.
func (r VerificationReport) Err() error {
	if r.OK {
		return nil
	}
	return fmt.Errorf("%w: decision %d: %s", ErrHashMismatch, *r.FirstBadID, r.Reason)
}

// Verify recomputes every record's hash in [fromID, toID] from its stored
// fields and stored prev_hash, and checks each back-reference against the
// predecessor's stored curr_hash. toID <= 0 means "to the end". The first
// mismatching record is reported as the tamper point; verification does not
// vouch for anything at or beyond it.
func (l *Ledger) Verify(fromID, toID int64) (VerificationReport, error) {
	rows, err := l.store.ListDecisions(fromID, toID)
	if err != nil {
		return VerificationReport{}, fmt.Errorf("list decisions: %w", err)
	}

	report := VerificationReport{OK: true}
	for i, row := range rows {
		report.Checked++

		if recomputed := rehashRow(row); !bytes.Equal(recomputed, row.CurrHash) {
			return failed(report, rows, i, "stored curr_hash does not match recomputed hash"), nil
		}

		if row.PrevDecisionID != nil {
			prev, ok := l.store.GetDecision(*row.PrevDecisionID)
			if !ok {
				return failed(report, rows, i, fmt.Sprintf("predecessor %d missing", *row.PrevDecisionID)), nil
			}
			if !bytes.Equal(row.PrevHash, prev.CurrHash) {
				return failed(report, rows, i, "stored prev_hash does not match predecessor's curr_hash"), nil
			}
		} else if len(row.PrevHash) != 0 {
			return failed(report, rows, i, "genesis record carries a prev_hash"), nil
		}
	}

	return report, nil
}

func failed(report VerificationReport, rows []DecisionRow, i int, reason string) VerificationReport {
	bad := rows[i].DecisionID
	report.OK = false
	report.FirstBadID = &bad
	report.Untrusted = len(rows) - i
	report.Reason = reason
	return report
}
