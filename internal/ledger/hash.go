package ledger

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// HashSize is the fixed digest width stored for prev_hash and curr_hash.
const HashSize = sha256.Size

// computeHash is the single hashing routine for the whole ledger:
// SHA-256 over the hex of the predecessor hash and the canonical JSON of
// each hashed component, pipe-joined. A nil prevHash contributes an empty
// hex string (genesis records).
func computeHash(prevHash []byte, parts canonicalParts) []byte {
	var payload bytes.Buffer
	payload.WriteString(hex.EncodeToString(prevHash))
	payload.WriteByte('|')
	payload.Write(parts.inputsBundle)
	payload.WriteByte('|')
	payload.Write(parts.objectives)
	payload.WriteByte('|')
	payload.Write(parts.options)
	payload.WriteByte('|')
	payload.Write(parts.chosenAction)
	payload.WriteByte('|')
	payload.Write(parts.testsPassed)

	sum := sha256.Sum256(payload.Bytes())
	return sum[:]
}

// rehashRow recomputes a stored row's hash from its persisted canonical
// columns and its stored prev_hash.
func rehashRow(row DecisionRow) []byte {
	return computeHash(row.PrevHash, canonicalParts{
		inputsBundle: row.InputsBundle,
		objectives:   row.Objectives,
		options:      row.Options,
		chosenAction: row.ChosenAction,
		testsPassed:  row.TestsPassed,
	})
}
