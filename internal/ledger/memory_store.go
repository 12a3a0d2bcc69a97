package ledger

import (
	"encoding/hex"
	"sort"
	"sync"
)

// InMemoryStore is the non-durable Store used by tests and by deployments
// that only need a process-local ledger.
type InMemoryStore struct {
	mu sync.Mutex

	nextID    int64
	decisions map[int64]DecisionRow
	byHash    map[string]int64
	appeals   map[string]AppealRow
	pauses    map[string]PauseRow
	proposals map[string]ProposalRow
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		nextID:    1,
		decisions: make(map[int64]DecisionRow),
		byHash:    make(map[string]int64),
		appeals:   make(map[string]AppealRow),
		pauses:    make(map[string]PauseRow),
		proposals: make(map[string]ProposalRow),
	}
}

func (s *InMemoryStore) WithTx(fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn((*memTx)(s))
}

// memTx reuses the store's state with the lock already held.
type memTx InMemoryStore

func (t *memTx) GetDecision(decisionID int64) (DecisionRow, bool) {
	row, ok := t.decisions[decisionID]
	return row, ok
}

func (t *memTx) GetDecisionByHash(currHash []byte) (DecisionRow, bool) {
	id, ok := t.byHash[hex.EncodeToString(currHash)]
	if !ok {
		return DecisionRow{}, false
	}
	return t.decisions[id], true
}

func (t *memTx) InsertDecision(row DecisionRow) (int64, error) {
	row.DecisionID = t.nextID
	t.nextID++
	t.decisions[row.DecisionID] = row
	t.byHash[hex.EncodeToString(row.CurrHash)] = row.DecisionID
	return row.DecisionID, nil
}

func (s *InMemoryStore) GetDecision(decisionID int64) (DecisionRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.decisions[decisionID]
	return row, ok
}

func (s *InMemoryStore) GetDecisionByHash(currHash []byte) (DecisionRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byHash[hex.EncodeToString(currHash)]
	if !ok {
		return DecisionRow{}, false
	}
	return s.decisions[id], true
}

func (s *InMemoryStore) ListDecisions(fromID, toID int64) ([]DecisionRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []DecisionRow{}
	for id, row := range s.decisions {
		if id < fromID {
			continue
		}
		if toID > 0 && id > toID {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DecisionID < out[j].DecisionID })
	return out, nil
}

func (s *InMemoryStore) PutAppeal(appeal AppealRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appeals[appeal.AppealID] = appeal
	return nil
}

func (s *InMemoryStore) GetAppeal(appealID string) (AppealRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appeal, ok := s.appeals[appealID]
	return appeal, ok
}

func (s *InMemoryStore) ListAppeals(decisionID int64) ([]AppealRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []AppealRow{}
	for _, appeal := range s.appeals {
		if appeal.DecisionID == decisionID {
			out = append(out, appeal)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppealID < out[j].AppealID })
	return out, nil
}

func (s *InMemoryStore) PutPause(pause PauseRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauses[pause.Scope] = pause
	return nil
}

func (s *InMemoryStore) GetPause(scope string) (PauseRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pause, ok := s.pauses[scope]
	return pause, ok
}

func (s *InMemoryStore) ClearPause(scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pauses, scope)
	return nil
}

func (s *InMemoryStore) PutProposal(proposal ProposalRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[proposal.ProposalID] = proposal
	return nil
}

func (s *InMemoryStore) GetProposal(proposalID string) (ProposalRow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	proposal, ok := s.proposals[proposalID]
	return proposal, ok
}
