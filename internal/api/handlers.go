package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/civium/aegis/internal/auth"
	"github.com/civium/aegis/internal/constitution"
	"github.com/civium/aegis/internal/ledger"
	"github.com/civium/aegis/internal/pipeline"
	"github.com/civium/aegis/pkg/types"
)

type Handler struct {
	Auth     auth.Authenticator
	Pipeline *pipeline.Pipeline
}

// Plans runs a full planning cycle over the posted plan. Invalid and
// paused outcomes are 200 responses with the corresponding status; only
// ledger faults and collaborator failures map to 5xx.
func (h *Handler) Plans(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if !h.ensurePipeline(w) {
		return
	}

	var plan types.Plan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if plan.PlanID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing plan_id"})
		return
	}

	result, err := h.Pipeline.RunPlanningCycle(r.Context(), plan)
	if err != nil {
		var collab *pipeline.CollaboratorError
		if errors.As(err, &collab) {
			writeJSON(w, http.StatusBadGateway, result)
			return
		}
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Decisions returns a committed ledger record by id.
func (h *Handler) Decisions(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if !h.ensurePipeline(w) {
		return
	}

	id, ok := pathID(w, r, "/v1/decisions/")
	if !ok {
		return
	}

	decision, err := h.Pipeline.GetDecision(id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "decision not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, decision)
}

// Verify recomputes the hash chain over an id range. A detected tamper is
// still a 200: the report, not the transport, carries the verdict.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if !h.ensurePipeline(w) {
		return
	}

	fromID, ok := queryID(w, r, "from", 1)
	if !ok {
		return
	}
	toID, ok := queryID(w, r, "to", 0)
	if !ok {
		return
	}

	report, err := h.Pipeline.VerifyChain(fromID, toID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// FileAppeal challenges a committed decision.
func (h *Handler) FileAppeal(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if !h.ensurePipeline(w) {
		return
	}

	var appeal types.Appeal
	if err := json.NewDecoder(r.Body).Decode(&appeal); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if appeal.DecisionID <= 0 || appeal.Submitter == "" || appeal.Grounds == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "linked_decision_id, submitter, and grounds are required"})
		return
	}

	receipt, err := h.Pipeline.FileAppeal(r.Context(), appeal)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "decision not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

// Appeals returns a stored appeal by id.
func (h *Handler) Appeals(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if !h.ensurePipeline(w) {
		return
	}

	appealID := strings.TrimPrefix(r.URL.Path, "/v1/appeals/")
	if appealID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing appeal_id"})
		return
	}

	appeal, err := h.Pipeline.GetAppeal(appealID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "appeal not found"})
		return
	}
	writeJSON(w, http.StatusOK, appeal)
}

// Proposals returns a held high-risk proposal by id.
func (h *Handler) Proposals(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if !h.ensurePipeline(w) {
		return
	}

	proposalID := strings.TrimPrefix(r.URL.Path, "/v1/proposals/")
	if proposalID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing proposal_id"})
		return
	}

	proposal, err := h.Pipeline.GetProposal(proposalID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "proposal not found"})
		return
	}
	writeJSON(w, http.StatusOK, proposal)
}

// ExecuteAction commits and executes a single low-risk action.
func (h *Handler) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if !h.ensurePipeline(w) {
		return
	}

	var action types.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if action.Type == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing action_type"})
		return
	}

	result, err := h.Pipeline.ExecuteLowRiskAction(r.Context(), action)
	if err != nil {
		var collab *pipeline.CollaboratorError
		if errors.As(err, &collab) {
			writeJSON(w, http.StatusBadGateway, result)
			return
		}
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type proposeActionRequest struct {
	PlanID string       `json:"plan_id"`
	Action types.Action `json:"action"`
}

// ProposeAction commits a high-risk action as a proposal awaiting human
// approval. Nothing is executed.
func (h *Handler) ProposeAction(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if !h.ensurePipeline(w) {
		return
	}

	var req proposeActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Action.Type == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing action_type"})
		return
	}

	proposal, err := h.Pipeline.ProposeHighRiskAction(r.Context(), req.PlanID, req.Action)
	if err != nil {
		if errors.Is(err, pipeline.ErrPlanInvalid) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, proposal)
}

// Weights lists the named weight profiles of the active constitution.
func (h *Handler) Weights(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if !h.ensurePipeline(w) {
		return
	}

	profile := h.Pipeline.Constitution.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"constitution_version": profile.Version,
		"weight_profiles":      profile.WeightProfiles,
	})
}

type validateWeightsRequest struct {
	Weights []float64 `json:"weights"`
}

// ValidateWeights checks a weight vector against the constitutional rules
// without running a cycle.
func (h *Handler) ValidateWeights(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}

	var req validateWeightsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	writeJSON(w, http.StatusOK, constitution.ValidateWeightVector(req.Weights))
}

type createPauseRequest struct {
	Scope  string `json:"scope"`
	Reason string `json:"reason"`
}

// CreatePause manually pauses a scope. An empty scope pauses the whole
// system.
func (h *Handler) CreatePause(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if !h.ensurePipeline(w) {
		return
	}

	var req createPauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Reason == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing reason"})
		return
	}
	if req.Scope == "" {
		req.Scope = pipeline.ScopeSystem
	}

	pausedAt := time.Now().UTC()
	if err := h.Pipeline.Pause(r.Context(), req.Scope, req.Reason, pausedAt); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"scope":     req.Scope,
		"reason":    req.Reason,
		"paused_at": pausedAt.Format(time.RFC3339),
	})
}

// PauseByScope shows or clears a single pause scope.
func (h *Handler) PauseByScope(w http.ResponseWriter, r *http.Request) {
	if !h.ensureAuth(w, r) {
		return
	}
	if !h.ensurePipeline(w) {
		return
	}

	scope := strings.TrimPrefix(r.URL.Path, "/v1/pauses/")
	if scope == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing scope"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		pause, ok := h.Pipeline.Ledger.Store().GetPause(scope)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "scope not paused"})
			return
		}
		writeJSON(w, http.StatusOK, pause)
	case http.MethodDelete:
		if err := h.Pipeline.Resume(r.Context(), scope); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

// Healthz is unauthenticated so load balancers can probe it.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ensureAuth(w http.ResponseWriter, r *http.Request) bool {
	_, err := h.Auth.Authenticate(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return false
	}
	return true
}

func (h *Handler) ensurePipeline(w http.ResponseWriter) bool {
	if h.Pipeline == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "pipeline not configured"})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid decision id"})
		return 0, false
	}
	return id, true
}

func queryID(w http.ResponseWriter, r *http.Request, name string, fallback int64) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name + " id"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
