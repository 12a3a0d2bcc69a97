package api

import "net/http"

// NewRouter wires the v1 endpoints. Collection and item routes are split so
// path parameters stay a plain TrimPrefix.
func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", method(http.MethodGet, h.Healthz))
	mux.HandleFunc("/v1/plans", method(http.MethodPost, h.Plans))
	mux.HandleFunc("/v1/decisions/", method(http.MethodGet, h.Decisions))
	mux.HandleFunc("/v1/verify", method(http.MethodGet, h.Verify))
	mux.HandleFunc("/v1/appeals", method(http.MethodPost, h.FileAppeal))
	mux.HandleFunc("/v1/appeals/", method(http.MethodGet, h.Appeals))
	mux.HandleFunc("/v1/proposals/", method(http.MethodGet, h.Proposals))
	mux.HandleFunc("/v1/actions/execute", method(http.MethodPost, h.ExecuteAction))
	mux.HandleFunc("/v1/actions/propose", method(http.MethodPost, h.ProposeAction))
	mux.HandleFunc("/v1/weights", method(http.MethodGet, h.Weights))
	mux.HandleFunc("/v1/weights/validate", method(http.MethodPost, h.ValidateWeights))
	mux.HandleFunc("/v1/pauses", method(http.MethodPost, h.CreatePause))
	mux.HandleFunc("/v1/pauses/", h.PauseByScope)
	return mux
}

func method(want string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != want {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		next(w, r)
	}
}
