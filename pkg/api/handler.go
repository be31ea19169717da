package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hazyhaar/touchstone-abbrev/pkg/abbrev"
	"github.com/hazyhaar/touchstone-abbrev/pkg/kit"
)

// NewRouter returns an http.Handler with all abbreviation API routes.
// When mcp is non-nil it is mounted at /mcp.
func NewRouter(reg *abbrev.Registry, logger *slog.Logger, mcp http.Handler) http.Handler {
	mux := http.NewServeMux()
	h := &handler{
		title:       kit.Logging(logger, "title")(titleEndpoint(reg)),
		company:     kit.Logging(logger, "company")(companyEndpoint(reg)),
		batch:       kit.Logging(logger, "batch")(batchEndpoint(reg)),
		listLocales: listLocalesEndpoint(reg),
		reg:         reg,
	}

	mux.HandleFunc("GET /v1/abbreviate/batch", methodNotAllowed) // prevent GET on batch
	mux.HandleFunc("POST /v1/abbreviate/batch", h.handleBatch)
	mux.HandleFunc("GET /v1/title", h.handleTitle)
	mux.HandleFunc("GET /v1/company", h.handleCompany)
	mux.HandleFunc("GET /v1/locales", h.handleListLocales)
	mux.HandleFunc("GET /v1/health", h.handleHealth)
	if mcp != nil {
		mux.Handle("/mcp", mcp)
	}

	return cors(kit.RequestID(kit.AccessLog(logger)(mux)))
}

type handler struct {
	title       kit.Endpoint
	company     kit.Endpoint
	batch       kit.Endpoint
	listLocales kit.Endpoint
	reg         *abbrev.Registry
}

// --- title ---

func (h *handler) handleTitle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("text") {
		writeError(w, http.StatusBadRequest, "missing text")
		return
	}

	base, err := boolParam(q.Get("base_language"), false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base_language flag")
		return
	}

	resp, err := h.title(r.Context(), &titleReq{
		Text:         q.Get("text"),
		Locale:       q.Get("locale"),
		BaseLanguage: base,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- company ---

func (h *handler) handleCompany(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("name") {
		writeError(w, http.StatusBadRequest, "missing name")
		return
	}
	propose, err := boolParam(q.Get("acronym"), true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid acronym flag")
		return
	}
	verbose, err := boolParam(q.Get("verbose"), false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid verbose flag")
		return
	}
	base, err := boolParam(q.Get("base_language"), false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid base_language flag")
		return
	}

	resp, err := h.company(r.Context(), &companyReq{
		Name:           q.Get("name"),
		Locale:         q.Get("locale"),
		BaseLanguage:   base,
		ProposeAcronym: propose,
		Verbose:        verbose,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- batch ---

type httpBatchRequest struct {
	Titles         []string `json:"titles,omitempty"`
	Companies      []string `json:"companies,omitempty"`
	Locale         string   `json:"locale,omitempty"`
	BaseLanguage   bool     `json:"base_language,omitempty"`
	ProposeAcronym *bool    `json:"propose_acronym,omitempty"`
}

func (h *handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64*1024) // 64 KiB max
	var req httpBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	propose := true
	if req.ProposeAcronym != nil {
		propose = *req.ProposeAcronym
	}
	resp, err := h.batch(r.Context(), &batchReq{
		Titles:         req.Titles,
		Companies:      req.Companies,
		Locale:         req.Locale,
		BaseLanguage:   req.BaseLanguage,
		ProposeAcronym: propose,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- locales ---

func (h *handler) handleListLocales(w http.ResponseWriter, r *http.Request) {
	resp, err := h.listLocales(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status  string `json:"status"`
	Locales int    `json:"locales"`
	Packs   int    `json:"packs"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Locales: h.reg.LocaleCount(),
		Packs:   h.reg.PackCount(),
	})
}

// --- helpers ---

func boolParam(v string, def bool) (bool, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id, Mcp-Session-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
