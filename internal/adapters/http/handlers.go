package httpadapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/blackhole-game/blackhole/internal/domain"
	"github.com/blackhole-game/blackhole/internal/usecase"
)

type Handler struct {
	Sessions *usecase.Sessions
	Hub      *Hub
	Logger   *slog.Logger
}

func New(ss *usecase.Sessions, hub *Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Sessions: ss, Hub: hub, Logger: logger}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/games", h.handleCreate)
	mux.HandleFunc("GET /api/games/{id}", h.handleState)
	mux.HandleFunc("DELETE /api/games/{id}", h.handleDelete)
	mux.HandleFunc("POST /api/games/{id}/move", h.handleMove)
	mux.HandleFunc("POST /api/games/{id}/reset", h.handleReset)
	mux.HandleFunc("POST /api/games/{id}/mode", h.handleMode)
	mux.HandleFunc("POST /api/games/{id}/difficulty", h.handleDifficulty)
	mux.HandleFunc("GET /api/games/{id}/hint", h.handleHint)
	mux.HandleFunc("GET /api/games/{id}/results", h.handleResults)
	mux.HandleFunc("GET /api/games/{id}/ws", h.handleWS)
}

type errorResp struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResp{Error: msg})
}

func decode(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && err.Error() != "EOF" {
		return err
	}
	return nil
}

// stateView is the full picture the page needs to render.
type stateView struct {
	Config   domain.MatchConfig   `json:"config"`
	Display  domain.DisplayState  `json:"display"`
	Snapshot domain.Snapshot      `json:"snapshot"`
	Results  *domain.FinalResults `json:"results,omitempty"`
}

func viewOf(svc *usecase.Service) stateView {
	v := stateView{
		Config:   svc.Config(),
		Display:  svc.DisplayState(),
		Snapshot: svc.Snapshot(),
	}
	if r, ok := svc.FinalResults(); ok {
		v.Results = &r
	}
	return v
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*usecase.Service, bool) {
	svc, ok := h.Sessions.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown game")
	}
	return svc, ok
}

// ---- Create / State / Delete ----

type createReq struct {
	Mode       string `json:"mode,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

type createResp struct {
	ID    string    `json:"id"`
	State stateView `json:"state"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	diff, err := domain.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, svc, err := h.Sessions.Create(r.Context(), domain.MatchConfig{Mode: mode, Difficulty: diff})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, createResp{ID: id, State: viewOf(svc)})
}

type stateResp struct {
	State stateView `json:"state"`
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, stateResp{State: viewOf(svc)})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.Sessions.Delete(id) {
		writeError(w, http.StatusNotFound, "unknown game")
		return
	}
	if h.Hub != nil {
		h.Hub.Drop(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- Move ----

type moveReq struct {
	Cell *int `json:"cell"`
}

type moveResp struct {
	Applied bool      `json:"applied"`
	State   stateView `json:"state"`
	Error   string    `json:"error,omitempty"`
}

func (h *Handler) handleMove(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req moveReq
	if err := decode(r, &req); err != nil || req.Cell == nil {
		writeError(w, http.StatusBadRequest, "invalid JSON or missing cell")
		return
	}
	res, err := svc.AttemptMove(r.Context(), *req.Cell)
	if err != nil {
		h.Logger.Error("move failed", "game", r.PathValue("id"), "cell", *req.Cell, "err", err)
		writeJSON(w, http.StatusInternalServerError, moveResp{Applied: res.Applied, State: viewOf(svc), Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, moveResp{Applied: res.Applied, State: viewOf(svc)})
}

// ---- Reset / Mode / Difficulty ----

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	svc.Reset(r.Context())
	writeJSON(w, http.StatusOK, stateResp{State: viewOf(svc)})
}

type modeReq struct {
	Mode string `json:"mode"`
}

func (h *Handler) handleMode(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req modeReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	m, err := domain.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	svc.SetMode(r.Context(), m)
	writeJSON(w, http.StatusOK, stateResp{State: viewOf(svc)})
}

type difficultyReq struct {
	Difficulty string `json:"difficulty"`
}

func (h *Handler) handleDifficulty(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req difficultyReq
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	d, err := domain.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	svc.SetDifficulty(r.Context(), d)
	writeJSON(w, http.StatusOK, stateResp{State: viewOf(svc)})
}

// ---- Hint / Results ----

type hintResp struct {
	Found bool         `json:"found"`
	Hint  *domain.Hint `json:"hint,omitempty"`
}

func (h *Handler) handleHint(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	hh, found, err := svc.Hint(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := hintResp{Found: found}
	if found {
		resp.Hint = &hh
	}
	writeJSON(w, http.StatusOK, resp)
}

type resultsResp struct {
	Results domain.FinalResults `json:"results"`
}

var errNotOver = errors.New("game is not over")

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.lookup(w, r)
	if !ok {
		return
	}
	res, ok := svc.FinalResults()
	if !ok {
		writeError(w, http.StatusConflict, errNotOver.Error())
		return
	}
	writeJSON(w, http.StatusOK, resultsResp{Results: res})
}
