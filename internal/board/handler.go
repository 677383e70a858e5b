package board

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vista0212/kommunity-backend/internal/apperr"
)

// Handler exposes HTTP endpoints for board reads and mutations.
type Handler struct {
	svc    *BoardService
	logger *zap.SugaredLogger
}

func NewHandler(svc *BoardService, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	boards, err := h.svc.ListBoards(r.Context(), bearerToken(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, boards)
}

// PostRequest request body for board creation.
type PostRequest struct {
	Content string `json:"content"`
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	var req PostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	b, err := h.svc.PostBoard(r.Context(), bearerToken(r), req.Content)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, b)
}

// CommentRequest request body for comment creation.
type CommentRequest struct {
	Content string `json:"content"`
}

func (h *Handler) Comment(w http.ResponseWriter, r *http.Request) {
	boardPK, ok := h.boardID(w, r)
	if !ok {
		return
	}
	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.svc.PostComment(r.Context(), bearerToken(r), boardPK, req.Content); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	boardPK, ok := h.boardID(w, r)
	if !ok {
		return
	}
	liked, err := h.svc.ToggleLike(r.Context(), bearerToken(r), boardPK)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true, "liked": liked})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	boardPK, ok := h.boardID(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteBoard(r.Context(), bearerToken(r), boardPK); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) boardID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid board id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		h.logger.Errorw("request failed", "err", err)
	}
	h.writeJSON(w, status, map[string]string{"error": apperr.Message(err)})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// bearerToken extracts the session token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if after, found := strings.CutPrefix(auth, "Bearer "); found {
		return after
	}
	return auth
}
