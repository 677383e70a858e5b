package media

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vista0212/kommunity-backend/internal/apperr"
)

// uploads are buffered up to this size in memory before spilling to disk
const maxUploadMemory = 10 << 20

// Handler exposes the multipart image upload endpoint.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	boardPK, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid board id"})
		return
	}
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart payload"})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "file is required"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if err := h.svc.Attach(r.Context(), bearerToken(r), boardPK, header.Filename, contentType, file); err != nil {
		status := apperr.Status(err)
		if status >= http.StatusInternalServerError {
			h.logger.Errorw("upload failed", "board_pk", boardPK, "err", err)
		}
		h.writeJSON(w, status, map[string]string{"error": apperr.Message(err)})
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if after, found := strings.CutPrefix(auth, "Bearer "); found {
		return after
	}
	return auth
}
