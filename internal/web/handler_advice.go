package web

import (
	"net/http"
	"strings"

	"github.com/vbonduro/islandlife/internal/advisor"
)

const maxQuestionLen = 2000

func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	var req advisor.AdviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question required")
		return
	}
	if len(req.Question) > maxQuestionLen {
		writeError(w, http.StatusBadRequest, "question too long")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"advice": s.advisor.Advise(r.Context(), req)})
}
