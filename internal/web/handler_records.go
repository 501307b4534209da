package web

import (
	"net/http"

	"github.com/vbonduro/islandlife/internal/domain"
)

func (s *Server) handleAddServiceRecord(w http.ResponseWriter, r *http.Request) {
	var rec domain.ServiceRecord
	if !decodeJSON(w, r, &rec) {
		return
	}
	writeJSON(w, http.StatusCreated, s.pets.AddServiceRecord(r.Context(), rec))
}

func (s *Server) handleAddDiaryEntry(w http.ResponseWriter, r *http.Request) {
	var entry domain.DiaryEntry
	if !decodeJSON(w, r, &entry) {
		return
	}
	created, err := s.pets.AddDiaryEntry(r.Context(), entry)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleAddMilestone(w http.ResponseWriter, r *http.Request) {
	var m domain.Milestone
	if !decodeJSON(w, r, &m) {
		return
	}
	created, err := s.pets.AddMilestone(r.Context(), m)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteMilestone(w http.ResponseWriter, r *http.Request) {
	if err := s.pets.DeleteMilestone(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleMilestone(w http.ResponseWriter, r *http.Request) {
	m, err := s.pets.ToggleMilestone(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleAddVoucher(w http.ResponseWriter, r *http.Request) {
	var v domain.Voucher
	if !decodeJSON(w, r, &v) {
		return
	}
	created, err := s.pets.AddVoucher(r.Context(), v)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleRedeemVoucher(w http.ResponseWriter, r *http.Request) {
	v, err := s.pets.RedeemVoucher(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
