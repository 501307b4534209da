package web

import (
	"net/http"
	"strings"

	"github.com/vbonduro/islandlife/internal/domain"
)

const maxPetNameLen = 200

type stateResponse struct {
	ActiveID      string                          `json:"activeId"`
	Bundles       map[string]*domain.EntityBundle `json:"bundles"`
	Syncing       bool                            `json:"syncing"`
	RemoteEnabled bool                            `json:"remoteEnabled"`
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	snap := s.pets.Snapshot()
	writeJSON(w, http.StatusOK, stateResponse{
		ActiveID:      snap.ActiveID,
		Bundles:       snap.Bundles,
		Syncing:       s.sync.Syncing(),
		RemoteEnabled: s.sync.Enabled(),
	})
}

type petListResponse struct {
	ActiveID string          `json:"activeId"`
	Pets     []domain.Entity `json:"pets"`
}

func (s *Server) handleListPets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, petListResponse{
		ActiveID: s.pets.ActiveID(),
		Pets:     s.pets.Entities(),
	})
}

func (s *Server) handleCreatePet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if len(name) > maxPetNameLen {
		writeError(w, http.StatusBadRequest, "pet name too long")
		return
	}

	writeJSON(w, http.StatusCreated, s.pets.CreateEntity(r.Context(), name))
}

func (s *Server) handleDeletePet(w http.ResponseWriter, r *http.Request) {
	if err := s.pets.DeleteEntity(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivatePet(w http.ResponseWriter, r *http.Request) {
	if err := s.pets.SwitchActive(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var u domain.ProfileUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	if u.Name != nil && len(*u.Name) > maxPetNameLen {
		writeError(w, http.StatusBadRequest, "pet name too long")
		return
	}

	writeJSON(w, http.StatusOK, s.pets.UpdateProfile(r.Context(), u))
}

type weightResponse struct {
	Accepted bool          `json:"accepted"`
	Entity   domain.Entity `json:"entity"`
}

// handleUpdateWeight always answers 200; non-numeric input is reported as
// accepted=false with the profile unchanged.
func (s *Server) handleUpdateWeight(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	ok := s.pets.UpdateWeight(r.Context(), req.Value)
	writeJSON(w, http.StatusOK, weightResponse{Accepted: ok, Entity: s.pets.Active().Entity})
}
