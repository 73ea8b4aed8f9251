package http

import (
	"net/http"
)

type categoryRequest struct {
	Name        string `json:"name"`
	Note        string `json:"note"`
	RequireNote bool   `json:"require_note"`
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	c, err := s.categories.CreateCategory(r.Context(), req.Name, req.Note, req.RequireNote)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewCategory(c))
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	c, err := s.categories.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewCategory(c))
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.ListCategories(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]categoryView, 0, len(categories))
	for _, c := range categories {
		out = append(out, viewCategory(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	c, err := s.categories.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	c.Name = req.Name
	c.Note = req.Note
	c.RequireNote = req.RequireNote
	if err := s.categories.UpdateCategory(r.Context(), c); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewCategory(c))
}

// handleDeleteCategory removes a category; referencing payments are
// detached and survive.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.categories.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
