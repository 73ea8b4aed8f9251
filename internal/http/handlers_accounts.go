package http

import (
	"net/http"

	"github.com/shopspring/decimal"
)

type accountRequest struct {
	Name           string `json:"name"`
	Note           string `json:"note"`
	InitialBalance string `json:"initial_balance"`
	IsExcluded     bool   `json:"is_excluded"`
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	balance := decimal.Zero
	if req.InitialBalance != "" {
		var err error
		if balance, err = decimal.NewFromString(req.InitialBalance); err != nil {
			writeBadRequest(w, "invalid initial_balance")
			return
		}
	}

	a, err := s.accounts.CreateAccount(r.Context(), req.Name, balance, req.Note, req.IsExcluded)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewAccount(a))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	a, err := s.accounts.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewAccount(a))
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	includeDeactivated := r.URL.Query().Get("include_deactivated") == "true"
	accounts, err := s.accounts.ListAccounts(r.Context(), includeDeactivated)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewAccounts(accounts))
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req accountRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	a, err := s.accounts.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	a.Name = req.Name
	a.Note = req.Note
	a.IsExcluded = req.IsExcluded
	if err := s.accounts.UpdateAccount(r.Context(), a); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewAccount(a))
}

func (s *Server) handleDeactivateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.accounts.DeactivateAccount(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReconcileAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	res, err := s.accounts.ReconcileAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListAccountPayments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	payments, err := s.payments.ListPaymentsByAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewPayments(payments))
}
