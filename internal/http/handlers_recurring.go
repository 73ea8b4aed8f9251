package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/services"
)

type recurringRequest struct {
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	Amount           string `json:"amount"`
	Type             string `json:"type"`
	Recurrence       string `json:"recurrence"`
	ChargedAccountID int64  `json:"charged_account_id"`
	TargetAccountID  *int64 `json:"target_account_id"`
	CategoryID       *int64 `json:"category_id"`
	Note             string `json:"note"`
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	end, err := parseOptionalDate(req.EndDate)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeBadRequest(w, "invalid amount")
		return
	}
	paymentType, err := core.ParsePaymentType(req.Type)
	if err != nil {
		writeError(w, err)
		return
	}
	recurrence, err := core.ParseRecurrence(req.Recurrence)
	if err != nil {
		writeError(w, err)
		return
	}

	rp, err := s.recurring.CreateTemplate(r.Context(), services.RecurringInput{
		StartDate:        start,
		EndDate:          end,
		Amount:           amount,
		Type:             paymentType,
		Recurrence:       recurrence,
		ChargedAccountID: req.ChargedAccountID,
		TargetAccountID:  req.TargetAccountID,
		CategoryID:       req.CategoryID,
		Note:             req.Note,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewRecurring(rp))
}

func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	rp, err := s.recurring.GetTemplate(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewRecurring(rp))
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	templates, err := s.recurring.ListActiveTemplates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]recurringView, 0, len(templates))
	for _, rp := range templates {
		out = append(out, viewRecurring(rp))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.recurring.DeleteTemplate(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMaterialize runs recurring payment materialization on demand;
// the worker runs the same catch-up on a schedule.
func (s *Server) handleMaterialize(w http.ResponseWriter, r *http.Request) {
	created, err := s.processor.ProcessDue(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"payments_created": created})
}
