package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/services"
)

type paymentRequest struct {
	Date             string `json:"date"`
	Amount           string `json:"amount"`
	Type             string `json:"type"`
	ChargedAccountID int64  `json:"charged_account_id"`
	TargetAccountID  *int64 `json:"target_account_id"`
	CategoryID       *int64 `json:"category_id"`
	Note             string `json:"note"`
}

func (r paymentRequest) toInput() (services.PaymentInput, error) {
	var in services.PaymentInput

	date, err := parseDate(r.Date)
	if err != nil {
		return in, err
	}
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return in, err
	}
	paymentType, err := core.ParsePaymentType(r.Type)
	if err != nil {
		return in, err
	}

	return services.PaymentInput{
		Date:             date,
		Amount:           amount,
		Type:             paymentType,
		ChargedAccountID: r.ChargedAccountID,
		TargetAccountID:  r.TargetAccountID,
		CategoryID:       r.CategoryID,
		Note:             r.Note,
	}, nil
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	p, err := s.payments.CreatePayment(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewPayment(p))
}

func (s *Server) handleGetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	p, err := s.payments.GetPayment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewPayment(p))
}

func (s *Server) handleUpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req paymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	in, err := req.toInput()
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	p, err := s.payments.UpdatePayment(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewPayment(p))
}

func (s *Server) handleDeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.payments.DeletePayment(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type makeRecurringRequest struct {
	Recurrence string `json:"recurrence"`
	EndDate    string `json:"end_date"`
}

func (s *Server) handleMakeRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req makeRecurringRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	recurrence, err := core.ParseRecurrence(req.Recurrence)
	if err != nil {
		writeError(w, err)
		return
	}
	endDate, err := parseOptionalDate(req.EndDate)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	rp, err := s.payments.MakeRecurring(r.Context(), id, recurrence, endDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewRecurring(rp))
}

func (s *Server) handleStopRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.payments.StopRecurring(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearDue runs the clearing sweep on demand; the worker runs the
// same sweep on a schedule.
func (s *Server) handleClearDue(w http.ResponseWriter, r *http.Request) {
	cleared, err := s.payments.ClearDuePayments(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": cleared})
}
