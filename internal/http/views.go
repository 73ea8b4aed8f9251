package http

import (
	"moneta/internal/core"
)

// View types shape aggregates for JSON. References collapse to ids;
// nobody wants a whole account inlined into every payment.

type accountView struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Note           string `json:"note,omitempty"`
	InitialBalance string `json:"initial_balance"`
	CurrentBalance string `json:"current_balance"`
	IsDeactivated  bool   `json:"is_deactivated"`
	IsExcluded     bool   `json:"is_excluded"`
	IsOverdrawn    bool   `json:"is_overdrawn"`
}

func viewAccount(a *core.Account) accountView {
	return accountView{
		ID:             a.ID,
		Name:           a.Name,
		Note:           a.Note,
		InitialBalance: a.InitialBalance.String(),
		CurrentBalance: a.CurrentBalance.String(),
		IsDeactivated:  a.IsDeactivated,
		IsExcluded:     a.IsExcluded,
		IsOverdrawn:    a.IsOverdrawn,
	}
}

func viewAccounts(accounts []*core.Account) []accountView {
	out := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, viewAccount(a))
	}
	return out
}

type categoryView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Note        string `json:"note,omitempty"`
	RequireNote bool   `json:"require_note"`
}

func viewCategory(c *core.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Note: c.Note, RequireNote: c.RequireNote}
}

type paymentView struct {
	ID                 int64  `json:"id"`
	Date               string `json:"date"`
	Amount             string `json:"amount"`
	Type               string `json:"type"`
	IsCleared          bool   `json:"is_cleared"`
	Note               string `json:"note,omitempty"`
	ChargedAccountID   int64  `json:"charged_account_id"`
	TargetAccountID    *int64 `json:"target_account_id,omitempty"`
	CategoryID         *int64 `json:"category_id,omitempty"`
	RecurringPaymentID *int64 `json:"recurring_payment_id,omitempty"`
	IsRecurring        bool   `json:"is_recurring"`
}

func viewPayment(p *core.Payment) paymentView {
	v := paymentView{
		ID:               p.ID,
		Date:             p.Date.Format("2006-01-02"),
		Amount:           p.Amount.String(),
		Type:             string(p.Type),
		IsCleared:        p.IsCleared,
		Note:             p.Note,
		ChargedAccountID: p.ChargedAccount.ID,
		IsRecurring:      p.IsRecurring,
	}
	if p.TargetAccount != nil {
		v.TargetAccountID = &p.TargetAccount.ID
	}
	if p.Category != nil {
		v.CategoryID = &p.Category.ID
	}
	if p.RecurringPayment != nil {
		v.RecurringPaymentID = &p.RecurringPayment.ID
	}
	return v
}

func viewPayments(payments []*core.Payment) []paymentView {
	out := make([]paymentView, 0, len(payments))
	for _, p := range payments {
		out = append(out, viewPayment(p))
	}
	return out
}

type recurringView struct {
	ID               int64  `json:"id"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date,omitempty"`
	Amount           string `json:"amount"`
	Type             string `json:"type"`
	Recurrence       string `json:"recurrence"`
	ChargedAccountID int64  `json:"charged_account_id"`
	TargetAccountID  *int64 `json:"target_account_id,omitempty"`
	CategoryID       *int64 `json:"category_id,omitempty"`
	Note             string `json:"note,omitempty"`
	LastMaterialized string `json:"last_materialized"`
}

func viewRecurring(rp *core.RecurringPayment) recurringView {
	v := recurringView{
		ID:               rp.ID,
		StartDate:        rp.StartDate.Format("2006-01-02"),
		Amount:           rp.Amount.String(),
		Type:             string(rp.Type),
		Recurrence:       string(rp.Recurrence),
		ChargedAccountID: rp.ChargedAccount.ID,
		Note:             rp.Note,
		LastMaterialized: rp.LastMaterialized.Format("2006-01-02"),
	}
	if rp.EndDate != nil {
		v.EndDate = rp.EndDate.Format("2006-01-02")
	}
	if rp.TargetAccount != nil {
		v.TargetAccountID = &rp.TargetAccount.ID
	}
	if rp.Category != nil {
		v.CategoryID = &rp.Category.ID
	}
	return v
}
