package http

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"famledger/internal/core"
	"famledger/internal/repo"
	"famledger/internal/services"
)

type transactionJSON struct {
	ID                   string `json:"id"`
	Type                 string `json:"type"`
	AmountCents          int64  `json:"amountCents"`
	Amount               string `json:"amount"`
	Description          string `json:"description"`
	Category             string `json:"category"`
	Date                 string `json:"date"`
	AccountID            string `json:"accountId"`
	MemberID             string `json:"memberId,omitempty"`
	TotalInstallments    int    `json:"totalInstallments"`
	PaidInstallments     int    `json:"paidInstallments"`
	CurrentInstallment   int    `json:"currentInstallment"`
	PurchaseDate         string `json:"purchaseDate"`
	FirstInstallmentDate string `json:"firstInstallmentDate"`
	ParentTransactionID  string `json:"parentTransactionId"`
	Status               string `json:"status"`
	IsPaid               bool   `json:"isPaid"`
	IsRecurring          bool   `json:"isRecurring"`
}

func toTransactionJSON(tx core.Transaction) transactionJSON {
	return transactionJSON{
		ID:                   tx.ID,
		Type:                 string(tx.Type),
		AmountCents:          tx.Amount.Cents,
		Amount:               tx.Amount.Decimal().StringFixed(2),
		Description:          tx.Description,
		Category:             tx.Category,
		Date:                 tx.Date.Format(dateLayout),
		AccountID:            tx.AccountID,
		MemberID:             tx.MemberID,
		TotalInstallments:    tx.TotalInstallments,
		PaidInstallments:     tx.PaidInstallments,
		CurrentInstallment:   tx.CurrentInstallment,
		PurchaseDate:         tx.PurchaseDate.Format(dateLayout),
		FirstInstallmentDate: tx.FirstInstallmentDate.Format(dateLayout),
		ParentTransactionID:  tx.ParentTransactionID,
		Status:               string(tx.Status),
		IsPaid:               tx.IsPaid(),
		IsRecurring:          tx.IsRecurring,
	}
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	spec, err := filterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	txs, err := s.svc.GetFilteredTransactions(r.Context(), workspaceID, spec)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionJSON(tx))
	}
	writeJSON(w, http.StatusOK, out)
}

type createTransactionRequest struct {
	Type              string `json:"type"`
	Amount            string `json:"amount"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	Date              string `json:"date"`
	AccountID         string `json:"accountId"`
	MemberID          string `json:"memberId"`
	TotalInstallments int    `json:"totalInstallments"`
	PaidInstallments  int    `json:"paidInstallments"`
	PurchaseDate      string `json:"purchaseDate"`
	IsRecurring       bool   `json:"isRecurring"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	var req createTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, core.ErrInvalidAmount)
		return
	}
	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, core.ErrInvalidDateRange)
		return
	}
	input := services.TransactionInput{
		Type:              core.TransactionType(req.Type),
		Amount:            amount,
		Description:       req.Description,
		Category:          req.Category,
		Date:              date,
		AccountID:         req.AccountID,
		MemberID:          req.MemberID,
		TotalInstallments: req.TotalInstallments,
		PaidInstallments:  req.PaidInstallments,
		IsRecurring:       req.IsRecurring,
	}
	if req.PurchaseDate != "" {
		purchase, err := parseDate(req.PurchaseDate)
		if err != nil {
			writeError(w, core.ErrInvalidDateRange)
			return
		}
		input.PurchaseDate = purchase
	}

	id, err := s.svc.AddTransaction(r.Context(), workspaceID, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type updateTransactionRequest struct {
	Amount           *string `json:"amount"`
	Description      *string `json:"description"`
	Category         *string `json:"category"`
	Date             *string `json:"date"`
	AccountID        *string `json:"accountId"`
	MemberID         *string `json:"memberId"`
	Status           *string `json:"status"`
	PaidInstallments *int    `json:"paidInstallments"`
	IsRecurring      *bool   `json:"isRecurring"`
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	var req updateTransactionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	patch := repo.TransactionPatch{
		Description:      req.Description,
		Category:         req.Category,
		AccountID:        req.AccountID,
		MemberID:         req.MemberID,
		PaidInstallments: req.PaidInstallments,
		IsRecurring:      req.IsRecurring,
	}
	if req.Amount != nil {
		d, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			writeError(w, core.ErrInvalidAmount)
			return
		}
		amount := core.CentsFromDecimal(d)
		patch.Amount = &amount
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			writeError(w, core.ErrInvalidDateRange)
			return
		}
		patch.Date = &date
	}
	if req.Status != nil {
		status := core.TransactionStatus(*req.Status)
		patch.Status = &status
	}

	if err := s.svc.UpdateTransaction(r.Context(), workspaceID, r.PathValue("id"), patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteTransaction(r.Context(), workspaceID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bankAccountJSON struct {
	ID          string `json:"id"`
	HolderID    string `json:"holderId,omitempty"`
	BalanceCents int64 `json:"balanceCents"`
	Balance     string `json:"balance"`
	AccountType string `json:"accountType"`
}

func (s *Server) handleListBanks(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	accounts, err := s.svc.ListBankAccounts(r.Context(), workspaceID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]bankAccountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, bankAccountJSON{
			ID:           a.ID,
			HolderID:     a.HolderID,
			BalanceCents: a.Balance.Cents,
			Balance:      a.Balance.Decimal().StringFixed(2),
			AccountType:  a.AccountType,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type createBankRequest struct {
	HolderID    string `json:"holderId"`
	Balance     string `json:"balance"`
	AccountType string `json:"accountType"`
}

func (s *Server) handleCreateBank(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	var req createBankRequest
	if !decodeBody(w, r, &req) {
		return
	}
	balance := decimal.Zero
	if req.Balance != "" {
		d, err := decimal.NewFromString(req.Balance)
		if err != nil {
			writeError(w, core.ErrInvalidAmount)
			return
		}
		balance = d
	}
	id, err := s.svc.AddBankAccount(r.Context(), workspaceID, core.BankAccount{
		HolderID:    req.HolderID,
		Balance:     core.CentsFromDecimal(balance),
		AccountType: req.AccountType,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type creditCardJSON struct {
	ID                  string `json:"id"`
	HolderID            string `json:"holderId,omitempty"`
	LimitCents          int64  `json:"limitCents"`
	ClosingDay          int    `json:"closingDay"`
	DueDay              int    `json:"dueDay"`
	CurrentBillCents    int64  `json:"currentBillCents"`
	CurrentBill         string `json:"currentBill"`
	AvailableLimitCents int64  `json:"availableLimitCents"`
	AvailableLimit      string `json:"availableLimit"`
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	cards, err := s.svc.ListCards(r.Context(), workspaceID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]creditCardJSON, 0, len(cards))
	for _, c := range cards {
		out = append(out, creditCardJSON{
			ID:                  c.ID,
			HolderID:            c.HolderID,
			LimitCents:          c.Limit.Cents,
			ClosingDay:          c.ClosingDay,
			DueDay:              c.DueDay,
			CurrentBillCents:    c.CurrentBill.Cents,
			CurrentBill:         c.CurrentBill.Decimal().StringFixed(2),
			AvailableLimitCents: c.AvailableLimit.Cents,
			AvailableLimit:      c.AvailableLimit.Decimal().StringFixed(2),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type createCardRequest struct {
	HolderID   string `json:"holderId"`
	Limit      string `json:"limit"`
	ClosingDay int    `json:"closingDay"`
	DueDay     int    `json:"dueDay"`
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	var req createCardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	limit, err := decimal.NewFromString(req.Limit)
	if err != nil {
		writeError(w, core.ErrInvalidAmount)
		return
	}
	id, err := s.svc.AddCreditCard(r.Context(), workspaceID, core.CreditCard{
		HolderID:   req.HolderID,
		Limit:      core.CentsFromDecimal(limit),
		ClosingDay: req.ClosingDay,
		DueDay:     req.DueDay,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type updateAccountRequest struct {
	HolderID    *string `json:"holderId"`
	Balance     *string `json:"balance"`
	AccountType *string `json:"accountType"`
	Limit       *string `json:"limit"`
	ClosingDay  *int    `json:"closingDay"`
	DueDay      *int    `json:"dueDay"`
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	var req updateAccountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	patch := repo.AccountPatch{
		HolderID:    req.HolderID,
		AccountType: req.AccountType,
		ClosingDay:  req.ClosingDay,
		DueDay:      req.DueDay,
	}
	if req.Balance != nil {
		d, err := decimal.NewFromString(*req.Balance)
		if err != nil {
			writeError(w, core.ErrInvalidAmount)
			return
		}
		balance := core.CentsFromDecimal(d)
		patch.Balance = &balance
	}
	if req.Limit != nil {
		d, err := decimal.NewFromString(*req.Limit)
		if err != nil {
			writeError(w, core.ErrInvalidAmount)
			return
		}
		limit := core.CentsFromDecimal(d)
		patch.Limit = &limit
	}
	if err := s.svc.UpdateAccount(r.Context(), workspaceID, r.PathValue("id"), patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteAccount(r.Context(), workspaceID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetCard(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	if err := s.svc.ResetCardTransactions(r.Context(), workspaceID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

type memberJSON struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Role               string `json:"role,omitempty"`
	MonthlyIncomeCents int64  `json:"monthlyIncomeCents"`
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	members, err := s.svc.ListMembers(r.Context(), workspaceID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]memberJSON, 0, len(members))
	for _, m := range members {
		out = append(out, memberJSON{
			ID:                 m.ID,
			Name:               m.Name,
			Role:               m.Role,
			MonthlyIncomeCents: m.MonthlyIncome.Cents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type createMemberRequest struct {
	Name          string `json:"name"`
	Role          string `json:"role"`
	MonthlyIncome string `json:"monthlyIncome"`
}

func (s *Server) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	var req createMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	income := decimal.Zero
	if req.MonthlyIncome != "" {
		d, err := decimal.NewFromString(req.MonthlyIncome)
		if err != nil {
			writeError(w, core.ErrInvalidAmount)
			return
		}
		income = d
	}
	id, err := s.svc.AddMember(r.Context(), workspaceID, core.FamilyMember{
		Name:          req.Name,
		Role:          req.Role,
		MonthlyIncome: core.CentsFromDecimal(income),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

type updateMemberRequest struct {
	Name          *string `json:"name"`
	Role          *string `json:"role"`
	MonthlyIncome *string `json:"monthlyIncome"`
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	var req updateMemberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	patch := repo.MemberPatch{Name: req.Name, Role: req.Role}
	if req.MonthlyIncome != nil {
		d, err := decimal.NewFromString(*req.MonthlyIncome)
		if err != nil {
			writeError(w, core.ErrInvalidAmount)
			return
		}
		income := core.CentsFromDecimal(d)
		patch.MonthlyIncome = &income
	}
	if err := s.svc.UpdateMember(r.Context(), workspaceID, r.PathValue("id"), patch); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteMember(r.Context(), workspaceID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type categoryJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	categories, err := s.svc.ListCategories(r.Context(), workspaceID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]categoryJSON, 0, len(categories))
	for _, c := range categories {
		out = append(out, categoryJSON{ID: c.ID, Name: c.Name})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := s.svc.AddCategory(r.Context(), workspaceID, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteCategory(r.Context(), workspaceID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type amountJSON struct {
	Cents  int64  `json:"cents"`
	Amount string `json:"amount"`
}

func (s *Server) handleIncome(w http.ResponseWriter, r *http.Request) {
	s.handleMoneyQuery(w, r, s.svc.CalculateIncomeForPeriod)
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	s.handleMoneyQuery(w, r, s.svc.CalculateExpensesForPeriod)
}

func (s *Server) handleMoneyQuery(w http.ResponseWriter, r *http.Request, query func(ctx context.Context, workspaceID string, spec core.FilterSpec) (core.Money, error)) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	spec, err := filterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	total, err := query(r.Context(), workspaceID, spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountJSON{Cents: total.Cents, Amount: total.Decimal().StringFixed(2)})
}

func (s *Server) handleExpensesByCategory(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	spec, err := filterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	byCategory, err := s.svc.CalculateExpensesByCategory(r.Context(), workspaceID, spec)
	if err != nil {
		writeError(w, err)
		return
	}
	type entry struct {
		Name        string `json:"name"`
		AmountCents int64  `json:"amountCents"`
		Amount      string `json:"amount"`
	}
	out := make([]entry, 0, len(byCategory))
	for _, c := range byCategory {
		out = append(out, entry{Name: c.Name, AmountCents: c.Amount.Cents, Amount: c.Amount.Decimal().StringFixed(2)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCategoryShares(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	spec, err := filterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	shares, err := s.svc.CalculateCategoryPercentage(r.Context(), workspaceID, spec)
	if err != nil {
		writeError(w, err)
		return
	}
	type entry struct {
		Name        string  `json:"name"`
		AmountCents int64   `json:"amountCents"`
		Percentage  float64 `json:"percentage"`
	}
	out := make([]entry, 0, len(shares))
	for _, sh := range shares {
		out = append(out, entry{Name: sh.Name, AmountCents: sh.Amount.Cents, Percentage: sh.Percentage})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSavingsRate(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	spec, err := filterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, err)
		return
	}
	rate, err := s.svc.CalculateSavingsRate(r.Context(), workspaceID, spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"savingsRate": rate})
}

func (s *Server) handleTotalBalance(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := s.workspace(w, r)
	if !ok {
		return
	}
	total, err := s.svc.CalculateTotalBalance(r.Context(), workspaceID, r.URL.Query().Get("member"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, amountJSON{Cents: total.Cents, Amount: total.Decimal().StringFixed(2)})
}
