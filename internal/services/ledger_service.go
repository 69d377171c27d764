// Package services orchestrates the ledger: it owns the in-memory
// collections per workspace, writes mutations through the persistence
// collaborator, and keeps derived card balances consistent with the
// transaction set after every change.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"famledger/internal/core"
	"famledger/internal/identity"
	"famledger/internal/repo"
)

const (
	KindTransaction = "transaction"
	KindAccount     = "account"
	KindMember      = "member"
	KindCategory    = "category"
)

// EventPublisher receives advisory mutation events. A nil publisher is
// valid; events are then skipped.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, workspaceID, kind, verb string, ids []string) error
}

// TransactionInput describes a purchase or income entry to record. A
// TotalInstallments above 1 expands into one transaction row per
// installment, sharing a parent id.
type TransactionInput struct {
	Type              core.TransactionType
	Amount            decimal.Decimal
	Description       string
	Category          string
	Date              core.Date // first installment / occurrence date
	AccountID         string
	MemberID          string
	TotalInstallments int       // 0 defaults to 1
	PaidInstallments  int
	PurchaseDate      core.Date // zero defaults to Date
	IsRecurring       bool
}

// LedgerService exposes the query and mutation surface over one store.
// A single mutex covers each workspace's collections and derived card
// balances, so no reader can observe an updated transaction list with
// stale balances.
type LedgerService struct {
	store    repo.Store
	identity identity.Provider
	events   EventPublisher
	now      func() time.Time

	mu         sync.Mutex
	workspaces map[string]*workspaceState
}

type workspaceState struct {
	transactions []core.Transaction
	banks        []core.BankAccount
	cards        []core.CreditCard
	members      []core.FamilyMember
	categories   []core.Category
	loaded       bool
}

func NewLedgerService(store repo.Store, provider identity.Provider, events EventPublisher) *LedgerService {
	return &LedgerService{
		store:      store,
		identity:   provider,
		events:     events,
		now:        time.Now,
		workspaces: map[string]*workspaceState{},
	}
}

// ensureReady awaits the identity future before any mutation proceeds.
// It never sleeps-and-retries; an unresolved identity under the caller's
// deadline surfaces identity.ErrNotReady.
func (s *LedgerService) ensureReady(ctx context.Context) error {
	if s.identity == nil {
		return nil
	}
	if _, err := s.identity.Await(ctx); err != nil {
		return err
	}
	return nil
}

// loadLocked lazily hydrates a workspace from the store. Callers hold the
// mutex.
func (s *LedgerService) loadLocked(ctx context.Context, workspaceID string) (*workspaceState, error) {
	ws, ok := s.workspaces[workspaceID]
	if !ok {
		ws = &workspaceState{}
		s.workspaces[workspaceID] = ws
	}
	if ws.loaded {
		return ws, nil
	}

	txs, err := s.store.Transactions().ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	accounts, err := s.store.Accounts().ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	members, err := s.store.Members().ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	categories, err := s.store.Categories().ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	ws.transactions = txs
	ws.banks = ws.banks[:0]
	ws.cards = ws.cards[:0]
	for _, a := range accounts {
		switch a.Kind {
		case core.AccountCard:
			ws.cards = append(ws.cards, a.CreditCard())
		default:
			ws.banks = append(ws.banks, a.BankAccount())
		}
	}
	ws.members = members
	ws.categories = categories
	ws.loaded = true
	s.recomputeLocked(ws)
	return ws, nil
}

// recomputeLocked rewrites every card's derived balances from the full
// transaction list. It runs synchronously after each mutation, inside the
// same critical section that applied the mutation.
func (s *LedgerService) recomputeLocked(ws *workspaceState) {
	ws.cards = core.RecomputeCards(ws.cards, ws.transactions, s.now())
}

// resolveCategoryLocked maps a free-form category name onto a known
// category, falling back to the "uncategorized" sentinel. The fallback is
// a deliberate silent policy, not an error.
func (s *LedgerService) resolveCategoryLocked(ws *workspaceState, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.CategoryUncategorized
	}
	for _, c := range ws.categories {
		if strings.EqualFold(c.Name, name) {
			return c.Name
		}
	}
	return core.CategoryUncategorized
}

func (s *LedgerService) publishEvent(ctx context.Context, workspaceID, kind, verb string, ids []string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, workspaceID, kind, verb, ids); err != nil {
		// Events are advisory; a publish failure never fails the mutation.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"error", err, "kind", kind, "verb", verb, "workspace_id", workspaceID)
	}
}

func (s *LedgerService) ownerMapLocked(ws *workspaceState) map[string]string {
	ownerOf := make(map[string]string, len(ws.banks)+len(ws.cards))
	for _, b := range ws.banks {
		ownerOf[b.ID] = b.HolderID
	}
	for _, c := range ws.cards {
		ownerOf[c.ID] = c.HolderID
	}
	return ownerOf
}

// AddTransaction records a purchase or income entry. Multi-installment
// purchases persist as one row per installment sharing the returned
// parent id; single entries return their own id.
func (s *LedgerService) AddTransaction(ctx context.Context, workspaceID string, input TransactionInput) (string, error) {
	if err := s.ensureReady(ctx); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return "", err
	}

	rows, parentID, err := s.buildRowsLocked(ws, workspaceID, input)
	if err != nil {
		return "", err
	}

	inserted, err := s.store.Transactions().Insert(ctx, workspaceID, rows)
	if err != nil {
		// Collaborator failed: no local mutation, error propagated.
		return "", fmt.Errorf("insert transactions: %w", err)
	}

	ws.transactions = append(ws.transactions, inserted...)
	s.recomputeLocked(ws)

	ids := make([]string, len(inserted))
	for i, tx := range inserted {
		ids[i] = tx.ID
	}
	s.publishEvent(ctx, workspaceID, KindTransaction, "insert", ids)
	return parentID, nil
}

func (s *LedgerService) buildRowsLocked(ws *workspaceState, workspaceID string, input TransactionInput) ([]core.Transaction, string, error) {
	total := input.TotalInstallments
	if total == 0 {
		total = 1
	}
	purchaseDate := input.PurchaseDate
	if purchaseDate.IsZero() {
		purchaseDate = input.Date
	}

	schedule, err := core.ScheduleInstallments(core.InstallmentPlan{
		Amount:               input.Amount,
		TotalInstallments:    total,
		FirstInstallmentDate: input.Date,
		PurchaseDate:         purchaseDate,
		PaidInstallments:     input.PaidInstallments,
	})
	if err != nil {
		return nil, "", err
	}

	category := s.resolveCategoryLocked(ws, input.Category)
	parentID := uuid.NewString()

	rows := make([]core.Transaction, len(schedule))
	for i, inst := range schedule {
		id := parentID
		if i > 0 {
			id = uuid.NewString()
		}
		rows[i] = core.Transaction{
			ID:                   id,
			WorkspaceID:          workspaceID,
			Type:                 input.Type,
			Amount:               inst.Amount,
			Description:          input.Description,
			Category:             category,
			Date:                 inst.DueDate,
			AccountID:            input.AccountID,
			MemberID:             input.MemberID,
			TotalInstallments:    total,
			PaidInstallments:     input.PaidInstallments,
			CurrentInstallment:   inst.Sequence,
			PurchaseDate:         purchaseDate,
			FirstInstallmentDate: input.Date,
			ParentTransactionID:  parentID,
			Status:               inst.Status,
			IsRecurring:          input.IsRecurring,
		}
		if err := rows[i].Validate(); err != nil {
			return nil, "", err
		}
	}
	return rows, parentID, nil
}

// UpdateTransaction applies a partial update to one transaction row.
// Status is authoritative: a paid flag is never accepted, and transitions
// out of a terminal status are rejected. A paidInstallments change does
// not cascade to sibling rows.
func (s *LedgerService) UpdateTransaction(ctx context.Context, workspaceID, id string, patch repo.TransactionPatch) error {
	if err := s.ensureReady(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return err
	}

	idx := -1
	for i := range ws.transactions {
		if ws.transactions[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return repo.ErrNotFound
	}
	current := ws.transactions[idx]

	if patch.Status != nil {
		if !patch.Status.Valid() {
			return errors.New("unknown transaction status")
		}
		if current.Status.Terminal() && *patch.Status != current.Status {
			return core.ErrTerminalStatus
		}
	}
	if patch.Amount != nil {
		if err := patch.Amount.Validate(); err != nil {
			return err
		}
	}
	if patch.PaidInstallments != nil {
		if *patch.PaidInstallments < 0 || *patch.PaidInstallments > current.TotalInstallments {
			return core.ErrPaidOutOfRange
		}
	}
	if patch.Category != nil {
		resolved := s.resolveCategoryLocked(ws, *patch.Category)
		patch.Category = &resolved
	}

	updated, err := s.store.Transactions().Update(ctx, workspaceID, id, patch)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	ws.transactions[idx] = updated
	s.recomputeLocked(ws)
	s.publishEvent(ctx, workspaceID, KindTransaction, "update", []string{id})
	return nil
}

// DeleteTransaction removes one transaction row.
func (s *LedgerService) DeleteTransaction(ctx context.Context, workspaceID, id string) error {
	if err := s.ensureReady(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return err
	}

	if err := s.store.Transactions().Delete(ctx, workspaceID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	for i := range ws.transactions {
		if ws.transactions[i].ID == id {
			ws.transactions = append(ws.transactions[:i:i], ws.transactions[i+1:]...)
			break
		}
	}
	s.recomputeLocked(ws)
	s.publishEvent(ctx, workspaceID, KindTransaction, "delete", []string{id})
	return nil
}

// ResetCardTransactions bulk-deletes every transaction posted against the
// card and recomputes its balances, leaving the card itself in place.
func (s *LedgerService) ResetCardTransactions(ctx context.Context, workspaceID, cardID string) error {
	if err := s.ensureReady(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return err
	}

	if err := s.store.Transactions().DeleteByAccount(ctx, workspaceID, cardID); err != nil {
		return fmt.Errorf("reset card transactions: %w", err)
	}

	kept := ws.transactions[:0:0]
	removed := []string{}
	for _, tx := range ws.transactions {
		if tx.AccountID == cardID {
			removed = append(removed, tx.ID)
			continue
		}
		kept = append(kept, tx)
	}
	ws.transactions = kept
	s.recomputeLocked(ws)
	s.publishEvent(ctx, workspaceID, KindTransaction, "delete", removed)
	return nil
}

// AddBankAccount creates a bank account with an authoritative balance.
func (s *LedgerService) AddBankAccount(ctx context.Context, workspaceID string, account core.BankAccount) (string, error) {
	if err := s.ensureReady(ctx); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return "", err
	}

	account.ID = uuid.NewString()
	account.WorkspaceID = workspaceID
	inserted, err := s.store.Accounts().Insert(ctx, workspaceID, []repo.Account{repo.FromBankAccount(account)})
	if err != nil {
		return "", fmt.Errorf("insert account: %w", err)
	}

	ws.banks = append(ws.banks, inserted[0].BankAccount())
	s.publishEvent(ctx, workspaceID, KindAccount, "insert", []string{account.ID})
	return account.ID, nil
}

// AddCreditCard creates a card; its derived balances are computed
// immediately from the existing transaction set.
func (s *LedgerService) AddCreditCard(ctx context.Context, workspaceID string, card core.CreditCard) (string, error) {
	if err := s.ensureReady(ctx); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return "", err
	}

	card.ID = uuid.NewString()
	card.WorkspaceID = workspaceID
	inserted, err := s.store.Accounts().Insert(ctx, workspaceID, []repo.Account{repo.FromCreditCard(card)})
	if err != nil {
		return "", fmt.Errorf("insert card: %w", err)
	}

	ws.cards = append(ws.cards, inserted[0].CreditCard())
	s.recomputeLocked(ws)
	s.publishEvent(ctx, workspaceID, KindAccount, "insert", []string{card.ID})
	return card.ID, nil
}

// UpdateAccount patches a bank account or card. Changing a card's closing
// day or limit triggers a full balance recomputation; direct writes to
// the derived fields are impossible since the patch does not carry them.
func (s *LedgerService) UpdateAccount(ctx context.Context, workspaceID, id string, patch repo.AccountPatch) error {
	if err := s.ensureReady(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return err
	}

	updated, err := s.store.Accounts().Update(ctx, workspaceID, id, patch)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	switch updated.Kind {
	case core.AccountCard:
		for i := range ws.cards {
			if ws.cards[i].ID == id {
				ws.cards[i] = updated.CreditCard()
				break
			}
		}
	default:
		for i := range ws.banks {
			if ws.banks[i].ID == id {
				ws.banks[i] = updated.BankAccount()
				break
			}
		}
	}
	s.recomputeLocked(ws)
	s.publishEvent(ctx, workspaceID, KindAccount, "update", []string{id})
	return nil
}

// DeleteAccount removes a bank account or card record. Transactions
// posted against it stay; callers wanting a clean slate reset first.
func (s *LedgerService) DeleteAccount(ctx context.Context, workspaceID, id string) error {
	if err := s.ensureReady(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return err
	}

	if err := s.store.Accounts().Delete(ctx, workspaceID, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	for i := range ws.banks {
		if ws.banks[i].ID == id {
			ws.banks = append(ws.banks[:i:i], ws.banks[i+1:]...)
			break
		}
	}
	for i := range ws.cards {
		if ws.cards[i].ID == id {
			ws.cards = append(ws.cards[:i:i], ws.cards[i+1:]...)
			break
		}
	}
	s.recomputeLocked(ws)
	s.publishEvent(ctx, workspaceID, KindAccount, "delete", []string{id})
	return nil
}

// AddMember registers a family member.
func (s *LedgerService) AddMember(ctx context.Context, workspaceID string, member core.FamilyMember) (string, error) {
	if err := s.ensureReady(ctx); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return "", err
	}

	member.ID = uuid.NewString()
	member.WorkspaceID = workspaceID
	if _, err := s.store.Members().Insert(ctx, workspaceID, []core.FamilyMember{member}); err != nil {
		return "", fmt.Errorf("insert member: %w", err)
	}

	ws.members = append(ws.members, member)
	s.publishEvent(ctx, workspaceID, KindMember, "insert", []string{member.ID})
	return member.ID, nil
}

// UpdateMember patches a family member.
func (s *LedgerService) UpdateMember(ctx context.Context, workspaceID, id string, patch repo.MemberPatch) error {
	if err := s.ensureReady(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return err
	}

	updated, err := s.store.Members().Update(ctx, workspaceID, id, patch)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	for i := range ws.members {
		if ws.members[i].ID == id {
			ws.members[i] = updated
			break
		}
	}
	s.publishEvent(ctx, workspaceID, KindMember, "update", []string{id})
	return nil
}

// DeleteMember removes a family member; their transactions keep the
// dangling member id and fall back to account-ownership attribution.
func (s *LedgerService) DeleteMember(ctx context.Context, workspaceID, id string) error {
	if err := s.ensureReady(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return err
	}

	if err := s.store.Members().Delete(ctx, workspaceID, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	for i := range ws.members {
		if ws.members[i].ID == id {
			ws.members = append(ws.members[:i:i], ws.members[i+1:]...)
			break
		}
	}
	s.publishEvent(ctx, workspaceID, KindMember, "delete", []string{id})
	return nil
}

// AddCategory registers a category name.
func (s *LedgerService) AddCategory(ctx context.Context, workspaceID, name string) (string, error) {
	if err := s.ensureReady(ctx); err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("empty category name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return "", err
	}

	category := core.Category{ID: uuid.NewString(), WorkspaceID: workspaceID, Name: name}
	if _, err := s.store.Categories().Insert(ctx, workspaceID, []core.Category{category}); err != nil {
		return "", fmt.Errorf("insert category: %w", err)
	}
	ws.categories = append(ws.categories, category)
	s.publishEvent(ctx, workspaceID, KindCategory, "insert", []string{category.ID})
	return category.ID, nil
}

// DeleteCategory removes a category record. Transactions already tagged
// with the name keep it; future resolutions fall back to uncategorized.
func (s *LedgerService) DeleteCategory(ctx context.Context, workspaceID, id string) error {
	if err := s.ensureReady(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return err
	}

	if err := s.store.Categories().Delete(ctx, workspaceID, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	for i := range ws.categories {
		if ws.categories[i].ID == id {
			ws.categories = append(ws.categories[:i:i], ws.categories[i+1:]...)
			break
		}
	}
	s.publishEvent(ctx, workspaceID, KindCategory, "delete", []string{id})
	return nil
}

// GetFilteredTransactions applies spec and returns matches in insertion
// order.
func (s *LedgerService) GetFilteredTransactions(ctx context.Context, workspaceID string, spec core.FilterSpec) ([]core.Transaction, error) {
	if spec.Range != nil {
		if err := spec.Range.Validate(); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return core.FilterTransactions(ws.transactions, spec, s.ownerMapLocked(ws)), nil
}

// CalculateIncomeForPeriod sums income over the filtered set.
func (s *LedgerService) CalculateIncomeForPeriod(ctx context.Context, workspaceID string, spec core.FilterSpec) (core.Money, error) {
	txs, err := s.GetFilteredTransactions(ctx, workspaceID, spec)
	if err != nil {
		return core.Money{}, err
	}
	return core.IncomeForPeriod(txs), nil
}

// CalculateExpensesForPeriod sums expenses over the filtered set.
func (s *LedgerService) CalculateExpensesForPeriod(ctx context.Context, workspaceID string, spec core.FilterSpec) (core.Money, error) {
	txs, err := s.GetFilteredTransactions(ctx, workspaceID, spec)
	if err != nil {
		return core.Money{}, err
	}
	return core.ExpensesForPeriod(txs), nil
}

// CalculateExpensesByCategory returns per-category expense totals sorted
// descending.
func (s *LedgerService) CalculateExpensesByCategory(ctx context.Context, workspaceID string, spec core.FilterSpec) ([]core.CategoryAmount, error) {
	txs, err := s.GetFilteredTransactions(ctx, workspaceID, spec)
	if err != nil {
		return nil, err
	}
	return core.ExpensesByCategory(txs), nil
}

// CalculateCategoryPercentage returns each category's share of period
// income.
func (s *LedgerService) CalculateCategoryPercentage(ctx context.Context, workspaceID string, spec core.FilterSpec) ([]core.CategoryShare, error) {
	txs, err := s.GetFilteredTransactions(ctx, workspaceID, spec)
	if err != nil {
		return nil, err
	}
	return core.CategoryPercentages(txs), nil
}

// CalculateSavingsRate returns the savings rate over the filtered set.
func (s *LedgerService) CalculateSavingsRate(ctx context.Context, workspaceID string, spec core.FilterSpec) (float64, error) {
	txs, err := s.GetFilteredTransactions(ctx, workspaceID, spec)
	if err != nil {
		return 0, err
	}
	return core.SavingsRate(txs), nil
}

// CalculateTotalBalance sums bank balances minus card bills for the
// member scope; an empty member id covers the whole family.
func (s *LedgerService) CalculateTotalBalance(ctx context.Context, workspaceID, memberID string) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return core.Money{}, err
	}
	return core.TotalBalance(ws.banks, ws.cards, memberID), nil
}

// ListCards returns the cards with their live derived balances.
func (s *LedgerService) ListCards(ctx context.Context, workspaceID string) ([]core.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return append([]core.CreditCard(nil), ws.cards...), nil
}

// ListBankAccounts returns the bank accounts.
func (s *LedgerService) ListBankAccounts(ctx context.Context, workspaceID string) ([]core.BankAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return append([]core.BankAccount(nil), ws.banks...), nil
}

// ListMembers returns the family members.
func (s *LedgerService) ListMembers(ctx context.Context, workspaceID string) ([]core.FamilyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return append([]core.FamilyMember(nil), ws.members...), nil
}

// ListCategories returns the category records.
func (s *LedgerService) ListCategories(ctx context.Context, workspaceID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, err := s.loadLocked(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	return append([]core.Category(nil), ws.categories...), nil
}
