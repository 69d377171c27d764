// Package memory provides a mutex-guarded in-memory implementation of the
// persistence ports. It is the default backend and the collaborator
// double used by the service tests.
package memory

import (
	"context"
	"sync"

	"famledger/internal/core"
	"famledger/internal/repo"
)

type Store struct {
	mu         sync.Mutex
	txs        map[string][]core.Transaction  // workspaceID -> rows
	accounts   map[string][]repo.Account
	members    map[string][]core.FamilyMember
	categories map[string][]core.Category

	// failNext, when set, makes the next mutating call fail with the
	// given error. Tests use it to exercise collaborator-failure paths.
	failNext error
}

func New() *Store {
	return &Store{
		txs:        map[string][]core.Transaction{},
		accounts:   map[string][]repo.Account{},
		members:    map[string][]core.FamilyMember{},
		categories: map[string][]core.Category{},
	}
}

var _ repo.Store = (*Store)(nil)

func (s *Store) Transactions() repo.TransactionStore { return (*txStore)(s) }
func (s *Store) Accounts() repo.AccountStore         { return (*accountStore)(s) }
func (s *Store) Members() repo.MemberStore           { return (*memberStore)(s) }
func (s *Store) Categories() repo.CategoryStore      { return (*categoryStore)(s) }

// FailNext arms a one-shot error for the next mutating call.
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

func (s *Store) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

type txStore Store

func (s *txStore) Insert(_ context.Context, workspaceID string, txs []core.Transaction) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := (*Store)(s).takeFailure(); err != nil {
		return nil, err
	}
	s.txs[workspaceID] = append(s.txs[workspaceID], txs...)
	return txs, nil
}

func (s *txStore) Update(_ context.Context, workspaceID, id string, patch repo.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := (*Store)(s).takeFailure(); err != nil {
		return core.Transaction{}, err
	}
	rows := s.txs[workspaceID]
	for i := range rows {
		if rows[i].ID != id {
			continue
		}
		applyTxPatch(&rows[i], patch)
		return rows[i], nil
	}
	return core.Transaction{}, repo.ErrNotFound
}

func (s *txStore) Delete(_ context.Context, workspaceID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := (*Store)(s).takeFailure(); err != nil {
		return err
	}
	rows := s.txs[workspaceID]
	for i := range rows {
		if rows[i].ID == id {
			s.txs[workspaceID] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (s *txStore) DeleteByAccount(_ context.Context, workspaceID, accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := (*Store)(s).takeFailure(); err != nil {
		return err
	}
	rows := s.txs[workspaceID]
	kept := rows[:0:0]
	for _, tx := range rows {
		if tx.AccountID != accountID {
			kept = append(kept, tx)
		}
	}
	s.txs[workspaceID] = kept
	return nil
}

func (s *txStore) ListByWorkspace(_ context.Context, workspaceID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs[workspaceID]...), nil
}

type accountStore Store

func (s *accountStore) Insert(_ context.Context, workspaceID string, accounts []repo.Account) ([]repo.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := (*Store)(s).takeFailure(); err != nil {
		return nil, err
	}
	s.accounts[workspaceID] = append(s.accounts[workspaceID], accounts...)
	return accounts, nil
}

func (s *accountStore) Update(_ context.Context, workspaceID, id string, patch repo.AccountPatch) (repo.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := (*Store)(s).takeFailure(); err != nil {
		return repo.Account{}, err
	}
	rows := s.accounts[workspaceID]
	for i := range rows {
		if rows[i].ID != id {
			continue
		}
		applyAccountPatch(&rows[i], patch)
		return rows[i], nil
	}
	return repo.Account{}, repo.ErrNotFound
}

func (s *accountStore) Delete(_ context.Context, workspaceID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := (*Store)(s).takeFailure(); err != nil {
		return err
	}
	rows := s.accounts[workspaceID]
	for i := range rows {
		if rows[i].ID == id {
			s.accounts[workspaceID] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (s *accountStore) ListByWorkspace(_ context.Context, workspaceID string) ([]repo.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repo.Account(nil), s.accounts[workspaceID]...), nil
}

type memberStore Store

func (s *memberStore) Insert(_ context.Context, workspaceID string, members []core.FamilyMember) ([]core.FamilyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := (*Store)(s).takeFailure(); err != nil {
		return nil, err
	}
	s.members[workspaceID] = append(s.members[workspaceID], members...)
	return members, nil
}

func (s *memberStore) Update(_ context.Context, workspaceID, id string, patch repo.MemberPatch) (core.FamilyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := (*Store)(s).takeFailure(); err != nil {
		return core.FamilyMember{}, err
	}
	rows := s.members[workspaceID]
	for i := range rows {
		if rows[i].ID != id {
			continue
		}
		if patch.Name != nil {
			rows[i].Name = *patch.Name
		}
		if patch.Role != nil {
			rows[i].Role = *patch.Role
		}
		if patch.MonthlyIncome != nil {
			rows[i].MonthlyIncome = *patch.MonthlyIncome
		}
		return rows[i], nil
	}
	return core.FamilyMember{}, repo.ErrNotFound
}

func (s *memberStore) Delete(_ context.Context, workspaceID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := (*Store)(s).takeFailure(); err != nil {
		return err
	}
	rows := s.members[workspaceID]
	for i := range rows {
		if rows[i].ID == id {
			s.members[workspaceID] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (s *memberStore) ListByWorkspace(_ context.Context, workspaceID string) ([]core.FamilyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.FamilyMember(nil), s.members[workspaceID]...), nil
}

type categoryStore Store

func (s *categoryStore) Insert(_ context.Context, workspaceID string, categories []core.Category) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := (*Store)(s).takeFailure(); err != nil {
		return nil, err
	}
	s.categories[workspaceID] = append(s.categories[workspaceID], categories...)
	return categories, nil
}

func (s *categoryStore) Update(_ context.Context, workspaceID, id string, patch repo.CategoryPatch) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := (*Store)(s).takeFailure(); err != nil {
		return core.Category{}, err
	}
	rows := s.categories[workspaceID]
	for i := range rows {
		if rows[i].ID != id {
			continue
		}
		if patch.Name != nil {
			rows[i].Name = *patch.Name
		}
		return rows[i], nil
	}
	return core.Category{}, repo.ErrNotFound
}

func (s *categoryStore) Delete(_ context.Context, workspaceID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := (*Store)(s).takeFailure(); err != nil {
		return err
	}
	rows := s.categories[workspaceID]
	for i := range rows {
		if rows[i].ID == id {
			s.categories[workspaceID] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (s *categoryStore) ListByWorkspace(_ context.Context, workspaceID string) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories[workspaceID]...), nil
}

func applyTxPatch(tx *core.Transaction, patch repo.TransactionPatch) {
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.Description != nil {
		tx.Description = *patch.Description
	}
	if patch.Category != nil {
		tx.Category = *patch.Category
	}
	if patch.Date != nil {
		tx.Date = *patch.Date
	}
	if patch.AccountID != nil {
		tx.AccountID = *patch.AccountID
	}
	if patch.MemberID != nil {
		tx.MemberID = *patch.MemberID
	}
	if patch.Status != nil {
		tx.Status = *patch.Status
	}
	if patch.PaidInstallments != nil {
		tx.PaidInstallments = *patch.PaidInstallments
	}
	if patch.IsRecurring != nil {
		tx.IsRecurring = *patch.IsRecurring
	}
}

func applyAccountPatch(a *repo.Account, patch repo.AccountPatch) {
	if patch.HolderID != nil {
		a.HolderID = *patch.HolderID
	}
	if patch.Balance != nil {
		a.Balance = *patch.Balance
	}
	if patch.AccountType != nil {
		a.AccountType = *patch.AccountType
	}
	if patch.Limit != nil {
		a.Limit = *patch.Limit
	}
	if patch.ClosingDay != nil {
		a.ClosingDay = *patch.ClosingDay
	}
	if patch.DueDay != nil {
		a.DueDay = *patch.DueDay
	}
}
