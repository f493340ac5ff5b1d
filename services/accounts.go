package services

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"netsuite-gateway/models"
	"netsuite-gateway/netsuite"
	"netsuite-gateway/sqlbuilder"
)

// AccountService owns the process-lifetime account metadata cache: numbers,
// names, types, parents, elimination flags. Accounts load lazily on first
// reference, one resolution query per unknown batch.
type AccountService struct {
	exec netsuite.Executor
	log  *logrus.Entry

	mu       sync.RWMutex
	byNumber map[string]models.Account
	// missing remembers numbers the ERP has no account for, so repeated
	// requests do not re-issue the resolution query.
	missing map[string]bool
}

// NewAccountService builds the account metadata service
func NewAccountService(exec netsuite.Executor) *AccountService {
	return &AccountService{
		exec:     exec,
		log:      logrus.WithField("component", "accounts"),
		byNumber: make(map[string]models.Account),
		missing:  make(map[string]bool),
	}
}

// PrimeTitles preloads every active account's metadata at startup so the
// add-in's title lookups hit memory. Failure logs and continues; accounts
// then resolve lazily.
func (s *AccountService) PrimeTitles(ctx context.Context) {
	rows, err := s.exec.Query(ctx, sqlbuilder.AccountTitles())
	if err != nil {
		s.log.WithError(err).Warn("account title preload failed, resolving lazily")
		return
	}
	s.mu.Lock()
	for _, row := range rows {
		number := models.NormalizeAccountNumber(row.String("acctnumber"))
		if number == "" {
			continue
		}
		if existing, ok := s.byNumber[number]; ok {
			existing.Name = row.String("fullname")
			s.byNumber[number] = existing
			continue
		}
		s.byNumber[number] = models.Account{Number: number, Name: row.String("fullname")}
	}
	s.mu.Unlock()
	s.log.WithField("accounts", len(rows)).Info("account titles primed")
}

// Resolve returns full metadata for the given numbers, issuing at most one
// type-resolution query for the set not yet cached. Numbers the ERP does not
// know are absent from the result.
func (s *AccountService) Resolve(ctx context.Context, numbers []string) (map[string]models.Account, error) {
	out := make(map[string]models.Account, len(numbers))
	var unknown []string

	s.mu.RLock()
	for _, number := range numbers {
		if acct, ok := s.byNumber[number]; ok && acct.Type != "" {
			out[number] = acct
		} else if !s.missing[number] {
			unknown = append(unknown, number)
		}
	}
	s.mu.RUnlock()

	if len(unknown) == 0 {
		return out, nil
	}

	sql, err := sqlbuilder.AccountMeta(unknown)
	if err != nil {
		return nil, err
	}
	rows, err := s.exec.Query(ctx, sql)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]bool, len(rows))
	s.mu.Lock()
	for _, row := range rows {
		acct := models.Account{
			Number:       models.NormalizeAccountNumber(row.String("acctnumber")),
			InternalID:   row.Int("id"),
			Name:         row.String("fullname"),
			Type:         row.String("accttype"),
			ParentNumber: row.String("parentnumber"),
			IsEliminate:  row.Bool("eliminate"),
			SpecialTag:   row.String("sspecacct"),
		}
		if acct.Number == "" {
			continue
		}
		s.byNumber[acct.Number] = acct
		resolved[acct.Number] = true
		out[acct.Number] = acct
	}
	for _, number := range unknown {
		if !resolved[number] {
			s.missing[number] = true
		}
	}
	s.mu.Unlock()
	return out, nil
}

// Name returns the account's full name; NOT_FOUND when the ERP has no account
func (s *AccountService) Name(ctx context.Context, number string) (string, error) {
	acct, err := s.one(ctx, number)
	if err != nil {
		return "", err
	}
	return acct.Name, nil
}

// Type returns the account's type tag
func (s *AccountService) Type(ctx context.Context, number string) (string, error) {
	acct, err := s.one(ctx, number)
	if err != nil {
		return "", err
	}
	return acct.Type, nil
}

// Parent returns the parent account number, empty for top-level accounts
func (s *AccountService) Parent(ctx context.Context, number string) (string, error) {
	acct, err := s.one(ctx, number)
	if err != nil {
		return "", err
	}
	return acct.ParentNumber, nil
}

func (s *AccountService) one(ctx context.Context, number string) (models.Account, error) {
	number = models.NormalizeAccountNumber(number)
	if number == "" {
		return models.Account{}, models.NewAppError(models.ErrValidation, "missing account number")
	}
	resolved, err := s.Resolve(ctx, []string{number})
	if err != nil {
		return models.Account{}, err
	}
	acct, ok := resolved[number]
	if !ok {
		return models.Account{}, models.NewAppError(models.ErrNotFound, "account %s not found", number)
	}
	return acct, nil
}

// Types returns the type tag per account for a batch, skipping unknowns
func (s *AccountService) Types(ctx context.Context, numbers []string) (map[string]string, error) {
	resolved, err := s.Resolve(ctx, numbers)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(resolved))
	for number, acct := range resolved {
		if acct.Type != "" {
			out[number] = acct.Type
		}
	}
	return out, nil
}

// SearchResult is one row of /accounts/search
type SearchResult struct {
	ID            int64  `json:"id"`
	AccountNumber string `json:"accountnumber"`
	AccountName   string `json:"accountname"`
	AcctType      string `json:"accttype"`
}

// Search finds accounts by wildcard pattern
func (s *AccountService) Search(ctx context.Context, pattern string, activeOnly bool) ([]SearchResult, error) {
	sql, err := sqlbuilder.AccountSearch(pattern, activeOnly)
	if err != nil {
		return nil, err
	}
	rows, err := s.exec.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, 0, len(rows))
	for _, row := range rows {
		out = append(out, SearchResult{
			ID:            row.Int("id"),
			AccountNumber: row.String("acctnumber"),
			AccountName:   row.String("accountname"),
			AcctType:      row.String("accttype"),
		})
	}
	return out, nil
}
