package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/semaphore"

	"netsuite-gateway/models"
	"netsuite-gateway/netsuite"
	"netsuite-gateway/sqlbuilder"
)

// Transaction is one drill-down line behind a balance cell
type Transaction struct {
	ID            int64   `json:"id"`
	Date          string  `json:"transaction_date"`
	Type          string  `json:"transaction_type"`
	Number        string  `json:"transaction_number"`
	EntityName    string  `json:"entity_name"`
	Memo          string  `json:"memo"`
	Debit         float64 `json:"debit"`
	Credit        float64 `json:"credit"`
	NetAmount     float64 `json:"net_amount"`
	AccountNumber string  `json:"account_number,omitempty"`
	URL           string  `json:"netsuite_url"`
}

// TransactionList is the payload of /transactions
type TransactionList struct {
	Account      string        `json:"account"`
	Period       string        `json:"period"`
	Transactions []Transaction `json:"transactions"`
	Total        float64       `json:"total"`
}

// TransactionService lists the posted lines behind one account x period cell,
// each with a deep link into the ERP UI.
type TransactionService struct {
	exec  netsuite.Executor
	cache *Cache
	sem   *semaphore.Weighted

	// uiHost is the browser-facing host for deep links, distinct from the
	// REST API host.
	uiHost string
}

// NewTransactionService builds the drill-down service for the given account id
func NewTransactionService(exec netsuite.Executor, cache *Cache, sem *semaphore.Weighted, accountID string) *TransactionService {
	host := strings.ReplaceAll(strings.ToLower(accountID), "_", "-")
	return &TransactionService{
		exec:   exec,
		cache:  cache,
		sem:    sem,
		uiHost: fmt.Sprintf("https://%s.app.netsuite.com", host),
	}
}

// List returns the transactions posted to an account in a period
func (s *TransactionService) List(ctx context.Context, account, period string, f models.FilterBundle) (*TransactionList, error) {
	account = models.NormalizeAccountNumber(account)
	if account == "" {
		return nil, models.NewAppError(models.ErrValidation, "missing account number")
	}
	period, err := models.NormalizePeriod(period)
	if err != nil {
		return nil, err
	}

	params := FilterKeyParams(f)
	params.Accounts = []string{account}
	params.Periods = []string{period}
	key := CacheKey("transactions", params)

	v, err := s.cache.Do(ctx, key, func(ctx context.Context) (interface{}, error) {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil, models.WrapError(models.ErrTimeout, err, "cancelled waiting for query slot")
		}
		defer s.sem.Release(1)

		sql, err := sqlbuilder.Transactions(account, period, f)
		if err != nil {
			return nil, err
		}
		rows, err := s.exec.Query(ctx, sql)
		if err != nil {
			return nil, err
		}

		out := &TransactionList{
			Account:      account,
			Period:       period,
			Transactions: make([]Transaction, 0, len(rows)),
		}
		for _, row := range rows {
			id := row.Int("transaction_id")
			txn := Transaction{
				ID:            id,
				Date:          row.String("transaction_date"),
				Type:          row.String("transaction_type"),
				Number:        row.String("transaction_number"),
				EntityName:    row.String("entity_name"),
				Memo:          row.String("memo"),
				Debit:         row.Float("debit"),
				Credit:        row.Float("credit"),
				NetAmount:     row.Float("net_amount"),
				AccountNumber: row.String("account_number"),
				URL:           fmt.Sprintf("%s/app/accounting/transactions/transaction.nl?id=%d", s.uiHost, id),
			}
			out.Total += txn.NetAmount
			out.Transactions = append(out.Transactions, txn)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*TransactionList), nil
}
