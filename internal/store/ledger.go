package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jshauns81/daily-bread/internal/model"
	"github.com/jshauns81/daily-bread/internal/money"
)

type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// --- Account methods ---

const accountCols = `id, profile_id, name, is_default, active, created_at`

func scanAccount(s scanner) (*model.Account, error) {
	var a model.Account
	var isDefault, active int

	err := s.Scan(&a.ID, &a.ProfileID, &a.Name, &isDefault, &active, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	a.IsDefault = isDefault != 0
	a.Active = active != 0
	return &a, nil
}

// CreateAccount adds an account for a profile. Marking it default clears
// the default flag on the profile's other accounts so at most one active
// default exists.
func (s *LedgerStore) CreateAccount(profileID int64, name string, isDefault bool) (*model.Account, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if isDefault {
		if _, err := tx.Exec(`UPDATE accounts SET is_default = 0 WHERE profile_id = ?`, profileID); err != nil {
			return nil, fmt.Errorf("clear default: %w", err)
		}
	}
	result, err := tx.Exec(
		`INSERT INTO accounts (profile_id, name, is_default) VALUES (?, ?, ?)`,
		profileID, name, boolInt(isDefault),
	)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetAccountByID(id)
}

func (s *LedgerStore) GetAccountByID(id int64) (*model.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *LedgerStore) ListAccountsByProfile(profileID int64) ([]model.Account, error) {
	rows, err := s.db.Query(
		`SELECT `+accountCols+` FROM accounts WHERE profile_id = ? ORDER BY is_default DESC, name ASC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// DefaultAccount resolves the account earnings land on: the active
// default first, then any active account, else nil.
func (s *LedgerStore) DefaultAccount(profileID int64) (*model.Account, error) {
	row := s.db.QueryRow(
		`SELECT `+accountCols+` FROM accounts
		 WHERE profile_id = ? AND active = 1
		 ORDER BY is_default DESC, id ASC LIMIT 1`,
		profileID,
	)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("default account: %w", err)
	}
	return a, nil
}

func (s *LedgerStore) DeactivateAccount(id int64) error {
	_, err := s.db.Exec(`UPDATE accounts SET active = 0, is_default = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate account: %w", err)
	}
	return nil
}

// --- Transaction methods ---

const txCols = `id, account_id, record_id, amount_cents, type, description, date, transfer_group_id, created_at`

func scanTransaction(s scanner) (*model.Transaction, error) {
	var t model.Transaction
	var record sql.NullInt64
	var cents int64
	var date string
	var group sql.NullString

	err := s.Scan(&t.ID, &t.AccountID, &record, &cents, &t.Type, &t.Description, &date, &group, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if record.Valid {
		t.RecordID = &record.Int64
	}
	t.Amount = money.FromCents(cents)
	d, err := parseDate(date)
	if err != nil {
		return nil, fmt.Errorf("parse transaction date: %w", err)
	}
	t.Date = d
	if group.Valid {
		t.TransferGroupID = &group.String
	}
	return &t, nil
}

// Balance is the signed sum of an account's transactions.
func (s *LedgerStore) Balance(accountID int64) (decimal.Decimal, error) {
	var cents sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE account_id = ?`,
		accountID,
	).Scan(&cents)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum balance: %w", err)
	}
	return money.FromCents(cents.Int64), nil
}

// TransactionForRecord returns the single transaction linked to a
// completion record, or nil.
func (s *LedgerStore) TransactionForRecord(recordID int64) (*model.Transaction, error) {
	row := s.db.QueryRow(`SELECT `+txCols+` FROM transactions WHERE record_id = ?`, recordID)
	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("transaction for record: %w", err)
	}
	return t, nil
}

func (s *LedgerStore) ListTransactionsByAccount(accountID int64) ([]model.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT `+txCols+` FROM transactions WHERE account_id = ? ORDER BY date DESC, id DESC`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, *t)
	}
	return txs, rows.Err()
}

// UpsertForRecord writes the single transaction tied to a completion
// record: insert when absent, update in place when present. The partial
// unique index on record_id backs the 1:1 invariant.
func (s *LedgerStore) UpsertForRecord(recordID, accountID int64, amount decimal.Decimal, txType model.TransactionType, description string, date time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRow(`SELECT id FROM transactions WHERE record_id = ?`, recordID).Scan(&existing)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(
			`INSERT INTO transactions (account_id, record_id, amount_cents, type, description, date) VALUES (?, ?, ?, ?, ?, ?)`,
			accountID, recordID, money.ToCents(amount), txType, description, fmtDate(date),
		)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
	case err != nil:
		return fmt.Errorf("find linked transaction: %w", err)
	default:
		_, err = tx.Exec(
			`UPDATE transactions SET account_id = ?, amount_cents = ?, type = ?, description = ?, date = ? WHERE id = ?`,
			accountID, money.ToCents(amount), txType, description, fmtDate(date), existing,
		)
		if err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
	}
	return tx.Commit()
}

// DeleteForRecord removes the transaction linked to a record, if any.
func (s *LedgerStore) DeleteForRecord(recordID int64) error {
	_, err := s.db.Exec(`DELETE FROM transactions WHERE record_id = ?`, recordID)
	if err != nil {
		return fmt.Errorf("delete linked transaction: %w", err)
	}
	return nil
}

// Insert adds a standalone transaction (bonus credit, adjustment).
func (s *LedgerStore) Insert(accountID int64, amount decimal.Decimal, txType model.TransactionType, description string, date time.Time) (*model.Transaction, error) {
	result, err := s.db.Exec(
		`INSERT INTO transactions (account_id, amount_cents, type, description, date) VALUES (?, ?, ?, ?, ?)`,
		accountID, money.ToCents(amount), txType, description, fmtDate(date),
	)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+txCols+` FROM transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

// Withdraw debits an account after checking, in the same transaction,
// that the balance covers the amount. Used for payouts.
func (s *LedgerStore) Withdraw(accountID int64, amount decimal.Decimal, txType model.TransactionType, description string, date time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := checkBalance(tx, accountID, amount); err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO transactions (account_id, amount_cents, type, description, date) VALUES (?, ?, ?, ?, ?)`,
		accountID, -money.ToCents(amount), txType, description, fmtDate(date),
	)
	if err != nil {
		return fmt.Errorf("insert withdrawal: %w", err)
	}
	return tx.Commit()
}

// Transfer writes both legs of an account-to-account transfer in one
// database transaction. The balance check and the two inserts commit or
// roll back as a unit; one leg without the other is never observable.
func (s *LedgerStore) Transfer(fromID, toID int64, amount decimal.Decimal, description string, date time.Time, groupID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := checkBalance(tx, fromID, amount); err != nil {
		return err
	}

	cents := money.ToCents(amount)
	_, err = tx.Exec(
		`INSERT INTO transactions (account_id, amount_cents, type, description, date, transfer_group_id) VALUES (?, ?, ?, ?, ?, ?)`,
		fromID, -cents, model.TxTransfer, description, fmtDate(date), groupID,
	)
	if err != nil {
		return fmt.Errorf("insert debit leg: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO transactions (account_id, amount_cents, type, description, date, transfer_group_id) VALUES (?, ?, ?, ?, ?, ?)`,
		toID, cents, model.TxTransfer, description, fmtDate(date), groupID,
	)
	if err != nil {
		return fmt.Errorf("insert credit leg: %w", err)
	}
	return tx.Commit()
}

func checkBalance(tx *sql.Tx, accountID int64, amount decimal.Decimal) error {
	var cents sql.NullInt64
	err := tx.QueryRow(
		`SELECT COALESCE(SUM(amount_cents), 0) FROM transactions WHERE account_id = ?`,
		accountID,
	).Scan(&cents)
	if err != nil {
		return fmt.Errorf("sum balance: %w", err)
	}
	if money.FromCents(cents.Int64).LessThan(amount) {
		return model.ErrInsufficientBalance
	}
	return nil
}
