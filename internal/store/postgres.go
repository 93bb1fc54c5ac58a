package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/fintrack/internal/logging"
	"fjacquet/fintrack/internal/models"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Schema statements, applied in order by Migrate.
const (
	createAccountsTableSQL = `
	CREATE TABLE IF NOT EXISTS accounts (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL
	);`

	createCategoriesTableSQL = `
	CREATE TABLE IF NOT EXISTS categories (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36),
		name VARCHAR(255) NOT NULL,
		icon VARCHAR(64),
		color VARCHAR(32),
		type VARCHAR(16) NOT NULL CHECK (type IN ('income', 'expense')),
		parent_id VARCHAR(36) REFERENCES categories(id),
		is_system BOOLEAN NOT NULL DEFAULT FALSE
	);`

	createTransactionsTableSQL = `
	CREATE TABLE IF NOT EXISTS transactions (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL,
		account_id VARCHAR(36) NOT NULL REFERENCES accounts(id),
		category_id VARCHAR(36) REFERENCES categories(id),
		type VARCHAR(16) NOT NULL,
		amount NUMERIC(14, 2) NOT NULL CHECK (amount >= 0),
		description TEXT,
		date DATE NOT NULL,
		to_account_id VARCHAR(36),
		recurring_id VARCHAR(36),
		tags TEXT[],
		status VARCHAR(16) NOT NULL DEFAULT 'pending'
	);`

	createTransactionsIndexSQL = `
	CREATE INDEX IF NOT EXISTS idx_transactions_account_date ON transactions (account_id, date);`

	createRecurringTableSQL = `
	CREATE TABLE IF NOT EXISTS recurring_transactions (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36) NOT NULL,
		account_id VARCHAR(36) NOT NULL REFERENCES accounts(id),
		to_account_id VARCHAR(36),
		category_id VARCHAR(36) REFERENCES categories(id),
		type VARCHAR(16) NOT NULL,
		amount NUMERIC(14, 2) NOT NULL CHECK (amount >= 0),
		description TEXT NOT NULL DEFAULT '',
		frequency VARCHAR(16) NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE,
		next_occurrence DATE NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);`

	createRulesTableSQL = `
	CREATE TABLE IF NOT EXISTS categorization_rules (
		id VARCHAR(36) PRIMARY KEY,
		user_id VARCHAR(36),
		category_id VARCHAR(36) NOT NULL REFERENCES categories(id),
		pattern TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0 CHECK (priority BETWEEN 0 AND 100),
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);`

	createRulesIndexSQL = `
	CREATE UNIQUE INDEX IF NOT EXISTS idx_rules_user_pattern ON categorization_rules (user_id, pattern) WHERE user_id IS NOT NULL;`
)

var schema = []string{
	createAccountsTableSQL,
	createCategoriesTableSQL,
	createTransactionsTableSQL,
	createTransactionsIndexSQL,
	createRecurringTableSQL,
	createRulesTableSQL,
	createRulesIndexSQL,
}

var transactionColumns = []string{
	"id", "user_id", "account_id", "category_id", "type", "amount",
	"description", "date", "to_account_id", "recurring_id", "tags", "status",
}

const (
	selectTransactionSQL = `SELECT id, user_id, account_id, category_id, type, amount, description, date, to_account_id, recurring_id, tags, status FROM transactions`
	selectCategorySQL    = `SELECT id, user_id, name, icon, color, type, parent_id, is_system FROM categories`
	selectRecurringSQL   = `SELECT id, user_id, account_id, to_account_id, category_id, type, amount, description, frequency, start_date, end_date, next_occurrence, is_active FROM recurring_transactions`
	selectRuleSQL        = `SELECT r.id, r.user_id, r.category_id, r.pattern, r.priority, r.is_active, c.name, c.type FROM categorization_rules r JOIN categories c ON c.id = r.category_id`
)

// PostgresStore implements Store on PostgreSQL through database/sql and lib/pq.
type PostgresStore struct {
	db     *sql.DB
	logger logging.Logger
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB, logger logging.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logging.OrDefault(logger)}
}

// OpenPostgres connects to url and verifies the connection.
func OpenPostgres(ctx context.Context, url string, maxOpenConns int, logger logging.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL database: %w", err)
	}
	s := NewPostgresStore(db, logger)
	s.logger.Debug("Connected to PostgreSQL database")
	return s, nil
}

// Close closes the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Migrate creates the tables and indexes if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, query := range schema {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	s.logger.Info("Database schema is up to date", logging.F(logging.FieldCount, len(schema)))
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) GetAccount(ctx context.Context, id string) (models.Account, error) {
	var acc models.Account
	err := s.db.QueryRowContext(ctx, `SELECT id, user_id, name FROM accounts WHERE id = $1`, id).
		Scan(&acc.ID, &acc.UserID, &acc.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, notFound("account", id)
	}
	if err != nil {
		return models.Account{}, fmt.Errorf("failed to get account: %w", err)
	}
	return acc, nil
}

func scanCategory(sc scanner) (models.Category, error) {
	var (
		c                 models.Category
		userID, parentID  sql.NullString
		icon, color, kind sql.NullString
	)
	if err := sc.Scan(&c.ID, &userID, &c.Name, &icon, &color, &kind, &parentID, &c.IsSystem); err != nil {
		return models.Category{}, err
	}
	c.UserID = nullableString(userID)
	c.ParentID = nullableString(parentID)
	c.Icon, c.Color = icon.String, color.String
	c.Type = models.TransactionType(kind.String)
	return c, nil
}

func (s *PostgresStore) FindCategories(ctx context.Context, userID string) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, selectCategorySQL+` WHERE user_id IS NULL OR user_id = $1 ORDER BY is_system DESC, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *PostgresStore) GetCategory(ctx context.Context, id string) (models.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx, selectCategorySQL+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Category{}, notFound("category", id)
	}
	if err != nil {
		return models.Category{}, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) InsertCategories(ctx context.Context, categories []models.Category) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]string, 0, len(categories))
	for _, c := range categories {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, user_id, name, icon, color, type, parent_id, is_system) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID, c.UserID, c.Name, c.Icon, c.Color, string(c.Type), c.ParentID, c.IsSystem)
		if err != nil {
			return nil, fmt.Errorf("failed to insert category %q: %w", c.Name, err)
		}
		ids = append(ids, c.ID)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit categories: %w", err)
	}
	return ids, nil
}

func scanTransaction(sc scanner) (models.Transaction, error) {
	var (
		t                                  models.Transaction
		categoryID, description, toAccount sql.NullString
		recurringID                        sql.NullString
		kind, status                       string
		date                               time.Time
	)
	err := sc.Scan(&t.ID, &t.UserID, &t.AccountID, &categoryID, &kind, &t.Amount, &description,
		&date, &toAccount, &recurringID, pq.Array(&t.Tags), &status)
	if err != nil {
		return models.Transaction{}, err
	}
	t.CategoryID = nullableString(categoryID)
	t.Description = nullableString(description)
	t.ToAccountID = nullableString(toAccount)
	t.RecurringID = nullableString(recurringID)
	t.Type = models.TransactionType(kind)
	t.Status = models.TransactionStatus(status)
	t.Date = civil.DateOf(date)
	return t, nil
}

func (s *PostgresStore) FindTransactions(ctx context.Context, accountID string, from, to civil.Date) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, selectTransactionSQL+` WHERE account_id = $1 AND date >= $2 AND date <= $3 ORDER BY date, id`,
		accountID, dateValue(from), dateValue(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// InsertTransactions copies all rows inside one database transaction.
func (s *PostgresStore) InsertTransactions(ctx context.Context, txs []models.Transaction) ([]string, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("transactions", transactionColumns...))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare copy in: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	ids := make([]string, len(txs))
	for i, t := range txs {
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		ids[i] = t.ID
		_, err := stmt.ExecContext(ctx, t.ID, t.UserID, t.AccountID, t.CategoryID, string(t.Type), t.Amount,
			t.Description, dateValue(t.Date), t.ToAccountID, t.RecurringID, pq.Array(t.Tags), string(t.Status))
		if err != nil {
			return nil, fmt.Errorf("failed to execute copy in: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to finalize copy in: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transactions: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) GetTransaction(ctx context.Context, id string) (models.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx, selectTransactionSQL+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Transaction{}, notFound("transaction", id)
	}
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to get transaction: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) UpdateTransaction(ctx context.Context, id string, update models.TransactionUpdate) error {
	var (
		sets []string
		args []any
	)
	if update.CategoryID != nil {
		args = append(args, *update.CategoryID)
		sets = append(sets, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if update.Status != nil {
		args = append(args, string(*update.Status))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	return s.update(ctx, "transactions", "transaction", id, sets, args)
}

func (s *PostgresStore) update(ctx context.Context, table, resource, id string, sets []string, args []any) error {
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(sets, ", "), len(args))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", resource, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(resource, id)
	}
	return nil
}

func scanRule(sc scanner) (models.CategorizationRule, error) {
	var (
		r      models.CategorizationRule
		userID sql.NullString
		kind   string
	)
	if err := sc.Scan(&r.ID, &userID, &r.CategoryID, &r.Pattern, &r.Priority, &r.IsActive, &r.CategoryName, &kind); err != nil {
		return models.CategorizationRule{}, err
	}
	r.UserID = nullableString(userID)
	r.CategoryType = models.TransactionType(kind)
	return r, nil
}

func (s *PostgresStore) FindCategorizationRules(ctx context.Context, userID string) ([]models.CategorizationRule, error) {
	rows, err := s.db.QueryContext(ctx, selectRuleSQL+
		` WHERE r.is_active AND (r.user_id = $1 OR r.user_id IS NULL) ORDER BY (r.user_id IS NULL), r.priority DESC, r.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categorization rules: %w", err)
	}
	defer rows.Close()

	var rules []models.CategorizationRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan categorization rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *PostgresStore) FindRuleByPattern(ctx context.Context, userID, pattern string) (*models.CategorizationRule, error) {
	r, err := scanRule(s.db.QueryRowContext(ctx, selectRuleSQL+` WHERE r.user_id = $1 AND r.pattern = $2`, userID, pattern))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find categorization rule: %w", err)
	}
	return &r, nil
}

func (s *PostgresStore) UpsertCategorizationRule(ctx context.Context, rule models.CategorizationRule) (models.CategorizationRule, error) {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	query := `
		INSERT INTO categorization_rules (id, user_id, category_id, pattern, priority, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			category_id = EXCLUDED.category_id,
			pattern = EXCLUDED.pattern,
			priority = EXCLUDED.priority,
			is_active = EXCLUDED.is_active;`
	if _, err := s.db.ExecContext(ctx, query, rule.ID, rule.UserID, rule.CategoryID, rule.Pattern, rule.Priority, rule.IsActive); err != nil {
		return models.CategorizationRule{}, fmt.Errorf("failed to upsert categorization rule: %w", err)
	}
	return rule, nil
}

func scanRecurring(sc scanner) (models.RecurringDefinition, error) {
	var (
		d                     models.RecurringDefinition
		toAccount, categoryID sql.NullString
		kind, frequency       string
		start, next           time.Time
		end                   sql.NullTime
	)
	err := sc.Scan(&d.ID, &d.UserID, &d.AccountID, &toAccount, &categoryID, &kind, &d.Amount, &d.Description,
		&frequency, &start, &end, &next, &d.IsActive)
	if err != nil {
		return models.RecurringDefinition{}, err
	}
	d.ToAccountID = nullableString(toAccount)
	d.CategoryID = nullableString(categoryID)
	d.Type = models.TransactionType(kind)
	d.Frequency = models.Frequency(frequency)
	d.StartDate = civil.DateOf(start)
	d.NextOccurrence = civil.DateOf(next)
	if end.Valid {
		e := civil.DateOf(end.Time)
		d.EndDate = &e
	}
	return d, nil
}

func (s *PostgresStore) FindRecurringDefinitions(ctx context.Context, userID string, filter models.RecurringFilter) ([]models.RecurringDefinition, error) {
	query := selectRecurringSQL + ` WHERE user_id = $1`
	args := []any{userID}
	if filter.ActiveOnly {
		query += ` AND is_active`
	}
	if filter.DueOnOrBefore != nil {
		args = append(args, dateValue(*filter.DueOnOrBefore))
		query += fmt.Sprintf(` AND next_occurrence <= $%d`, len(args))
	}
	query += ` ORDER BY next_occurrence, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring definitions: %w", err)
	}
	defer rows.Close()

	var defs []models.RecurringDefinition
	for rows.Next() {
		d, err := scanRecurring(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring definition: %w", err)
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func (s *PostgresStore) GetRecurringDefinition(ctx context.Context, id string) (models.RecurringDefinition, error) {
	d, err := scanRecurring(s.db.QueryRowContext(ctx, selectRecurringSQL+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.RecurringDefinition{}, notFound("recurring definition", id)
	}
	if err != nil {
		return models.RecurringDefinition{}, fmt.Errorf("failed to get recurring definition: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) InsertRecurringDefinition(ctx context.Context, d models.RecurringDefinition) (string, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	var end any
	if d.EndDate != nil {
		end = dateValue(*d.EndDate)
	}
	query := `
		INSERT INTO recurring_transactions (id, user_id, account_id, to_account_id, category_id, type, amount, description, frequency, start_date, end_date, next_occurrence, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := s.db.ExecContext(ctx, query, d.ID, d.UserID, d.AccountID, d.ToAccountID, d.CategoryID, string(d.Type), d.Amount,
		d.Description, string(d.Frequency), dateValue(d.StartDate), end, dateValue(d.NextOccurrence), d.IsActive)
	if err != nil {
		return "", fmt.Errorf("failed to insert recurring definition: %w", err)
	}
	return d.ID, nil
}

func (s *PostgresStore) UpdateRecurringDefinition(ctx context.Context, id string, update models.RecurringUpdate) error {
	var (
		sets []string
		args []any
	)
	if update.NextOccurrence != nil {
		args = append(args, dateValue(*update.NextOccurrence))
		sets = append(sets, fmt.Sprintf("next_occurrence = $%d", len(args)))
	}
	if update.IsActive != nil {
		args = append(args, *update.IsActive)
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)))
	}
	return s.update(ctx, "recurring_transactions", "recurring definition", id, sets, args)
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func dateValue(d civil.Date) time.Time {
	return d.In(time.UTC)
}
