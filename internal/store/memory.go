package store

import (
	"context"
	"sort"
	"sync"

	"fjacquet/fintrack/internal/models"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Operation names accepted by MemoryStore.InjectFailure.
const (
	OpInsertTransactions        = "InsertTransactions"
	OpFindTransactions          = "FindTransactions"
	OpUpdateTransaction         = "UpdateTransaction"
	OpFindCategorizationRules   = "FindCategorizationRules"
	OpUpsertCategorizationRule  = "UpsertCategorizationRule"
	OpFindCategories            = "FindCategories"
	OpUpdateRecurringDefinition = "UpdateRecurringDefinition"
	OpFindRecurringDefinitions  = "FindRecurringDefinitions"
)

// FailureFunc decides whether the n-th call (1-based) of an operation fails.
type FailureFunc func(call int) error

// MemoryStore is a thread-safe in-memory Store. Records keep insertion
// order. Failures can be injected per operation.
type MemoryStore struct {
	mu           sync.RWMutex
	accounts     map[string]models.Account
	categories   []models.Category
	transactions []models.Transaction
	rules        []models.CategorizationRule
	recurring    []models.RecurringDefinition

	failures map[string]FailureFunc
	calls    map[string]int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]models.Account),
		failures: make(map[string]FailureFunc),
		calls:    make(map[string]int),
	}
}

// InjectFailure installs fn for op. Passing nil removes it.
func (m *MemoryStore) InjectFailure(op string, fn FailureFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = fn
}

// Calls returns how many times op was invoked.
func (m *MemoryStore) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// fail must be called with the write lock held.
func (m *MemoryStore) fail(op string) error {
	m.calls[op]++
	if fn, ok := m.failures[op]; ok {
		return fn(m.calls[op])
	}
	return nil
}

// AddAccount stores acc, assigning an ID when empty.
func (m *MemoryStore) AddAccount(acc models.Account) models.Account {
	m.mu.Lock()
	defer m.mu.Unlock()
	if acc.ID == "" {
		acc.ID = uuid.New().String()
	}
	m.accounts[acc.ID] = acc
	return acc
}

// AddCategory stores c, assigning an ID when empty.
func (m *MemoryStore) AddCategory(c models.Category) models.Category {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	m.categories = append(m.categories, c)
	return c
}

// AddTransaction stores t, assigning an ID when empty.
func (m *MemoryStore) AddTransaction(t models.Transaction) models.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	m.transactions = append(m.transactions, t)
	return t
}

// Transactions returns a copy of every stored transaction.
func (m *MemoryStore) Transactions() []models.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Transaction(nil), m.transactions...)
}

// Rules returns a copy of every stored rule, inactive ones included.
func (m *MemoryStore) Rules() []models.CategorizationRule {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.CategorizationRule(nil), m.rules...)
}

func (m *MemoryStore) GetAccount(_ context.Context, id string) (models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[id]
	if !ok {
		return models.Account{}, notFound("account", id)
	}
	return acc, nil
}

func (m *MemoryStore) FindCategories(_ context.Context, userID string) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(OpFindCategories); err != nil {
		return nil, err
	}
	var out []models.Category
	for _, c := range m.categories {
		if c.VisibleTo(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetCategory(_ context.Context, id string) (models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return models.Category{}, notFound("category", id)
}

func (m *MemoryStore) InsertCategories(_ context.Context, categories []models.Category) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, len(categories))
	for i, c := range categories {
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		ids[i] = c.ID
		m.categories = append(m.categories, c)
	}
	return ids, nil
}

func (m *MemoryStore) FindTransactions(_ context.Context, accountID string, from, to civil.Date) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(OpFindTransactions); err != nil {
		return nil, err
	}
	var out []models.Transaction
	for _, t := range m.transactions {
		if t.AccountID == accountID && !t.Date.Before(from) && !t.Date.After(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

// InsertTransactions stores all txs or, when an injected failure fires, none.
func (m *MemoryStore) InsertTransactions(_ context.Context, txs []models.Transaction) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(OpInsertTransactions); err != nil {
		return nil, err
	}
	ids := make([]string, len(txs))
	for i, t := range txs {
		if t.ID == "" {
			t.ID = uuid.New().String()
		}
		t.Tags = append([]string(nil), t.Tags...)
		ids[i] = t.ID
		m.transactions = append(m.transactions, t)
	}
	return ids, nil
}

func (m *MemoryStore) GetTransaction(_ context.Context, id string) (models.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.transactions {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Transaction{}, notFound("transaction", id)
}

func (m *MemoryStore) UpdateTransaction(_ context.Context, id string, update models.TransactionUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(OpUpdateTransaction); err != nil {
		return err
	}
	for i := range m.transactions {
		if m.transactions[i].ID != id {
			continue
		}
		if update.CategoryID != nil {
			c := *update.CategoryID
			m.transactions[i].CategoryID = &c
		}
		if update.Status != nil {
			m.transactions[i].Status = *update.Status
		}
		return nil
	}
	return notFound("transaction", id)
}

func (m *MemoryStore) categoryByID(id string) (models.Category, bool) {
	for _, c := range m.categories {
		if c.ID == id {
			return c, true
		}
	}
	return models.Category{}, false
}

func (m *MemoryStore) withCategory(r models.CategorizationRule) models.CategorizationRule {
	if c, ok := m.categoryByID(r.CategoryID); ok {
		r.CategoryName, r.CategoryType = c.Name, c.Type
	}
	return r
}

func (m *MemoryStore) FindCategorizationRules(_ context.Context, userID string) ([]models.CategorizationRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(OpFindCategorizationRules); err != nil {
		return nil, err
	}
	var out []models.CategorizationRule
	for _, r := range m.rules {
		if !r.IsActive || (r.UserID != nil && *r.UserID != userID) {
			continue
		}
		out = append(out, m.withCategory(r))
	}
	return out, nil
}

func (m *MemoryStore) FindRuleByPattern(_ context.Context, userID, pattern string) (*models.CategorizationRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rules {
		if r.UserID != nil && *r.UserID == userID && r.Pattern == pattern {
			found := m.withCategory(r)
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) UpsertCategorizationRule(_ context.Context, rule models.CategorizationRule) (models.CategorizationRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(OpUpsertCategorizationRule); err != nil {
		return models.CategorizationRule{}, err
	}
	rule.CategoryName, rule.CategoryType = "", ""
	if rule.ID != "" {
		for i := range m.rules {
			if m.rules[i].ID == rule.ID {
				m.rules[i] = rule
				return m.withCategory(rule), nil
			}
		}
	} else {
		rule.ID = uuid.New().String()
	}
	m.rules = append(m.rules, rule)
	return m.withCategory(rule), nil
}

func (m *MemoryStore) FindRecurringDefinitions(_ context.Context, userID string, filter models.RecurringFilter) ([]models.RecurringDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(OpFindRecurringDefinitions); err != nil {
		return nil, err
	}
	var out []models.RecurringDefinition
	for _, d := range m.recurring {
		if d.UserID != userID || (filter.ActiveOnly && !d.IsActive) {
			continue
		}
		if filter.DueOnOrBefore != nil && d.NextOccurrence.After(*filter.DueOnOrBefore) {
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NextOccurrence.Before(out[j].NextOccurrence)
	})
	return out, nil
}

func (m *MemoryStore) GetRecurringDefinition(_ context.Context, id string) (models.RecurringDefinition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.recurring {
		if d.ID == id {
			return d, nil
		}
	}
	return models.RecurringDefinition{}, notFound("recurring definition", id)
}

func (m *MemoryStore) InsertRecurringDefinition(_ context.Context, d models.RecurringDefinition) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	m.recurring = append(m.recurring, d)
	return d.ID, nil
}

func (m *MemoryStore) UpdateRecurringDefinition(_ context.Context, id string, update models.RecurringUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(OpUpdateRecurringDefinition); err != nil {
		return err
	}
	for i := range m.recurring {
		if m.recurring[i].ID != id {
			continue
		}
		if update.NextOccurrence != nil {
			m.recurring[i].NextOccurrence = *update.NextOccurrence
		}
		if update.IsActive != nil {
			m.recurring[i].IsActive = *update.IsActive
		}
		return nil
	}
	return notFound("recurring definition", id)
}

// Migrate is a no-op.
func (m *MemoryStore) Migrate(context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
