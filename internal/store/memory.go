package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/zjean/firefly-iii-sub003/internal/model"
)

// Memory is an in-memory Store. It is safe for concurrent use and
// loses everything on restart; it exists for tests and for embedding
// the engine without sqlite.
type Memory struct {
	mu          sync.RWMutex
	nextID      uint
	users       map[uint]model.User
	currencies  map[uint]model.Currency
	accounts    map[uint]model.Account
	budgets     map[uint]model.Budget
	categories  map[uint]model.Category
	recurrences map[uint]*model.Recurrence
	journals    map[uint]*model.Journal
	rules       map[uint]model.Rule
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextID:      1,
		users:       make(map[uint]model.User),
		currencies:  make(map[uint]model.Currency),
		accounts:    make(map[uint]model.Account),
		budgets:     make(map[uint]model.Budget),
		categories:  make(map[uint]model.Category),
		recurrences: make(map[uint]*model.Recurrence),
		journals:    make(map[uint]*model.Journal),
		rules:       make(map[uint]model.Rule),
	}
}

// allocID must be called with mu held.
func (m *Memory) allocID() uint {
	id := m.nextID
	m.nextID++
	return id
}

// AddUser seeds a user, assigning an id if none is set.
func (m *Memory) AddUser(user model.User) model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == 0 {
		user.ID = m.allocID()
	} else if user.ID >= m.nextID {
		m.nextID = user.ID + 1
	}
	m.users[user.ID] = user
	return user
}

// AddRecurrence seeds a recurrence, assigning an id if none is set.
func (m *Memory) AddRecurrence(recurrence model.Recurrence) model.Recurrence {
	m.mu.Lock()
	defer m.mu.Unlock()
	if recurrence.ID == 0 {
		recurrence.ID = m.allocID()
	} else if recurrence.ID >= m.nextID {
		m.nextID = recurrence.ID + 1
	}
	stored := recurrence
	m.recurrences[recurrence.ID] = &stored
	return recurrence
}

// AddRule seeds a rule, assigning an id if none is set.
func (m *Memory) AddRule(rule model.Rule) model.Rule {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rule.ID == 0 {
		rule.ID = m.allocID()
	} else if rule.ID >= m.nextID {
		m.nextID = rule.ID + 1
	}
	m.rules[rule.ID] = rule
	return rule
}

// Journals returns a copy of every stored journal, ordered by id.
func (m *Memory) Journals() []model.Journal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Journal
	for id := uint(1); id < m.nextID; id++ {
		if j, ok := m.journals[id]; ok {
			out = append(out, *j)
		}
	}
	return out
}

// Recurrence returns a copy of a stored recurrence.
func (m *Memory) Recurrence(id uint) (model.Recurrence, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recurrences[id]
	if !ok {
		return model.Recurrence{}, false
	}
	return *r, true
}

func (m *Memory) AllRecurrences(ctx context.Context) ([]model.Recurrence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Recurrence
	for id := uint(1); id < m.nextID; id++ {
		if r, ok := m.recurrences[id]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *Memory) JournalCount(ctx context.Context, recurrenceID uint) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, j := range m.journals {
		if j.RecurrenceID != nil && *j.RecurrenceID == recurrenceID {
			count++
		}
	}
	return count, nil
}

func (m *Memory) JournalExistsOnDate(ctx context.Context, recurrenceID uint, date time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.journalExistsLocked(recurrenceID, date), nil
}

func (m *Memory) journalExistsLocked(recurrenceID uint, date time.Time) bool {
	day := startOfDay(date)
	for _, j := range m.journals {
		if j.RecurrenceID != nil && *j.RecurrenceID == recurrenceID && startOfDay(j.Date).Equal(day) {
			return true
		}
	}
	return false
}

func (m *Memory) CreateRecurringJournals(ctx context.Context, journals []*model.Journal, recurrenceID uint, occurrence time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recurrence, ok := m.recurrences[recurrenceID]
	if !ok {
		return Fatal("creating recurring journals", ErrNotFound)
	}
	// The same idempotency barrier the sqlite transaction gives: two
	// overlapping runs cannot both insert for the same date.
	if m.journalExistsLocked(recurrenceID, occurrence) {
		return ErrDuplicateOccurrence
	}

	for _, journal := range journals {
		journal.ID = m.allocID()
		for i := range journal.Legs {
			journal.Legs[i].ID = m.allocID()
			journal.Legs[i].JournalID = journal.ID
		}
		stored := *journal
		stored.Legs = append([]model.TransactionLeg(nil), journal.Legs...)
		m.journals[journal.ID] = &stored
	}

	day := startOfDay(occurrence)
	recurrence.LatestDate = &day
	return nil
}

func (m *Memory) UpdateJournal(ctx context.Context, journal *model.Journal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.journals[journal.ID]; !ok {
		return Fatal("updating journal", ErrNotFound)
	}
	stored := *journal
	stored.Legs = append([]model.TransactionLeg(nil), journal.Legs...)
	m.journals[journal.ID] = &stored
	return nil
}

func (m *Memory) RecurrenceRules(ctx context.Context, userID uint) ([]model.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Rule
	for id := uint(1); id < m.nextID; id++ {
		r, ok := m.rules[id]
		if !ok || r.UserID != userID || !r.Active || !r.OnRecurrence {
			continue
		}
		out = append(out, r)
	}
	// Stable: rules sharing an order keep their insertion order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *Memory) AccountByID(ctx context.Context, userID, id uint) (model.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok || a.UserID != userID {
		return model.Account{}, false, nil
	}
	return a, true, nil
}

func (m *Memory) AccountByName(ctx context.Context, userID uint, name string, accountType model.AccountType) (model.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for id := uint(1); id < m.nextID; id++ {
		a, ok := m.accounts[id]
		if ok && a.UserID == userID && a.Name == name && a.Type == accountType {
			return a, true, nil
		}
	}
	return model.Account{}, false, nil
}

func (m *Memory) CreateAccount(ctx context.Context, account *model.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account.ID == 0 {
		account.ID = m.allocID()
	} else if account.ID >= m.nextID {
		m.nextID = account.ID + 1
	}
	m.accounts[account.ID] = *account
	return nil
}

func (m *Memory) CurrencyByID(ctx context.Context, id uint) (model.Currency, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.currencies[id]
	return c, ok, nil
}

func (m *Memory) CurrencyByCode(ctx context.Context, code string) (model.Currency, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.currencies {
		if c.Code == code {
			return c, true, nil
		}
	}
	return model.Currency{}, false, nil
}

func (m *Memory) CreateCurrency(ctx context.Context, currency *model.Currency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if currency.ID == 0 {
		currency.ID = m.allocID()
	} else if currency.ID >= m.nextID {
		m.nextID = currency.ID + 1
	}
	m.currencies[currency.ID] = *currency
	return nil
}

func (m *Memory) BudgetByID(ctx context.Context, userID, id uint) (model.Budget, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return model.Budget{}, false, nil
	}
	return b, true, nil
}

func (m *Memory) BudgetByName(ctx context.Context, userID uint, name string) (model.Budget, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.budgets {
		if b.UserID == userID && b.Name == name {
			return b, true, nil
		}
	}
	return model.Budget{}, false, nil
}

func (m *Memory) CreateBudget(ctx context.Context, budget *model.Budget) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if budget.ID == 0 {
		budget.ID = m.allocID()
	} else if budget.ID >= m.nextID {
		m.nextID = budget.ID + 1
	}
	m.budgets[budget.ID] = *budget
	return nil
}

func (m *Memory) CategoryByID(ctx context.Context, userID, id uint) (model.Category, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	if !ok || c.UserID != userID {
		return model.Category{}, false, nil
	}
	return c, true, nil
}

func (m *Memory) CategoryByName(ctx context.Context, userID uint, name string) (model.Category, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.categories {
		if c.UserID == userID && c.Name == name {
			return c, true, nil
		}
	}
	return model.Category{}, false, nil
}

func (m *Memory) CreateCategory(ctx context.Context, category *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if category.ID == 0 {
		category.ID = m.allocID()
	} else if category.ID >= m.nextID {
		m.nextID = category.ID + 1
	}
	m.categories[category.ID] = *category
	return nil
}

func (m *Memory) UserByID(ctx context.Context, id uint) (model.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}
