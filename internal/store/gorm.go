package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zjean/firefly-iii-sub003/internal/model"
)

// Database is the sqlite-backed Store implementation.
type Database struct {
	db *gorm.DB
}

// Open connects to the sqlite database at dbPath and migrates the
// schema.
func Open(dbPath string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Currency{},
		&model.Account{},
		&model.Budget{},
		&model.Category{},
		&model.Journal{},
		&model.TransactionLeg{},
		&model.Recurrence{},
		&model.RecurrenceRepetition{},
		&model.RecurrenceTransaction{},
		&model.Rule{},
		&model.RuleTrigger{},
		&model.RuleAction{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Database{db: db}, nil
}

// NewDatabase wraps an already-open gorm handle. Used by tests that
// share one sqlite connection.
func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) AllRecurrences(ctx context.Context) ([]model.Recurrence, error) {
	var recurrences []model.Recurrence
	err := d.db.WithContext(ctx).
		Preload("RepetitionRules").
		Preload("Transactions").
		Find(&recurrences).Error
	if err != nil {
		return nil, Fatal("loading recurrences", err)
	}
	return recurrences, nil
}

func (d *Database) JournalCount(ctx context.Context, recurrenceID uint) (int, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(&model.Journal{}).
		Where("recurrence_id = ?", recurrenceID).
		Count(&count).Error
	if err != nil {
		return 0, Fatal("counting journals", err)
	}
	return int(count), nil
}

func (d *Database) JournalExistsOnDate(ctx context.Context, recurrenceID uint, date time.Time) (bool, error) {
	start := startOfDay(date)
	end := start.AddDate(0, 0, 1)
	var count int64
	err := d.db.WithContext(ctx).
		Model(&model.Journal{}).
		Where("recurrence_id = ? AND date >= ? AND date < ?", recurrenceID, start, end).
		Count(&count).Error
	if err != nil {
		return false, Fatal("checking journal existence", err)
	}
	return count > 0, nil
}

// CreateRecurringJournals writes the journals, their legs and the
// recurrence's latest_date in one transaction. A partially written
// occurrence never survives.
func (d *Database) CreateRecurringJournals(ctx context.Context, journals []*model.Journal, recurrenceID uint, occurrence time.Time) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Last line of defense against overlapping runs: the check
		// runs inside the same transaction as the insert.
		start := startOfDay(occurrence)
		var count int64
		if err := tx.Model(&model.Journal{}).
			Where("recurrence_id = ? AND date >= ? AND date < ?", recurrenceID, start, start.AddDate(0, 0, 1)).
			Count(&count).Error; err != nil {
			return fmt.Errorf("checking for duplicate occurrence: %w", err)
		}
		if count > 0 {
			return ErrDuplicateOccurrence
		}
		for _, journal := range journals {
			if err := tx.Create(journal).Error; err != nil {
				return fmt.Errorf("creating journal: %w", err)
			}
		}
		res := tx.Model(&model.Recurrence{}).
			Where("id = ?", recurrenceID).
			Update("latest_date", startOfDay(occurrence))
		if res.Error != nil {
			return fmt.Errorf("updating latest date: %w", res.Error)
		}
		return nil
	})
	if errors.Is(err, ErrDuplicateOccurrence) {
		return err
	}
	if err != nil {
		return Fatal("creating recurring journal", err)
	}
	return nil
}

func (d *Database) UpdateJournal(ctx context.Context, journal *model.Journal) error {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(journal).Error; err != nil {
			return fmt.Errorf("saving journal: %w", err)
		}
		for i := range journal.Legs {
			if err := tx.Save(&journal.Legs[i]).Error; err != nil {
				return fmt.Errorf("saving leg: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Fatal("updating journal", err)
	}
	return nil
}

func (d *Database) RecurrenceRules(ctx context.Context, userID uint) ([]model.Rule, error) {
	var rules []model.Rule
	err := d.db.WithContext(ctx).
		Preload("Triggers", func(db *gorm.DB) *gorm.DB {
			return db.Order("trigger_order")
		}).
		Preload("Actions", func(db *gorm.DB) *gorm.DB {
			return db.Order("action_order")
		}).
		Where("user_id = ? AND active = ? AND on_recurrence = ?", userID, true, true).
		Order("rule_order").
		Find(&rules).Error
	if err != nil {
		return nil, Fatal("loading rules", err)
	}
	return rules, nil
}

func (d *Database) AccountByID(ctx context.Context, userID, id uint) (model.Account, bool, error) {
	var account model.Account
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&account).Error
	return found(account, "finding account", err)
}

func (d *Database) AccountByName(ctx context.Context, userID uint, name string, accountType model.AccountType) (model.Account, bool, error) {
	var account model.Account
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND name = ? AND type = ?", userID, name, accountType).
		First(&account).Error
	return found(account, "finding account by name", err)
}

func (d *Database) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := d.db.WithContext(ctx).Create(account).Error; err != nil {
		return Fatal("creating account", err)
	}
	return nil
}

func (d *Database) CurrencyByID(ctx context.Context, id uint) (model.Currency, bool, error) {
	var currency model.Currency
	err := d.db.WithContext(ctx).First(&currency, id).Error
	return found(currency, "finding currency", err)
}

func (d *Database) CurrencyByCode(ctx context.Context, code string) (model.Currency, bool, error) {
	var currency model.Currency
	err := d.db.WithContext(ctx).Where("code = ?", code).First(&currency).Error
	return found(currency, "finding currency by code", err)
}

func (d *Database) CreateCurrency(ctx context.Context, currency *model.Currency) error {
	if err := d.db.WithContext(ctx).Create(currency).Error; err != nil {
		return Fatal("creating currency", err)
	}
	return nil
}

func (d *Database) BudgetByID(ctx context.Context, userID, id uint) (model.Budget, bool, error) {
	var budget model.Budget
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&budget).Error
	return found(budget, "finding budget", err)
}

func (d *Database) BudgetByName(ctx context.Context, userID uint, name string) (model.Budget, bool, error) {
	var budget model.Budget
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		First(&budget).Error
	return found(budget, "finding budget by name", err)
}

func (d *Database) CreateBudget(ctx context.Context, budget *model.Budget) error {
	if err := d.db.WithContext(ctx).Create(budget).Error; err != nil {
		return Fatal("creating budget", err)
	}
	return nil
}

func (d *Database) CategoryByID(ctx context.Context, userID, id uint) (model.Category, bool, error) {
	var category model.Category
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&category).Error
	return found(category, "finding category", err)
}

func (d *Database) CategoryByName(ctx context.Context, userID uint, name string) (model.Category, bool, error) {
	var category model.Category
	err := d.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		First(&category).Error
	return found(category, "finding category by name", err)
}

func (d *Database) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := d.db.WithContext(ctx).Create(category).Error; err != nil {
		return Fatal("creating category", err)
	}
	return nil
}

func (d *Database) UserByID(ctx context.Context, id uint) (model.User, bool, error) {
	var user model.User
	err := d.db.WithContext(ctx).First(&user, id).Error
	return found(user, "finding user", err)
}

// found maps gorm's not-found error to the (zero, false, nil) lookup
// convention and everything else to a fatal store error.
func found[T any](record T, op string, err error) (T, bool, error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		var zero T
		return zero, false, Fatal(op, err)
	}
	return record, true, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
