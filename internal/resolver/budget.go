package resolver

import (
	"context"

	"github.com/zjean/firefly-iii-sub003/internal/model"
	"github.com/zjean/firefly-iii-sub003/internal/store"
)

// BudgetResolver finds or creates budgets for a user.
type BudgetResolver struct {
	budgets store.BudgetStore
}

// NewBudgetResolver creates a BudgetResolver.
func NewBudgetResolver(budgets store.BudgetStore) *BudgetResolver {
	return &BudgetResolver{budgets: budgets}
}

// Resolve finds a budget by id, then by name, creating one when the
// ref carries a name.
func (r *BudgetResolver) Resolve(ctx context.Context, userID uint, ref model.BudgetRef) (model.Budget, bool, error) {
	if ref.ID != 0 {
		budget, ok, err := r.budgets.BudgetByID(ctx, userID, ref.ID)
		if err != nil || ok {
			return budget, ok, err
		}
	}
	if ref.Name == "" {
		return model.Budget{}, false, nil
	}
	budget, ok, err := r.budgets.BudgetByName(ctx, userID, ref.Name)
	if err != nil || ok {
		return budget, ok, err
	}
	budget = model.Budget{UserID: userID, Name: ref.Name, Active: true}
	if err := r.budgets.CreateBudget(ctx, &budget); err != nil {
		return model.Budget{}, false, err
	}
	return budget, true, nil
}

// CategoryResolver finds or creates categories for a user.
type CategoryResolver struct {
	categories store.CategoryStore
}

// NewCategoryResolver creates a CategoryResolver.
func NewCategoryResolver(categories store.CategoryStore) *CategoryResolver {
	return &CategoryResolver{categories: categories}
}

// Resolve finds a category by id, then by name, creating one when the
// ref carries a name.
func (r *CategoryResolver) Resolve(ctx context.Context, userID uint, ref model.CategoryRef) (model.Category, bool, error) {
	if ref.ID != 0 {
		category, ok, err := r.categories.CategoryByID(ctx, userID, ref.ID)
		if err != nil || ok {
			return category, ok, err
		}
	}
	if ref.Name == "" {
		return model.Category{}, false, nil
	}
	category, ok, err := r.categories.CategoryByName(ctx, userID, ref.Name)
	if err != nil || ok {
		return category, ok, err
	}
	category = model.Category{UserID: userID, Name: ref.Name}
	if err := r.categories.CreateCategory(ctx, &category); err != nil {
		return model.Category{}, false, err
	}
	return category, true, nil
}
