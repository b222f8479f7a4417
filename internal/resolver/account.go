package resolver

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zjean/firefly-iii-sub003/internal/model"
	"github.com/zjean/firefly-iii-sub003/internal/store"
)

// AccountResolver finds or creates accounts for a user.
type AccountResolver struct {
	accounts store.AccountStore
}

// NewAccountResolver creates an AccountResolver.
func NewAccountResolver(accounts store.AccountStore) *AccountResolver {
	return &AccountResolver{accounts: accounts}
}

// Resolve finds an account by id, then by name and type, creating one
// when the ref carries a name and type. ok is false when nothing
// matched and nothing could be created.
func (r *AccountResolver) Resolve(ctx context.Context, userID uint, ref model.AccountRef) (model.Account, bool, error) {
	if ref.ID != 0 {
		account, ok, err := r.accounts.AccountByID(ctx, userID, ref.ID)
		if err != nil || ok {
			return account, ok, err
		}
	}
	if ref.Name != "" && ref.Type != "" {
		account, ok, err := r.accounts.AccountByName(ctx, userID, ref.Name, ref.Type)
		if err != nil || ok {
			return account, ok, err
		}
		account = model.Account{
			UserID: userID,
			Name:   ref.Name,
			Type:   ref.Type,
		}
		normalizeAsset(&account, ref)
		if err := r.accounts.CreateAccount(ctx, &account); err != nil {
			return model.Account{}, false, err
		}
		return account, true, nil
	}
	return model.Account{}, false, nil
}

// normalizeAsset applies asset-only fields. Expense and revenue
// accounts never carry an IBAN or a virtual balance.
func normalizeAsset(account *model.Account, ref model.AccountRef) {
	account.VirtualBalance = decimal.Zero
	if account.Type != model.AccountTypeAsset {
		account.IBAN = ""
		return
	}
	account.IBAN = NormalizeIBAN(ref.IBAN)
}

// NormalizeIBAN strips spaces and uppercases an IBAN.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(iban), " ", ""))
}
