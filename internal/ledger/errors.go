package ledger

import (
	"errors"
	"fmt"
)

// Errors in this package are per-occurrence: the recurrence engine
// logs them and skips the occurrence, the run continues.

// ErrUnresolvableTransactionType reports an account-type pairing that
// maps to no transaction type.
var ErrUnresolvableTransactionType = errors.New("cannot resolve transaction type from account pair")

// ErrSelfTransfer reports that source and destination resolved to the
// same account.
var ErrSelfTransfer = errors.New("source and destination are the same account")

// ErrAccountUnresolvable reports that an account reference matched
// nothing and carried no creation data.
var ErrAccountUnresolvable = errors.New("account reference cannot be resolved")

// ErrForeignCurrencyUnresolvable reports that a foreign amount was
// requested but its currency reference matched nothing. The journal is
// not assembled with less than was asked for.
var ErrForeignCurrencyUnresolvable = errors.New("foreign currency reference cannot be resolved")

// unresolvableType builds an ErrUnresolvableTransactionType with the
// offending pair attached.
func unresolvableType(source, destination string) error {
	return fmt.Errorf("%w: %s -> %s", ErrUnresolvableTransactionType, source, destination)
}
