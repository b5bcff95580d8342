package common

import "fmt"

// SourceType identifies what kind of statement a file was exported from.
type SourceType string

const (
	SourceBankAccount SourceType = "bank_account"
	SourceCreditCard  SourceType = "credit_card"
)

// ParseSourceType validates a source type name.
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(s) {
	case SourceBankAccount, SourceCreditCard:
		return SourceType(s), nil
	}
	return "", fmt.Errorf("%w: unknown source type %q", ErrBadRequest, s)
}

func (s SourceType) IsCreditCard() bool { return s == SourceCreditCard }
