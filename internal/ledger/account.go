package ledger

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

type AccountType string

const (
	TypeAsset     AccountType = "asset"
	TypeLiability AccountType = "liability"
	TypeEquity    AccountType = "equity"
	TypeRevenue   AccountType = "revenue"
	TypeExpense   AccountType = "expense"
)

var AllAccountTypes = []AccountType{
	TypeAsset,
	TypeLiability,
	TypeEquity,
	TypeRevenue,
	TypeExpense,
}

// Nature is the side on which an account's balance increases.
type Nature string

const (
	NatureDebit  Nature = "debit"
	NatureCredit Nature = "credit"
)

type Account struct {
	ID                 string      `json:"id"`
	CompanyID          string      `json:"company_id"`
	Code               string      `json:"code"`
	Name               string      `json:"name"`
	ParentID           string      `json:"parent_id,omitempty"`
	Level              int         `json:"level"`
	Path               string      `json:"path"`
	Type               AccountType `json:"type"`
	Nature             Nature      `json:"nature"`
	IsControlAccount   bool        `json:"is_control_account"`
	AllowDirectPosting bool        `json:"allow_direct_posting"`
	Active             bool        `json:"active"`
	Position           int         `json:"position"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

var codePattern = regexp.MustCompile(`^[0-9]{3,10}$`)

// NatureFor returns the conventional balance side for an account type.
// Assets and expenses are debit-normal; liabilities, equity, and revenue
// are credit-normal.
func NatureFor(t AccountType) Nature {
	switch t {
	case TypeAsset, TypeExpense:
		return NatureDebit
	default:
		return NatureCredit
	}
}

// ValidAccountType checks if a type string is one of the five types.
func ValidAccountType(t AccountType) bool {
	for _, at := range AllAccountTypes {
		if at == t {
			return true
		}
	}
	return false
}

// TypeLabel returns a human-readable label for an account type.
func TypeLabel(t AccountType) string {
	switch t {
	case TypeAsset:
		return "Assets"
	case TypeLiability:
		return "Liabilities"
	case TypeEquity:
		return "Equity"
	case TypeRevenue:
		return "Revenue"
	case TypeExpense:
		return "Expenses"
	default:
		return string(t)
	}
}

// Validate checks all account invariants. natureOverride relaxes the
// type/nature consistency check for callers that deliberately carry a
// contra account (e.g. accumulated depreciation).
func (a *Account) Validate(natureOverride bool) error {
	if a.CompanyID == "" {
		return ErrMissingCompany
	}
	if !codePattern.MatchString(a.Code) {
		return fmt.Errorf("%w: %q (must be 3-10 digits)", ErrInvalidAccountCode, a.Code)
	}
	if a.Name == "" {
		return ErrMissingAccountName
	}
	if !ValidAccountType(a.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidAccountType, a.Type)
	}
	if a.Nature != NatureDebit && a.Nature != NatureCredit {
		return fmt.Errorf("%w: %q", ErrInvalidNature, a.Nature)
	}
	if !natureOverride && a.Nature != NatureFor(a.Type) {
		return fmt.Errorf("%w: %s accounts are %s-normal, got %s",
			ErrTypeNatureMismatch, a.Type, NatureFor(a.Type), a.Nature)
	}
	if a.IsControlAccount && a.AllowDirectPosting {
		return fmt.Errorf("%w: control accounts cannot allow direct posting", ErrControlAccountPosting)
	}
	return nil
}

// PathContains reports whether the materialized path includes the given
// account id as an ancestor or self. Used for move cycle checks.
func PathContains(path, accountID string) bool {
	return strings.Contains(path, "/"+accountID+"/")
}

// ChildPath derives a node's path from its parent's path. Root accounts
// have path "/<id>/".
func ChildPath(parentPath, id string) string {
	if parentPath == "" {
		return "/" + id + "/"
	}
	return parentPath + id + "/"
}
