package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAccount() *Account {
	return &Account{
		CompanyID:          "co1",
		Code:               "1000",
		Name:               "Cash",
		Type:               TypeAsset,
		Nature:             NatureDebit,
		AllowDirectPosting: true,
		Active:             true,
	}
}

func TestAccountValidate(t *testing.T) {
	require.NoError(t, validAccount().Validate(false))
}

func TestAccountValidate_Code(t *testing.T) {
	for _, code := range []string{"", "12", "12345678901", "10a0", "10-0"} {
		a := validAccount()
		a.Code = code
		assert.ErrorIs(t, a.Validate(false), ErrInvalidAccountCode, "code %q", code)
	}
	for _, code := range []string{"100", "1000", "1234567890"} {
		a := validAccount()
		a.Code = code
		assert.NoError(t, a.Validate(false), "code %q", code)
	}
}

func TestAccountValidate_MissingFields(t *testing.T) {
	a := validAccount()
	a.CompanyID = ""
	assert.ErrorIs(t, a.Validate(false), ErrMissingCompany)

	a = validAccount()
	a.Name = ""
	assert.ErrorIs(t, a.Validate(false), ErrMissingAccountName)

	a = validAccount()
	a.Type = "intangible"
	assert.ErrorIs(t, a.Validate(false), ErrInvalidAccountType)

	a = validAccount()
	a.Nature = "sideways"
	assert.ErrorIs(t, a.Validate(false), ErrInvalidNature)
}

func TestAccountValidate_NatureMismatch(t *testing.T) {
	// Contra-asset: credit-normal asset account.
	a := validAccount()
	a.Code = "1190"
	a.Name = "Accumulated Depreciation"
	a.Nature = NatureCredit

	assert.ErrorIs(t, a.Validate(false), ErrTypeNatureMismatch)
	assert.NoError(t, a.Validate(true))
}

func TestAccountValidate_ControlPostingConflict(t *testing.T) {
	a := validAccount()
	a.IsControlAccount = true
	a.AllowDirectPosting = true
	assert.ErrorIs(t, a.Validate(false), ErrControlAccountPosting)

	a.AllowDirectPosting = false
	assert.NoError(t, a.Validate(false))
}

func TestNatureFor(t *testing.T) {
	assert.Equal(t, NatureDebit, NatureFor(TypeAsset))
	assert.Equal(t, NatureDebit, NatureFor(TypeExpense))
	assert.Equal(t, NatureCredit, NatureFor(TypeLiability))
	assert.Equal(t, NatureCredit, NatureFor(TypeEquity))
	assert.Equal(t, NatureCredit, NatureFor(TypeRevenue))
}

func TestPath(t *testing.T) {
	root := ChildPath("", "a1")
	assert.Equal(t, "/a1/", root)

	child := ChildPath(root, "b2")
	assert.Equal(t, "/a1/b2/", child)

	assert.True(t, PathContains(child, "a1"))
	assert.True(t, PathContains(child, "b2"))
	assert.False(t, PathContains(child, "c3"))
	// A node id that happens to be a substring of another id is no match.
	assert.False(t, PathContains("/a1x/", "a1"))
}
