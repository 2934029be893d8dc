package title

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/pinnote/internal/apperr"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		raw      string
		want     string
		modified bool
	}{
		{"Groceries", "Groceries", false},
		{"a/b", "ab", true},
		{`C:\notes\todo?`, "Cnotestodo", true},
		{`<"x">|*`, "x", true},
		{"///", "", true},
		{"", "", false},
		{"ünïcode ok", "ünïcode ok", false},
	}
	for _, c := range cases {
		got, modified := Sanitize(c.raw)
		assert.Equal(t, c.want, got, "Sanitize(%q)", c.raw)
		assert.Equal(t, c.modified, modified, "Sanitize(%q) modified", c.raw)
	}
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("Meeting notes"))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("a:b"))
	assert.False(t, IsValid("dir/name"))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("ok"))

	err := Validate("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrInvalidTitle))

	err = Validate("a|b")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrInvalidTitle)
	assert.Contains(t, err.Error(), "must not contain")
}
