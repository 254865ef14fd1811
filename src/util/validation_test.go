package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("user@example.com"))
	assert.True(t, ValidateEmail("first.last+tag@sub.example.co"))
	assert.False(t, ValidateEmail(""))
	assert.False(t, ValidateEmail("no-at-sign.example.com"))
	assert.False(t, ValidateEmail("user@nodot"))
	assert.False(t, ValidateEmail("user@example.c"))
}

func TestValidateUsername(t *testing.T) {
	assert.True(t, ValidateUsername("bob"))
	assert.True(t, ValidateUsername(strings.Repeat("a", 30)))
	assert.False(t, ValidateUsername("ab"))
	assert.False(t, ValidateUsername(strings.Repeat("a", 31)))
}

func TestValidatePassword(t *testing.T) {
	assert.True(t, ValidatePassword("Sup3r$ecret"))
	assert.False(t, ValidatePassword("short1$A"[:7]))
	assert.False(t, ValidatePassword("alllowercase1$"))
	assert.False(t, ValidatePassword("ALLUPPERCASE1$"))
	assert.False(t, ValidatePassword("NoDigitsHere$"))
	assert.False(t, ValidatePassword("NoSpecials123"))
}
