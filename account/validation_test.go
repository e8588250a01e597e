package account

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		ok    bool
	}{
		{"parent@test.com", true},
		{"first.last@sub.domain.org", true},
		{"", false},
		{"   ", false},
		{"no-at-sign.com", false},
		{"missing@tld", false},
		{"two words@test.com", false},
	}
	for _, tc := range tests {
		err := ValidateEmail(tc.email)
		if tc.ok {
			require.NoError(t, err, tc.email)
		} else {
			require.Error(t, err, tc.email)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	require.Error(t, ValidatePassword(""))
	require.Error(t, ValidatePassword("short7!"))
	require.NoError(t, ValidatePassword("validpass1"))
}

func TestValidateConfirmation(t *testing.T) {
	require.NoError(t, ValidateConfirmation("secret12", "secret12"))
	require.Error(t, ValidateConfirmation("secret12", "secret13"))
}

func TestValidateRequired(t *testing.T) {
	require.Error(t, ValidateRequired("first name", "  "))
	require.EqualError(t, ValidateRequired("first name", ""), "first name is required")
	require.NoError(t, ValidateRequired("first name", "Jane"))
}
