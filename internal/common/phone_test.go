package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		expectError bool
	}{
		{name: "Safaricom local 07", input: "0712345678", expected: "254712345678"},
		{name: "Local 01 prefix", input: "0112345678", expected: "254112345678"},
		{name: "International with plus", input: "+254712345678", expected: "254712345678"},
		{name: "International without plus", input: "254712345678", expected: "254712345678"},
		{name: "Surrounding whitespace trimmed", input: "  0712345678 ", expected: "254712345678"},
		{name: "Empty string", input: "", expectError: true},
		{name: "Local too short", input: "071234567", expectError: true},
		{name: "Local too long", input: "07123456789", expectError: true},
		{name: "Unsupported local prefix", input: "0812345678", expectError: true},
		{name: "International too short", input: "25471234567", expectError: true},
		{name: "Other country code", input: "+255712345678", expectError: true},
		{name: "Letters", input: "07123abc78", expectError: true},
		{name: "Double plus", input: "++254712345678", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := NormalizePhone(tt.input)

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidPhone)
				assert.True(t, IsValidation(err))
				assert.Empty(t, result)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestNormalizePhone_LocalFormsKeepLastNineDigits(t *testing.T) {
	for _, prefix := range []string{"07", "01"} {
		for _, rest := range []string{"00000000", "12345678", "99999999"} {
			input := prefix + rest
			result, err := NormalizePhone(input)
			require.NoError(t, err)
			assert.Equal(t, "254"+input[1:], result)
			assert.Len(t, result, 12)
		}
	}
}

func TestNormalizePhone_SameNumberSameKey(t *testing.T) {
	forms := []string{"0712345678", "+254712345678", "254712345678"}
	keys := make(map[string]struct{})
	for _, f := range forms {
		key, err := NormalizePhone(f)
		require.NoError(t, err)
		keys[key] = struct{}{}
	}
	assert.Len(t, keys, 1)
}
