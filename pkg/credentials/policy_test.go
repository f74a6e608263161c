package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/commercegrid/identity-service/pkg/errors"
)

func TestCheckComplexity(t *testing.T) {
	checker := NewDefaultPolicyChecker(nil)

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"AllClasses", "Abcdef1!", false},
		{"LongerValid", "Str0ng&Secret", false},
		{"NoUppercaseDigitOrSymbol", "abcdefgh", true},
		{"NoLowercaseOrSymbol", "ABCDEFG1", true},
		{"TooShort", "Ab1!", true},
		{"NoDigit", "Abcdefg!", true},
		{"NoSymbol", "Abcdefg1", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checker.CheckComplexity(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrCodePasswordComplexity))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckComplexitySymbolSet(t *testing.T) {
	checker := NewDefaultPolicyChecker(nil)

	// Every character of the accepted symbol set satisfies the special
	// character requirement.
	for _, c := range specialChars {
		password := "Abcdef1" + string(c)
		assert.NoError(t, checker.CheckComplexity(password), "symbol %q should satisfy the policy", c)
	}

	// A space is not part of the accepted set.
	assert.Error(t, checker.CheckComplexity("Abcdef1 "))
}
