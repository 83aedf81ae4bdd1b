package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_WrappedStillDetected(t *testing.T) {
	err := fmt.Errorf("add reading: %w", NewValidation("temperature_c", "must be within [%d, %d]", -50, 200))
	assert.True(t, IsValidation(err))
	assert.False(t, IsAuthorization(err))
	assert.Contains(t, err.Error(), "temperature_c must be within [-50, 200]")
}

func TestRuleCheckError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &RuleCheckError{RuleID: "EFC-5-1", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "rule EFC-5-1 check failed: boom", err.Error())
}

func TestAuthorizationError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &AuthorizationError{Capability: "admin"})
	assert.True(t, IsAuthorization(err))
	assert.Contains(t, err.Error(), "admin capability required")
}
