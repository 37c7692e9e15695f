package pgerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsContention(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"serialization failure", &pq.Error{Code: CodeSerializationFailure}, true},
		{"deadlock", &pq.Error{Code: CodeDeadlockDetected}, true},
		{"lock timeout", &pq.Error{Code: CodeLockNotAvailable}, true},
		{"wrapped lock timeout", fmt.Errorf("select slot: %w", &pq.Error{Code: CodeLockNotAvailable}), true},
		{"sentinel", fmt.Errorf("%w: create", ErrContended), true},
		{"unique violation", &pq.Error{Code: CodeUniqueViolation}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsContention(tt.err))
		})
	}
}

func TestConstraintViolations(t *testing.T) {
	excl := &pq.Error{Code: CodeExclusionViolation, Constraint: "reservations_no_overlap"}

	assert.True(t, IsExclusionViolation(excl))
	assert.False(t, IsUniqueViolation(excl))
	assert.Equal(t, "reservations_no_overlap", Constraint(excl))
	assert.True(t, IsUniqueViolation(&pq.Error{Code: CodeUniqueViolation}))
	assert.True(t, IsRowSecurityViolation(&pq.Error{Code: CodeInsufficientPrivs}))
}
