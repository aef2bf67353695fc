package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDBError_Predicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{"not found", NewError(ErrKindNotFound, "no rows"), IsNotFound},
		{"timeout", NewError(ErrKindTimeout, "deadline"), IsTimeout},
		{"connection", NewError(ErrKindConnectionFailed, "refused"), IsConnectionFailed},
		{"query", NewError(ErrKindQueryFailed, "syntax"), IsQueryFailed},
		{"invalid input", NewError(ErrKindInvalidInput, "bad op"), IsInvalidInput},
		{"introspection", NewError(ErrKindIntrospection, "pragma failed"), IsIntrospection},
		{"unsupported construct", NewError(ErrKindUnsupportedConstruct, "no rule"), IsUnsupportedConstruct},
		{"duplicate object", NewError(ErrKindDuplicateObject, "exists"), IsDuplicateObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.pred(tt.err))
			assert.False(t, tt.pred(nil))
		})
	}
}

func TestDBError_WrappedThroughChain(t *testing.T) {
	cause := errors.New("driver says no")
	err := WrapError(ErrKindIntrospection, "list tables", cause)
	wrapped := fmt.Errorf("dump aborted: %w", err)

	assert.True(t, IsIntrospection(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, err.Error(), "introspection_failed")
	assert.Contains(t, err.Error(), "list tables")
}

func TestDBError_PlainErrorIsUnknown(t *testing.T) {
	err := errors.New("something else")
	assert.False(t, IsNotFound(err))
	assert.False(t, IsIntrospection(err))
	assert.False(t, IsDuplicateObject(err))
}
