package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wuwenbin0122/tasklist/internal/apperr"
	"github.com/wuwenbin0122/tasklist/internal/i18n"
)

type signup struct {
	Username string `json:"username" validate:"required,max=150"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=reader writer"`
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(signup{Email: "nope", Password: "short", Role: "owner"})
	require.Error(t, err)

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, []string{"email", "password", "role", "username"}, appErr.FieldNames())

	assert.Equal(t, i18n.FieldRequired, appErr.Fields["username"][0].Key)
	assert.Equal(t, i18n.FieldInvalidEmail, appErr.Fields["email"][0].Key)
	assert.Equal(t, []any{"8"}, appErr.Fields["password"][0].Args)
	assert.Equal(t, []any{"reader, writer"}, appErr.Fields["role"][0].Args)
}

func TestStructAcceptsValidInput(t *testing.T) {
	assert.NoError(t, Struct(signup{Username: "alice", Password: "longenough"}))
}

func TestStructRejectsNonStruct(t *testing.T) {
	err := Struct("not a struct")
	require.Error(t, err)
	_, ok := apperr.As(err)
	assert.False(t, ok)
}
