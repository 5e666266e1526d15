package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Username string `validate:"required,min=3"`
	Email    string `validate:"omitempty,email"`
	Plan     string `validate:"omitempty,oneof=basico profesional"`
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		in   sample
		want string
	}{
		{
			name: "required",
			in:   sample{},
			want: "el campo Username es obligatorio",
		},
		{
			name: "min and email",
			in:   sample{Username: "ab", Email: "nope"},
			want: "el campo Username debe tener al menos 3 caracteres, el campo Email debe ser un correo válido",
		},
		{
			name: "oneof",
			in:   sample{Username: "abc", Plan: "gold"},
			want: "el campo Plan debe ser uno de: basico profesional",
		},
	}

	v := validator.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			require.Error(t, err)

			resp := ValidationError(err.(validator.ValidationErrors))
			assert.Equal(t, StatusError, resp.Status)
			assert.Equal(t, tt.want, resp.Error)
		})
	}
}

func TestConstructors(t *testing.T) {
	assert.Equal(t, Response{Status: StatusOK}, OK())
	assert.Equal(t, Response{Status: StatusOK, Data: 1}, OKWithData(1))
	assert.Equal(t, Response{Status: StatusError, Error: "x"}, Error("x"))
}
