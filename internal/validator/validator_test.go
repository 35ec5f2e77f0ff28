package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	RecipientID int64  `json:"recipientId" validate:"required"`
	Title       string `json:"title" validate:"required,max=5"`
	Ignored     string `json:"-"`
}

func TestValidate(t *testing.T) {
	msgs := Messages{
		"recipientId.required": "El destinatario es requerido",
		"title.max":            "El título es largo",
	}

	tests := []struct {
		name string
		in   sample
		want string
	}{
		{"missing recipient", sample{Title: "hola"}, "El destinatario es requerido"},
		{"too long", sample{RecipientID: 1, Title: "demasiado"}, "El título es largo"},
		{"unmapped tag falls back", sample{RecipientID: 1}, "Datos inválidos"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in, msgs, "Datos inválidos")
			if assert.Error(t, err) {
				assert.Equal(t, tt.want, err.Error())
			}
		})
	}

	assert.NoError(t, Validate(sample{RecipientID: 1, Title: "ok"}, msgs, "x"))
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var("https://hooks.slack.com/x", "url"))
	assert.Error(t, Var("nope", "url"))
}
