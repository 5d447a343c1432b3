package ssr_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ivargas/misterio/internal/ssr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceCustomElements(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     []string
	}{
		{
			name:     "expands primary button element into a real button",
			fragment: `<button-primary>Investigar</button-primary>`,
			want:     []string{`<button class="btn-primary">Investigar</button>`},
		},
		{
			name:     "styles button with as attribute in place",
			fragment: `<button as="button-primary" type="submit">Resolver</button>`,
			want:     []string{"<button ", `class="btn-primary"`, `type="submit"`},
		},
		{
			name:     "styles clue items",
			fragment: `<ul><clue-item>Una llave del despacho</clue-item></ul>`,
			want:     []string{`class="clue-card"`, "Una llave del despacho"},
		},
		{
			name:     "plain markup passes through",
			fragment: `<p>El cuerpo fue hallado en la sala de comisiones.</p>`,
			want:     []string{`<p>El cuerpo fue hallado en la sala de comisiones.</p>`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			err := ssr.ReplaceCustomElements(&buf, strings.NewReader(tt.fragment))
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
			assert.NotContains(t, buf.String(), `as="button-primary"`)
			assert.NotContains(t, buf.String(), "<button-primary")
		})
	}
}

func TestExpandDocument(t *testing.T) {
	t.Parallel()
	page := `<!doctype html>
<html lang="es">
<head><title>Partidas</title></head>
<body><button as="button-primary" type="submit">Nuevo caso</button></body>
</html>`

	var buf bytes.Buffer
	err := ssr.ExpandDocument(&buf, strings.NewReader(page))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "<title>Partidas</title>")
	// The submit control has to survive as a real button or the form cannot
	// be submitted.
	assert.Contains(t, out, "<button ")
	assert.Contains(t, out, `class="btn-primary"`)
	assert.Contains(t, out, `type="submit"`)
	assert.NotContains(t, out, "<button-primary")
	assert.NotContains(t, out, `as="button-primary"`)
}
