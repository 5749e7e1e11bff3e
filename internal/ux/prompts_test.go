package ux

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultYes bool
		want       bool
	}{
		{"yes", "y\n", false, true},
		{"full word", "YES\n", false, true},
		{"no", "n\n", true, false},
		{"empty takes default yes", "\n", true, true},
		{"empty takes default no", "\n", false, false},
		{"eof takes default", "", true, true},
		{"no trailing newline", "y", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewLinePrompter(strings.NewReader(tt.input), &out)
			assert.Equal(t, tt.want, p.Confirm("Delete event 3?", tt.defaultYes))
			assert.Contains(t, out.String(), "Delete event 3?")
		})
	}
}

func TestString(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompter(strings.NewReader("  a@b.com \n\n"), &out)

	assert.Equal(t, "a@b.com", p.String("Email", ""))
	assert.Equal(t, "Berlin", p.String("Location", "Berlin"))
	assert.Contains(t, out.String(), "Location [Berlin]: ")
}
