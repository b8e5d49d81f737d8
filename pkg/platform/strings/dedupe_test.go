package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeLower(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"nil", nil, nil},
		{"only blanks", []string{"", "  "}, nil},
		{"keeps first-seen order", []string{" TRF1", "stj", "trf1", "STJ ", "tse"}, []string{"trf1", "stj", "tse"}},
		{"single", []string{"stf"}, []string{"stf"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeLower(tt.in))
		})
	}
}
