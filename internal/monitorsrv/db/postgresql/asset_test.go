package postgresql

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobToLike(t *testing.T) {
	tests := []struct {
		glob string
		want string
	}{
		{"*", "%"},
		{"web-*", "web-%"},
		{"db-??", "db-__"},
		{"plain", "plain"},
		{"100%", "100\\%"},
		{"a_b", "a\\_b"},
		{`c:\tmp*`, `c:\\tmp%`},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, globToLike(tt.glob), "glob %q", tt.glob)
	}
}
