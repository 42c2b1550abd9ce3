package checkmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalKeyNullFolding(t *testing.T) {
	assert.Equal(t, "", canonicalKey(nil))
	assert.Equal(t, "", canonicalKey([]byte("")))
	assert.Equal(t, "", canonicalKey([]byte("  ")))
	assert.Equal(t, "", canonicalKey([]byte("null")))
	assert.Equal(t, "", canonicalKey([]byte("  null\n")))
}

func TestCanonicalKeyOrderIndependent(t *testing.T) {
	a := canonicalKey([]byte(`{"timeout": 5, "port": 443}`))
	b := canonicalKey([]byte(`{"port":443,"timeout":5}`))
	assert.Equal(t, a, b)
	assert.NotEqual(t, "", a)
}

func TestCanonicalKeyWhitespaceIndependent(t *testing.T) {
	a := canonicalKey([]byte(`{ "port" : 443 }`))
	b := canonicalKey([]byte(`{"port":443}`))
	assert.Equal(t, a, b)
}

func TestCanonicalKeyDistinguishesValues(t *testing.T) {
	a := canonicalKey([]byte(`{"port":443}`))
	b := canonicalKey([]byte(`{"port":80}`))
	assert.NotEqual(t, a, b)
}

func TestCanonicalKeyNonJSONFallsBackToText(t *testing.T) {
	assert.Equal(t, "not json", canonicalKey([]byte("  not json ")))
}
