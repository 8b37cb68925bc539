package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	assert.Equal(t, "ts", Code("TypeScript"))
	assert.Equal(t, "cpp", Code("C++"))
	assert.Equal(t, "cs", Code("C#"))
	assert.Equal(t, "cs", Code("C-Sharp"))
	assert.Equal(t, "", Code("Haskell"))
	assert.Equal(t, "", Code(""))
}

func TestNameRoundTrip(t *testing.T) {
	for code, name := range names {
		assert.Equal(t, code, Code(name))
		assert.Equal(t, name, Name(code))
	}
}

func TestEntries_SortedByName(t *testing.T) {
	got := Entries([]string{"ts", "go", "c"})

	assert.Equal(t, []Entry{
		{Language: "c", Name: "C"},
		{Language: "go", Name: "Go"},
		{Language: "ts", Name: "TypeScript"},
	}, got)
}
