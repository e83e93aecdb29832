package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCensor(t *testing.T) {
	c, err := NewCensor([]string{"badger", "snake"}, 0)
	require.NoError(t, err)
	require.NotNil(t, c)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain word", input: "The badger is here", want: "The ****** is here"},
		{name: "repeated", input: "badger badger", want: "****** ******"},
		{name: "leet and punctuation", input: "Look at B.4.d.g.3r !", want: "Look at ********** !"},
		{name: "uppercase with dashes", input: "S-N-A-K-E", want: "*********"},
		{name: "accents untouched", input: "Un été avec un badger", want: "Un été avec un ******"},
		{name: "clean text", input: "hello world", want: "hello world"},
		{name: "only noise", input: "?!.", want: "?!."},
		{name: "inside a longer word", input: "badgers everywhere", want: "badgers everywhere"},
		{name: "after punctuation", input: "(badger)", want: "(******)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, c.Censor(tt.input))
		})
	}
}

func TestNewCensorEmptyList(t *testing.T) {
	c, err := NewCensor(nil, '#')
	require.NoError(t, err)
	require.Nil(t, c)

	c, err = NewCensor([]string{"", "  ", "..."}, '#')
	require.NoError(t, err)
	require.Nil(t, c)
}

func TestCensorCustomMask(t *testing.T) {
	c, err := NewCensor([]string{"snake"}, '#')
	require.NoError(t, err)
	require.Equal(t, "a ##### bite", c.Censor("a snake bite"))
}

func TestCensorRespectsWordBoundaries(t *testing.T) {
	c, err := NewCensor([]string{"snake", "ass"}, 0)
	require.NoError(t, err)

	for _, clean := range []string{"cats naked", "was sick", "class act", "a s s"} {
		require.Equal(t, clean, c.Censor(clean))
	}
	require.Equal(t, "you *** and a *****", c.Censor("you ass and a snake"))
	require.Equal(t, "***** act", c.Censor("a.s.s act"))
}
