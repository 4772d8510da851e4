package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/openmorse/gocw/tone"
)

func TestConcreteExamples(t *testing.T) {
	rep, err := CharacterToRepresentation('A')
	require.NoError(t, err)
	assert.Equal(t, ".-", rep)

	rep, err = CharacterToRepresentation('Z')
	require.NoError(t, err)
	assert.Equal(t, "--..", rep)

	rep, err = CharacterToRepresentation('?')
	require.NoError(t, err)
	assert.Equal(t, "..--..", rep)

	ch, err := RepresentationToCharacter("...-.")
	require.NoError(t, err)
	assert.Equal(t, byte('!'), ch)
}

func TestCaseFolding(t *testing.T) {
	upper, err := CharacterToRepresentation('A')
	require.NoError(t, err)
	lower, err := CharacterToRepresentation('a')
	require.NoError(t, err)
	assert.Equal(t, upper, lower)
}

func TestNotFound(t *testing.T) {
	_, err := CharacterToRepresentation('~')
	assert.ErrorIs(t, err, tone.ErrNotFound)

	_, err = RepresentationToCharacter("......")
	assert.ErrorIs(t, err, tone.ErrNotFound)
}

func TestRepresentationIsValid(t *testing.T) {
	assert.True(t, RepresentationIsValid("."))
	assert.True(t, RepresentationIsValid("-.-.--"))
	assert.False(t, RepresentationIsValid(""))
	assert.False(t, RepresentationIsValid(".x-"))
	assert.False(t, RepresentationIsValid("........")) // too long
}

func TestCharacterIsValid(t *testing.T) {
	assert.True(t, CharacterIsValid('A'))
	assert.True(t, CharacterIsValid(' '))
	assert.False(t, CharacterIsValid('~'))
}

func TestHashRangeInvariant(t *testing.T) {
	for _, e := range table {
		h := RepresentationHash(e.rep)
		assert.GreaterOrEqual(t, int(h), 2)
		assert.LessOrEqual(t, int(h), 255)
	}
}

// Every table entry must round-trip: rep-to-char(char-to-rep(c)) == upper(c).
func TestRoundTripInvariant(t *testing.T) {
	for _, e := range table {
		rep, err := CharacterToRepresentation(e.ch)
		require.NoError(t, err)
		ch, err := RepresentationToCharacter(rep)
		require.NoError(t, err)
		assert.Equal(t, e.ch, ch)
	}
}

// Property: for any valid representation composed purely of table entries'
// characters, the hash lands in [2,255] and round-trips.
func TestRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		idx := rapid.IntRange(0, len(table)-1).Draw(rt, "idx")
		e := table[idx]

		rep, err := CharacterToRepresentation(e.ch)
		require.NoError(rt, err)
		assert.Equal(rt, e.rep, rep)

		h := RepresentationHash(rep)
		assert.GreaterOrEqual(rt, int(h), 2)
		assert.LessOrEqual(rt, int(h), 255)

		ch, err := RepresentationToCharacter(rep)
		require.NoError(rt, err)
		assert.Equal(rt, e.ch, ch)
	})
}

func TestExpandProcedural(t *testing.T) {
	rep, err := ExpandProcedural("sk")
	require.NoError(t, err)
	assert.Equal(t, "...-.-", rep)

	_, err = ExpandProcedural("ZZ")
	assert.ErrorIs(t, err, tone.ErrNotFound)
}
