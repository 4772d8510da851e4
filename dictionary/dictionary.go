// Package dictionary is the static, process-global Morse code table: a
// bidirectional map between characters and Dot/Dash representations.
//
// The table content is grounded in doismellburning-samoyed/src/morse.go's
// MORSE table (itself carrying ARRL and Wikipedia extras beyond the basic
// ITU alphabet); the lookup structures are the O(1) byte-indexed array and
// bit-built hash that spec.md §4.1 requires, which the teacher's linear
// morse_lookup scan does not provide.
package dictionary

import (
	"strings"

	"github.com/openmorse/gocw/tone"
)

// MaxRepresentationLen is the longest representation in the table.
const MaxRepresentationLen = 7

type entry struct {
	ch  byte
	rep string
}

// table is the compiled-in set of entries: the 26 letters, 10 digits, and
// ITU/ARRL/Wikipedia punctuation and procedural signs.
var table = []entry{
	{'A', ".-"}, {'B', "-..."}, {'C', "-.-."}, {'D', "-.."}, {'E', "."},
	{'F', "..-."}, {'G', "--."}, {'H', "...."}, {'I', ".."}, {'J', ".---"},
	{'K', "-.-"}, {'L', ".-.."}, {'M', "--"}, {'N', "-."}, {'O', "---"},
	{'P', ".--."}, {'Q', "--.-"}, {'R', ".-."}, {'S', "..."}, {'T', "-"},
	{'U', "..-"}, {'V', "...-"}, {'W', ".--"}, {'X', "-..-"}, {'Y', "-.--"},
	{'Z', "--.."},
	{'1', ".----"}, {'2', "..---"}, {'3', "...--"}, {'4', "....-"},
	{'5', "....."}, {'6', "-...."}, {'7', "--..."}, {'8', "---.."},
	{'9', "----."}, {'0', "-----"},

	{'.', ".-.-.-"}, {',', "--..--"}, {'?', "..--.."}, {'/', "-..-."},
	{'=', "-...-"},  // ARRL: break/separator, prosign BT.
	{'-', "-....-"}, // ARRL.
	{')', "-.--.-"}, // ARRL: does not distinguish open/close.
	{':', "---..."}, {';', "-.-.-."}, {'"', ".-..-."}, {'\'', ".----."},
	{'$', "...-..-"},

	{'!', "...-."}, {'(', "-.--."}, {'&', ".-..."}, {'+', ".-.-."},
	{'_', "..--.-"}, {'@', ".--.-."},
}

// procEntry is a non-standard procedural signal (prosign), expanded from a
// short mnemonic to the run-together Morse it is actually sent as (e.g.
// SK is sent as "...-.-" with no inter-letter gap).
type procEntry struct {
	name string
	rep  string
}

var procTable = []procEntry{
	{"AR", ".-.-."},  // end of message
	{"AS", ".-..."},  // wait
	{"BT", "-...-"},  // break / new paragraph
	{"KN", "-.--."},  // invite named station only
	{"SK", "...-.-"}, // end of contact
	{"VE", "...-."},  // understood
}

// byChar is the 256-slot forward lookup table, indexed by upper-cased
// ASCII byte value. Empty string means "no representation."
var byChar [256]string

// byHash is the reverse lookup table, indexed by the bit-built hash of a
// representation (range [2,255]; see RepresentationHash).
var byHash [256]byte

func init() {
	for _, e := range table {
		byChar[e.ch] = e.rep
		h := RepresentationHash(e.rep)
		byHash[h] = e.ch
	}
}

// RepresentationHash builds the constant-time reverse-lookup key for a
// Dot/Dash string: seed with a leading 1 bit (so "." and ".." hash
// differently despite one being a prefix of the other), then for each
// symbol shift left and OR in 0 for Dot, 1 for Dash. The result is always
// in [2,255] for representations of length <= 7, since MaxRepresentationLen
// caps it at 1<<8 - 1 = 255 and the shortest representation ("." or "-")
// yields 2 or 3.
func RepresentationHash(rep string) byte {
	h := byte(1)
	for i := 0; i < len(rep); i++ {
		h <<= 1
		if rep[i] == '-' {
			h |= 1
		}
	}
	return h
}

// CharacterToRepresentation looks up the Dot/Dash representation for a
// character, case-folding ASCII letters to upper case first. Returns
// tone.ErrNotFound if ch has no representation.
func CharacterToRepresentation(ch byte) (string, error) {
	ch = foldUpper(ch)
	rep := byChar[ch]
	if rep == "" {
		return "", tone.ErrNotFound
	}
	return rep, nil
}

// RepresentationToCharacter looks up the character for a Dot/Dash
// representation. Returns tone.ErrNotFound if unknown.
func RepresentationToCharacter(rep string) (byte, error) {
	if !RepresentationIsValid(rep) {
		return 0, tone.ErrNotFound
	}
	h := RepresentationHash(rep)
	ch := byHash[h]
	if ch == 0 {
		return 0, tone.ErrNotFound
	}
	return ch, nil
}

// ExpandProcedural looks up a procedural-signal mnemonic (e.g. "SK") and
// returns the representation it is sent as, run together with no
// inter-letter gaps. Returns tone.ErrNotFound if unknown.
func ExpandProcedural(name string) (string, error) {
	name = strings.ToUpper(name)
	for _, p := range procTable {
		if p.name == name {
			return p.rep, nil
		}
	}
	return "", tone.ErrNotFound
}

// RepresentationIsValid reports whether rep is a non-empty string over
// {'.', '-'}.
func RepresentationIsValid(rep string) bool {
	if len(rep) == 0 || len(rep) > MaxRepresentationLen {
		return false
	}
	for i := 0; i < len(rep); i++ {
		if rep[i] != '.' && rep[i] != '-' {
			return false
		}
	}
	return true
}

// CharacterIsValid reports whether ch (case-folded) is a table member or
// the ASCII space (which the generator treats as an inter-word-space, not
// a dictionary entry).
func CharacterIsValid(ch byte) bool {
	if ch == ' ' {
		return true
	}
	return byChar[foldUpper(ch)] != ""
}

func foldUpper(ch byte) byte {
	if ch >= 'a' && ch <= 'z' {
		return ch - ('a' - 'A')
	}
	return ch
}
