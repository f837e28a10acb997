package query

import (
	"regexp"
	"strings"
	"unicode"
)

// TokenKind discriminates the token variants produced by Tokenize.
type TokenKind int

const (
	// TokenOp is one of the operator words AND, OR, NOT (Value holds the
	// uppercase name).
	TokenOp TokenKind = iota
	// TokenPhrase is a quoted phrase (Value holds the trimmed inner text).
	TokenPhrase
	// TokenCompound is a hyphenated compound word (Value holds the
	// space-joined normalized form, Original the hyphenated surface form).
	TokenCompound
	// TokenWord is a plain term.
	TokenWord
)

type Token struct {
	Kind     TokenKind
	Value    string
	Original string
}

// Unicode dash variants folded to ASCII '-' before scanning. Includes the
// soft hyphen, which copy-pasted text carries invisibly.
var dashRunes = map[rune]bool{
	'‐': true, // hyphen
	'‑': true, // non-breaking hyphen
	'‒': true, // figure dash
	'–': true, // en dash
	'—': true, // em dash
	'―': true, // horizontal bar
	'−': true, // minus sign
	'⁃': true, // hyphen bullet
	'﹣': true, // small hyphen-minus
	'－': true, // fullwidth hyphen-minus
	'­': true, // soft hyphen
}

// Curly and angled quote variants folded to ASCII '"'.
var quoteRunes = map[rune]bool{
	'“': true, // “
	'”': true, // ”
	'«': true, // «
	'»': true, // »
	'„': true, // „
	'‟': true, // ‟
	'‹': true, // ‹
	'›': true, // ›
}

var (
	// compoundRe matches two or more Latin/Cyrillic alphanumeric groups
	// joined by single hyphens ("F-16", "северо-западный").
	compoundRe = regexp.MustCompile(`^[A-Za-zА-Яа-я0-9]+(?:-[A-Za-zА-Яа-я0-9]+)+$`)
	// alnumRe matches a single Latin/Cyrillic alphanumeric group, used to
	// recognize the -word negation shorthand.
	alnumRe = regexp.MustCompile(`^[A-Za-zА-Яа-я0-9]+$`)
)

// Normalize folds Unicode dash and quote variants to their ASCII forms so
// the scanner only ever deals with '-' and '"'.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case dashRunes[r]:
			b.WriteByte('-')
		case quoteRunes[r]:
			b.WriteByte('"')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokenize scans a raw query into a flat token sequence. It never fails:
// any input, however malformed, yields a (possibly empty) token slice.
func Tokenize(q string) []Token {
	runes := []rune(Normalize(q))
	var tokens []Token
	i, n := 0, len(runes)
	for i < n {
		if unicode.IsSpace(runes[i]) {
			i++
			continue
		}
		if runes[i] == '"' {
			j := indexRune(runes, '"', i+1)
			var phrase string
			if j == -1 {
				// Unterminated phrase runs to end of input.
				phrase = string(runes[i+1:])
				i = n
			} else {
				phrase = string(runes[i+1 : j])
				i = j + 1
			}
			phrase = strings.TrimSpace(phrase)
			if phrase != "" {
				tokens = append(tokens, Token{Kind: TokenPhrase, Value: phrase})
			}
			continue
		}
		j := i
		for j < n && !unicode.IsSpace(runes[j]) && runes[j] != '"' {
			j++
		}
		word := string(runes[i:j])
		i = j
		if word == "" {
			continue
		}
		switch strings.ToUpper(word) {
		case "AND", "OR", "NOT":
			tokens = append(tokens, Token{Kind: TokenOp, Value: strings.ToUpper(word)})
			continue
		}
		if strings.HasPrefix(word, "-") && len(word) > 1 && alnumRe.MatchString(word[1:]) {
			// Leading dash is shorthand for NOT, not a literal character.
			tokens = append(tokens,
				Token{Kind: TokenOp, Value: "NOT"},
				Token{Kind: TokenWord, Value: word[1:]})
			continue
		}
		if compoundRe.MatchString(word) {
			parts := strings.Split(word, "-")
			tokens = append(tokens, Token{
				Kind:     TokenCompound,
				Value:    strings.Join(parts, " "),
				Original: word,
			})
			continue
		}
		tokens = append(tokens, Token{Kind: TokenWord, Value: word})
	}
	return tokens
}

func indexRune(runes []rune, r rune, from int) int {
	for i := from; i < len(runes); i++ {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
