// Package tokenize turns free-form postcode queries into normalized tokens.
//
// Normalization decomposes the text, drops combining marks and folds case,
// so "ÄA11 0" and "aa11 0" produce the same tokens. Tokens are maximal runs
// of letters and digits; everything else is a delimiter.
//
// A query that does not end in a delimiter is still being typed, so its last
// token is marked as a prefix:
//
//	tokenize.Query("AA1")    // ["aa1"], last is prefix
//	tokenize.Query("AA11 0") // ["aa11" "0"], last is prefix
//	tokenize.Query("AA11 ")  // ["aa11"], exact
//
// Query is the default tokenizer of Index.Search and Catalog.Search, so a
// complete postcode such as "AA11 0" prefix-matches its inward code and also
// finds "AA11 0AB". Use Exact, or end the query with a delimiter, to match
// whole tokens only.
package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hupe1980/postcodes/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Func converts a query string into tokens.
type Func func(query string) model.TokenSlice

// Normalize strips diacritics and folds case.
func Normalize(s string) string {
	// Transformers keep state, so a fresh chain is built per call.
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
		cases.Fold(),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// IsDelimiter reports whether r separates tokens.
func IsDelimiter(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Split returns the tokens of an already normalized string.
func Split(s string) []string {
	return strings.FieldsFunc(s, IsDelimiter)
}

// Tokens normalizes and splits s.
func Tokens(s string) []string {
	return Split(Normalize(s))
}

// Query tokenizes a search query. The last token is a prefix unless the
// query ends in a delimiter.
func Query(q string) model.TokenSlice {
	n := Normalize(q)
	tokens := Split(n)
	if len(tokens) == 0 {
		return model.NewTokenSlice(nil, false)
	}
	last, _ := utf8.DecodeLastRuneInString(n)
	return model.NewTokenSlice(tokens, !IsDelimiter(last))
}

// Exact tokenizes q with every token matched exactly.
func Exact(q string) model.TokenSlice {
	tokens := Tokens(q)
	if len(tokens) == 0 {
		return model.NewTokenSlice(nil, false)
	}
	return model.NewTokenSlice(tokens, false)
}

var (
	_ Func = Query
	_ Func = Exact
)
