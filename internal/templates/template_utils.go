package templates

import (
	"go/token"
	"strconv"
	"strings"
	"unicode"
)

// Exported converts a parameter or field name to an exported identifier:
// userID becomes UserID and _raw becomes Raw.
func Exported(name string) string {
	name = strings.TrimLeft(name, "_")
	if name == "" {
		return "Value"
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// Unexported lowers the leading upper-case run of name, keeping the last
// letter of a run that starts a new word: URLParser becomes urlParser and
// ID becomes id.
func Unexported(name string) string {
	name = strings.TrimLeft(name, "_")
	if name == "" {
		return "value"
	}
	r := []rune(name)
	n := 0
	for n < len(r) && unicode.IsUpper(r[n]) {
		n++
	}
	switch {
	case n == 0:
	case n == 1 || n == len(r):
		for i := 0; i < n; i++ {
			r[i] = unicode.ToLower(r[i])
		}
	default:
		for i := 0; i < n-1; i++ {
			r[i] = unicode.ToLower(r[i])
		}
		if !unicode.IsLetter(r[n]) {
			r[n-1] = unicode.ToLower(r[n-1])
		}
	}
	out := string(r)
	if token.IsKeyword(out) {
		out += "Value"
	}
	return out
}

// SnakeCase converts an artifact name to a file name stem:
// DetailViewModelFactory becomes detail_view_model_factory.
func SnakeCase(name string) string {
	r := []rune(name)
	var b strings.Builder
	for i, c := range r {
		if unicode.IsUpper(c) {
			prevLower := i > 0 && (unicode.IsLower(r[i-1]) || unicode.IsDigit(r[i-1]))
			nextLower := i > 0 && i+1 < len(r) && unicode.IsUpper(r[i-1]) && unicode.IsLower(r[i+1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(c))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

// Names hands out identifiers that are unique within one scope of a
// generated file.
type Names struct {
	taken map[string]bool
}

// NewNames creates a name scope with reserved names already taken.
func NewNames(reserved ...string) *Names {
	n := &Names{taken: make(map[string]bool)}
	for _, r := range reserved {
		n.taken[r] = true
	}
	return n
}

// Take returns base, or base with the first free numeric suffix from 2.
func (n *Names) Take(base string) string {
	name := base
	for i := 2; n.taken[name]; i++ {
		name = base + strconv.Itoa(i)
	}
	n.taken[name] = true
	return name
}

// Reserve marks names as taken without returning them.
func (n *Names) Reserve(names ...string) {
	for _, name := range names {
		n.taken[name] = true
	}
}
