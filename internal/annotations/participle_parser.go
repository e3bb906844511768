package annotations

import (
	"errors"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Prefix introduces every kiln directive inside a line comment.
const Prefix = "kiln::"

// directive is the participle grammar of one directive line, without the
// leading "//".
type directive struct {
	Kind        string    `parser:"Prefix @Word"`
	Positionals []*value  `parser:"@@*"`
	Options     []*option `parser:"@@*"`
}

type option struct {
	Key    string   `parser:"'-' @Word"`
	Values []*value `parser:"( '=' @@ ( ',' @@ )* )?"`
}

type value struct {
	Text string `parser:"@String | @Word | @Number"`
}

var directiveLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Prefix", Pattern: `kiln::`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Word", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*(?:[./][a-zA-Z0-9_]+)*`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Punct", Pattern: `[-=,]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Parser turns directive comments into validated Annotations.
type Parser struct {
	grammar  *participle.Parser[directive]
	registry Registry
}

// NewParser creates a parser validating against registry. A nil registry
// uses DefaultRegistry.
func NewParser(registry Registry) *Parser {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Parser{
		grammar: participle.MustBuild[directive](
			participle.Lexer(directiveLexer),
			participle.Elide("Whitespace"),
			participle.Unquote("String"),
		),
		registry: registry,
	}
}

// IsDirective reports whether a comment line is a kiln directive.
func IsDirective(comment string) bool {
	_, ok := directiveBody(comment)
	return ok
}

func directiveBody(comment string) (string, bool) {
	text := strings.TrimSpace(comment)
	if !strings.HasPrefix(text, "//") {
		return "", false
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, "//"))
	if !strings.HasPrefix(text, Prefix) {
		return "", false
	}
	return text, true
}

// Parse parses a single comment line such as "//kiln::viewmodel -Scope=AppScope".
func (p *Parser) Parse(comment string, loc SourceLocation) (*Annotation, error) {
	body, ok := directiveBody(comment)
	if !ok {
		return nil, &SyntaxError{
			Message: "directive must start with //" + Prefix,
			Loc:     loc,
		}
	}

	ast, err := p.grammar.ParseString(loc.File, body)
	if err != nil {
		var perr participle.Error
		msg := err.Error()
		if errors.As(err, &perr) {
			msg = perr.Message()
		}
		return nil, &SyntaxError{Message: msg, Loc: loc, Cause: err}
	}

	kind, err := ParseKind(ast.Kind)
	if err != nil {
		return nil, &SyntaxError{
			Message: err.Error(),
			Loc:     loc,
			Hint:    "known directives: " + strings.Join(KindNames(), ", "),
		}
	}

	schema, err := p.registry.Schema(kind)
	if err != nil {
		return nil, &SyntaxError{Message: err.Error(), Loc: loc, Cause: err}
	}

	annotation := &Annotation{
		Kind:       kind,
		Parameters: make(map[string]any),
		Location:   loc,
		Raw:        strings.TrimSpace(comment),
	}
	for _, v := range ast.Positionals {
		annotation.Args = append(annotation.Args, v.Text)
	}
	for _, opt := range ast.Options {
		annotation.Parameters[opt.Key] = convertOption(schema, opt)
	}

	if err := Validate(annotation, schema); err != nil {
		return nil, err
	}
	return annotation, nil
}

// convertOption maps raw option values onto the declared parameter type.
// Unknown options keep their raw shape so validation can report them.
func convertOption(schema Schema, opt *option) any {
	texts := make([]string, len(opt.Values))
	for i, v := range opt.Values {
		texts[i] = v.Text
	}

	spec, known := schema.Parameters[opt.Key]
	switch {
	case known && spec.Type == StringSliceType:
		return texts
	case len(texts) == 0:
		if known && spec.Type != BoolType && spec.DefaultValue != nil {
			return spec.DefaultValue
		}
		return true
	case len(texts) == 1:
		if known && spec.Type == BoolType {
			if b, err := parseBoolString(texts[0]); err == nil {
				return b
			}
		}
		return texts[0]
	default:
		return texts
	}
}

func parseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	}
	return false, errors.New("invalid boolean string: " + s)
}
