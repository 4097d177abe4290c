package renderer

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// TagName is the template tag that embeds a component
const TagName = "render"

// resolverKey is the global under which an Engine exposes its Resolver to
// the render tag. pongo2 context keys must be plain identifiers.
const resolverKey = "_swatch_resolver"

var (
	registerOnce sync.Once
	registerErr  error
)

// registerTag installs the render tag in pongo2's global tag table. The
// table is process wide, so this only ever happens once.
func registerTag() error {
	registerOnce.Do(func() {
		registerErr = pongo2.RegisterTag(TagName, parseRenderTag)
	})
	return registerErr
}

type renderTagNode struct {
	position *pongo2.Token
	handle   pongo2.IEvaluator
	data     pongo2.IEvaluator
	literal  *objectLiteral
	partial  pongo2.IEvaluator
}

// objectLiteral is a {"key": expr, ...} data argument. Values may be nested
// object literals.
type objectLiteral struct {
	keys   []string
	values []pongo2.IEvaluator
	nested map[int]*objectLiteral
}

// parseRenderTag parses {% render handle[, data[, partial]] %}, where data
// is an expression or an object literal.
func parseRenderTag(doc *pongo2.Parser, start *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	node := &renderTagNode{position: start}

	handle, err := arguments.ParseExpression()
	if err != nil {
		return nil, err
	}
	node.handle = handle

	if arguments.Match(pongo2.TokenSymbol, ",") != nil {
		if arguments.Peek(pongo2.TokenSymbol, "[") != nil {
			if node.literal, err = parseObjectLiteral(arguments); err != nil {
				return nil, err
			}
		} else if node.data, err = arguments.ParseExpression(); err != nil {
			return nil, err
		}
		if arguments.Match(pongo2.TokenSymbol, ",") != nil {
			if node.partial, err = arguments.ParseExpression(); err != nil {
				return nil, err
			}
		}
	}

	if arguments.Remaining() > 0 {
		return nil, arguments.Error("malformed render tag, expected: render <handle>[, <data>[, <partial>]]", nil)
	}

	return node, nil
}

// parseObjectLiteral parses an object literal whose braces were turned into
// brackets by rewriteObjectLiterals. Keys are strings or bare names.
func parseObjectLiteral(arguments *pongo2.Parser) (*objectLiteral, *pongo2.Error) {
	open := arguments.Match(pongo2.TokenSymbol, "[")
	if open == nil {
		return nil, arguments.Error("expected '{' to start an object", nil)
	}
	literal := &objectLiteral{nested: make(map[int]*objectLiteral)}

	for arguments.Match(pongo2.TokenSymbol, "]") == nil {
		if arguments.Remaining() == 0 {
			return nil, arguments.Error("object is missing its closing '}'", open)
		}

		key := arguments.MatchType(pongo2.TokenString)
		if key == nil {
			key = arguments.MatchType(pongo2.TokenIdentifier)
		}
		if key == nil {
			return nil, arguments.Error("object key must be a string or a name", nil)
		}
		if arguments.Match(pongo2.TokenSymbol, ":") == nil {
			return nil, arguments.Error(fmt.Sprintf("expected ':' after object key %q", key.Val), nil)
		}

		literal.keys = append(literal.keys, key.Val)
		if arguments.Peek(pongo2.TokenSymbol, "[") != nil {
			inner, err := parseObjectLiteral(arguments)
			if err != nil {
				return nil, err
			}
			literal.nested[len(literal.values)] = inner
			literal.values = append(literal.values, nil)
		} else {
			value, err := arguments.ParseExpression()
			if err != nil {
				return nil, err
			}
			literal.values = append(literal.values, value)
		}

		if arguments.Match(pongo2.TokenSymbol, ",") == nil && arguments.Peek(pongo2.TokenSymbol, "]") == nil {
			return nil, arguments.Error("expected ',' or '}' in object", nil)
		}
	}
	return literal, nil
}

func (literal *objectLiteral) evaluate(ctx *pongo2.ExecutionContext) (map[string]any, *pongo2.Error) {
	data := make(map[string]any, len(literal.keys))
	for i, key := range literal.keys {
		if inner, ok := literal.nested[i]; ok {
			value, err := inner.evaluate(ctx)
			if err != nil {
				return nil, err
			}
			data[key] = value
			continue
		}
		value, err := literal.values[i].Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		data[key] = value.Interface()
	}
	return data, nil
}

// rewriteObjectLiterals turns the braces of object literals inside render
// tags into brackets, which pongo2's lexer can tokenize. Offsets are kept, so
// error positions still point into the original source.
func rewriteObjectLiterals(src string) string {
	if !strings.Contains(src, TagName) {
		return src
	}
	out := []byte(src)

	for i := 0; i < len(src); {
		open := strings.Index(src[i:], "{%")
		if open < 0 {
			break
		}
		j := i + open + 2
		if j < len(src) && src[j] == '-' {
			j++
		}
		for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
			j++
		}
		k := j
		for k < len(src) && isNameByte(src[k]) {
			k++
		}

		switch src[j:k] {
		case "verbatim":
			end := strings.Index(src[k:], "endverbatim")
			if end < 0 {
				return string(out)
			}
			i = k + end
			continue
		case TagName:
		default:
			i = k
			continue
		}

		var quote byte
	args:
		for ; k < len(src); k++ {
			c := src[k]
			switch {
			case quote != 0:
				if c == '\\' {
					k++
				} else if c == quote {
					quote = 0
				}
			case c == '"' || c == '\'':
				quote = c
			case c == '%' && k+1 < len(src) && src[k+1] == '}':
				break args
			case c == '{':
				out[k] = '['
			case c == '}':
				out[k] = ']'
			}
		}
		i = k
	}
	return string(out)
}

func isNameByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func (node *renderTagNode) Execute(ctx *pongo2.ExecutionContext, writer pongo2.TemplateWriter) *pongo2.Error {
	resolver, ok := ctx.Public[resolverKey].(*Resolver)
	if !ok || resolver == nil {
		return node.fail(fmt.Errorf("render tag used outside of a component engine"))
	}

	handleValue, perr := node.handle.Evaluate(ctx)
	if perr != nil {
		return perr
	}
	handle := handleValue.String()

	var data map[string]any
	if node.literal != nil {
		if data, perr = node.literal.evaluate(ctx); perr != nil {
			return perr
		}
	} else if node.data != nil {
		value, perr := node.data.Evaluate(ctx)
		if perr != nil {
			return perr
		}
		var err error
		if data, err = toData(value.Interface()); err != nil {
			return node.fail(fmt.Errorf("render %s: %w", handle, err))
		}
	}

	partial := false
	if node.partial != nil {
		value, perr := node.partial.Evaluate(ctx)
		if perr != nil {
			return perr
		}
		partial = value.IsTrue()
	}

	markup, err := resolver.Resolve(handle, data, partial)
	if err != nil {
		return node.fail(err)
	}

	if _, err := writer.WriteString(string(markup)); err != nil {
		return node.fail(err)
	}
	return nil
}

func (node *renderTagNode) fail(err error) *pongo2.Error {
	return &pongo2.Error{
		Filename:  node.position.Filename,
		Line:      node.position.Line,
		Column:    node.position.Col,
		Token:     node.position,
		Sender:    "tag:" + TagName,
		OrigError: err,
	}
}

// toData converts a template value into a render context. Maps with string
// keys are accepted; nil means no data.
func toData(v any) (map[string]any, error) {
	switch data := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return data, nil
	case pongo2.Context:
		return data, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, fmt.Errorf("data must be a map with string keys, got %T", v)
	}
	data := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		data[iter.Key().String()] = iter.Value().Interface()
	}
	return data, nil
}
