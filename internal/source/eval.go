package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/runger/sift/internal/cache"
	"github.com/runger/sift/internal/config"
	"github.com/runger/sift/internal/fuzzy"
	"github.com/runger/sift/internal/launcher"
)

// Eval evaluates the query as an expression and offers the result. Picking
// it copies the result to the clipboard.
type Eval struct{}

// NewEval creates the source.
func NewEval() *Eval { return &Eval{} }

func (e *Eval) Name() string { return NameEval }

func (e *Eval) Init(context.Context, config.Table, *cache.Cache) error { return nil }

// Search returns at most one item. Queries that do not compile or evaluate
// to something printable return nothing.
func (e *Eval) Search(_ context.Context, query string, _ fuzzy.Matcher) ([]launcher.Item, error) {
	value, ok := Evaluate(query)
	if !ok {
		return nil, nil
	}
	return []launcher.Item{{
		ID:       NameEval,
		Title:    value,
		Subtitle: "eval",
		Score:    1,
		Layer:    launcher.LayerTop,
		Source:   NameEval,
		Action:   launcher.CopyText(value),
	}}, nil
}

func (e *Eval) Close() error { return nil }

// Evaluate runs query without an environment and formats the result.
func Evaluate(query string) (string, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", false
	}

	program, err := expr.Compile(query)
	if err != nil {
		return "", false
	}
	out, err := expr.Run(program, nil)
	if err != nil {
		return "", false
	}

	switch v := out.(type) {
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case string:
		return v, true
	case nil:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}
