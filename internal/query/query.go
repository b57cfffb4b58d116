// Package query compiles boolean item predicates written in the expr
// language (github.com/expr-lang/expr), for filters that go beyond search
// term, price range and vendor.
//
// Expressions see these variables:
//
//	name    string              item name
//	best    float               best (lowest positive) price, 0 if none
//	hasBest bool                whether a positive price exists
//	quotes  int                 number of vendors quoting the item
//	prices  map[string]float    vendor ID -> price
//	lowest  float               lowest quoted price, 0 if none
//	highest float               highest quoted price, 0 if none
//
// Example: `hasBest && best < 10 && quotes >= 2`.
package query

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/kilupskalvis/pricecmp/internal/models"
)

// Env is the evaluation environment for a single item.
type Env struct {
	Name    string             `expr:"name"`
	Best    float64            `expr:"best"`
	HasBest bool               `expr:"hasBest"`
	Quotes  int                `expr:"quotes"`
	Prices  map[string]float64 `expr:"prices"`
	Lowest  float64            `expr:"lowest"`
	Highest float64            `expr:"highest"`
}

// NewEnv builds the environment for it.
func NewEnv(it models.Item) Env {
	env := Env{Name: it.Name, Quotes: len(it.Prices), Prices: it.Prices}
	if env.Prices == nil {
		env.Prices = map[string]float64{}
	}
	env.Best, env.HasBest = it.BestPrice()
	env.Lowest, env.Highest, _ = it.PriceBounds()
	return env
}

// Predicate is a compiled item expression.
type Predicate struct {
	program    *exprvm.Program
	expression string
}

// Compile type-checks expression against Env and requires a boolean result.
func Compile(expression string) (*Predicate, error) {
	if expression == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	program, err := exprlang.Compile(expression, exprlang.Env(Env{}), exprlang.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", expression, err)
	}
	return &Predicate{program: program, expression: expression}, nil
}

// String returns the source expression.
func (p *Predicate) String() string {
	return p.expression
}

// Match evaluates the predicate for it.
func (p *Predicate) Match(it models.Item) (bool, error) {
	out, err := exprlang.Run(p.program, NewEnv(it))
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", p.expression, err)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("evaluate %q: result is %T, not bool", p.expression, out)
	}
	return ok, nil
}
