// Package matcher provides a simple "rule" language that may be used
// inside Adminfile directives to filter replication events. The matcher
// library is based on github.com/Knetic/govaluate
package matcher

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/caddyserver/caddy"
	"github.com/caddyserver/caddy/caddyfile"
	"github.com/nextdhcp/dhcpadmin/core/address"
	"github.com/nextdhcp/dhcpadmin/core/replacer"
	"github.com/nextdhcp/dhcpadmin/core/replication"
)

type (
	// Matcher is a replication event matcher
	Matcher struct {
		// expr holds the pre-compiled expression
		expr *govaluate.EvaluableExpression
	}

	// ExprFunc can be used expose functions to matcher expressions
	ExprFunc func(args ...interface{}) (interface{}, error)
)

// numeric report fields are exposed as numbers so they can be compared
var numericFields = map[string]bool{
	"ops":     true,
	"applied": true,
}

// SetupMatcher parses the current dispenser block for if and if_op lines
// and returns a matcher for them
func SetupMatcher(disp caddyfile.Dispenser, fns ...map[string]ExprFunc) (*Matcher, error) {
	exprStr, err := ParseConditions(disp)
	if err != nil {
		return nil, err
	}

	m, err := newMatcher(exprStr, fns...)
	if err != nil {
		return nil, disp.Errf("invalid condition %q: %s", exprStr, err)
	}
	return m, nil
}

// SetupMatcherRemainingArgs uses the remaining arguments of the current
// line as the expression
func SetupMatcherRemainingArgs(disp *caddyfile.Dispenser, fns ...map[string]ExprFunc) (*Matcher, error) {
	exprStr := strings.Join(disp.RemainingArgs(), " ")

	m, err := newMatcher(exprStr, fns...)
	if err != nil {
		return nil, disp.Errf("invalid condition %q: %s", exprStr, err)
	}
	return m, nil
}

// SetupMatcherLine combines the remaining arguments of the current line
// with the if and if_op lines of the following block. The block itself
// is not consumed.
func SetupMatcherLine(disp *caddyfile.Dispenser, fns ...map[string]ExprFunc) (*Matcher, error) {
	inline := strings.Join(disp.RemainingArgs(), " ")

	block, err := ParseConditions(*disp)
	if err != nil {
		return nil, err
	}

	exprStr := inline
	switch {
	case inline != "" && block != "":
		exprStr = "(" + inline + ") && (" + block + ")"
	case block != "":
		exprStr = block
	}

	m, err := newMatcher(exprStr, fns...)
	if err != nil {
		return nil, disp.Errf("invalid condition %q: %s", exprStr, err)
	}
	return m, nil
}

// SetupMatcherString returns a matcher for the expression in exprStr
func SetupMatcherString(exprStr string, fns ...map[string]ExprFunc) (*Matcher, error) {
	return newMatcher(exprStr, fns...)
}

func newMatcher(exprStr string, fns ...map[string]ExprFunc) (*Matcher, error) {
	if exprStr == "" {
		return &Matcher{}, nil
	}

	functions := map[string]govaluate.ExpressionFunction{
		"in_subnet": inSubnet,
	}

	for _, m := range fns {
		for name, fn := range m {
			functions[name] = govaluate.ExpressionFunction(fn)
		}
	}

	expr, err := govaluate.NewEvaluableExpressionWithFunctions(exprStr, functions)
	if err != nil {
		return nil, err
	}

	return &Matcher{expr: expr}, nil
}

// inSubnet reports whether the address in the first argument is part of
// the CIDR network in the second argument
func inSubnet(args ...interface{}) (interface{}, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("in_subnet: expected 2 arguments but got %d", len(args))
	}

	ipStr, ok1 := args[0].(string)
	cidr, ok2 := args[1].(string)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("in_subnet: expected string arguments")
	}

	ip, err := address.ParseIP(ipStr)
	if err != nil {
		return nil, err
	}

	parts := strings.SplitN(cidr, "/", 2)
	base, err := address.ParseIP(parts[0])
	if err != nil {
		return nil, err
	}

	mask := address.MaskFromBits(32)
	if len(parts) == 2 {
		bits, err := strconv.Atoi(parts[1])
		if err != nil || bits < 0 || bits > 32 {
			return nil, fmt.Errorf("in_subnet: invalid prefix length %q", parts[1])
		}
		mask = address.MaskFromBits(bits)
	}

	return mask.Network(ip) == mask.Network(base), nil
}

// params exposes the placeholders of a replacer as expression variables
type params struct {
	rep replacer.Replacer
}

func (p params) Get(name string) (interface{}, error) {
	val := p.rep.Get(name)

	if numericFields[name] || strings.HasPrefix(name, ">") {
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("%s is not a number: %q", name, val)
		}
		return float64(n), nil
	}

	switch name {
	case "dryrun":
		return val == "true", nil
	case "failed":
		return p.rep.Get("status") == "failed", nil
	}

	return val, nil
}

// Match evaluates the expression stored in the matcher against the given
// replication event
func (m *Matcher) Match(ctx context.Context, event caddy.EventName, report *replication.Report) (bool, error) {
	if m.expr == nil {
		return true, nil
	}

	result, err := m.expr.Eval(params{replacer.NewReplacer(ctx, event, report)})
	if err != nil {
		return false, err
	}

	if b, ok := result.(bool); ok {
		return b, nil
	}

	return false, fmt.Errorf("expression did not evaluate to a boolean. instead, got: %v", result)
}

// EmptyCondition reports whether the matcher has no condition and thus
// matches every event
func (m *Matcher) EmptyCondition() bool {
	return m.expr == nil
}
