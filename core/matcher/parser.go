package matcher

import (
	"strings"

	"github.com/caddyserver/caddy/caddyfile"
)

// ParseConditions parses the current dispenser block for if and if_op conditions
// and returns them as a single, concatenated expression string usable for
// govaluate.NewEvaluableExpression() and similar. The dispenser is taken by
// value so the caller's cursor is not moved.
func ParseConditions(disp caddyfile.Dispenser) (string, error) {
	var conds []string
	var op = "&&"

	for disp.NextBlock() {
		switch disp.Val() {
		case "if":
			if args := disp.RemainingArgs(); len(args) > 0 {
				conds = append(conds, strings.Join(args, " "))
			}
		case "if_op":
			if !disp.NextArg() {
				return "", disp.ArgErr()
			}

			switch disp.Val() {
			case "and", "&&":
				op = "&&"
			case "or", "||":
				op = "||"
			default:
				return "", disp.Errf("unknown if_op %q", disp.Val())
			}
		}
	}

	exprStr := ""

	for i, c := range conds {
		if i > 0 {
			exprStr += " " + op + " "
		}
		exprStr += "(" + c + ")"
	}

	return exprStr, nil
}
