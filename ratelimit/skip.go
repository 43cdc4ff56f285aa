package ratelimit

import (
	"strings"

	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"
	"github.com/pkg/errors"
)

type SkipEnv struct {
	Method  string
	Path    string
	Ip      string
	Headers map[string]string
}

// SkipExpression compiles a boolean expression over SkipEnv, e.g. `Ip == "127.0.0.1"`.
// A runtime error evaluates to false so the policy still applies.
func SkipExpression(expression string) (SkipFunc, error) {
	program, err := expr.Compile(expression, expr.Env(SkipEnv{}), expr.AsBool())
	if err != nil {
		return nil, errors.WithMessagef(err, "compile skip expression '%s'", expression)
	}
	return func(req Request) bool {
		return runSkip(program, req)
	}, nil
}

func runSkip(program *vm.Program, req Request) bool {
	r := req.Request()
	ip, _ := ClientIp(r)
	headers := make(map[string]string, len(r.Header))
	for name := range r.Header {
		headers[strings.ToLower(name)] = r.Header.Get(name)
	}

	output, err := expr.Run(program, SkipEnv{
		Method:  r.Method,
		Path:    r.URL.Path,
		Ip:      ip,
		Headers: headers,
	})
	if err != nil {
		return false
	}
	skip, _ := output.(bool)
	return skip
}
