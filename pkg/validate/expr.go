package validate

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

type exprEnv struct {
	Value any `expr:"value"`
}

type exprRule struct {
	source  string
	program *vm.Program
}

func (r exprRule) Validate(value any) bool {
	out, err := expr.Run(r.program, exprEnv{Value: value})
	if err != nil {
		return false
	}
	ok, _ := out.(bool)
	return ok
}

func (r exprRule) Describe() Descriptor {
	return Descriptor{Kind: KindExpr, Args: []string{r.source}}
}

// Expr compiles a boolean expression evaluated against the candidate value,
// which is bound as `value`. For example: `len(value) >= 3 && value != "n/a"`.
func Expr(source string) (Validator, error) {
	program, err := expr.Compile(source, expr.Env(exprEnv{}), expr.AsBool())
	if err != nil {
		return nil, err
	}
	return exprRule{source: source, program: program}, nil
}
