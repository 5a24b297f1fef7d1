package eval

import (
	"errors"

	"github.com/corelisp/corelisp/pkg/root"
	"github.com/corelisp/corelisp/pkg/value"
)

func (ip *Interpreter) evalProgn(forms []value.Value) (value.Value, error) {
	result := value.Nil
	for _, f := range forms {
		v, err := ip.evalForm(f)
		if err != nil {
			return value.Nil, err
		}
		result = v
	}
	return result, nil
}

func (ip *Interpreter) evalQuote(rest value.Value) (value.Value, error) {
	args, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	if len(args) != 1 {
		return value.Nil, &ArgError{Expected: 1, Actual: len(args), Name: "quote"}
	}
	return args[0], nil
}

func (ip *Interpreter) evalIf(rest value.Value) (value.Value, error) {
	args, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	if len(args) < 2 {
		return value.Nil, &ArgError{Expected: 2, Actual: len(args), Name: "if"}
	}
	test, err := ip.evalForm(args[0])
	if err != nil {
		return value.Nil, err
	}
	if !test.IsNil() {
		return ip.evalForm(args[1])
	}
	return ip.evalProgn(args[2:])
}

func (ip *Interpreter) evalAnd(rest value.Value) (value.Value, error) {
	args, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	result := value.True
	for _, f := range args {
		v, err := ip.evalForm(f)
		if err != nil {
			return value.Nil, err
		}
		if v.IsNil() {
			return value.Nil, nil
		}
		result = v
	}
	return result, nil
}

func (ip *Interpreter) evalOr(rest value.Value) (value.Value, error) {
	args, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	for _, f := range args {
		v, err := ip.evalForm(f)
		if err != nil {
			return value.Nil, err
		}
		if !v.IsNil() {
			return v, nil
		}
	}
	return value.Nil, nil
}

func (ip *Interpreter) evalCond(rest value.Value) (value.Value, error) {
	clauses, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	for _, clause := range clauses {
		parts, err := toSlice(ip.Ctx, clause)
		if err != nil {
			return value.Nil, err
		}
		if len(parts) == 0 {
			continue
		}
		test, err := ip.evalForm(parts[0])
		if err != nil {
			return value.Nil, err
		}
		if test.IsNil() {
			continue
		}
		if len(parts) == 1 {
			return test, nil
		}
		return ip.evalProgn(parts[1:])
	}
	return value.Nil, nil
}

func (ip *Interpreter) evalWhile(rest value.Value) (value.Value, error) {
	parts, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	if len(parts) < 1 {
		return value.Nil, &ArgError{Expected: 1, Actual: 0, Name: "while"}
	}
	test, body := parts[0], parts[1:]
	for {
		t, err := ip.evalForm(test)
		if err != nil {
			return value.Nil, err
		}
		if t.IsNil() {
			return value.Nil, nil
		}
		if _, err := ip.evalProgn(body); err != nil {
			return value.Nil, err
		}
	}
}

func (ip *Interpreter) evalPrognForm(rest value.Value) (value.Value, error) {
	forms, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	return ip.evalProgn(forms)
}

func (ip *Interpreter) evalProg1(rest value.Value) (value.Value, error) {
	forms, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	if len(forms) == 0 {
		return value.Nil, &ArgError{Expected: 1, Actual: 0, Name: "prog1"}
	}
	first, err := ip.evalForm(forms[0])
	if err != nil {
		return value.Nil, err
	}
	if _, err := ip.evalProgn(forms[1:]); err != nil {
		return value.Nil, err
	}
	return first, nil
}

func (ip *Interpreter) evalProg2(rest value.Value) (value.Value, error) {
	forms, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	if len(forms) < 2 {
		return value.Nil, &ArgError{Expected: 2, Actual: len(forms), Name: "prog2"}
	}
	if _, err := ip.evalForm(forms[0]); err != nil {
		return value.Nil, err
	}
	second, err := ip.evalForm(forms[1])
	if err != nil {
		return value.Nil, err
	}
	if _, err := ip.evalProgn(forms[2:]); err != nil {
		return value.Nil, err
	}
	return second, nil
}

func (ip *Interpreter) evalSetq(rest value.Value) (value.Value, error) {
	forms, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	if len(forms)%2 != 0 {
		return value.Nil, &ArgError{Expected: len(forms) + 1, Actual: len(forms), Name: "setq"}
	}
	last := value.Nil
	for i := 0; i < len(forms); i += 2 {
		sym := forms[i]
		if sym.Tag() != value.TagSymbol {
			return value.Nil, &TypeError{Expected: "symbol", Actual: sym}
		}
		v, err := ip.evalForm(forms[i+1])
		if err != nil {
			return value.Nil, err
		}
		found, err := ip.Env.SetLexical(ip.Ctx, sym, v)
		if err != nil {
			return value.Nil, err
		}
		if !found {
			ip.Env.SetVar(sym, v)
		}
		last = v
	}
	return last, nil
}

func (ip *Interpreter) evalDefvar(rest value.Value) (value.Value, error) {
	forms, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	if len(forms) == 0 {
		return value.Nil, &ArgError{Expected: 1, Actual: 0, Name: "defvar"}
	}
	sym := forms[0]
	if sym.Tag() != value.TagSymbol {
		return value.Nil, &TypeError{Expected: "symbol", Actual: sym}
	}
	ip.Env.MarkSpecial(sym)
	if _, ok := ip.Env.GetVar(sym); !ok {
		init := value.Nil
		if len(forms) > 1 {
			v, err := ip.evalForm(forms[1])
			if err != nil {
				return value.Nil, err
			}
			init = v
		}
		ip.Env.SetVar(sym, init)
	}
	return sym, nil
}

func (ip *Interpreter) evalDefconst(rest value.Value) (value.Value, error) {
	forms, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	if len(forms) == 0 {
		return value.Nil, &ArgError{Expected: 1, Actual: 0, Name: "defconst"}
	}
	sym := forms[0]
	if sym.Tag() != value.TagSymbol {
		return value.Nil, &TypeError{Expected: "symbol", Actual: sym}
	}
	ip.Env.MarkSpecial(sym)
	init := value.Nil
	if len(forms) > 1 {
		v, err := ip.evalForm(forms[1])
		if err != nil {
			return value.Nil, err
		}
		init = v
	}
	ip.Env.SetVar(sym, init)
	return sym, nil
}

// parseBindingForm reads one `let`/`let*` binding: a bare symbol, a
// one-element list (symbol), or a two-element list (symbol form).
func parseBindingForm(ctx *root.Context, bf value.Value) (sym, initForm value.Value, hasInit bool, err error) {
	if bf.Tag() == value.TagSymbol {
		return bf, value.Nil, false, nil
	}
	parts, err := toSlice(ctx, bf)
	if err != nil {
		return value.Nil, value.Nil, false, err
	}
	if len(parts) == 0 {
		return value.Nil, value.Nil, false, &TypeError{Expected: "binding", Actual: bf}
	}
	sym = parts[0]
	if sym.Tag() != value.TagSymbol {
		return value.Nil, value.Nil, false, &TypeError{Expected: "symbol", Actual: sym}
	}
	if len(parts) == 1 {
		return sym, value.Nil, false, nil
	}
	return sym, parts[1], true, nil
}

func evalLetParallel(ip *Interpreter, rest value.Value) (value.Value, error) { return ip.evalLet(rest, false) }
func evalLetSerial(ip *Interpreter, rest value.Value) (value.Value, error)   { return ip.evalLet(rest, true) }

func (ip *Interpreter) bindLetVar(sym, val value.Value) {
	if ip.Env.IsSpecial(sym) {
		prev, _ := ip.Env.GetVar(sym)
		ip.Env.PushShadow(sym, prev)
		ip.Env.SetVar(sym, val)
	} else {
		ip.Env.PushLexical(ip.Ctx.NewCons(sym, val))
	}
}

func (ip *Interpreter) evalLet(rest value.Value, serial bool) (value.Value, error) {
	parts, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	if len(parts) < 1 {
		name := "let"
		if serial {
			name = "let*"
		}
		return value.Nil, &ArgError{Expected: 1, Actual: 0, Name: name}
	}
	bindingForms, err := toSlice(ip.Ctx, parts[0])
	if err != nil {
		return value.Nil, err
	}
	body := parts[1:]

	lexDepth := ip.Env.LexicalLen()
	shadowDepth := ip.Env.ShadowLen()
	defer func() {
		ip.Env.TruncateLexical(lexDepth)
		ip.Env.RestoreShadowsTo(shadowDepth)
	}()

	if serial {
		for _, bf := range bindingForms {
			sym, initForm, hasInit, err := parseBindingForm(ip.Ctx, bf)
			if err != nil {
				return value.Nil, err
			}
			val := value.Nil
			if hasInit {
				val, err = ip.evalForm(initForm)
				if err != nil {
					return value.Nil, err
				}
			}
			ip.bindLetVar(sym, val)
		}
	} else {
		type pair struct{ sym, val value.Value }
		pairs := make([]pair, 0, len(bindingForms))
		for _, bf := range bindingForms {
			sym, initForm, hasInit, err := parseBindingForm(ip.Ctx, bf)
			if err != nil {
				return value.Nil, err
			}
			val := value.Nil
			if hasInit {
				val, err = ip.evalForm(initForm)
				if err != nil {
					return value.Nil, err
				}
			}
			pairs = append(pairs, pair{sym, val})
		}
		for _, p := range pairs {
			ip.bindLetVar(p.sym, p.val)
		}
	}

	return ip.evalProgn(body)
}

func (ip *Interpreter) evalFunction(rest value.Value) (value.Value, error) {
	args, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	if len(args) != 1 {
		return value.Nil, &ArgError{Expected: 1, Actual: len(args), Name: "function"}
	}
	operand := args[0]

	if operand.Tag() == value.TagSymbol {
		fn, ok, err := ip.Symbols.FollowIndirect(operand)
		if err != nil {
			return value.Nil, err
		}
		if !ok {
			return value.Nil, &VoidFunctionError{Name: ip.Symbols.Name(operand)}
		}
		return fn, nil
	}

	lc, err := ip.Ctx.Cons(operand)
	if err != nil || lc.Car != ip.syms.lambda {
		return value.Nil, &TypeError{Expected: "lambda-form", Actual: operand}
	}
	lcRest, err := ip.Ctx.Cons(lc.Cdr)
	if err != nil {
		return value.Nil, err
	}
	argSpec, body := lcRest.Car, lcRest.Cdr

	envList := ip.buildCapturedEnv()
	closureVal := ip.Ctx.NewCons(argSpec, body)
	closureVal = ip.Ctx.NewCons(envList, closureVal)
	closureVal = ip.Ctx.NewCons(ip.syms.closure, closureVal)
	return closureVal, nil
}

func (ip *Interpreter) evalCatch(rest value.Value) (value.Value, error) {
	parts, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	if len(parts) < 1 {
		return value.Nil, &ArgError{Expected: 1, Actual: 0, Name: "catch"}
	}
	// The tag is evaluated (for its side effects) and discarded: this
	// dialect never wires a `throw` to unwind to it (spec.md's open
	// question on catch/throw integration resolves to "not connected").
	if _, err := ip.evalForm(parts[0]); err != nil {
		return value.Nil, err
	}
	return ip.evalProgn(parts[1:])
}

func (ip *Interpreter) conditionNames(condSpec value.Value) ([]string, bool) {
	if condSpec.Tag() == value.TagSymbol {
		return []string{ip.Symbols.Name(condSpec)}, true
	}
	items, err := toSlice(ip.Ctx, condSpec)
	if err != nil {
		return nil, false
	}
	names := make([]string, 0, len(items))
	for _, it := range items {
		if it.Tag() != value.TagSymbol {
			return nil, false
		}
		names = append(names, ip.Symbols.Name(it))
	}
	return names, len(names) > 0
}

// conditionValue builds the pair a condition-case handler's var is bound
// to: (error-symbol . message-string), per spec.md's "the handler body
// runs with var bound to (error-symbol . message-string)". A UserError
// carries its own condition tag; every structural error (ArgError,
// TypeError, and the like) signals under the generic `error` symbol,
// matching the reference dialect's single generic error condition.
func (ip *Interpreter) conditionValue(err error) value.Value {
	msg := ip.Ctx.Local.NewString(err.Error())
	var ue *UserError
	tag := ip.syms.errorSym
	if errors.As(err, &ue) {
		tag = ip.Symbols.Intern(ue.TagName)
	}
	return ip.Ctx.NewCons(tag, msg)
}

func (ip *Interpreter) evalConditionCase(rest value.Value) (value.Value, error) {
	parts, err := toSlice(ip.Ctx, rest)
	if err != nil {
		return value.Nil, err
	}
	if len(parts) < 2 {
		return value.Nil, &ArgError{Expected: 2, Actual: len(parts), Name: "condition-case"}
	}
	varSym, bodyForm, handlers := parts[0], parts[1], parts[2:]

	result, evalErr := ip.evalForm(bodyForm)
	if evalErr == nil {
		return result, nil
	}

	for _, h := range handlers {
		hparts, err := toSlice(ip.Ctx, h)
		if err != nil || len(hparts) < 1 {
			return value.Nil, &InvalidConditionHandlerError{Detail: "malformed handler clause"}
		}
		names, ok := ip.conditionNames(hparts[0])
		if !ok {
			return value.Nil, &InvalidConditionHandlerError{Detail: "condition must be a symbol or list of symbols"}
		}
		hasError, hasDebug := false, false
		for _, n := range names {
			switch n {
			case "error":
				hasError = true
			case "debug":
				hasDebug = true
			}
		}
		if !hasError && !hasDebug {
			return value.Nil, &InvalidConditionHandlerError{Detail: "condition list must name error or debug"}
		}
		if !hasError {
			continue // debug-only handlers never auto-trigger: no debugger integration
		}

		depth := ip.Env.LexicalLen()
		if varSym.Tag() == value.TagSymbol && !varSym.IsNil() {
			ip.Env.PushLexical(ip.Ctx.NewCons(varSym, ip.conditionValue(evalErr)))
		}
		v, err := ip.evalProgn(hparts[1:])
		ip.Env.TruncateLexical(depth)
		return v, err
	}
	return value.Nil, evalErr
}
