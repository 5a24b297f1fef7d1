package symbol

// CoreSymbols lists every name the evaluator and reader depend on
// having a stable, pre-interned identity before any user code runs —
// the special-form dispatch names, the closure/macro tag symbols, and
// the argument-list markers. This mirrors the reference dialect's
// `defsym!` bootstrap table (spec.md §4.C, §12), carried here as a
// plain list rather than a generated file since the bootstrap generator
// itself is out of scope.
// `nil` and `t` are not included: they are the immediate value.Nil and
// value.True tags in this representation, never symbol handles.
var CoreSymbols = []string{
	"quote", "function", "if", "and", "or", "cond", "while",
	"progn", "prog1", "prog2", "setq", "defvar", "defconst",
	"let", "let*", "catch", "condition-case",
	"lambda", "closure", "macro",
	"&optional", "&rest",
	"error", "debug",
}

// Bootstrap pre-interns every name in CoreSymbols. It is not idempotent:
// call it at most once per table, since a second call fails (PreInit
// rejects a name already present). It is safe to skip entirely: Intern lazily creates any of these names on first use,
// Bootstrap only guarantees they exist before the first form is read or
// evaluated.
func (t *Table) Bootstrap() error {
	for _, name := range CoreSymbols {
		if _, err := t.PreInit(name); err != nil {
			return err
		}
	}
	return nil
}
