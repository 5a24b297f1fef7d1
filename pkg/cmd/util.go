package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corelisp/corelisp/pkg/builtins"
	"github.com/corelisp/corelisp/pkg/eval"
	"github.com/corelisp/corelisp/pkg/heap"
	"github.com/corelisp/corelisp/pkg/root"
	"github.com/corelisp/corelisp/pkg/symbol"
)

// GetFlag gets an expected flag, or exits if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString gets an expected string flag, or exits if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// newInterpreter wires a fresh symbol table (bootstrapped with the
// special-form names and the built-in registry) to a new Interpreter
// over its own local heap block and root registry. Every invocation of
// "corelisp eval" or "corelisp repl" gets its own process-wide symbol
// table: there is no persisted state between runs (spec.md §5).
func newInterpreter() (*eval.Interpreter, error) {
	symbols := symbol.New()
	if err := symbols.Bootstrap(); err != nil {
		return nil, err
	}
	if err := builtins.Register(symbols); err != nil {
		return nil, err
	}
	reg := root.NewRegistry()
	ip := eval.New(symbols, reg, heap.NewBlock())
	return ip, nil
}

// newPrinter builds the display-only result formatter for ip.
func newPrinter(ip *eval.Interpreter) printer {
	return printer{ctx: ip.Ctx, symbols: ip.Symbols}
}
