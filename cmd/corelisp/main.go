// Command corelisp is the CLI front end for the interpreter core: "eval"
// runs a file/expression/stdin, "repl" starts an interactive loop, and
// "env" lists the bootstrap symbol table.
package main

import "github.com/corelisp/corelisp/pkg/cmd"

func main() {
	cmd.Execute()
}
