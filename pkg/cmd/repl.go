package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/corelisp/corelisp/internal/reader"
	"github.com/corelisp/corelisp/pkg/eval"
	"github.com/corelisp/corelisp/pkg/root"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive read-eval-print loop.",
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)

		ip, err := newInterpreter()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		p := newPrinter(ip)

		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			runBatchRepl(ip, p, os.Stdin)
			return
		}

		state, err := term.MakeRaw(fd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer term.Restore(fd, state)

		screen := struct {
			io.Reader
			io.Writer
		}{os.Stdin, os.Stdout}
		t := term.NewTerminal(screen, "corelisp> ")

		for {
			line, err := t.ReadLine()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				fmt.Fprintln(t, err)
				continue
			}
			if line == "" {
				continue
			}
			evalLine(ip, p, t, line)
		}
	},
}

// runBatchRepl drives the same read-eval-print loop as the interactive
// terminal path, but over a plain (non-tty) reader — piped stdin, used
// by scripted tests and CI.
func runBatchRepl(ip *eval.Interpreter, p printer, in io.Reader) {
	data, err := io.ReadAll(in)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	forms, err := reader.ReadAll(string(data), ip.Symbols, ip.Ctx.Local)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	formsRoot := root.NewSlice(ip.Ctx.Registry, forms)
	defer formsRoot.Pop()

	for _, form := range formsRoot.Get() {
		v, err := ip.Eval(form)
		if err != nil {
			log.WithError(err).Error("repl: uncaught error")
			fmt.Println(err)
			continue
		}
		fmt.Println(p.format(v))
	}
}

// evalLine reads and evaluates every top-level form on one line of REPL
// input, printing the value of each in turn (each line may hold several
// forms, matching the teacher's line-oriented REPL conventions).
func evalLine(ip *eval.Interpreter, p printer, out io.Writer, line string) {
	forms, err := reader.ReadAll(line, ip.Symbols, ip.Ctx.Local)
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}
	formsRoot := root.NewSlice(ip.Ctx.Registry, forms)
	defer formsRoot.Pop()

	for _, form := range formsRoot.Get() {
		v, err := ip.Eval(form)
		if err != nil {
			log.WithError(err).Error("repl: uncaught error")
			fmt.Fprintln(out, err)
			return
		}
		fmt.Fprintln(out, p.format(v))
	}
}

func init() {
	rootCmd.AddCommand(replCmd)
}
