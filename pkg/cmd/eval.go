package cmd

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/corelisp/corelisp/internal/reader"
	"github.com/corelisp/corelisp/pkg/root"
)

var evalCmd = &cobra.Command{
	Use:   "eval [flags] [file]",
	Short: "Evaluate a lisp expression or file.",
	Long: `Read and evaluate a sequence of top-level forms, either given
directly with -e, from a file argument, or from stdin, and print the
value of the last form.`,
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)

		var (
			src  string
			err  error
			expr = GetString(cmd, "expr")
		)

		switch {
		case expr != "":
			src = expr
		case len(args) == 1:
			var data []byte
			data, err = os.ReadFile(args[0])
			src = string(data)
		default:
			var data []byte
			data, err = io.ReadAll(os.Stdin)
			src = string(data)
		}
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		ip, err := newInterpreter()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		forms, err := reader.ReadAll(src, ip.Symbols, ip.Ctx.Local)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Every form read ahead of time must stay rooted: evaluating an
		// earlier form can trigger a collection, and nothing else
		// anchors the not-yet-evaluated later forms against it.
		formsRoot := root.NewSlice(ip.Ctx.Registry, forms)
		defer formsRoot.Pop()

		p := newPrinter(ip)
		var result string
		for _, form := range formsRoot.Get() {
			log.Debugf("eval: %s", p.format(form))
			v, err := ip.Eval(form)
			if err != nil {
				log.WithError(err).Error("eval: uncaught error")
				fmt.Println(err)
				os.Exit(1)
			}
			result = p.format(v)
		}
		fmt.Println(result)
	},
}

func init() {
	evalCmd.Flags().StringP("expr", "e", "", "evaluate this expression instead of reading a file or stdin")
	rootCmd.AddCommand(evalCmd)
}
