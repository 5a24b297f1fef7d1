package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "List the symbols pre-interned at bootstrap.",
	Long: `Construct a fresh interpreter and print every symbol name that
is interned before any user code runs: the special-form dispatch names
and the built-in function names.`,
	Run: func(cmd *cobra.Command, args []string) {
		configureLogging(cmd)

		ip, err := newInterpreter()
		if err != nil {
			fmt.Println(err)
			return
		}

		names := ip.Symbols.Names()
		sort.Strings(names)
		for _, n := range names {
			fmt.Println(n)
		}
	},
}

func init() {
	rootCmd.AddCommand(envCmd)
}
