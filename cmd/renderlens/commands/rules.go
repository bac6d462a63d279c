package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/renderlens/renderlens/internal/suggest"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the fix suggestion rule catalog",
	Long: `Rules prints the built-in suggestion rules in evaluation order, with the
identifiers accepted by the config file's rule overrides.`,
	Run: runRules,
}

func runRules(cmd *cobra.Command, args []string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tPRIORITY")
	for _, rule := range suggest.BuiltinRules() {
		fmt.Fprintf(w, "%s\t%s\t%d\n", rule.ID, rule.Kind, rule.Priority)
	}
	w.Flush()
}
