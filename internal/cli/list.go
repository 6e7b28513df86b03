package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/javelinws/javelin/internal/style"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List runtimes in the local catalog",
	Long: `List all Java runtimes known to javelin, both the managed ones it
installed itself and the unmanaged ones found on the host.`,
	Example: `
  javelin list                 # Human-readable table
  javelin list --output json   # Machine-readable JSON`,
	Run: func(cmd *cobra.Command, args []string) {
		_, reg, err := runtimeEnv()
		if err != nil {
			style.Error(cmd.ErrOrStderr(), err.Error())
			os.Exit(1)
		}

		runtimes := reg.List()

		switch viper.GetString("output") {
		case "json":
			style.PrintJSON(cmd.OutOrStdout(), runtimes)
		case "yaml":
			style.PrintYAML(cmd.OutOrStdout(), runtimes)
		default:
			if len(runtimes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runtimes in the catalog. Run 'javelin discover' or 'javelin install'.")
				return
			}
			printTable(cmd.OutOrStdout(), runtimeHeaders, runtimeRows(runtimes))
		}
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
