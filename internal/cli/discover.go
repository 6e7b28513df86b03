package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/javelinws/javelin/internal/jvm/discovery"
	"github.com/javelinws/javelin/internal/style"
)

var discoverRoots []string

// discoverCmd represents the discover command
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find JVMs installed on this host",
	Long: `Scan the platform's default JVM locations plus any configured extra
roots, and register every runtime found as unmanaged. Runtimes outside
the configured supported version range are reported but not registered.`,
	Example: `
  javelin discover
  javelin discover --root /opt/java --root /srv/jdks`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, reg, err := runtimeEnv()
		if err != nil {
			style.Error(cmd.ErrOrStderr(), err.Error())
			os.Exit(1)
		}
		cfg.DiscoveryRoots = append(cfg.DiscoveryRoots, discoverRoots...)

		found, err := discovery.New(cfg, reg).FindAndRegister()
		if err != nil {
			style.Error(cmd.ErrOrStderr(), fmt.Sprintf("Discovery failed: %v", err))
			os.Exit(1)
		}

		switch viper.GetString("output") {
		case "json":
			style.PrintJSON(cmd.OutOrStdout(), found)
		case "yaml":
			style.PrintYAML(cmd.OutOrStdout(), found)
		default:
			if len(found) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No JVM installations found.")
				return
			}
			printTable(cmd.OutOrStdout(), runtimeHeaders, runtimeRows(found))
		}
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)

	discoverCmd.Flags().StringSliceVar(&discoverRoots, "root", nil, "extra directories to scan for JVM installations")
}
