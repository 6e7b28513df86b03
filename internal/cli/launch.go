package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/javelinws/javelin/internal/jvm/catalog"
	"github.com/javelinws/javelin/internal/jvm/install"
	"github.com/javelinws/javelin/internal/jvm/resolver"
	"github.com/javelinws/javelin/internal/jvm/version"
	"github.com/javelinws/javelin/internal/launcher"
	"github.com/javelinws/javelin/internal/style"
)

var (
	launchRanges   []string
	launchVendor   string
	launchLocation string
	launchVMArgs   []string
)

// launchCmd represents the launch command
var launchCmd = &cobra.Command{
	Use:   "launch [-- application args...]",
	Short: "Launch a Java application with a matching runtime",
	Long: `Select a runtime satisfying the application's version requirements
and run the application with it. Requirements are tried in the order
given; a runtime missing locally is installed from the catalog first.

Without any --jre flag the default requirement "1.8+" applies.`,
	Example: `
  javelin launch -- myapp.jnlp
  javelin launch --jre "17+" -- myapp.jnlp
  javelin launch --jre "21+" --jre "1.8+" --vm-arg -Xmx2g -- myapp.jnlp`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, reg, err := runtimeEnv()
		if err != nil {
			style.Error(cmd.ErrOrStderr(), err.Error())
			os.Exit(1)
		}

		reqs := make([]launcher.Requirement, 0, len(launchRanges))
		for _, raw := range launchRanges {
			rng, err := version.ParseRange(raw)
			if err != nil {
				style.Error(cmd.ErrOrStderr(), fmt.Sprintf("Invalid version range %q: %v", raw, err))
				os.Exit(1)
			}
			reqs = append(reqs, launcher.Requirement{
				Range:    rng,
				Vendor:   launchVendor,
				Location: launchLocation,
				VMArgs:   launchVMArgs,
			})
		}

		res := resolver.New(reg, cfg)
		installer := install.New(cfg, reg)
		provider := launcher.NewLocalFirstProvider(cfg, res, installer, catalog.NewAdoptium(cfg.HTTPTimeout))

		if err := launcher.New(cfg, provider).Launch(cmd.Context(), reqs, args); err != nil {
			style.Error(cmd.ErrOrStderr(), fmt.Sprintf("Launch failed: %v", err))
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(launchCmd)

	launchCmd.Flags().StringArrayVar(&launchRanges, "jre", nil, "acceptable version range, repeatable, tried in order")
	launchCmd.Flags().StringVar(&launchVendor, "vendor", "", "restrict to a runtime vendor")
	launchCmd.Flags().StringVar(&launchLocation, "location", "", "explicit runtime descriptor URL instead of the default catalog")
	launchCmd.Flags().StringArrayVar(&launchVMArgs, "vm-arg", nil, "extra JVM argument, repeatable")
}
