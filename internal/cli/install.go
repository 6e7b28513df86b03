package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/javelinws/javelin/internal/jvm"
	"github.com/javelinws/javelin/internal/jvm/catalog"
	"github.com/javelinws/javelin/internal/jvm/install"
	"github.com/javelinws/javelin/internal/jvm/version"
	"github.com/javelinws/javelin/internal/style"
)

var (
	installVendor   string
	installLocation string
)

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:   "install <version-range>",
	Short: "Download and install a runtime",
	Long: `Resolve a version range against the runtime catalog, download the
matching runtime package and install it under the javelin cache. The
installed runtime is registered as managed and immediately usable.

Version ranges accept an exact version ("11"), a prefix match ("1.8*")
or a minimum ("9+"). Alternatives are separated by spaces.`,
	Example: `
  javelin install 17            # Exact major version
  javelin install "11+"         # 11 or any later version
  javelin install 21 --vendor eclipse`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rng, err := version.ParseRange(args[0])
		if err != nil {
			style.Error(cmd.ErrOrStderr(), fmt.Sprintf("Invalid version range: %v", err))
			os.Exit(1)
		}

		cfg, reg, err := runtimeEnv()
		if err != nil {
			style.Error(cmd.ErrOrStderr(), err.Error())
			os.Exit(1)
		}

		vendor := installVendor
		if vendor == "" {
			vendor = jvm.VendorAny
		}

		var source catalog.Source = catalog.NewAdoptium(cfg.HTTPTimeout)
		if installLocation != "" {
			source = catalog.NewDescriptor(installLocation, cfg.HTTPTimeout)
		}

		remote, err := source.Resolve(cmd.Context(), rng, vendor, jvm.LocalSystem())
		if err != nil {
			style.Error(cmd.ErrOrStderr(), fmt.Sprintf("Cannot resolve %s: %v", rng, err))
			os.Exit(1)
		}

		sp := style.NewSpinner(cmd.OutOrStdout())
		sp.SetSuffix(fmt.Sprintf(" Downloading %s %s...", remote.Vendor, remote.Version))
		sp.Start()

		done := make(chan struct{})
		sink := func(stream *install.DownloadStream) {
			go trackDownload(sp, stream, done)
		}

		installer := install.New(cfg, reg)
		local, err := installer.Install(cmd.Context(), remote, sink)
		close(done)
		sp.Stop()

		if err != nil {
			style.Error(cmd.ErrOrStderr(), fmt.Sprintf("Install failed: %v", err))
			os.Exit(1)
		}

		if viper.GetString("output") == "json" {
			style.PrintJSON(cmd.OutOrStdout(), local)
			return
		}
		style.Success(cmd.OutOrStdout(), fmt.Sprintf("Installed %s %s at %s", local.Vendor, local.Version, local.JavaHome))
	},
}

func init() {
	rootCmd.AddCommand(installCmd)

	installCmd.Flags().StringVar(&installVendor, "vendor", "", "restrict to a runtime vendor")
	installCmd.Flags().StringVar(&installLocation, "location", "", "explicit runtime descriptor URL instead of the default catalog")
}

// trackDownload updates the spinner suffix with download progress until
// the install finishes.
func trackDownload(sp style.Spinner, stream *install.DownloadStream, done <-chan struct{}) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if stream.Size() > 0 {
				sp.SetSuffix(fmt.Sprintf(" Downloading... %s / %s",
					formatBytes(stream.BytesRead()), formatBytes(stream.Size())))
			} else {
				sp.SetSuffix(fmt.Sprintf(" Downloading... %s", formatBytes(stream.BytesRead())))
			}
		}
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
