package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/javelinws/javelin/internal/jvm"
	"github.com/javelinws/javelin/internal/jvm/version"
	"github.com/javelinws/javelin/internal/style"
)

var removeVendor string

// removeCmd represents the remove command
var removeCmd = &cobra.Command{
	Use:   "remove <version-range>",
	Short: "Remove runtimes from the catalog",
	Long: `Remove every runtime matching the version range from the catalog.
Managed runtimes are deleted from disk together with their cache
directory; unmanaged runtimes are only deregistered and their files
stay untouched.`,
	Example: `
  javelin remove 17                  # Remove all catalog entries for 17
  javelin remove "1.8*" --vendor eclipse`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rng, err := version.ParseRange(args[0])
		if err != nil {
			style.Error(cmd.ErrOrStderr(), fmt.Sprintf("Invalid version range: %v", err))
			os.Exit(1)
		}

		_, reg, err := runtimeEnv()
		if err != nil {
			style.Error(cmd.ErrOrStderr(), err.Error())
			os.Exit(1)
		}

		removed := 0
		for _, rt := range reg.List() {
			if !rng.Contains(rt.Version) {
				continue
			}
			if removeVendor != "" && removeVendor != jvm.VendorAny && rt.Vendor != removeVendor {
				continue
			}

			if rt.Managed {
				err = reg.Delete(rt)
			} else {
				err = reg.Remove(rt)
			}
			if err != nil {
				style.Error(cmd.ErrOrStderr(), fmt.Sprintf("Cannot remove %s %s: %v", rt.Vendor, rt.Version, err))
				os.Exit(1)
			}
			removed++

			if rt.Managed {
				style.Success(cmd.OutOrStdout(), fmt.Sprintf("Deleted %s %s and its files", rt.Vendor, rt.Version))
			} else {
				style.Success(cmd.OutOrStdout(), fmt.Sprintf("Removed %s %s from the catalog", rt.Vendor, rt.Version))
			}
		}

		if removed == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No catalog entry matches %s\n", rng)
		}
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)

	removeCmd.Flags().StringVar(&removeVendor, "vendor", "", "restrict to a runtime vendor")
}
