package cmd

import (
	"fmt"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
)

var extended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for build metadata plus Crucible and Go versions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		identity := GetAppIdentity()

		fmt.Printf("%s %s\n", identity.BinaryName, versionInfo.Version)
		if !extended {
			return nil
		}

		fmt.Printf("Commit: %s\nBuilt: %s\nGo: %s\nPlatform: %s/%s\n\n",
			versionInfo.Commit, versionInfo.BuildDate,
			runtime.Version(), runtime.GOOS, runtime.GOARCH)

		deps := crucible.GetVersion()
		fmt.Printf("Gofulmen: %s\nCrucible: %s\n", deps.Gofulmen, deps.Crucible)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVarP(&extended, "extended", "e", false, "show extended version information")
}
