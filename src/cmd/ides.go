package cmd

import (
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"ideset/src/internal/idea"
)

var idesCmd = &cobra.Command{
	Use:   "ides",
	Short: "List JetBrains IDE installations found on this machine",
	Run: func(cmd *cobra.Command, args []string) {
		installs := idea.NewDiscovery().Installations()
		if len(installs) == 0 {
			pterm.Info.Println("No JetBrains IDE configuration directories found")
			return
		}

		rows := pterm.TableData{{"IDE", "Version", "SDK table", "Exists"}}
		for _, install := range installs {
			exists := "no"
			if _, err := os.Stat(install.SDKTable); err == nil {
				exists = "yes"
			}
			rows = append(rows, []string{install.Product, install.VersionDir, install.SDKTable, exists})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			fail("%v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(idesCmd)
}
