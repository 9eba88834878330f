package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"ideset/src/internal/idea"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect whether ideset is running inside a JetBrains IDE",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := idea.DetectRuntime()

		if ctx.Product == "" {
			pterm.Info.Println("Not running inside a JetBrains IDE")
		} else {
			pterm.Success.Printf("Hosting IDE: %s\n", ctx.Product)
		}
		if ctx.Hosted {
			pterm.Info.Println("PYCHARM_HOSTED is set")
		}
		if ctx.ConfigDir != "" {
			pterm.Info.Printf("IDE config directory: %s\n", ctx.ConfigDir)
			pterm.Info.Printf("Global SDK table:     %s\n", ctx.SDKTablePath())
		}

		for _, token := range ctx.Trace {
			pterm.Debug.Printf("ancestor: %s\n", token)
		}
		for k, v := range ctx.EnvVars {
			pterm.Debug.Printf("env: %s=%s\n", k, v)
		}
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
