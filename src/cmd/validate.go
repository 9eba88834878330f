package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"ideset/src/internal/idea"
	"ideset/src/internal/miscxml"
)

var validateProjectPath string

var validateCmd = &cobra.Command{
	Use:   "validate [misc.xml]",
	Short: "Check that the project's misc.xml is safe to update",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var miscPath string
		if len(args) == 1 {
			miscPath = args[0]
		} else {
			ideaDir, err := idea.FindProjectDir(projectPathArg(validateProjectPath))
			if err != nil {
				fail("%v", err)
				return
			}
			miscPath = idea.MiscPath(ideaDir)
		}

		if miscxml.Validate(miscPath) {
			pterm.Success.Printf("%s is valid\n", miscPath)
			return
		}
		fail("%s is not a valid IntelliJ project file; fix or delete it before running setup", miscPath)
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateProjectPath, "project-path", "p", "", "project directory (defaults to the current directory)")
	rootCmd.AddCommand(validateCmd)
}
