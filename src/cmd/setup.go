package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ideset/src/internal/core"
)

var (
	setupProjectPath string
	setupDryRun      bool
	setupForce       bool
	setupNoBackup    bool
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Point the project's IDE configuration at the Poetry interpreter",
	Run: func(cmd *cobra.Command, args []string) {
		opts := core.Options{
			ProjectPath: projectPathArg(setupProjectPath),
			DryRun:      setupDryRun,
			Force:       setupForce,
			Backup:      viper.GetBool("backup") && !setupNoBackup,
		}
		pterm.Debug.Printf("Target project path: %s\n", opts.ProjectPath)

		result, err := core.NewSetup().Run(opts)
		if err != nil {
			fail("%v", err)
			return
		}

		if !result.Updated {
			pterm.Success.Printf("Configuration is already up to date (%s)\n", result.SDKName)
			return
		}

		summary := fmt.Sprintf(
			"Config file:        %s\nPython interpreter: %s\nPython SDK name:    %s\nProject name:       %s",
			result.ConfigFile, result.Interpreter, result.SDKName, result.ProjectName,
		)
		if result.Previous != "" {
			summary += fmt.Sprintf("\nPrevious SDK name:  %s", result.Previous)
		}

		if setupDryRun {
			pterm.DefaultBox.WithTitle("Dry run - no files were modified").Println(summary)
			return
		}
		pterm.Success.Println("IDE configuration updated")
		pterm.DefaultBox.WithTitle("Updated").Println(summary)
	},
}

func init() {
	setupCmd.Flags().StringVarP(&setupProjectPath, "project-path", "p", "", "IntelliJ IDEA/PyCharm project directory (defaults to the current directory)")
	setupCmd.Flags().BoolVar(&setupDryRun, "dry-run", false, "show what would change without modifying anything")
	setupCmd.Flags().BoolVar(&setupForce, "force", false, "rewrite the configuration even when it already matches")
	setupCmd.Flags().BoolVar(&setupNoBackup, "no-backup", false, "skip the misc.xml.backup copy before writing")
	rootCmd.AddCommand(setupCmd)
}
