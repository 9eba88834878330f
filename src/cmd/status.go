package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"ideset/src/internal/idea"
	"ideset/src/internal/miscxml"
	"ideset/src/internal/poetry"
)

var statusProjectPath string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the detected environment and the currently configured interpreter",
	Run: func(cmd *cobra.Command, args []string) {
		projectPath := projectPathArg(statusProjectPath)

		if !poetry.Available() {
			fail("%v", poetry.ErrPoetryNotFound)
			return
		}
		if !poetry.InProject(projectPath) {
			pterm.Warning.Printf("No pyproject.toml with a [tool.poetry] table found in %s\n", projectPath)
		}

		env, err := poetry.EnvironmentInfo()
		if err != nil {
			fail("%v", err)
			return
		}
		pterm.Info.Printf("Poetry environment:  %s\n", env.Name)
		pterm.Info.Printf("Interpreter:         %s\n", env.Interpreter)
		if version, err := poetry.PythonVersion(env.Interpreter); err == nil {
			pterm.Info.Printf("Python version:      %s\n", version)
		}

		ideaDir, err := idea.FindProjectDir(projectPath)
		if err != nil {
			fail("%v", err)
			return
		}
		miscPath := idea.MiscPath(ideaDir)
		expected := miscxml.SDKName(env.Name)

		current, configured := miscxml.CurrentInterpreter(miscPath)
		switch {
		case !configured:
			pterm.Warning.Printf("No interpreter configured yet in %s\n", miscPath)
			pterm.Info.Printf("Run `ideset setup` to set it to %s\n", expected)
		case current == expected:
			pterm.Success.Printf("Configured interpreter is up to date: %s\n", current)
		default:
			pterm.Warning.Printf("Configured interpreter is %s, expected %s\n", current, expected)
			pterm.Info.Println("Run `ideset setup` to update it")
		}
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusProjectPath, "project-path", "p", "", "project directory (defaults to the current directory)")
	rootCmd.AddCommand(statusCmd)
}
