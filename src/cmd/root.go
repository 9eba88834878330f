package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ideset/src/internal/idesetdir"
	"ideset/src/internal/telemetry"
)

var (
	cfgFile     string
	verboseFlag bool
	profileFlag bool
	exitCode    int
)

var rootCmd = &cobra.Command{
	Use:   "ideset",
	Short: "ideset points IntelliJ IDEA and PyCharm at your Poetry interpreter",
	Long: `ideset discovers the Python interpreter of an already-provisioned Poetry
environment and rewrites the project's .idea/misc.xml so IntelliJ IDEA and
PyCharm pick it up. It never touches the environment itself; it only patches
the interpreter entry while leaving the rest of the IDE configuration alone.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verboseFlag {
			pterm.EnableDebugMessages()
		}
		if profileFlag {
			if err := idesetdir.EnsureHome(); err != nil {
				pterm.Warning.Printf("Failed to create %s: %v\n", idesetdir.MustHome(), err)
			}
			if _, err := telemetry.Start(idesetdir.ProfileDir()); err != nil {
				pterm.Warning.Printf("Failed to start profiling session: %v\n", err)
			}
		}
	},
}

func Execute() {
	err := rootCmd.Execute()
	_, _ = telemetry.Stop()
	if err != nil {
		fmt.Println(err)
		exitCode = 1
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

// fail prints an error the way every command reports terminal failures and
// marks the process for a non-zero exit.
func fail(format string, a ...any) {
	pterm.Error.Printf(format+"\n", a...)
	exitCode = 1
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is "+idesetdir.ConfigFile()+")")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&profileFlag, "profile", false, "record a trace and CPU/heap profiles for this run")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(filepath.Dir(idesetdir.ConfigFile()))
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("IDESET")
	viper.AutomaticEnv()
	viper.SetDefault("backup", true)

	if err := viper.ReadInConfig(); err == nil {
		pterm.Debug.Printf("Using config file %s\n", viper.ConfigFileUsed())
	}
}

// projectPathArg resolves the --project-path flag, defaulting to the working
// directory.
func projectPathArg(flagValue string) string {
	if flagValue != "" {
		abs, err := filepath.Abs(flagValue)
		if err == nil {
			return abs
		}
		return flagValue
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
