package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/openappraisal/appraisal-engine/internal/appraisal"
)

const version = "v0.3.1"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "appraisalctl",
	Short: "Appraisal engine - commercial property valuation from the command line",
	Long: `Appraisalctl runs the three classical valuation approaches (sales
comparison, income capitalization, cost) over a property description,
reconciles them into a final value conclusion, and renders the result
as JSON, markdown, or PDF.

It is an analysis tool, not an appraisal. Every output carries the
engine's disclaimer and the conclusions are only as good as the data
supplied.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("appraisalctl " + version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "engine config file (default: $HOME/.appraisal/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.appraisal")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("APPRAISAL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadEngineConfig layers the config file (when present) over built-in
// defaults. Unset YAML fields keep their default values.
func loadEngineConfig() (appraisal.EngineConfig, error) {
	cfg := appraisal.DefaultConfig()
	path := viper.ConfigFileUsed()
	if path == "" {
		return cfg, nil
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(blob, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
