package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/openappraisal/appraisal-engine/internal/appraisal"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage engine configuration",
	Long: `Manage engine configuration files.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (APPRAISAL_*)
3. Config file (~/.appraisal/config.yaml)
4. Built-in defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective engine configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadEngineConfig()
		if err != nil {
			return err
		}
		if path := viper.ConfigFileUsed(); path != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", path)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		blob, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Println(string(blob))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to ~/.appraisal/config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}
		configDir := home + "/.appraisal"
		configPath := configDir + "/config.yaml"

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s", configPath)
		}
		if err := os.MkdirAll(configDir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		blob, err := yaml.Marshal(appraisal.DefaultConfig())
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		header := "# Appraisal engine configuration.\n" +
			"# Every value shown is the built-in default; delete what you do not override.\n\n"
		if err := os.WriteFile(configPath, append([]byte(header), blob...), 0o644); err != nil {
			return fmt.Errorf("write config: %w", err)
		}

		fmt.Printf("Created default configuration: %s\n", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
