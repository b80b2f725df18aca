package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ssolovyev/veritrail/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage veritrail configuration",
	Long: `Manage veritrail configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (VERITRAIL_*)
3. Config file (~/.veritrail/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Println(string(yamlData))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.veritrail/config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("find home directory: %w", err)
		}

		configDir := home + "/.veritrail"
		configPath := configDir + "/config.yaml"

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'veritrail config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		yamlData, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}

		var buf []byte
		buf = append(buf, []byte("# Veritrail configuration\n")...)
		buf = append(buf, []byte("#\n")...)
		buf = append(buf, []byte("# Hierarchy (highest to lowest priority):\n")...)
		buf = append(buf, []byte("#   1. CLI flags\n")...)
		buf = append(buf, []byte("#   2. Environment variables (VERITRAIL_*)\n")...)
		buf = append(buf, []byte("#   3. This config file\n")...)
		buf = append(buf, []byte("#   4. Built-in defaults\n\n")...)
		buf = append(buf, yamlData...)
		buf = append(buf, []byte("\n# API keys come from the environment, never this file:\n")...)
		buf = append(buf, []byte("#   export OPENAI_API_KEY=sk-...\n")...)
		buf = append(buf, []byte("#   export ANTHROPIC_API_KEY=sk-ant-...\n")...)
		buf = append(buf, []byte("#   export OLLAMA_BASE_URL=http://localhost:11434\n")...)

		if err := os.WriteFile(configPath, buf, 0644); err != nil {
			return fmt.Errorf("write config file: %w", err)
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
