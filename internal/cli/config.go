package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config is the CLI's own configuration, distinct from the server's.
type Config struct {
	ServerURL string `yaml:"serverUrl"`
	APIKey    string `yaml:"apiKey"`
}

var cliConfig *Config

func GetConfig() *Config {
	return cliConfig
}

func (c *Config) GetServerURL() string {
	return c.ServerURL
}

// GetDefaultConfigPath returns ~/.config/nodewatch/config.yaml.
func GetDefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "nodewatch", "config.yaml"), nil
}

func LoadConfig(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var c Config
	if err := yaml.Unmarshal(content, &c); err != nil {
		return fmt.Errorf("unable to parse config file: %w", err)
	}
	if c.ServerURL == "" {
		return fmt.Errorf("config file has no serverUrl")
	}
	cliConfig = &c
	return nil
}

func saveConfig(path string, c *Config) error {
	content, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o600)
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	var serverURL, apiKey string
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Write the CLI configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL == "" {
				return fmt.Errorf("--server is required")
			}
			path := configFile
			if path == "" {
				var err error
				path, err = GetDefaultConfigPath()
				if err != nil {
					return err
				}
			}
			if err := saveConfig(path, &Config{ServerURL: serverURL, APIKey: apiKey}); err != nil {
				return err
			}
			if !jsonOutput {
				fmt.Printf("Wrote %s\n", path)
			} else {
				printJSON(map[string]string{"configFile": path})
			}
			return nil
		},
	}
	setCmd.Flags().StringVar(&serverURL, "server", "", "Monitor server base URL")
	setCmd.Flags().StringVar(&apiKey, "api-key", "", "API key in keyId.secret form")

	cmd.AddCommand(setCmd)
	return cmd
}
