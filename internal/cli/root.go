package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	jsonOutput bool
	configFile string
)

// NewRootCmd creates the root command for the CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodewatch",
		Short: "Nodewatch CLI - manage check assignments and report results",
		Long: `Nodewatch CLI manages check assignments and reports results to a
nodewatch monitor server. It covers the configurator workflow (applying
assignment templates, pulling offline bundles) and the offline loader
workflow (uploading result batches collected while disconnected).`,
		PersistentPreRunE: preRunHandlePersistents,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "", "", "Path to configuration file to override default")
	cmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")

	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newApplyCmd())
	cmd.AddCommand(newBundleCmd())
	cmd.AddCommand(newUploadCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func preRunHandlePersistents(cmd *cobra.Command, args []string) error {
	if configFile == "" {
		var err error
		configFile, err = GetDefaultConfigPath()
		if err != nil {
			return err
		}
	}

	// The config command manages the config file itself, so it must run
	// without one.
	for c := cmd; c != nil; c = c.Parent() {
		if c.Name() == "config" {
			return nil
		}
	}

	if err := LoadConfig(configFile); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("nodewatch config file not found; run \"nodewatch config set\" first")
		}
		return fmt.Errorf("unable to load config file: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of the nodewatch CLI",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				printJSON(map[string]string{"version": "v0.1.0"})
			} else {
				cmd.Println("nodewatch v0.1.0")
			}
		},
	}
}

// printJSON prints the given value as indented JSON to stdout.
func printJSON(data interface{}) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(jsonData))
}
