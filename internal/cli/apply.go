package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"sigs.k8s.io/yaml"
)

// newApplyCmd creates assignments across a target set from a YAML file
// carrying a template and a target spec.
func newApplyCmd() *cobra.Command {
	var filename string
	cmd := &cobra.Command{
		Use:   "apply -f FILENAME",
		Short: "Bulk-create check assignments from a YAML file",
		Long: `Apply a check assignment template to a target set. The file carries a
template (method, parameters, success criteria, interval) and a target
(explicit asset ids, or criteria over org unit subtrees, asset type
subtrees and a name glob).

Example:
  nodewatch apply -f reachability.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if filename == "" {
				return fmt.Errorf("filename is required")
			}
			content, err := os.ReadFile(filename)
			if err != nil {
				return err
			}
			jsonData, err := yaml.YAMLToJSON(content)
			if err != nil {
				return fmt.Errorf("unable to parse %s: %w", filename, err)
			}

			client := NewHTTPClient(GetConfig())
			body, err := client.DoRequest(RequestOptions{
				Method: http.MethodPost,
				Path:   "/assignments/bulk",
				Body:   jsonData,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				printJSON(map[string]any{
					"resolved": gjson.GetBytes(body, "resolved").Int(),
					"created":  gjson.GetBytes(body, "created").Int(),
				})
			} else {
				fmt.Printf("Resolved %d assets, created %d assignments\n",
					gjson.GetBytes(body, "resolved").Int(),
					gjson.GetBytes(body, "created").Int())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&filename, "filename", "f", "", "YAML file with template and target")
	return cmd
}
