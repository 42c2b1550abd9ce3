package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

// newBundleCmd pulls a signed offline bundle for an org unit and writes it
// to a file for transfer to a disconnected loader.
func newBundleCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "bundle ORG_UNIT_CODE",
		Short: "Pull a signed offline bundle for an org unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := NewHTTPClient(GetConfig())
			body, err := client.DoRequest(RequestOptions{
				Method: http.MethodGet,
				Path:   "/bundle/" + args[0],
			})
			if err != nil {
				return err
			}

			if output == "" {
				output = args[0] + "-bundle.json"
			}
			if err := os.WriteFile(output, body, 0o644); err != nil {
				return err
			}

			checks := gjson.GetBytes(body, "checks.#").Int()
			version := gjson.GetBytes(body, "configVersion").String()
			if jsonOutput {
				printJSON(map[string]any{
					"file":          output,
					"configVersion": version,
					"checks":        checks,
				})
			} else {
				fmt.Printf("Wrote %s (config version %s, %d checks)\n", output, version, checks)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default ORG_UNIT_CODE-bundle.json)")
	return cmd
}
