package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"sigs.k8s.io/yaml"
)

// newUploadCmd uploads a batch of results collected offline. The file is a
// YAML or JSON batch envelope; the loader's machine identity is stamped as
// executorHost on every item that lacks one.
func newUploadCmd() *cobra.Command {
	var filename string
	cmd := &cobra.Command{
		Use:   "upload -f FILENAME",
		Short: "Upload a batch of offline-collected results",
		Long: `Upload a result batch to the monitor server. Per-item failures do not
fail the upload; the per-item outcomes are printed afterward.

Example:
  nodewatch upload -f results.yaml`,
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
			jsonData, err = stampExecutorHost(jsonData)
			if err != nil {
				return err
			}

			client := NewHTTPClient(GetConfig())
			body, err := client.DoRequest(RequestOptions{
				Method: http.MethodPost,
				Path:   "/results/batch",
				Body:   jsonData,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				var report any
				if err := json.Unmarshal(body, &report); err != nil {
					return err
				}
				printJSON(report)
				return nil
			}

			fmt.Printf("Status: %s (processed %d, failed %d)\n",
				gjson.GetBytes(body, "status").String(),
				gjson.GetBytes(body, "processed").Int(),
				gjson.GetBytes(body, "failed").Int())
			for _, item := range gjson.GetBytes(body, "items").Array() {
				if errMsg := item.Get("error").String(); errMsg != "" {
					fmt.Printf("  item %d: %s\n", item.Get("index").Int(), errMsg)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&filename, "filename", "f", "", "YAML or JSON batch envelope")
	return cmd
}

// stampExecutorHost fills executorHost on items that omit it, using an
// app-scoped machine id so the raw hardware id never leaves the host.
func stampExecutorHost(envelope []byte) ([]byte, error) {
	id, err := machineid.ProtectedID("nodewatch")
	if err != nil {
		// Machine id is best-effort; an envelope without it is still valid.
		return envelope, nil
	}
	host := id
	if len(host) > 16 {
		host = host[:16]
	}
	if hostname, err := os.Hostname(); err == nil {
		host = hostname + "-" + host
	}

	items := gjson.GetBytes(envelope, "items")
	if !items.IsArray() {
		return envelope, nil
	}
	for i, item := range items.Array() {
		if item.Get("executorHost").Exists() {
			continue
		}
		envelope, err = sjson.SetBytes(envelope, fmt.Sprintf("items.%d.executorHost", i), host)
		if err != nil {
			return nil, err
		}
	}
	return envelope, nil
}
