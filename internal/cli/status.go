package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// newStatusCmd shows derived availability for one asset or the whole fleet.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [ASSET_ID]",
		Short: "Show derived availability status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/status"
			if len(args) == 1 {
				path = "/status/" + args[0]
			}

			client := NewHTTPClient(GetConfig())
			body, err := client.DoRequest(RequestOptions{
				Method: http.MethodGet,
				Path:   path,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				var out any
				if err := json.Unmarshal(body, &out); err != nil {
					return err
				}
				printJSON(out)
				return nil
			}

			titler := cases.Title(language.English)
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ASSET\tNAME\tSTATUS\tDETAIL")

			printRow := func(entry gjson.Result) {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					entry.Get("assetId").Int(),
					entry.Get("name").String(),
					titler.String(entry.Get("status.class").String()),
					entry.Get("status.text").String())
			}

			doc := gjson.ParseBytes(body)
			if doc.IsArray() {
				for _, entry := range doc.Array() {
					printRow(entry)
				}
			} else {
				printRow(doc)
			}
			return w.Flush()
		},
	}
}
