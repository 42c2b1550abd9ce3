package apis

import (
	"bytes"
	"encoding/json"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// The envelope schema catches structural problems (items missing, not a
// list, non-object items) before any item-level normalization runs. Item
// fields themselves stay loose; the ingestor coerces them per item.
const batchEnvelopeSchemaJSON = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["items"],
	"properties": {
		"configVersion":   { "type": "string" },
		"executorVersion": { "type": "string" },
		"bundleToken":     { "type": "string" },
		"items": {
			"type": "array",
			"items": { "type": "object" }
		}
	}
}`

var batchEnvelopeSchema = jsonschema.MustCompileString("batch-envelope.json", batchEnvelopeSchemaJSON)

func validateBatchEnvelope(body []byte) error {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	return batchEnvelopeSchema.Validate(doc)
}
