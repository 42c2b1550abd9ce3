package checkmanager

import (
	"strings"

	"github.com/anand-gl/jsoncanonicalizer"
)

// canonicalKey reduces an opaque JSON payload to the comparison key used for
// assignment de-duplication. Absent payloads, JSON null and the empty string
// all fold to "", and canonicalization (RFC 8785) makes the key independent
// of key ordering and whitespace. Payloads that fail to canonicalize are
// compared by their trimmed raw text, which preserves the source behavior of
// textual equality for non-JSON parameters.
func canonicalKey(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	canon, err := jsoncanonicalizer.Transform([]byte(s))
	if err != nil {
		return s
	}
	return string(canon)
}
