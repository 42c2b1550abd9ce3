package checkmanager

import (
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Detail type labels stored alongside raw detail payloads. Agents from
// older fleets omit the type, so the ingest path infers one from the shape
// of the payload.
const (
	DetailTypeOutput      = "output"
	DetailTypeError       = "error"
	DetailTypeMeasurement = "measurement"
	DetailTypeGeneric     = "generic"
)

// InferDetailType classifies an untyped detail payload. Error markers win
// over everything else, a numeric value field marks a measurement, and a
// textual output field marks command output. Anything unrecognized is
// generic rather than rejected.
func InferDetailType(payload []byte) string {
	if len(payload) == 0 {
		return DetailTypeGeneric
	}
	doc := gjson.ParseBytes(payload)
	if !doc.IsObject() {
		return DetailTypeGeneric
	}
	if doc.Get("error").Exists() || doc.Get("errorCode").Exists() || doc.Get("stderr").String() != "" {
		return DetailTypeError
	}
	if v := doc.Get("value"); v.Exists() && v.Type == gjson.Number {
		return DetailTypeMeasurement
	}
	if doc.Get("unit").Exists() && doc.Get("reading").Exists() {
		return DetailTypeMeasurement
	}
	if doc.Get("output").Exists() || doc.Get("stdout").Exists() {
		return DetailTypeOutput
	}
	return DetailTypeGeneric
}

// coerceBool accepts the boolean encodings seen across agent generations:
// JSON booleans, "true"/"false"/"1"/"0"/"yes"/"no" strings, and 0/1 numbers.
func coerceBool(v gjson.Result) (bool, bool) {
	switch v.Type {
	case gjson.True:
		return true, true
	case gjson.False:
		return false, true
	case gjson.Number:
		if v.Num == 1 {
			return true, true
		}
		if v.Num == 0 {
			return false, true
		}
		return false, false
	case gjson.String:
		switch strings.ToLower(strings.TrimSpace(v.Str)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

// Legacy agents report timestamps without a zone; those are taken as UTC.
const legacyTimeLayout = "2006-01-02 15:04:05"

// parseReportedAt accepts RFC 3339, the legacy space-separated layout, and
// unix seconds. An absent or unparseable timestamp falls back to now: a
// result with a bad clock is still a result.
func parseReportedAt(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(legacyTimeLayout, raw, time.UTC); err == nil {
		return t
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil && secs > 0 {
		return time.Unix(secs, 0).UTC()
	}
	return now
}
