package checkmanager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func TestInferDetailType(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{`{"error":"connection refused"}`, DetailTypeError},
		{`{"stderr":"boom","output":"partial"}`, DetailTypeError},
		{`{"value":12.5,"unit":"ms"}`, DetailTypeMeasurement},
		{`{"reading":"42","unit":"C"}`, DetailTypeMeasurement},
		{`{"output":"PING ok"}`, DetailTypeOutput},
		{`{"stdout":"up 3 days"}`, DetailTypeOutput},
		{`{"value":"not-a-number"}`, DetailTypeGeneric},
		{`{"whatever":true}`, DetailTypeGeneric},
		{`[1,2,3]`, DetailTypeGeneric},
		{``, DetailTypeGeneric},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferDetailType([]byte(tt.payload)), "payload %s", tt.payload)
	}
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
		ok   bool
	}{
		{`true`, true, true},
		{`false`, false, true},
		{`1`, true, true},
		{`0`, false, true},
		{`"true"`, true, true},
		{`"Yes"`, true, true},
		{`"no"`, false, true},
		{`"0"`, false, true},
		{`2`, false, false},
		{`"maybe"`, false, false},
		{`{"nested":true}`, false, false},
	}
	for _, tt := range tests {
		got, ok := coerceBool(gjson.Parse(tt.raw))
		assert.Equal(t, tt.ok, ok, "raw %s", tt.raw)
		if ok {
			assert.Equal(t, tt.want, got, "raw %s", tt.raw)
		}
	}
}

func TestParseReportedAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	rfc := parseReportedAt("2025-02-28T10:30:00Z", now)
	assert.Equal(t, time.Date(2025, 2, 28, 10, 30, 0, 0, time.UTC), rfc.UTC())

	legacy := parseReportedAt("2025-02-28 10:30:00", now)
	assert.Equal(t, time.Date(2025, 2, 28, 10, 30, 0, 0, time.UTC), legacy)

	unix := parseReportedAt("1740738600", now)
	assert.Equal(t, time.Unix(1740738600, 0).UTC(), unix)

	assert.Equal(t, now, parseReportedAt("", now))
	assert.Equal(t, now, parseReportedAt("garbage", now))
}
