package apis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateBatchEnvelope(t *testing.T) {
	valid := [][]byte{
		[]byte(`{"items":[]}`),
		[]byte(`{"items":[{"assignmentId":1,"available":true}]}`),
		[]byte(`{"configVersion":"v1","executorVersion":"e1","items":[{}]}`),
		[]byte(`{"bundleToken":"abc.def.ghi","items":[]}`),
	}
	for _, body := range valid {
		assert.NoError(t, validateBatchEnvelope(body), "body %s", body)
	}

	invalid := [][]byte{
		[]byte(`[]`),
		[]byte(`{"items":{}}`),
		[]byte(`{"items":[1,2]}`),
		[]byte(`{}`),
		[]byte(`{"configVersion":7,"items":[]}`),
		[]byte(`{"bundleToken":7,"items":[]}`),
		[]byte(`not json`),
	}
	for _, body := range invalid {
		assert.Error(t, validateBatchEnvelope(body), "body %s", body)
	}
}
