package integration_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

// volatileKeys change on every request. They are skipped at any depth.
var volatileKeys = map[string]bool{
	"timestamp": true,
	"requestId": true,
	"createdAt": true,
	"expiresAt": true,
	"bookedAt":  true,
}

var ignoreVolatile = cmpopts.IgnoreMapEntries(func(k string, _ any) bool {
	return volatileKeys[k]
})

func newJSONRequest(method, path string, body io.Reader, headers map[string]string) *http.Request {
	req := httptest.NewRequest(method, path, body)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

func compareResponse(t testing.TB, body io.Reader, want string) {
	t.Helper()

	var got map[string]any
	require.NoError(t, json.NewDecoder(body).Decode(&got))

	var expected map[string]any
	require.NoError(t, json.Unmarshal([]byte(want), &expected))

	if diff := cmp.Diff(expected, got, ignoreVolatile); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}
