package scan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyName(t *testing.T) {
	assert.Equal(t, KeyEnter, KeyName('\r'))
	assert.Equal(t, KeyEnter, KeyName('\n'))
	assert.Equal(t, KeyEscape, KeyName(0x1b))
	assert.Equal(t, KeyControl, KeyName(0x7f))
	assert.Equal(t, KeyControl, KeyName('\t'))
	assert.Equal(t, "A", KeyName('A'))
}

func TestClient_Submit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cart/scan", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		if body["code"] == "UNKNOWN" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"barcode not registered: UNKNOWN"}`))
			return
		}
		_, _ = w.Write([]byte(`{"product":{"name":"Ring"},"cart":{"total":"10","item_count":1,"lines":[]}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", "tok")

	res, err := client.Submit(context.Background(), "ACC-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Ring", res.Name)
	assert.Equal(t, "10", res.Total)
	assert.Equal(t, 1, res.Items)

	res, err = client.Submit(context.Background(), "UNKNOWN")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Contains(t, res.Message, "UNKNOWN")
}
