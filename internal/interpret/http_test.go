package interpret

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPService(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"interpretation":"loitering near asset","confidence":0.82}`))
	}))
	defer srv.Close()

	res, err := NewHTTPService(srv.URL).Interpret(context.Background(), Request{ID: "ID-1", MovementData: "[]", Metadata: "{}"})
	require.NoError(t, err)
	assert.Equal(t, "ID-1", got.ID)
	assert.Equal(t, "loitering near asset", res.Interpretation)
	assert.True(t, res.Alerting())
}

func TestHTTPService_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPService(srv.URL).Interpret(context.Background(), Request{ID: "ID-1"})
	assert.Error(t, err)
}

func TestHTTPService_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"interpretation":"x","confidence":2}`))
	}))
	defer srv.Close()

	_, err := NewHTTPService(srv.URL).Interpret(context.Background(), Request{ID: "ID-1"})
	assert.ErrorIs(t, err, ErrInvalidResponse)
}
