package subgraph

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTransient(t *testing.T) {
	assert.True(t, (&Error{StatusCode: http.StatusTooManyRequests}).Transient())
	assert.True(t, (&Error{StatusCode: 500}).Transient())
	assert.True(t, (&Error{StatusCode: 503}).Transient())
	assert.False(t, (&Error{StatusCode: 400}).Transient())
	assert.False(t, (&Error{StatusCode: 404}).Transient())
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&Error{StatusCode: 502}))
	assert.False(t, IsTransient(&Error{StatusCode: 400}))
	assert.False(t, IsTransient(&GraphQLError{Messages: []string{"bad query"}}))
	assert.True(t, IsTransient(errors.New("connection refused")))
	assert.False(t, IsTransient(nil))
}

func TestPostDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"value":42}`))
	}))
	defer server.Close()

	client := NewHTTPClient(WithTimeout(5 * time.Second))

	var target struct {
		Value int `json:"value"`
	}
	err := client.Post(context.Background(), server.URL, map[string]string{"q": "x"}, &target)
	require.NoError(t, err)
	assert.Equal(t, 42, target.Value)
}

func TestPostReturnsTypedErrorOnFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("try later"))
	}))
	defer server.Close()

	client := NewHTTPClient()

	err := client.Post(context.Background(), server.URL, nil, nil)
	require.Error(t, err)

	var httpErr *Error
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.True(t, httpErr.Transient())
	assert.Equal(t, []byte("try later"), httpErr.Body)
}

func TestPostWithDefaultHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "token123", r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := NewHTTPClient(WithDefaultHeaders(map[string]string{
		"Authorization": "token123",
	}))

	var target struct{}
	require.NoError(t, client.Post(context.Background(), server.URL, nil, &target))
}
