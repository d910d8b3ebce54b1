package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type item struct {
	ID  string `json:"id"`
	Qty int    `json:"qty"`
}

func TestClientDo(t *testing.T) {
	t.Parallel()

	var got *http.Request
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"p1","qty":2}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", WithUserAgent("test-agent"))

	var out item
	err := c.Do(context.Background(), http.MethodPost, "/api/cart?x=1", item{ID: "p1", Qty: 2}, "secret", &out)
	require.NoError(t, err)
	require.Equal(t, item{ID: "p1", Qty: 2}, out)

	require.Equal(t, http.MethodPost, got.Method)
	require.Equal(t, "/api/cart", got.URL.Path)
	require.Equal(t, "1", got.URL.Query().Get("x"))
	require.Equal(t, "Bearer secret", got.Header.Get("Authorization"))
	require.Equal(t, "application/json", got.Header.Get("Content-Type"))
	require.Equal(t, "test-agent", got.Header.Get("User-Agent"))
	require.JSONEq(t, `{"id":"p1","qty":2}`, string(gotBody))
}

func TestClientDo_NoTokenNoBody(t *testing.T) {
	t.Parallel()

	var auth, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var out item
	require.NoError(t, NewClient(srv.URL).Do(context.Background(), http.MethodDelete, "/api/cart/1", nil, "", &out))
	require.Equal(t, item{}, out)
	require.Empty(t, auth)
	require.Empty(t, contentType)
}

func TestClientDo_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		message   string
		retryable bool
		fields    map[string]string
	}{
		{name: "message from body", status: http.StatusNotFound, body: `{"message":"Order not found"}`, message: "Order not found"},
		{name: "generic phrase", status: http.StatusInternalServerError, body: `oops`, message: "Internal Server Error", retryable: true},
		{name: "unknown status", status: 599, body: ``, message: "request failed", retryable: true},
		{name: "redirect", status: http.StatusMultipleChoices, body: `{}`, message: "Multiple Choices"},
		{
			name: "validation errors", status: http.StatusUnprocessableEntity,
			body:    `{"message":"invalid review","errors":{"rating":"must be 1-5"}}`,
			message: "invalid review", fields: map[string]string{"rating": "must be 1-5"},
		},
		{
			name: "validation field", status: http.StatusBadRequest,
			body:    `{"message":"email is invalid","field":"email"}`,
			message: "email is invalid", fields: map[string]string{"email": "email is invalid"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewClient(srv.URL).Get(context.Background(), "/api/orders/x", "", nil)
			require.Error(t, err)

			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			require.Equal(t, tt.status, httpErr.Status)
			require.Equal(t, tt.message, httpErr.Message)

			var r interface{ Retryable() bool }
			require.ErrorAs(t, err, &r)
			require.Equal(t, tt.retryable, r.Retryable())

			var vErr *ValidationError
			if tt.fields != nil {
				require.ErrorAs(t, err, &vErr)
				require.Equal(t, tt.fields, vErr.Fields)
			} else {
				require.False(t, errors.As(err, &vErr))
			}
		})
	}
}

func TestClientDo_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewClient(url).Get(context.Background(), "/api/categories", "", nil)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	require.True(t, netErr.Retryable())
}

func TestClientDo_UnsupportedMethod(t *testing.T) {
	t.Parallel()

	err := NewClient("http://localhost").Do(context.Background(), http.MethodPatch, "/", nil, "", nil)
	require.ErrorIs(t, err, ErrUnsupportedMethod)

	err = NewClient("http://localhost").Do(context.Background(), http.MethodPost, "/", make(chan int), "", nil)
	var jsonErr *json.UnsupportedTypeError
	require.ErrorAs(t, err, &jsonErr)
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	require.True(t, IsNotFound(&HTTPError{Status: http.StatusNotFound}))
	require.False(t, IsNotFound(&HTTPError{Status: http.StatusBadRequest}))
	require.False(t, IsNotFound(errors.New("x")))
}

func TestWithTimeout_KeepsCallerClient(t *testing.T) {
	t.Parallel()

	shared := &http.Client{Timeout: time.Minute}
	c := NewClient("http://localhost", WithHTTPClient(shared), WithTimeout(3*time.Second))

	require.Equal(t, time.Minute, shared.Timeout)
	require.Equal(t, 3*time.Second, c.http.Timeout)
	require.NotSame(t, shared, c.http)

	plain := NewClient("http://localhost", WithHTTPClient(shared))
	require.Same(t, shared, plain.http)

	require.Equal(t, defaultTimeout, NewClient("http://localhost").http.Timeout)
}
