package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/session"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, token models.Token) (*Client, *session.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	store := session.NewMemoryStore(token)
	return New(srv.URL, store), store
}

func TestLogin_SavesToken(t *testing.T) {
	var got models.Credentials
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"access_token":"tok-1","token_type":"bearer"}`)
	}, models.Token{})

	token, err := client.Login(context.Background(), models.Credentials{Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, "tok-1", token.AccessToken)

	stored, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, token, stored)
}

func TestLogout_ClearsToken(t *testing.T) {
	client, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL.Path)
	}, models.Token{AccessToken: "tok"})

	require.NoError(t, client.Logout(context.Background()))
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestAuthorizationHeader(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-2", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[]`)
	}, models.Token{AccessToken: "tok-2", TokenType: "bearer"})

	reqs, err := client.ListActiveRequests(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestAuthenticatedCall_WithoutSession(t *testing.T) {
	called := false
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, models.Token{})

	_, err := client.GetServiceRequest(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.False(t, called)
}

func TestUpdateServiceRequest(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/service-requests/42", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"status": "CLOSED"}, body)
		fmt.Fprint(w, `{"id":42,"request_type":"LICITACION","status":"CLOSED","proposal_count":3}`)
	}, models.Token{AccessToken: "t"})

	status := models.RequestStatusClosed
	raw, err := client.UpdateServiceRequest(context.Background(), 42, models.UpdateServiceRequest{Status: &status})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":42,"request_type":"LICITACION","status":"CLOSED","proposal_count":3}`, string(raw))
}

func TestCreateServiceRequest_SendsEmptyAttachments(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(raw), `"attachments":[]`)
		fmt.Fprint(w, `{"id":7,"request_type":"FAST","status":"PUBLISHED"}`)
	}, models.Token{AccessToken: "t"})

	got, err := client.CreateServiceRequest(context.Background(), models.CreateServiceRequest{
		Title: "Leak", RequestType: models.RequestTypeFast, AddressID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
}

func TestMarkServiceEndpoints(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Client) (json.RawMessage, error)
		path string
	}{
		{"on route", func(c *Client) (json.RawMessage, error) { return c.MarkOnRoute(context.Background(), 5) }, "/providers/me/services/5/mark-on-route"},
		{"in progress", func(c *Client) (json.RawMessage, error) { return c.MarkInProgress(context.Background(), 5) }, "/providers/me/services/5/mark-in-progress"},
		{"completed", func(c *Client) (json.RawMessage, error) { return c.MarkCompleted(context.Background(), 5) }, "/providers/me/services/5/mark-completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				fmt.Fprint(w, `{"id":5,"status":"ON_ROUTE"}`)
			}, models.Token{AccessToken: "t"})

			raw, err := tt.call(client)
			require.NoError(t, err)
			assert.JSONEq(t, `{"id":5,"status":"ON_ROUTE"}`, string(raw))
		})
	}
}

func TestServerErrorDetail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string detail", http.StatusBadRequest, `{"detail":"Ya enviaste una propuesta"}`, "Ya enviaste una propuesta"},
		{"list detail", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"},{"msg":"too long"}]}`, "field required; too long"},
		{"no detail", http.StatusInternalServerError, `oops`, MessageGeneric},
		{"empty list", http.StatusBadRequest, `{"detail":[]}`, MessageGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}, models.Token{AccessToken: "t"})

			_, err := client.ListMyProposals(context.Background())
			require.Error(t, err)

			var se *ServerError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.want, UserMessage(err))
		})
	}
}

func TestIsUnauthorized(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, models.Token{AccessToken: "expired"})

	_, err := client.ListMyServices(context.Background())
	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsNotFound(err))
}

func TestTransportError_Refused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := New(url, session.NewMemoryStore(models.Token{AccessToken: "t"}))
	_, err := client.ListActiveRequests(context.Background())

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, TransportRefused, te.Kind)
	assert.Equal(t, MessageUnreachable, UserMessage(err))
}

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want TransportKind
	}{
		{"dns", &net.DNSError{Err: "no such host", Name: "api.invalid"}, TransportDNS},
		{"deadline", context.DeadlineExceeded, TransportTimeout},
		{"tls message", errors.New("tls: handshake failure"), TransportTLS},
		{"other", errors.New("broken pipe"), TransportConnection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyTransportError(fmt.Errorf("wrapped: %w", tt.err))
			assert.Equal(t, tt.want, got.Kind)
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Please log in first.", UserMessage(ErrNotAuthenticated))
	assert.Equal(t, "You can attach up to 6 images.", UserMessage(errors.New("You can attach up to 6 images.")))
}
