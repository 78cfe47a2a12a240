package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	domainauth "github.com/corruptguard/helix/internal/domain/auth"
	apperrors "github.com/corruptguard/helix/internal/errors"
	"github.com/corruptguard/helix/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	auth   string
	body   map[string]any
}

func newBackend(t *testing.T, routes map[string]http.HandlerFunc) (*Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization")}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		calls = append(calls, rec)
		h, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL + "/api/v1/"})
	require.NoError(t, err)
	return c, &calls
}

func writeJSON(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func TestClient_DemoLogin(t *testing.T) {
	c, calls := newBackend(t, map[string]http.HandlerFunc{
		"POST /api/v1/auth/demo-login/deputy": writeJSON(`{
			"access_token":"demo_token_deputy_1",
			"token_type":"Bearer",
			"role":"deputy",
			"user_info":{"name":"Amit Singh","permissions":["claim_review"]},
			"expires_in":3600
		}`),
	})

	grant, err := c.DemoLogin(context.Background(), domainauth.RoleDeputy)
	require.NoError(t, err)
	assert.Equal(t, "demo_token_deputy_1", grant.AccessToken)
	assert.Equal(t, "deputy", grant.Role)
	assert.Equal(t, "Amit Singh", grant.UserInfo.Name)
	assert.Equal(t, []string{"claim_review"}, grant.UserInfo.Permissions)
	require.Len(t, *calls, 1)
	assert.Empty(t, (*calls)[0].auth)
}

func TestClient_DemoLoginStatusError(t *testing.T) {
	c, _ := newBackend(t, map[string]http.HandlerFunc{
		"POST /api/v1/auth/demo-login/vendor": func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		},
	})

	_, err := c.DemoLogin(context.Background(), domainauth.RoleVendor)
	var se *ports.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, "Service Unavailable", se.StatusText())
	assert.Equal(t, "maintenance", se.Body)
}

func TestClient_LogoutSendsBearerAndBody(t *testing.T) {
	c, calls := newBackend(t, map[string]http.HandlerFunc{
		"POST /api/v1/auth/logout": writeJSON(`{"success":true}`),
	})

	require.NoError(t, c.Logout(context.Background(), ports.LogoutInput{Token: "tok", SessionID: "sid"}))
	require.Len(t, *calls, 1)
	got := (*calls)[0]
	assert.Equal(t, "Bearer tok", got.auth)
	assert.Equal(t, map[string]any{"token": "tok", "session_id": "sid"}, got.body)
}

func TestClient_VerifyToken(t *testing.T) {
	c, calls := newBackend(t, map[string]http.HandlerFunc{
		"POST /api/v1/auth/verify-token": func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				t.Errorf("verify must not send a bearer header")
			}
			writeJSON(`{"data":{"valid":true}}`)(w, r)
		},
	})

	ok, err := c.VerifyToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, map[string]any{"token": "tok"}, (*calls)[0].body)
}

func TestClient_Refresh(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
		check   func(error) bool
	}{
		{
			name:    "success",
			handler: writeJSON(`{"success":true,"data":{"token":"new-token"}}`),
			want:    "new-token",
		},
		{
			name:    "success false",
			handler: writeJSON(`{"success":false}`),
			check:   apperrors.IsUnauthenticated,
		},
		{
			name:    "missing token",
			handler: writeJSON(`{"success":true,"data":{}}`),
			check:   apperrors.IsUnauthenticated,
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			check: func(err error) bool {
				var se *ports.StatusError
				return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
			},
		},
		{
			name:    "malformed body",
			handler: writeJSON(`{"success":`),
			check:   func(err error) bool { return err != nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, calls := newBackend(t, map[string]http.HandlerFunc{"POST /api/v1/auth/refresh": tt.handler})

			got, err := c.Refresh(context.Background(), "old-token")
			if tt.check != nil {
				require.Error(t, err)
				assert.True(t, tt.check(err), "unexpected error: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Bearer old-token", (*calls)[0].auth)
			assert.Equal(t, map[string]any{"token": "old-token"}, (*calls)[0].body)
		})
	}
}

func TestClient_MockUsers(t *testing.T) {
	c, _ := newBackend(t, map[string]http.HandlerFunc{
		"GET /api/v1/auth/dev/mock-users": writeJSON(`{"data":{"mock_users":[
			{"principal_id":"demo_citizen","role":"citizen","name":"Rahul Verma","title":"Software Engineer","permissions":["transparency_access"],"available":true}
		]}}`),
	})

	users, err := c.MockUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, domainauth.RoleCitizen, users[0].Role)
	assert.True(t, users[0].Available)
}

func TestClient_WalletLogin(t *testing.T) {
	c, calls := newBackend(t, map[string]http.HandlerFunc{
		"POST /api/v1/auth/login/hedera": writeJSON(`{"access_token":"wt","role":"citizen","session_id":"s-1","principal_id":"0.0.7"}`),
	})

	grant, err := c.WalletLogin(context.Background(), ports.WalletLoginInput{AccountID: "0.0.7", Network: "testnet"})
	require.NoError(t, err)
	assert.Equal(t, "s-1", grant.SessionID)
	assert.Equal(t, map[string]any{"account_id": "0.0.7", "network": "testnet"}, (*calls)[0].body)
}

func TestClient_Unreachable(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = c.VerifyToken(context.Background(), "tok")
	assert.True(t, apperrors.IsUnavailable(err))
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{})
	assert.True(t, apperrors.IsValidation(err))

	c, err := NewClient(Config{BaseURL: "http://localhost:8000/api/v1/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/api/v1", c.BaseURL())
	assert.NotNil(t, c.HTTPClient().Jar)
}
