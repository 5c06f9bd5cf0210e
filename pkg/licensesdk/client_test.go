package licensesdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIssue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/issue", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "admin", user)
		require.Equal(t, "hunter2", pass)

		var req IssueRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "HWID-1", req.HWID)
		require.Equal(t, int64(3600), req.TTLSeconds)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(IssueResponse{
			Token:     "eyJ.token.sig",
			JTI:       "abc-123",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithAdminCredentials("admin", "hunter2"))
	resp, err := client.Issue(context.Background(), IssueRequest{HWID: "HWID-1", TTLSeconds: 3600, Plan: "pro"})
	require.NoError(t, err)
	assert.Equal(t, "eyJ.token.sig", resp.Token)
	assert.Equal(t, "abc-123", resp.JTI)
}

func TestClientIssueUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrUnauthorized.WriteError(w)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Issue(context.Background(), IssueRequest{HWID: "HWID-1", TTLSeconds: 3600})
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, ErrorCodeUnauthorized, apiErr.Code)
}

func TestClientVerify(t *testing.T) {
	t.Run("valid token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/verify", r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			exp := time.Now().Add(time.Hour).Unix()
			_ = json.NewEncoder(w).Encode(VerifyResponse{OK: true, Plan: "pro", ExpiresAt: exp})
		}))
		defer srv.Close()

		resp, err := NewClient(srv.URL).Verify(context.Background(), "tok.en.sig", "HWID-1")
		require.NoError(t, err)
		assert.True(t, resp.OK)
		assert.Equal(t, "pro", resp.Plan)
	})

	t.Run("rejected token surfaces reason", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(VerifyResponse{OK: false, Reason: ReasonHWIDMismatch})
		}))
		defer srv.Close()

		resp, err := NewClient(srv.URL).Verify(context.Background(), "tok.en.sig", "OTHER")
		require.NoError(t, err)
		assert.False(t, resp.OK)
		assert.Equal(t, ReasonHWIDMismatch, resp.Reason)
	})

	t.Run("store unavailable is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ErrStoreUnavailable.WriteError(w)
		}))
		defer srv.Close()

		_, err := NewClient(srv.URL).Verify(context.Background(), "tok.en.sig", "HWID-1")
		require.Error(t, err)

		apiErr, ok := err.(*APIError)
		require.True(t, ok)
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	})
}

func TestClientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/status/abc-123", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(StatusResponse{Revoked: true})
	}))
	defer srv.Close()

	revoked, err := NewClient(srv.URL).Status(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestClientList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/licenses", r.URL.Path)
		require.Equal(t, "25", r.URL.Query().Get("limit"))
		require.Equal(t, "true", r.URL.Query().Get("revoked"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ListResponse{Items: []LicenseRecord{
			{JTI: "a", HWID: "HWID-1", Revoked: true},
		}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, WithAdminCredentials("admin", "hunter2"))
	items, err := client.List(context.Background(), 25, IncludeRevoked)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].JTI)

	_, err = client.List(context.Background(), 10, "bogus")
	require.Error(t, err)
}

func TestClientHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/livez", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(HealthResponse{Status: "ok", Uptime: "42s", Version: "test"})
	}))
	defer srv.Close()

	h, err := NewClient(srv.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
}
