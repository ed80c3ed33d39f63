package integration

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"
)

type sessionView struct {
	ID        uint   `json:"id"`
	UserAgent string `json:"user_agent"`
}

func listSessions(t *testing.T, client *http.Client, baseURL, accessToken string) []sessionView {
	t.Helper()
	resp, env := doJSON(t, client, http.MethodGet, baseURL+"/api/auth/sessions", nil, bearer(accessToken))
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("list sessions failed: status=%d success=%v", resp.StatusCode, env.Success)
	}
	var data struct {
		Sessions []sessionView `json:"sessions"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	return data.Sessions
}

func TestSessionManagementListAndRevokeByDevice(t *testing.T) {
	baseURL, client, _, closeFn := newAuthTestServer(t)
	defer closeFn()

	registerBody := map[string]string{
		"email":    "session-mgmt@example.com",
		"name":     "Session Manager",
		"password": "Valid#Pass1234",
	}
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/auth/register", registerBody, nil)
	if resp.StatusCode != http.StatusCreated || !env.Success {
		t.Fatalf("register failed: status=%d success=%v", resp.StatusCode, env.Success)
	}
	deviceA := decodeAuthData(t, env)

	loginBody := map[string]string{
		"email":    registerBody["email"],
		"password": registerBody["password"],
	}
	resp, env = doJSON(t, client, http.MethodPost, baseURL+"/api/auth/login", loginBody, nil)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("second login failed: status=%d success=%v", resp.StatusCode, env.Success)
	}
	deviceB := decodeAuthData(t, env)

	sessions := listSessions(t, client, baseURL, deviceB.Tokens.AccessToken)
	if len(sessions) != 2 {
		t.Fatalf("expected 2 active sessions, got %d", len(sessions))
	}

	// revoke the register-era device, keeping the login-era one
	oldest := sessions[0]
	for _, s := range sessions {
		if s.ID < oldest.ID {
			oldest = s
		}
	}
	resp, env = doJSON(t, client, http.MethodDelete,
		baseURL+"/api/auth/sessions/"+strconv.FormatUint(uint64(oldest.ID), 10), nil,
		bearer(deviceB.Tokens.AccessToken))
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("revoke session failed: status=%d success=%v", resp.StatusCode, env.Success)
	}

	resp, _ = doJSON(t, client, http.MethodPost, baseURL+"/api/auth/refresh",
		map[string]string{"refreshToken": deviceA.Tokens.RefreshToken}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected revoked device refresh to fail with 401, got %d", resp.StatusCode)
	}

	resp, _ = doJSON(t, client, http.MethodPost, baseURL+"/api/auth/refresh",
		map[string]string{"refreshToken": deviceB.Tokens.RefreshToken}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected surviving device refresh to succeed, got %d", resp.StatusCode)
	}
}

func TestChangePasswordForcesLogoutEverywhere(t *testing.T) {
	baseURL, client, _, closeFn := newAuthTestServer(t)
	defer closeFn()

	registerBody := map[string]string{
		"email":    "change-pass@example.com",
		"name":     "Change Pass",
		"password": "Valid#Pass1234",
	}
	resp, env := doJSON(t, client, http.MethodPost, baseURL+"/api/auth/register", registerBody, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register failed: status=%d", resp.StatusCode)
	}
	deviceA := decodeAuthData(t, env)

	resp, env = doJSON(t, client, http.MethodPost, baseURL+"/api/auth/login",
		map[string]string{"email": registerBody["email"], "password": registerBody["password"]}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: status=%d", resp.StatusCode)
	}
	deviceB := decodeAuthData(t, env)

	resp, env = doJSON(t, client, http.MethodPut, baseURL+"/api/auth/password",
		map[string]string{"currentPassword": "Valid#Pass1234", "newPassword": "Fresh#Pass5678"},
		bearer(deviceB.Tokens.AccessToken))
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("change password failed: status=%d success=%v", resp.StatusCode, env.Success)
	}

	for _, token := range []string{deviceA.Tokens.RefreshToken, deviceB.Tokens.RefreshToken} {
		resp, _ = doJSON(t, client, http.MethodPost, baseURL+"/api/auth/refresh",
			map[string]string{"refreshToken": token}, nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected every refresh token revoked after password change, got %d", resp.StatusCode)
		}
	}

	resp, _ = doJSON(t, client, http.MethodPost, baseURL+"/api/auth/login",
		map[string]string{"email": registerBody["email"], "password": "Fresh#Pass5678"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login with new password failed: status=%d", resp.StatusCode)
	}
}
