package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/momentum-app/momentum-backend/internal/config"
	"github.com/momentum-app/momentum-backend/internal/http/handler"
	"github.com/momentum-app/momentum-backend/internal/http/router"
	"github.com/momentum-app/momentum-backend/internal/repository"
	"github.com/momentum-app/momentum-backend/internal/security"
	"github.com/momentum-app/momentum-backend/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type recordingMailer struct {
	mu   sync.Mutex
	urls []string
}

func (m *recordingMailer) SendPasswordReset(_, _, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append(m.urls, resetURL)
	return nil
}

func (m *recordingMailer) lastURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.urls) == 0 {
		return ""
	}
	return m.urls[len(m.urls)-1]
}

func newAuthTestServer(t *testing.T) (string, *http.Client, *recordingMailer, func()) {
	t.Helper()
	cfg := &config.Config{
		DatabaseDriver: "sqlite",
		DatabaseDSN:    filepath.Join(t.TempDir(), "integration.db") + "?_busy_timeout=5000",
	}
	db, err := repository.Open(cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwtMgr := security.NewJWTManager(
		"momentum-app",
		"access-secret-0123456789abcdefghij",
		"refresh-secret-0123456789abcdefghi",
	)
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	mailer := &recordingMailer{}
	authSvc := service.NewAuthService(userRepo, sessionRepo, jwtMgr, mailer, logger,
		service.AuthServiceOptions{
			Pepper:      "test-pepper-0123456789",
			BcryptCost:  4,
			AccessTTL:   time.Hour,
			RefreshTTL:  24 * time.Hour,
			ResetTTL:    10 * time.Minute,
			FrontendURL: "http://localhost:3000",
		})
	sessionSvc := service.NewSessionService(sessionRepo)

	h := router.NewRouter(router.Dependencies{
		AuthHandler:                handler.NewAuthHandler(authSvc),
		UserHandler:                handler.NewUserHandler(authSvc, sessionSvc),
		JWTManager:                 jwtMgr,
		APIRateLimitRPM:            10000,
		AuthRateLimitRPM:           10000,
		PasswordForgotRateLimitRPM: 10000,
	})
	srv := httptest.NewServer(h)
	return srv.URL, srv.Client(), mailer, srv.Close
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("decode envelope: %v (body %s)", err, raw)
		}
	}
	return resp, env
}

type authData struct {
	User struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
	Tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"tokens"`
}

func decodeAuthData(t *testing.T, env envelope) authData {
	t.Helper()
	var data authData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode auth data: %v", err)
	}
	return data
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
