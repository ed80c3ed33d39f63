package authcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/momentum-app/momentum-backend/internal/tools/common"
	"github.com/momentum-app/momentum-backend/internal/tools/loadgen"
	"github.com/momentum-app/momentum-backend/internal/tools/ui"
)

type options struct {
	baseURL string
	ci      bool
}

func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{Use: "authcheck", Short: "Smoke-test the auth and session flow against a running server"}
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "http://localhost:8080", "API base URL")
	cmd.PersistentFlags().BoolVar(&opts.ci, "ci", false, "non-interactive machine-readable output")
	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newLoadCommand(opts))
	return cmd
}

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Walk register, login, refresh, profile and logout end to end",
		RunE: func(cmd *cobra.Command, _ []string) error {
			details, err := run(opts, "authcheck run", func(ctx context.Context) ([]string, error) {
				return walkAuthFlow(ctx, opts.baseURL)
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "authcheck run", details, err)
			}
			if err != nil {
				os.Exit(4)
			}
			return nil
		},
	}
}

func newLoadCommand(opts *options) *cobra.Command {
	var (
		duration    time.Duration
		rps         int
		concurrency int
		profile     string
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Generate synthetic auth traffic",
		RunE: func(cmd *cobra.Command, _ []string) error {
			details, err := run(opts, "authcheck load", func(ctx context.Context) ([]string, error) {
				res, err := loadgen.Run(ctx, loadgen.Config{
					BaseURL:     opts.baseURL,
					Profile:     profile,
					Duration:    duration,
					RPS:         rps,
					Concurrency: concurrency,
					Seed:        time.Now().UnixNano(),
				})
				if err != nil {
					return nil, err
				}
				return []string{
					fmt.Sprintf("requests total=%d failures=%d", res.TotalRequests, res.Failures),
					fmt.Sprintf("status classes %v", res.StatusClasses),
				}, nil
			})
			if opts.ci {
				common.PrintCIResult(err == nil, "authcheck load", details, err)
			}
			if err != nil {
				os.Exit(4)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "how long to generate traffic")
	cmd.Flags().IntVar(&rps, "rps", 20, "target requests per second")
	cmd.Flags().IntVar(&concurrency, "concurrency", 6, "max in-flight requests")
	cmd.Flags().StringVar(&profile, "profile", "mixed", "traffic profile: auth, strength, health or mixed")
	return cmd
}

func run(opts *options, title string, fn func(context.Context) ([]string, error)) ([]string, error) {
	if opts.ci {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()
		return fn(ctx)
	}
	return ui.Run(title, fn)
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type tokenData struct {
	Tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"tokens"`
}

func walkAuthFlow(ctx context.Context, baseURL string) ([]string, error) {
	client := &http.Client{Timeout: 15 * time.Second}
	email := fmt.Sprintf("authcheck-%d@example.com", time.Now().UnixNano())
	password := "Authcheck1!"
	var details []string

	status, body, err := call(ctx, client, baseURL, http.MethodPost, "/api/auth/register", "",
		fmt.Sprintf(`{"name":"Auth Check","email":"%s","password":"%s"}`, email, password))
	if err != nil {
		return details, err
	}
	if status != http.StatusCreated {
		return details, fmt.Errorf("register: unexpected status %d", status)
	}
	var reg tokenData
	if err := decodeData(body, &reg); err != nil {
		return details, fmt.Errorf("register: %w", err)
	}
	details = append(details, "register: ok")

	status, body, err = call(ctx, client, baseURL, http.MethodPost, "/api/auth/login", "",
		fmt.Sprintf(`{"email":"%s","password":"%s"}`, email, password))
	if err != nil {
		return details, err
	}
	if status != http.StatusOK {
		return details, fmt.Errorf("login: unexpected status %d", status)
	}
	var login tokenData
	if err := decodeData(body, &login); err != nil {
		return details, fmt.Errorf("login: %w", err)
	}
	details = append(details, "login: ok")

	status, _, err = call(ctx, client, baseURL, http.MethodPost, "/api/auth/refresh", "",
		fmt.Sprintf(`{"refreshToken":"%s"}`, login.Tokens.RefreshToken))
	if err != nil {
		return details, err
	}
	if status != http.StatusOK {
		return details, fmt.Errorf("refresh: unexpected status %d", status)
	}
	details = append(details, "refresh: ok")

	status, _, err = call(ctx, client, baseURL, http.MethodGet, "/api/auth/me", login.Tokens.AccessToken, "")
	if err != nil {
		return details, err
	}
	if status != http.StatusOK {
		return details, fmt.Errorf("me: unexpected status %d", status)
	}
	details = append(details, "profile: ok")

	status, _, err = call(ctx, client, baseURL, http.MethodPost, "/api/auth/logout", login.Tokens.AccessToken, "{}")
	if err != nil {
		return details, err
	}
	if status != http.StatusOK {
		return details, fmt.Errorf("logout: unexpected status %d", status)
	}
	details = append(details, "logout everywhere: ok")

	status, _, err = call(ctx, client, baseURL, http.MethodPost, "/api/auth/refresh", "",
		fmt.Sprintf(`{"refreshToken":"%s"}`, reg.Tokens.RefreshToken))
	if err != nil {
		return details, err
	}
	if status != http.StatusUnauthorized {
		return details, fmt.Errorf("revoked refresh token still accepted, status %d", status)
	}
	details = append(details, "revoked token rejected: ok")
	return details, nil
}

func call(ctx context.Context, client *http.Client, baseURL, method, path, bearer, body string) (int, []byte, error) {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, payload, nil
}

func decodeData(body []byte, dst any) error {
	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return err
	}
	if !env.Success {
		if env.Error != nil {
			return fmt.Errorf("api error %s: %s", env.Error.Code, env.Error.Message)
		}
		return fmt.Errorf("api reported failure")
	}
	return json.Unmarshal(env.Data, dst)
}
