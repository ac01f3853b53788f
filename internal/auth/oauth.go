// Package auth obtains authenticated Google API clients. Client
// secrets and the cached token live in the user config directory; the
// returned http.Client refreshes access tokens on its own.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	clientSecretsFile = "credentials.json"
	tokenFile         = "token.json"
	authPort          = "8795"

	appDirName = "tempo"
)

// ConfigDir returns the directory holding credentials.json and the
// cached token.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appDirName), nil
}

// HasCredentials reports whether a client secrets file is present, so
// callers can run without Google integration instead of failing.
func HasCredentials() bool {
	dir, err := ConfigDir()
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(dir, clientSecretsFile))
	return err == nil
}

// GetClient returns an *http.Client authorized for the given scopes.
// It loads the cached token if one exists, otherwise runs a local
// browser authorization flow and caches the result.
func GetClient(ctx context.Context, scopes []string) (*http.Client, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}

	secrets, err := os.ReadFile(filepath.Join(dir, clientSecretsFile))
	if err != nil {
		return nil, fmt.Errorf("reading client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(secrets, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing client secret file: %w", err)
	}
	config.RedirectURL = fmt.Sprintf("http://localhost:%s/oauth2callback", authPort)

	tokenPath := filepath.Join(dir, tokenFile)
	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		log.Printf("auth: no cached token at %s, starting authorization flow", tokenPath)
		tok, err = tokenFromWeb(ctx, config)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokenPath, tok); err != nil {
			log.Printf("auth: could not cache token: %v", err)
		}
	}

	return config.Client(ctx, tok), nil
}

// tokenFromWeb runs the authorization-code flow, capturing the redirect
// on a short-lived local server.
func tokenFromWeb(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	listener, err := net.Listen("tcp", ":"+authPort)
	if err != nil {
		return nil, fmt.Errorf("starting auth listener: %w", err)
	}
	defer listener.Close()

	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				http.Error(w, "authorization code not found", http.StatusBadRequest)
				errCh <- fmt.Errorf("authorization code not found in redirect")
				return
			}
			fmt.Fprint(w, "Authentication successful. You can close this window.")
			codeCh <- code
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer server.Shutdown(context.Background())

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	fmt.Printf("Open the following URL in your browser to authorize tempo:\n%s\n", authURL)

	select {
	case code := <-codeCh:
		exchangeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		tok, err := config.Exchange(exchangeCtx, code)
		if err != nil {
			return nil, fmt.Errorf("exchanging authorization code: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-time.After(5 * time.Minute):
		return nil, fmt.Errorf("authorization timed out")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decoding token file %s: %w", path, err)
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
