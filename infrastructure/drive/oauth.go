package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// callbackAddr is where the installed-app OAuth flow receives its code
const callbackAddr = "localhost:8085"

// ErrNotAuthorized is returned when no usable OAuth token is stored
var ErrNotAuthorized = errors.New("drive access not authorized; run setup --drive-auth")

func oauthConfig(credentialsPath string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read OAuth credentials file: %w", err)
	}
	config, err := google.ConfigFromJSON(b, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse OAuth credentials: %w", err)
	}
	config.RedirectURL = "http://" + callbackAddr + "/callback"
	return config, nil
}

// newOAuthDriveService creates a Drive service from a stored user token.
// A refreshed token is written back to tokenPath.
func newOAuthDriveService(ctx context.Context, credentialsPath, tokenPath string) (*GoogleDriveService, error) {
	config, err := oauthConfig(credentialsPath)
	if err != nil {
		return nil, err
	}

	stored, err := loadToken(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAuthorized, err)
	}

	token, err := config.TokenSource(ctx, stored).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: refresh token: %v", ErrNotAuthorized, err)
	}
	if token.AccessToken != stored.AccessToken {
		if err := saveToken(tokenPath, token); err != nil {
			return nil, fmt.Errorf("store refreshed token: %w", err)
		}
	}

	srv, err := drive.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("unable to create drive service: %w", err)
	}
	return &GoogleDriveService{service: srv}, nil
}

// Authorize runs the installed-app consent flow: it prints the consent URL to out,
// waits for Google to redirect back to a local listener and stores the token.
func Authorize(ctx context.Context, credentialsPath, tokenPath string, out io.Writer) error {
	config, err := oauthConfig(credentialsPath)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", callbackAddr)
	if err != nil {
		return fmt.Errorf("listen for OAuth callback: %w", err)
	}

	state := uuid.NewString()
	codes := make(chan string, 1)
	failures := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
			failures <- errors.New("OAuth callback state mismatch")
		case q.Get("code") == "":
			http.Error(w, "no authorization code", http.StatusBadRequest)
			failures <- fmt.Errorf("OAuth callback without code: %s", q.Get("error"))
		default:
			fmt.Fprintln(w, "Authorization complete. You can close this window.")
			codes <- q.Get("code")
		}
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failures <- err
		}
	}()
	defer server.Close()

	fmt.Fprintf(out, "Open this URL in a browser to grant read access to Google Drive:\n\n%s\n\n",
		config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce))

	var code string
	select {
	case code = <-codes:
	case err := <-failures:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("unable to exchange auth code: %w", err)
	}
	if err := saveToken(tokenPath, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}

	fmt.Fprintf(out, "Token saved to %s\n", tokenPath)
	return nil
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(f).Encode(token); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
