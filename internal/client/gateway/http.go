package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sethvargo/go-retry"

	"github.com/driftbox/driftbox/internal/client/models"
	"github.com/driftbox/driftbox/internal/common"
)

// HTTPGateway talks to the driftbox REST backend. It holds the session
// tokens, refreshes them when the server answers 401 (or when the access
// token's exp claim is already past), and retries transient transport
// failures with backoff before reporting the server unreachable.
type HTTPGateway struct {
	baseURL string
	client  *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string

	// OnTokensRefreshed, if set, is called with the new token pair after a
	// login or refresh so the caller can persist it.
	OnTokensRefreshed func(access, refresh string)
}

// NewHTTPGateway creates a gateway for the given base URL. The timeout
// bounds every request; the engine itself applies no timeout beyond this
// (a stuck call blocks only that one queue entry's replay for the pass).
func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// SetTokens installs a previously persisted session.
func (g *HTTPGateway) SetTokens(access, refresh string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accessToken = access
	g.refreshToken = refresh
}

func (g *HTTPGateway) tokens() (string, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.accessToken, g.refreshToken
}

func (g *HTTPGateway) storeTokens(access, refresh string) {
	g.mu.Lock()
	g.accessToken = access
	g.refreshToken = refresh
	fn := g.OnTokensRefreshed
	g.mu.Unlock()
	if fn != nil {
		fn(access, refresh)
	}
}

// tokenExpired reports whether the JWT's exp claim is in the past. Tokens
// we cannot parse are treated as expired so a refresh is attempted before
// a doomed request.
func tokenExpired(token string) bool {
	if token == "" {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// doRequest performs one HTTP round trip, retrying transport-level
// failures with a short fibonacci backoff. A request that still cannot
// reach the server is reported as common.ErrNetworkUnavailable.
func (g *HTTPGateway) doRequest(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response

	backoff := retry.WithMaxRetries(2, retry.NewFibonacci(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := build()
		if err != nil {
			return err
		}
		resp, err = g.client.Do(req.WithContext(ctx))
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", common.ErrNetworkUnavailable, err)
	}
	return resp, nil
}

// call performs an authorized request and decodes a JSON response into out
// (if non-nil). On 401 it refreshes the session once and retries the
// request. The body func is re-invoked per attempt so the reader is fresh.
func (g *HTTPGateway) call(ctx context.Context, method, path string, query url.Values, contentType string, body func() (io.Reader, error), out any) error {
	access, refresh := g.tokens()
	if access != "" && tokenExpired(access) && refresh != "" {
		// Best effort: an expired access token would bounce anyway.
		_ = g.refresh(ctx)
	}

	resp, err := g.authorizedRoundTrip(ctx, method, path, query, contentType, body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		if _, refresh := g.tokens(); refresh == "" {
			return common.ErrUnauthorized
		}
		if err := g.refresh(ctx); err != nil {
			return err
		}
		resp, err = g.authorizedRoundTrip(ctx, method, path, query, contentType, body)
		if err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func (g *HTTPGateway) authorizedRoundTrip(ctx context.Context, method, path string, query url.Values, contentType string, body func() (io.Reader, error)) (*http.Response, error) {
	return g.doRequest(ctx, func() (*http.Request, error) {
		u := g.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		var rd io.Reader
		if body != nil {
			var err error
			if rd, err = body(); err != nil {
				return nil, err
			}
		}
		req, err := http.NewRequest(method, u, rd)
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		if access, _ := g.tokens(); access != "" {
			req.Header.Set("Authorization", "Bearer "+access)
		}
		return req, nil
	})
}

func decodeResponse(resp *http.Response, out any) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return common.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return common.ErrNotFound
	case resp.StatusCode >= 400:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}
	if out == nil {
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		*raw = b
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func jsonBody(v any) func() (io.Reader, error) {
	return func() (io.Reader, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(b), nil
	}
}

func (g *HTTPGateway) callJSON(ctx context.Context, method, path string, in, out any) error {
	var body func() (io.Reader, error)
	contentType := ""
	if in != nil {
		body = jsonBody(in)
		contentType = "application/json"
	}
	return g.call(ctx, method, path, nil, contentType, body, out)
}

// refresh exchanges the refresh token for a new pair.
func (g *HTTPGateway) refresh(ctx context.Context) error {
	_, refreshToken := g.tokens()
	if refreshToken == "" {
		return common.ErrUnauthorized
	}

	resp, err := g.doRequest(ctx, func() (*http.Request, error) {
		b, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequest(http.MethodPost, g.baseURL+"/api/auth/refresh", bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var pair tokenPair
	if err := decodeResponse(resp, &pair); err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return fmt.Errorf("%w: %w", common.ErrTokenExpired, err)
		}
		return err
	}
	g.storeTokens(pair.AccessToken, pair.RefreshToken)
	return nil
}

func (g *HTTPGateway) Ping(ctx context.Context) error {
	resp, err := g.doRequest(ctx, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, g.baseURL+"/api/ping", nil)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping returned status %d", resp.StatusCode)
	}
	return nil
}

func (g *HTTPGateway) Login(ctx context.Context, username, password string) error {
	resp, err := g.doRequest(ctx, func() (*http.Request, error) {
		b, err := json.Marshal(credentials{Username: username, Password: password})
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequest(http.MethodPost, g.baseURL+"/api/auth/login", bytes.NewReader(b))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var pair tokenPair
	if err := decodeResponse(resp, &pair); err != nil {
		return err
	}
	g.storeTokens(pair.AccessToken, pair.RefreshToken)
	return nil
}

func (g *HTTPGateway) Register(ctx context.Context, username, password string) error {
	return g.callJSON(ctx, http.MethodPost, "/api/auth/register", credentials{Username: username, Password: password}, nil)
}

func (g *HTTPGateway) ListFiles(ctx context.Context, folderID *string) ([]models.FileRecord, error) {
	query := url.Values{}
	if folderID != nil {
		query.Set("folder_id", *folderID)
	}
	var out []models.FileRecord
	if err := g.call(ctx, http.MethodGet, "/api/files", query, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) Upload(ctx context.Context, name, mimeType string, folderID *string, data []byte) (*models.FileRecord, error) {
	query := url.Values{}
	query.Set("name", name)
	if mimeType != "" {
		query.Set("mime_type", mimeType)
	}
	if folderID != nil {
		query.Set("folder_id", *folderID)
	}
	body := func() (io.Reader, error) { return bytes.NewReader(data), nil }

	var out models.FileRecord
	if err := g.call(ctx, http.MethodPost, "/api/files", query, "application/octet-stream", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) RenameFile(ctx context.Context, id, name string) error {
	return g.callJSON(ctx, http.MethodPatch, "/api/files/"+url.PathEscape(id), map[string]string{"name": name}, nil)
}

func (g *HTTPGateway) MoveFile(ctx context.Context, id string, folderID *string) error {
	return g.callJSON(ctx, http.MethodPatch, "/api/files/"+url.PathEscape(id), map[string]*string{"folder_id": folderID}, nil)
}

// DeleteFile treats an already-deleted file as success so replaying the
// same delete twice converges to the same end state.
func (g *HTTPGateway) DeleteFile(ctx context.Context, id string) error {
	err := g.call(ctx, http.MethodDelete, "/api/files/"+url.PathEscape(id), nil, "", nil, nil)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}

func (g *HTTPGateway) Download(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := g.call(ctx, http.MethodGet, "/api/files/"+url.PathEscape(id)+"/content", nil, "", nil, &data)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (g *HTTPGateway) ListFolders(ctx context.Context, parentID *string) ([]models.FolderRecord, error) {
	query := url.Values{}
	if parentID != nil {
		query.Set("parent_id", *parentID)
	}
	var out []models.FolderRecord
	if err := g.call(ctx, http.MethodGet, "/api/folders", query, "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *HTTPGateway) CreateFolder(ctx context.Context, name string, parentID *string) (*models.FolderRecord, error) {
	in := struct {
		Name     string  `json:"name"`
		ParentID *string `json:"parent_id"`
	}{Name: name, ParentID: parentID}

	var out models.FolderRecord
	if err := g.callJSON(ctx, http.MethodPost, "/api/folders", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *HTTPGateway) RenameFolder(ctx context.Context, id, name string) error {
	return g.callJSON(ctx, http.MethodPatch, "/api/folders/"+url.PathEscape(id), map[string]string{"name": name}, nil)
}

func (g *HTTPGateway) MoveFolder(ctx context.Context, id string, parentID *string) error {
	return g.callJSON(ctx, http.MethodPatch, "/api/folders/"+url.PathEscape(id), map[string]*string{"parent_id": parentID}, nil)
}

// DeleteFolder, like DeleteFile, is idempotent across replays.
func (g *HTTPGateway) DeleteFolder(ctx context.Context, id string) error {
	err := g.call(ctx, http.MethodDelete, "/api/folders/"+url.PathEscape(id), nil, "", nil, nil)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	return err
}

func (g *HTTPGateway) Close() error {
	g.client.CloseIdleConnections()
	return nil
}
