// Package swift reads object metadata from an OpenStack Swift cluster.
package swift

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/ncw/swift/v2"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.ObjectSource = (*Client)(nil)

// statusRatelimit is returned by Swift proxies that throttle a client.
const statusRatelimit = 498

// ErrUnauthorized indicates the cluster rejected the credentials.
var ErrUnauthorized = errors.New("swift: unauthorized")

// Config configures the Swift connection. Either AuthURL, User and Key, or
// StorageURL and Token must be set.
type Config struct {
	// AuthURL is the auth endpoint, e.g. http://proxy:8080/auth/v1.0.
	AuthURL string

	// User and Key are the credentials.
	User string
	Key  string

	// StorageURL is the account URL. Overrides the one returned by auth.
	StorageURL string

	// Token is a pre-issued auth token.
	Token string

	// Transport performs requests. Defaults to the connection's own.
	Transport http.RoundTripper
}

// Client fetches object metadata with HEAD requests.
type Client struct {
	conn       *swift.Connection
	storageURL string
	canReauth  bool

	mu        sync.Mutex
	authedURL string
}

// New creates a client. Authentication happens on first use.
func New(cfg Config) (*Client, error) {
	hasToken := cfg.StorageURL != "" && cfg.Token != ""
	hasAuth := cfg.AuthURL != "" && cfg.User != "" && cfg.Key != ""
	if !hasToken && !hasAuth {
		return nil, fmt.Errorf("%w: swift needs auth_url, user and key, or storage_url and token", domain.ErrInvalidInput)
	}

	conn := &swift.Connection{
		AuthUrl:   cfg.AuthURL,
		UserName:  cfg.User,
		ApiKey:    cfg.Key,
		Transport: cfg.Transport,
	}
	if hasToken {
		conn.StorageUrl = cfg.StorageURL
		conn.AuthToken = cfg.Token
	}
	return &Client{
		conn:       conn,
		storageURL: cfg.StorageURL,
		canReauth:  hasAuth,
	}, nil
}

// ObjectMetadata returns the headers of an object with lower-cased keys.
func (c *Client) ObjectMetadata(
	ctx context.Context, account, container, name string, preferNewest bool,
) (domain.ObjectMetadata, error) {
	object := account + "/" + container + "/" + name
	if container == "" || name == "" {
		return nil, fmt.Errorf("%w: container and object name are required", domain.ErrInvalidInput)
	}

	base, err := c.baseURL(ctx)
	if err != nil {
		return nil, classifyError(object, err)
	}
	target, err := AccountURL(base, account)
	if err != nil {
		return nil, err
	}

	headers := swift.Headers{"X-Trans-Id-Extra": uuid.NewString()}
	if preferNewest {
		headers["X-Newest"] = "true"
	}
	opts := swift.RequestOpts{
		Operation:  http.MethodHead,
		Container:  container,
		ObjectName: name,
		Headers:    headers,
		NoResponse: true,
	}
	if !c.canReauth {
		// A pre-issued token cannot be renewed.
		opts.Retries = -1
	}

	res, respHeaders, err := c.conn.Call(ctx, target, opts)
	if err != nil {
		return nil, classifyError(object, err)
	}

	meta := make(domain.ObjectMetadata, len(respHeaders))
	for k, v := range respHeaders {
		meta[strings.ToLower(k)] = v
	}
	if _, ok := meta["content-length"]; !ok && res != nil && res.ContentLength >= 0 {
		meta["content-length"] = strconv.FormatInt(res.ContentLength, 10)
	}
	return meta, nil
}

// baseURL returns the account URL, authenticating once to learn it when
// none is configured.
func (c *Client) baseURL(ctx context.Context) (string, error) {
	if c.storageURL != "" {
		return c.storageURL, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authedURL == "" {
		if err := c.conn.Authenticate(ctx); err != nil {
			return "", err
		}
		c.authedURL = c.conn.StorageUrl
	}
	return c.authedURL, nil
}

// AccountURL swaps the last path segment of storageURL, which names the
// account, for account. An empty account keeps the URL's own.
func AccountURL(storageURL, account string) (string, error) {
	u, err := url.Parse(storageURL)
	if err != nil {
		return "", fmt.Errorf("%w: storage url: %v", domain.ErrInvalidInput, err)
	}

	base := strings.TrimSuffix(u.Path, "/")
	if account != "" {
		base = path.Dir(base)
		if base == "." || base == "/" {
			base = ""
		}
		base += "/" + account
	}
	u.Path = base
	u.RawPath = ""
	u.RawQuery = ""
	return u.String(), nil
}

func classifyError(object string, err error) error {
	var swiftErr *swift.Error
	if !errors.As(err, &swiftErr) {
		return fmt.Errorf("head %s: %w", object, err)
	}
	switch swiftErr.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, object)
	case http.StatusTooManyRequests, statusRatelimit:
		return fmt.Errorf("%w: %s: status %d", domain.ErrRateLimited, object, swiftErr.StatusCode)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, object)
	default:
		return fmt.Errorf("head %s: status %d", object, swiftErr.StatusCode)
	}
}
