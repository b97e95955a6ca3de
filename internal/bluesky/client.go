package bluesky

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is a minimal Bluesky/AT Protocol XRPC client covering the calls
// the digest pipeline needs: session creation, timeline and feed pagination,
// and handle resolution.
type Client struct {
	host   string
	client *resty.Client

	// populated after Login
	accessJwt string
	did       string
}

// NewClient creates a new Bluesky API client. If host is empty, it defaults
// to https://bsky.social.
func NewClient(host string) *Client {
	if host == "" {
		host = "https://bsky.social"
	}
	return &Client{
		host:   host,
		client: resty.New().SetBaseURL(host).SetTimeout(30 * time.Second),
	}
}

// Login authenticates with the PDS and stores the session token. Use an App
// Password, not the account password.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	var (
		out    createSessionResponse
		apiErr xrpcError
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(createSessionRequest{Identifier: identifier, Password: password}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/xrpc/com.atproto.server.createSession")
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("create session: %s (status %d)", apiErr.Message, resp.StatusCode())
	}

	c.accessJwt = out.AccessJwt
	c.did = out.DID
	return nil
}

// DID returns the authenticated user's DID. Only valid after Login.
func (c *Client) DID() string {
	return c.did
}

// GetTimeline fetches one page of the authenticated user's home timeline.
// Pass the cursor from the previous page to continue; an empty cursor in
// the result signals the end.
func (c *Client) GetTimeline(ctx context.Context, limit int, cursor string) (*FeedPage, error) {
	return c.getFeedPage(ctx, "/xrpc/app.bsky.feed.getTimeline", map[string]string{
		"limit": strconv.Itoa(limit),
	}, cursor)
}

// GetFeed fetches one page of a feed generator's output by its AT-URI.
func (c *Client) GetFeed(ctx context.Context, feedURI string, limit int, cursor string) (*FeedPage, error) {
	return c.getFeedPage(ctx, "/xrpc/app.bsky.feed.getFeed", map[string]string{
		"feed":  feedURI,
		"limit": strconv.Itoa(limit),
	}, cursor)
}

// ResolveHandle resolves a handle to its stable DID.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	var (
		out    resolveHandleResponse
		apiErr xrpcError
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("handle", handle).
		SetResult(&out).
		SetError(&apiErr).
		Get("/xrpc/com.atproto.identity.resolveHandle")
	if err != nil {
		return "", fmt.Errorf("resolve handle %s: %w", handle, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("resolve handle %s: %s (status %d)", handle, apiErr.Message, resp.StatusCode())
	}

	return out.DID, nil
}

func (c *Client) getFeedPage(ctx context.Context, path string, params map[string]string, cursor string) (*FeedPage, error) {
	if c.accessJwt == "" {
		return nil, fmt.Errorf("not authenticated: call Login first")
	}

	var (
		out    FeedPage
		apiErr xrpcError
	)

	req := c.client.R().
		SetContext(ctx).
		SetAuthToken(c.accessJwt).
		SetQueryParams(params).
		SetResult(&out).
		SetError(&apiErr)
	if cursor != "" {
		req.SetQueryParam("cursor", cursor)
	}

	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s (status %d)", path, apiErr.Message, resp.StatusCode())
	}

	return &out, nil
}
