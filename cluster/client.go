package cluster

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const (
	loginPath   = "/v1/session/login"
	exportsPath = "/v2/nfs/exports/"
)

// Client talks to the storage cluster management REST API.
type Client struct {
	url  string
	http *http.Client

	mu       sync.Mutex
	token    string
	username string
	password string
}

// NewClient returns a client for the API at baseURL, e.g. https://cluster:8000.
func NewClient(baseURL string, timeout time.Duration, insecureSkipVerify bool) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		url: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// BaseURL builds the API URL for a cluster host and port.
func BaseURL(host string, port int) string {
	return "https://" + net.JoinHostPort(host, strconv.Itoa(port))
}

// Login opens a session. The credentials are kept so an expired session is
// renewed once on the next 401.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, loginPath, LoginRequest{Username: username, Password: password}, &resp, false); err != nil {
		return err
	}
	if resp.BearerToken == "" {
		return errors.New("login response did not contain a bearer token")
	}

	c.mu.Lock()
	c.token = resp.BearerToken
	c.username = username
	c.password = password
	c.mu.Unlock()
	return nil
}

func (c *Client) GetExport(ctx context.Context, exportPath string) (*Export, error) {
	var resp Export
	if err := c.authed(ctx, http.MethodGet, exportRef(exportPath), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ModifyExport replaces the export identified by its export path.
func (c *Client) ModifyExport(ctx context.Context, export *Export) (*Export, error) {
	var resp Export
	if err := c.authed(ctx, http.MethodPut, exportRef(export.ExportPath), export, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func exportRef(exportPath string) string {
	return exportsPath + url.PathEscape(exportPath)
}

func (c *Client) authed(ctx context.Context, method, path string, body, result any) error {
	err := c.do(ctx, method, path, body, result, true)
	if !IsUnauthorized(err) {
		return err
	}

	c.mu.Lock()
	username, password := c.username, c.password
	c.mu.Unlock()
	if username == "" {
		return err
	}
	if lerr := c.Login(ctx, username, password); lerr != nil {
		return fmt.Errorf("renew session: %w", lerr)
	}
	return c.do(ctx, method, path, body, result, true)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any, auth bool) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		c.mu.Lock()
		token := c.token
		c.mu.Unlock()
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		requestsTotal.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Description != "" {
			return &ClusterError{
				StatusCode:  resp.StatusCode,
				Class:       errResp.ErrorClass,
				Description: errResp.Description,
			}
		}
		return &ClusterError{
			StatusCode:  resp.StatusCode,
			Description: string(respBody),
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

type ClusterError struct {
	StatusCode  int
	Class       string
	Description string
}

func (e *ClusterError) Error() string {
	return fmt.Sprintf("cluster error %d (%s): %s", e.StatusCode, e.Class, e.Description)
}

func IsNotFound(err error) bool {
	var ce *ClusterError
	return errors.As(err, &ce) && ce.StatusCode == http.StatusNotFound
}

func IsUnauthorized(err error) bool {
	var ce *ClusterError
	return errors.As(err, &ce) && ce.StatusCode == http.StatusUnauthorized
}
