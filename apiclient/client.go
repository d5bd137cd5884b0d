// Package apiclient talks to the planner backend over its JSON REST API.
//
// Every failure is returned as a *core.Error classified by HTTP status:
// 401 and 403 are Unauthenticated, 404 is NotFound, 400, 409 and 422 are
// Validation, everything else (including transport errors and timeouts) is
// Network. The server's "error" body field becomes the message verbatim.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/paulIordache/Architecture-Web/core"
	"github.com/sirupsen/logrus"
)

const requestIDHeader = "X-Request-ID"

type Client struct {
	baseURL  string
	http     *http.Client
	session  *Session
	degraded atomic.Bool
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client rooted at baseURL, e.g. http://localhost:8080/api.
func New(baseURL string, session *Session, opts ...Option) *Client {
	if session == nil {
		session = NewSession(nil)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		session: session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *Session { return c.session }

type createPlacedRequest struct {
	ProjectID   core.ID `json:"project_id"`
	FurnitureID core.ID `json:"furniture_id"`
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	Rotation    float64 `json:"rotation"`
}

type updatePlacedRequest struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Z        float64 `json:"z"`
	Rotation float64 `json:"rotation"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message  string `json:"message"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

func (c *Client) GetProject(ctx context.Context, id core.ID) (*core.Project, error) {
	var p core.Project
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d", id), nil, &p, true); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListPlaced(ctx context.Context, projectID core.ID) ([]core.PlacedObject, error) {
	var objs []core.PlacedObject
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d/furniture", projectID), nil, &objs, true); err != nil {
		return nil, err
	}
	return objs, nil
}

// CreatePlaced places a catalog item at the origin with no rotation.
func (c *Client) CreatePlaced(ctx context.Context, projectID, furnitureID core.ID) (*core.PlacedObject, error) {
	body := createPlacedRequest{ProjectID: projectID, FurnitureID: furnitureID}
	var obj core.PlacedObject
	if err := c.do(ctx, http.MethodPost, "/furniture", body, &obj, true); err != nil {
		return nil, err
	}
	return &obj, nil
}

func (c *Client) UpdatePlaced(ctx context.Context, id core.ID, t core.Transform) (*core.PlacedObject, error) {
	body := updatePlacedRequest{X: t.Position.X, Y: t.Position.Y, Z: t.Position.Z, Rotation: t.Rotation}
	var obj core.PlacedObject
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/furniture/%d", id), body, &obj, true); err != nil {
		return nil, err
	}
	return &obj, nil
}

func (c *Client) DeletePlaced(ctx context.Context, id core.ID) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/furniture/%d", id), nil, nil, true)
}

// Login exchanges credentials for a token and installs it in the session.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &resp, false); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", core.Network("login response carried no token", nil)
	}
	c.session.SetToken(resp.Token, time.Time{})
	return resp.Username, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	reqID := ulid.Make().String()
	log := logrus.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": reqID,
	})

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return core.Validation("could not encode request", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return core.Validation("could not build request", err)
	}
	req.Header.Set(requestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authed {
		tok, err := c.session.Token()
		if err != nil {
			c.session.Expire(err)
			return err
		}
		tok.SetAuthHeader(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Debug("Request failed")
		return core.Classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"code":   apiErr.Code,
		}).Debug("Request rejected")
		if authed && apiErr.Code == core.CodeUnauthenticated {
			c.session.Expire(apiErr)
		}
		return apiErr
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return core.Network("malformed response", err)
	}
	return nil
}

// decodeError maps a non-2xx response to a classified error.
func decodeError(resp *http.Response) *core.Error {
	var payload struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := ""
	if json.Unmarshal(raw, &payload) == nil {
		msg = payload.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	cause := fmt.Errorf("http status %d", resp.StatusCode)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return core.Unauthenticated(msg, cause)
	case http.StatusNotFound:
		return core.NotFound(msg, cause)
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return core.Validation(msg, cause)
	}
	return core.Network(msg, cause)
}
