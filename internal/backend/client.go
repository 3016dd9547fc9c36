/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"curvelab/internal/session"
)

// Client is a minimal HTTP client for the session archive API.
// The desktop app uses it behind a feature flag to list, pull and push sessions.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing slash; it will be normalized.
func NewClient(baseURL string, token string) *Client {
	b := strings.TrimRight(baseURL, "/")
	return &Client{
		BaseURL: b,
		Token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, body []byte, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	var rd *bytes.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// ListSessions returns the archived sessions (read-only).
func (c *Client) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	var list []SessionSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/sessions", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// FetchSession pulls the archived doc for one session by stable id.
func (c *Client) FetchSession(ctx context.Context, stableID string) (*SessionEnvelope, error) {
	var env SessionEnvelope
	path := fmt.Sprintf("/api/sessions/%s", url.PathEscape(stableID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// PushResult is the server acknowledgement of a push.
type PushResult struct {
	StableID string `json:"stable_id"`
	Version  int64  `json:"version"`
}

// PushSession uploads a session doc under stableID, creating or replacing
// the archived copy. The server bumps the version on replace.
func (c *Client) PushSession(ctx context.Context, stableID string, doc *session.Doc) (*PushResult, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal session doc: %w", err)
	}
	var res PushResult
	path := fmt.Sprintf("/api/sessions/%s", url.PathEscape(stableID))
	if err := c.doJSON(ctx, http.MethodPut, path, b, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
