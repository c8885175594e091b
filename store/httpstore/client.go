// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/easel-project/easel/lib/geo"
	"github.com/easel-project/easel/lib/netutil"
	"github.com/easel-project/easel/lib/ref"
	"github.com/easel-project/easel/session"
)

// participantHeader mirrors the server's identity header.
const participantHeader = "X-Easel-Participant"

// zstdDecoder is reused across responses; zstd.Decoder is safe for
// concurrent DecodeAll use.
var zstdDecoder *zstd.Decoder

func init() {
	var err error
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("httpstore: zstd decoder initialization failed: " + err.Error())
	}
}

// Config holds configuration for creating a Client.
type Config struct {
	// StoreURL is the base URL of the easel document-store server
	// (e.g. "http://localhost:7420"). Required.
	StoreURL string

	// HTTPClient is used for all requests. Nil means
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger receives operational messages. Nil means slog.Default().
	Logger *slog.Logger
}

// Client is a session store backed by a remote easel server. It
// implements session.Store and identity.Provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ session.Store = (*Client)(nil)

// New creates a client for the server at StoreURL.
func New(config Config) (*Client, error) {
	if config.StoreURL == "" {
		return nil, fmt.Errorf("httpstore: StoreURL is required")
	}
	// Validate the URL structure but store the string form: request
	// URLs are built by concatenation, which sidesteps url.URL's
	// re-encoding of already-encoded paths.
	if _, err := url.Parse(config.StoreURL); err != nil {
		return nil, fmt.Errorf("httpstore: invalid StoreURL %q: %w", config.StoreURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.StoreURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CloseIdleConnections drops pooled connections. Called after
// transport errors so the next request opens a fresh socket instead of
// reusing a poisoned one.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// AuthenticateAnonymously asks the server to issue a participant
// identity. Implements identity.Provider.
func (c *Client) AuthenticateAnonymously(ctx context.Context) (ref.ParticipantID, error) {
	body, err := c.doRequest(ctx, http.MethodPost, "/v1/auth/anonymous", "", nil)
	if err != nil {
		return ref.ParticipantID{}, fmt.Errorf("httpstore: authenticating: %w", err)
	}

	var response struct {
		ParticipantID ref.ParticipantID `json:"participant_id"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.ParticipantID{}, fmt.Errorf("httpstore: parsing auth response: %w", err)
	}
	if response.ParticipantID.IsZero() {
		return ref.ParticipantID{}, fmt.Errorf("httpstore: server issued an empty participant ID")
	}
	return response.ParticipantID, nil
}

// Insert creates a session on the server with doc.OwnerID as owner.
// The create endpoint starts sessions empty; a document with seeded
// strokes cannot be expressed and is rejected.
func (c *Client) Insert(ctx context.Context, doc session.SessionDocument) error {
	if len(doc.Strokes) > 0 {
		return fmt.Errorf("httpstore: remote create does not accept seeded strokes")
	}

	request := struct {
		ID ref.SessionKey `json:"id"`
	}{ID: doc.ID}

	_, err := c.doRequest(ctx, http.MethodPost, "/v1/sessions", doc.OwnerID.String(), request)
	if err != nil {
		return fmt.Errorf("httpstore: creating session %s: %w", doc.ID, err)
	}
	return nil
}

// Find fetches the full session snapshot.
func (c *Client) Find(ctx context.Context, key ref.SessionKey) (session.SessionDocument, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/v1/sessions/"+key.String(), "", nil)
	if err != nil {
		return session.SessionDocument{}, fmt.Errorf("httpstore: fetching session %s: %w", key, err)
	}

	var response struct {
		ID      ref.SessionKey    `json:"id"`
		OwnerID ref.ParticipantID `json:"owner_id"`
		Strokes []geo.Stroke      `json:"strokes"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return session.SessionDocument{}, fmt.Errorf("httpstore: parsing session %s: %w", key, err)
	}
	return session.SessionDocument{
		ID:      response.ID,
		OwnerID: response.OwnerID,
		Strokes: response.Strokes,
	}, nil
}

// AppendStroke commits a stroke under the given identity. Ownership is
// enforced server-side; an E_NOT_OWNER rejection surfaces as a
// StoreError.
func (c *Client) AppendStroke(ctx context.Context, key ref.SessionKey, owner ref.ParticipantID, stroke geo.Stroke) (uint64, error) {
	request := struct {
		Points geo.Stroke `json:"points"`
	}{Points: stroke}

	body, err := c.doRequest(ctx, http.MethodPost,
		"/v1/sessions/"+key.String()+"/strokes", owner.String(), request)
	if err != nil {
		return 0, fmt.Errorf("httpstore: appending to %s: %w", key, err)
	}

	var response struct {
		Seq uint64 `json:"seq"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return 0, fmt.Errorf("httpstore: parsing append response: %w", err)
	}
	return response.Seq, nil
}

// Subscribe opens a long-poll change feed starting after since. The
// initial zero-timeout poll validates the session (and collects any
// backlog) before the feed is returned, so a bad key fails here
// rather than on the first Next.
func (c *Client) Subscribe(ctx context.Context, key ref.SessionKey, since uint64) (session.Feed, error) {
	initial, err := c.pollChanges(ctx, key, since, 0)
	if err != nil {
		return nil, fmt.Errorf("httpstore: subscribing to %s: %w", key, err)
	}

	return &pollFeed{
		client:    c,
		key:       key,
		pending:   initial.Changes,
		nextSince: initial.NextSince,
		done:      make(chan struct{}),
	}, nil
}

// changesResult mirrors the server's changes response.
type changesResult struct {
	Changes   []session.ChangeEvent `json:"changes"`
	NextSince uint64                `json:"next_since"`
}

// pollChanges issues one changes long-poll with the given server-side
// timeout in milliseconds.
func (c *Client) pollChanges(ctx context.Context, key ref.SessionKey, since uint64, timeoutMS int) (changesResult, error) {
	path := fmt.Sprintf("/v1/sessions/%s/changes?since=%d&timeout=%d", key, since, timeoutMS)
	body, err := c.doRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return changesResult{}, err
	}

	var result changesResult
	if err := json.Unmarshal(body, &result); err != nil {
		return changesResult{}, fmt.Errorf("parsing changes response: %w", err)
	}
	return result, nil
}

// doRequest performs an HTTP round trip against the server, returning
// the response body. Error responses decode into *session.StoreError
// so callers can branch on the code.
func (c *Client) doRequest(ctx context.Context, method, path, participant string, requestBody any) ([]byte, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if participant != "" {
		request.Header.Set(participantHeader, participant)
	}
	if method == http.MethodGet {
		request.Header.Set("Accept-Encoding", "zstd")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if response.Header.Get("Content-Encoding") == "zstd" {
		responseBody, err = zstdDecoder.DecodeAll(responseBody, nil)
		if err != nil {
			return nil, fmt.Errorf("decompressing response: %w", err)
		}
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	// All server error responses share the {errcode, error} shape.
	var storeErr session.StoreError
	if jsonErr := json.Unmarshal(responseBody, &storeErr); jsonErr != nil || storeErr.Code == "" {
		return nil, fmt.Errorf("unexpected %d response from %s %s: %s",
			response.StatusCode, method, path, string(responseBody))
	}
	storeErr.StatusCode = response.StatusCode
	return responseBody, &storeErr
}
