// Copyright 2026 The Easel Authors
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/easel-project/easel/lib/geo"
	"github.com/easel-project/easel/lib/identity"
	"github.com/easel-project/easel/lib/ref"
	"github.com/easel-project/easel/session"
)

const (
	// participantHeader carries the caller's claimed identity. The
	// store enforces ownership; the header only names who is asking.
	participantHeader = "X-Easel-Participant"

	// defaultPollTimeout and maxPollTimeout bound the changes
	// long-poll. An idle poll returns an empty change list when the
	// timeout expires; clients immediately poll again.
	defaultPollTimeout = 25 * time.Second
	maxPollTimeout     = 60 * time.Second

	// maxPollBatch caps the changes returned per poll.
	maxPollBatch = 256

	// compressMinBytes is the snapshot size below which zstd is not
	// worth the round trip CPU.
	compressMinBytes = 1024

	// maxRequestBody bounds request bodies. The largest legitimate
	// body is a long freehand stroke, well under this.
	maxRequestBody = 1 << 20
)

// zstdEncoder is reused across responses; zstd.Encoder is safe for
// concurrent EncodeAll use.
var zstdEncoder *zstd.Encoder

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("httpserver: zstd encoder initialization failed: " + err.Error())
	}
}

// Config assembles an API.
type Config struct {
	// Store is the backing session store. Required.
	Store session.Store

	// Identity issues participant identities. Required.
	Identity identity.Provider

	// Logger receives request-level messages. Nil means
	// slog.Default().
	Logger *slog.Logger
}

// API holds the handler state for the document-store HTTP surface.
// Build the routing table with Handler.
type API struct {
	store    session.Store
	identity identity.Provider
	logger   *slog.Logger
}

// New validates the configuration and assembles the API.
func New(config Config) (*API, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("httpserver: Store is required")
	}
	if config.Identity == nil {
		return nil, fmt.Errorf("httpserver: Identity is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		store:    config.Store,
		identity: config.Identity,
		logger:   logger,
	}, nil
}

// Handler returns the routing table for the API.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/anonymous", a.handleAuthAnonymous)
	mux.HandleFunc("POST /v1/sessions", a.handleCreateSession)
	mux.HandleFunc("GET /v1/sessions/{key}", a.handleGetSession)
	mux.HandleFunc("POST /v1/sessions/{key}/strokes", a.handleAppendStroke)
	mux.HandleFunc("GET /v1/sessions/{key}/changes", a.handleChanges)
	return mux
}

// --- Request/response bodies ---

type authResponse struct {
	ParticipantID ref.ParticipantID `json:"participant_id"`
}

type createSessionRequest struct {
	ID string `json:"id"`
}

type sessionResponse struct {
	ID      ref.SessionKey    `json:"id"`
	OwnerID ref.ParticipantID `json:"owner_id"`
	Strokes []geo.Stroke      `json:"strokes"`
	Seq     uint64            `json:"seq"`
}

type appendStrokeRequest struct {
	Points geo.Stroke `json:"points"`
}

type appendStrokeResponse struct {
	Seq uint64 `json:"seq"`
}

type changesResponse struct {
	Changes   []session.ChangeEvent `json:"changes"`
	NextSince uint64                `json:"next_since"`
}

// --- Handlers ---

func (a *API) handleAuthAnonymous(writer http.ResponseWriter, request *http.Request) {
	participant, err := a.identity.AuthenticateAnonymously(request.Context())
	if err != nil {
		a.writeError(writer, request, fmt.Errorf("issuing identity: %w", err))
		return
	}
	a.writeJSON(writer, request, http.StatusOK, authResponse{ParticipantID: participant})
}

func (a *API) handleCreateSession(writer http.ResponseWriter, request *http.Request) {
	participant, err := a.participant(request)
	if err != nil {
		a.writeError(writer, request, err)
		return
	}

	var body createSessionRequest
	if err := decodeBody(request, &body); err != nil {
		a.writeError(writer, request, err)
		return
	}
	key, err := ref.ParseSessionKey(body.ID)
	if err != nil {
		a.writeError(writer, request, &session.StoreError{
			Code:       session.ErrCodeInvalidParam,
			Message:    err.Error(),
			StatusCode: http.StatusBadRequest,
		})
		return
	}

	doc := session.SessionDocument{ID: key, OwnerID: participant}
	if err := a.store.Insert(request.Context(), doc); err != nil {
		a.writeError(writer, request, err)
		return
	}

	a.writeJSON(writer, request, http.StatusCreated, sessionResponse{
		ID:      key,
		OwnerID: participant,
		Strokes: []geo.Stroke{},
		Seq:     0,
	})
}

func (a *API) handleGetSession(writer http.ResponseWriter, request *http.Request) {
	key, err := pathSessionKey(request)
	if err != nil {
		a.writeError(writer, request, err)
		return
	}

	doc, err := a.store.Find(request.Context(), key)
	if err != nil {
		a.writeError(writer, request, err)
		return
	}

	strokes := doc.Strokes
	if strokes == nil {
		strokes = []geo.Stroke{}
	}
	a.writeJSON(writer, request, http.StatusOK, sessionResponse{
		ID:      doc.ID,
		OwnerID: doc.OwnerID,
		Strokes: strokes,
		Seq:     doc.Seq(),
	})
}

func (a *API) handleAppendStroke(writer http.ResponseWriter, request *http.Request) {
	key, err := pathSessionKey(request)
	if err != nil {
		a.writeError(writer, request, err)
		return
	}
	participant, err := a.participant(request)
	if err != nil {
		a.writeError(writer, request, err)
		return
	}

	var body appendStrokeRequest
	if err := decodeBody(request, &body); err != nil {
		a.writeError(writer, request, err)
		return
	}
	if err := body.Points.Validate(); err != nil {
		a.writeError(writer, request, &session.StoreError{
			Code:       session.ErrCodeInvalidParam,
			Message:    err.Error(),
			StatusCode: http.StatusBadRequest,
		})
		return
	}

	seq, err := a.store.AppendStroke(request.Context(), key, participant, body.Points)
	if err != nil {
		a.writeError(writer, request, err)
		return
	}

	a.writeJSON(writer, request, http.StatusOK, appendStrokeResponse{Seq: seq})
}

// handleChanges is the long-poll read side of the change feed. The
// poll waits up to the requested timeout for at least one change past
// `since`, then drains whatever else is immediately available and
// returns. An empty change list with next_since == since is a normal
// idle-poll result, not an error.
func (a *API) handleChanges(writer http.ResponseWriter, request *http.Request) {
	key, err := pathSessionKey(request)
	if err != nil {
		a.writeError(writer, request, err)
		return
	}

	since, err := queryUint(request, "since")
	if err != nil {
		a.writeError(writer, request, err)
		return
	}
	timeout := defaultPollTimeout
	if raw := request.URL.Query().Get("timeout"); raw != "" {
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ms < 0 {
			a.writeError(writer, request, &session.StoreError{
				Code:       session.ErrCodeInvalidParam,
				Message:    fmt.Sprintf("invalid timeout %q", raw),
				StatusCode: http.StatusBadRequest,
			})
			return
		}
		timeout = time.Duration(ms) * time.Millisecond
		if timeout > maxPollTimeout {
			timeout = maxPollTimeout
		}
	}

	feed, err := a.store.Subscribe(request.Context(), key, since)
	if err != nil {
		a.writeError(writer, request, err)
		return
	}
	defer feed.Close()

	waitCtx, cancel := context.WithTimeout(request.Context(), timeout)
	defer cancel()

	changes := []session.ChangeEvent{}
	nextSince := since

	event, err := feed.Next(waitCtx)
	switch {
	case err == nil:
		changes = append(changes, event)
		nextSince = event.Seq

		// Batch up whatever else is already buffered.
		for len(changes) < maxPollBatch {
			drainCtx, drainCancel := context.WithTimeout(request.Context(), 20*time.Millisecond)
			event, err := feed.Next(drainCtx)
			drainCancel()
			if err != nil {
				break
			}
			changes = append(changes, event)
			nextSince = event.Seq
		}

	case errors.Is(err, context.DeadlineExceeded):
		// Idle poll: nothing changed inside the window.

	default:
		a.writeError(writer, request, err)
		return
	}

	a.writeJSON(writer, request, http.StatusOK, changesResponse{
		Changes:   changes,
		NextSince: nextSince,
	})
}

// --- Helpers ---

// participant extracts and parses the caller's identity header.
func (a *API) participant(request *http.Request) (ref.ParticipantID, error) {
	raw := request.Header.Get(participantHeader)
	if raw == "" {
		return ref.ParticipantID{}, &session.StoreError{
			Code:       session.ErrCodeInvalidParam,
			Message:    participantHeader + " header is required",
			StatusCode: http.StatusBadRequest,
		}
	}
	participant, err := ref.ParseParticipantID(raw)
	if err != nil {
		return ref.ParticipantID{}, &session.StoreError{
			Code:       session.ErrCodeInvalidParam,
			Message:    err.Error(),
			StatusCode: http.StatusBadRequest,
		}
	}
	return participant, nil
}

// pathSessionKey parses the {key} path segment.
func pathSessionKey(request *http.Request) (ref.SessionKey, error) {
	key, err := ref.ParseSessionKey(request.PathValue("key"))
	if err != nil {
		return ref.SessionKey{}, &session.StoreError{
			Code:       session.ErrCodeInvalidParam,
			Message:    err.Error(),
			StatusCode: http.StatusBadRequest,
		}
	}
	return key, nil
}

// queryUint parses a non-negative integer query parameter, defaulting
// to zero when absent.
func queryUint(request *http.Request, name string) (uint64, error) {
	raw := request.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &session.StoreError{
			Code:       session.ErrCodeInvalidParam,
			Message:    fmt.Sprintf("invalid %s %q", name, raw),
			StatusCode: http.StatusBadRequest,
		}
	}
	return value, nil
}

// decodeBody decodes a JSON request body with a size cap.
func decodeBody(request *http.Request, into any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, request.Body, maxRequestBody))
	if err := decoder.Decode(into); err != nil {
		return &session.StoreError{
			Code:       session.ErrCodeInvalidParam,
			Message:    fmt.Sprintf("decoding request body: %v", err),
			StatusCode: http.StatusBadRequest,
		}
	}
	return nil
}

// writeJSON writes a JSON response, zstd-compressed when the client
// accepts it and the body is big enough to benefit.
func (a *API) writeJSON(writer http.ResponseWriter, request *http.Request, status int, body any) {
	encoded, err := json.Marshal(body)
	if err != nil {
		a.logger.Error("encoding response", "path", request.URL.Path, "error", err)
		http.Error(writer, `{"errcode":"E_UNKNOWN","error":"response encoding failed"}`,
			http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	if len(encoded) >= compressMinBytes && acceptsZstd(request) {
		compressed := zstdEncoder.EncodeAll(encoded, nil)
		if len(compressed) < len(encoded) {
			writer.Header().Set("Content-Encoding", "zstd")
			writer.WriteHeader(status)
			writer.Write(compressed)
			return
		}
	}
	writer.WriteHeader(status)
	writer.Write(encoded)
}

// writeError maps an error to its {errcode, error} wire form. Errors
// that are not StoreErrors become opaque 500s — internal detail stays
// in the log, not on the wire.
func (a *API) writeError(writer http.ResponseWriter, request *http.Request, err error) {
	var storeErr *session.StoreError
	if !errors.As(err, &storeErr) {
		a.logger.Error("request failed",
			"method", request.Method,
			"path", request.URL.Path,
			"error", err,
		)
		storeErr = &session.StoreError{
			Code:       "E_UNKNOWN",
			Message:    "internal error",
			StatusCode: http.StatusInternalServerError,
		}
	}

	status := storeErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	json.NewEncoder(writer).Encode(storeErr)
}

// acceptsZstd reports whether the request's Accept-Encoding includes
// zstd.
func acceptsZstd(request *http.Request) bool {
	for _, encoding := range strings.Split(request.Header.Get("Accept-Encoding"), ",") {
		name, _, _ := strings.Cut(strings.TrimSpace(encoding), ";")
		if strings.EqualFold(name, "zstd") {
			return true
		}
	}
	return false
}
