package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/samvad-hq/predictive-service-client/internal/config"
	"github.com/samvad-hq/predictive-service-client/internal/logger"
	"github.com/samvad-hq/predictive-service-client/internal/storage"
	"github.com/samvad-hq/predictive-service-client/pkg/predictive"
)

// ErrRequestFailed is returned when the service answered with a non-2xx
// status or the request never completed.
var ErrRequestFailed = errors.New("request failed")

// Runner drives the predictive client on behalf of the command line and
// keeps the local query history.
type Runner struct {
	cfg    *config.Config
	client *predictive.Client
	store  storage.Store
	log    logger.Logger
	out    io.Writer
}

// NewRunner connects to the service described by cfg and opens the history store.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger, out io.Writer, opts ...predictive.Option) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if out == nil {
		out = io.Discard
	}
	if ctx == nil {
		ctx = context.Background()
	}

	clientOpts := append([]predictive.Option{
		predictive.WithLogger(log),
		predictive.WithQueryTimeout(cfg.QueryTimeout),
		predictive.WithUserAgent(cfg.AppName),
	}, opts...)

	var (
		client *predictive.Client
		err    error
	)
	if cfg.ServiceConfigFile != "" {
		client, err = predictive.NewFromConfigFile(ctx, cfg.ServiceConfigFile, clientOpts...)
	} else {
		client, err = predictive.New(ctx, cfg.Endpoint, cfg.APIKey, cfg.VerifyCertificate, clientOpts...)
	}
	if err != nil {
		return nil, fmt.Errorf("init predictive client: %w", err)
	}

	storeOpts := storage.Options{
		EntryTTL:        cfg.HistoryTTL,
		CleanupInterval: cfg.HistoryCleanupInterval,
	}
	store, err := storage.NewStore(cfg.HistoryType, cfg.HistoryPath, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("init history storage: %w", err)
	}
	log.InfoObj("history storage initialized", "history_config", map[string]any{
		"type":        cfg.HistoryType,
		"path":        cfg.HistoryPath,
		"ttl_seconds": int(cfg.HistoryTTL.Seconds()),
	})

	return &Runner{
		cfg:    cfg,
		client: client,
		store:  store,
		log:    log,
		out:    out,
	}, nil
}

// Query sends rawJSON to objectName, prints the result and records the
// returned request id.
func (r *Runner) Query(ctx context.Context, objectName, rawJSON string) error {
	data, err := decodePayload(rawJSON)
	if err != nil {
		return err
	}

	resp, err := r.client.Query(ctx, objectName, data)
	if err != nil {
		return fmt.Errorf("query %s: %w", objectName, err)
	}
	if err := r.report(resp); err != nil {
		return err
	}

	id := requestIDFrom(resp.Body())
	if id == "" {
		r.log.WarnObj("query response carried no uuid", "predictive_object", objectName)
		return nil
	}
	if err := r.store.RecordQuery(id, objectName); err != nil {
		r.log.ErrorObj("history record failed", "error", err)
	}
	return nil
}

// Feedback sends rawJSON as feedback on requestID and prints the result.
func (r *Runner) Feedback(ctx context.Context, requestID, rawJSON string) error {
	data, err := decodePayload(rawJSON)
	if err != nil {
		return err
	}

	if _, err := uuid.Parse(requestID); err != nil {
		r.log.WarnObj("feedback request id is not a uuid", "request_id", requestID)
	}
	objectName, found, err := r.store.LookupQuery(requestID)
	switch {
	case err != nil:
		r.log.ErrorObj("history lookup failed", "error", err)
	case !found:
		r.log.WarnObj("feedback request id not in local history", "request_id", requestID)
	default:
		r.log.DebugObj("feedback for known query", "history_entry", map[string]any{
			"request_id": requestID,
			"object":     objectName,
		})
	}

	resp, err := r.client.Feedback(ctx, requestID, data)
	if err != nil {
		return fmt.Errorf("feedback %s: %w", requestID, err)
	}
	return r.report(resp)
}

// Close releases the history store.
func (r *Runner) Close() error {
	if r == nil || r.store == nil {
		return nil
	}
	return r.store.Close()
}

// report waits for resp and prints its status and body.
func (r *Runner) report(resp *predictive.Response) error {
	code := resp.StatusCode()
	if code == predictive.StatusFailed {
		fmt.Fprintf(r.out, "error: %s\n", resp.ErrorMessage())
		return fmt.Errorf("%w: %s", ErrRequestFailed, resp.ErrorMessage())
	}

	fmt.Fprintf(r.out, "status: %d\n", code)
	if body := bytes.TrimSpace(resp.Body()); len(body) > 0 {
		fmt.Fprintf(r.out, "%s\n", body)
	}
	if !resp.Succeeded() {
		return fmt.Errorf("%w: status %d", ErrRequestFailed, code)
	}
	return nil
}

// decodePayload parses rawJSON keeping numbers exact.
func decodePayload(rawJSON string) (any, error) {
	rawJSON = strings.TrimSpace(rawJSON)
	if rawJSON == "" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(rawJSON))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: decode payload: %v", predictive.ErrSerialization, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: payload has trailing data", predictive.ErrSerialization)
	}
	return data, nil
}

// requestIDFrom extracts the uuid field from a query response body.
func requestIDFrom(body []byte) string {
	var reply struct {
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal(body, &reply); err != nil {
		return ""
	}
	return strings.TrimSpace(reply.UUID)
}
