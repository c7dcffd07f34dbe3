package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/skim/internal/proto"
)

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 8 << 20

// Doer sends HTTP requests. *http.Client implements it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Marshaller is an interface for marshalling values to bytes.
type Marshaller interface {
	Marshal(value any) ([]byte, error)
}

// SonicMarshaller marshals values to JSON with sonic.
type SonicMarshaller struct{}

// Marshal marshals a value to JSON.
func (SonicMarshaller) Marshal(value any) ([]byte, error) {
	result, err := sonic.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("SonicMarshaller.Marshal: %w", err)
	}
	return result, nil
}

// Response is the raw provider answer.
type Response struct {
	Status int
	Body   []byte
}

// Transport performs a single POST per call. It never retries: a retry is a
// new call from the caller.
type Transport struct {
	client     Doer
	marshaller Marshaller
	log        *log.Logger
}

// NewTransport returns a transport sending through the given client.
func NewTransport(client Doer, logger *log.Logger) *Transport {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Transport{
		client:     client,
		marshaller: SonicMarshaller{},
		log:        logger,
	}
}

// Do sends the request and waits at most timeout for the full response.
//
// Non-2xx responses are not errors: their body is returned for the adapter
// to parse. The returned error is always a *proto.Error of kind
// NetworkError, Timeout or Aborted.
func (t *Transport) Do(ctx context.Context, r Request, timeout time.Duration) (Response, error) {
	body, err := t.marshaller.Marshal(r.Body)
	if err != nil {
		return Response{}, proto.NewError(proto.NetworkError, "could not encode the request", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, r.URL, bytes.NewReader(body))
	if err != nil {
		return Response{}, proto.NewError(proto.NetworkError, "invalid request", err)
	}
	for k, v := range r.Header {
		req.Header[k] = v
	}
	if req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	t.log.Debug("Sending request", "host", req.URL.Host, "timeout", timeout)

	resp, err := t.client.Do(req)
	if err != nil {
		return Response{}, classify(ctx, reqCtx, err, timeout)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Response{}, classify(ctx, reqCtx, err, timeout)
	}

	t.log.Debug("Got response", "status", resp.StatusCode, "took", time.Since(start).Round(time.Millisecond))
	return Response{Status: resp.StatusCode, Body: data}, nil
}

func classify(parent, reqCtx context.Context, err error, timeout time.Duration) *proto.Error {
	switch {
	case errors.Is(parent.Err(), context.Canceled):
		return proto.NewError(proto.Aborted, "the request was cancelled", err)
	case errors.Is(reqCtx.Err(), context.DeadlineExceeded), isTimeout(err):
		return proto.NewError(proto.Timeout, fmt.Sprintf("no answer after %s", timeout), err)
	default:
		return proto.NewError(proto.NetworkError, "could not reach the provider", err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
