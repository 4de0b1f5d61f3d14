package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	transformStreamPath = "/api/v1/transform/stream"
	dataPrefix          = "data: "
)

// Client talks to the report-transform service over HTTP.
type Client struct {
	endpoint string
	http     *http.Client
}

// NewClient creates a client for the service at endpoint
// (e.g. "http://localhost:8000"). Streamed requests carry no overall
// timeout; generation legitimately runs for minutes.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{},
	}
}

// Endpoint returns the configured service base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// TransformStream issues the streaming transform request and dispatches
// each decoded event to h in arrival order.
//
// A failure before streaming begins (connection error, non-2xx status)
// is returned without any handler firing. A failure mid-stream is
// reported once via h.OnError and also returned. A single malformed
// frame is dropped and the stream continues. There is no retry; a
// dropped stream is terminal for this run.
func (c *Client) TransformStream(ctx context.Context, req TransformRequest, h *StreamHandlers) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode transform request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+transformStreamPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create transform request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("transform request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transform request failed: %s", readErrorDetail(resp))
	}

	if err := readStream(resp.Body, h); err != nil {
		err = fmt.Errorf("stream interrupted: %w", err)
		if h.OnError != nil {
			h.OnError(err)
		}
		return err
	}
	return nil
}

// readErrorDetail extracts the "detail" field of a JSON error body,
// falling back to the HTTP status line.
func readErrorDetail(resp *http.Response) string {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil {
		var errBody struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(data, &errBody) == nil && errBody.Detail != "" {
			return errBody.Detail
		}
	}
	return resp.Status
}

// readStream frames the response body on blank lines and dispatches
// each data frame. Framing works on raw bytes, so multi-byte characters
// and JSON split across read boundaries never corrupt a frame.
func readStream(r io.Reader, h *StreamHandlers) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanFrames)

	for scanner.Scan() {
		frame := scanner.Text()
		if !strings.HasPrefix(frame, dataPrefix) {
			// SSE comments and keep-alives
			continue
		}
		payload := strings.TrimPrefix(frame, dataPrefix)

		var ev streamEvent
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			// One bad frame must never abort the stream.
			Debugf("dropping malformed stream frame: %v", err)
			continue
		}
		dispatch(&ev, h)
	}
	return scanner.Err()
}

// scanFrames is a bufio.SplitFunc that yields one SSE frame per token,
// delimited by a blank line. The trailing incomplete segment stays
// buffered until its delimiter arrives.
func scanFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.Index(data, []byte("\n\n")); i >= 0 {
		return i + 2, bytes.TrimRight(data[:i], "\r"), nil
	}
	if atEOF {
		return len(data), bytes.TrimRight(data, "\r\n"), nil
	}
	return 0, nil, nil
}

// dispatch routes one decoded event to its handler. Absent payload
// fields already carry their zero values from JSON decoding; list
// fields are defaulted to empty so handlers never see nil.
func dispatch(ev *streamEvent, h *StreamHandlers) {
	switch ev.Type {
	case eventLinkedInStart:
		if h.OnLinkedInStart != nil {
			h.OnLinkedInStart()
		}
	case eventLinkedInChunk:
		if h.OnLinkedInChunk != nil {
			h.OnLinkedInChunk(ev.Content)
		}
	case eventLinkedInComplete:
		if h.OnLinkedInComplete != nil {
			hashtags := ev.Hashtags
			if hashtags == nil {
				hashtags = []string{}
			}
			h.OnLinkedInComplete(ev.Content, hashtags, ev.CharacterCount)
		}
	case eventWhatsAppStart:
		if h.OnWhatsAppStart != nil {
			h.OnWhatsAppStart()
		}
	case eventWhatsAppChunk:
		if h.OnWhatsAppChunk != nil {
			h.OnWhatsAppChunk(ev.Content)
		}
	case eventWhatsAppComplete:
		if h.OnWhatsAppComplete != nil {
			h.OnWhatsAppComplete(ev.Content)
		}
	case eventTickersDetected:
		if h.OnTickersDetected != nil {
			tickers := ev.Tickers
			if tickers == nil {
				tickers = []string{}
			}
			h.OnTickersDetected(tickers)
		}
	case eventChartStart:
		if h.OnChartStart != nil {
			h.OnChartStart(ev.Ticker)
		}
	case eventChartComplete:
		if h.OnChartComplete != nil {
			h.OnChartComplete(ev.Chart)
		}
	case eventChartError:
		if h.OnChartError != nil {
			h.OnChartError(ev.Error)
		}
	case eventDone:
		if h.OnDone != nil {
			h.OnDone()
		}
	default:
		// Forward-compatible: unknown event types are ignored.
	}
}

// doJSON performs a request with a JSON body and decodes a JSON
// response into out. Used by the non-streaming endpoints.
func (c *Client) doJSON(ctx context.Context, method, path string, reqBody, out interface{}, timeout time.Duration) error {
	var bodyReader io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed: %s", readErrorDetail(resp))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
