package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"
)

// recordedEvents collects the dispatched events as printable strings so
// sequences can be compared directly.
type recordedEvents struct {
	events []string
}

func (r *recordedEvents) handlers() *StreamHandlers {
	add := func(s string) { r.events = append(r.events, s) }
	return &StreamHandlers{
		OnLinkedInStart: func() { add("linkedin_start") },
		OnLinkedInChunk: func(c string) { add("linkedin_chunk:" + c) },
		OnLinkedInComplete: func(c string, tags []string, n int) {
			add(fmt.Sprintf("linkedin_complete:%s|%v|%d", c, tags, n))
		},
		OnWhatsAppStart:    func() { add("whatsapp_start") },
		OnWhatsAppChunk:    func(c string) { add("whatsapp_chunk:" + c) },
		OnWhatsAppComplete: func(c string) { add("whatsapp_complete:" + c) },
		OnTickersDetected:  func(ts []string) { add(fmt.Sprintf("tickers:%v", ts)) },
		OnChartStart:       func(tk string) { add("chart_start:" + tk) },
		OnChartComplete:    func(ch *ChartData) { add("chart_complete:" + ch.Ticker) },
		OnChartError:       func(msg string) { add("chart_error:" + msg) },
		OnDone:             func() { add("done") },
	}
}

const sampleStream = `data: {"type": "linkedin_start"}

data: {"type": "linkedin_chunk", "content": "TCS beats "}

data: {"type": "linkedin_chunk", "content": "estimates — margin up ₹12, 利益も改善 📈"}

data: {"type": "linkedin_complete", "content": "TCS beats estimates", "hashtags": ["TCS", "Earnings"], "character_count": 19}

data: {"type": "whatsapp_start"}

data: {"type": "whatsapp_chunk", "content": "*TCS* update"}

data: {"type": "whatsapp_complete", "content": "*TCS* update"}

data: {"type": "tickers_detected", "tickers": ["TCS", "INFY"]}

data: {"type": "chart_start", "ticker": "TCS"}

data: {"type": "chart_complete", "chart": {"ticker": "TCS", "current_price": 4012.5, "price_change_percent": 1.2}}

data: {"type": "done"}

`

func TestReadStream_EventSequence(t *testing.T) {
	var rec recordedEvents
	if err := readStream(strings.NewReader(sampleStream), rec.handlers()); err != nil {
		t.Fatalf("readStream failed: %v", err)
	}

	want := []string{
		"linkedin_start",
		"linkedin_chunk:TCS beats ",
		"linkedin_chunk:estimates — margin up ₹12, 利益も改善 📈",
		"linkedin_complete:TCS beats estimates|[TCS Earnings]|19",
		"whatsapp_start",
		"whatsapp_chunk:*TCS* update",
		"whatsapp_complete:*TCS* update",
		"tickers:[TCS INFY]",
		"chart_start:TCS",
		"chart_complete:TCS",
		"done",
	}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("event sequence mismatch:\n got: %v\nwant: %v", rec.events, want)
	}
}

// The event sequence must not depend on how the body is chunked by the
// transport. One byte at a time is the worst case: it splits every
// multi-byte character and every JSON token.
func TestReadStream_ChunkBoundaryInvariance(t *testing.T) {
	var whole recordedEvents
	if err := readStream(strings.NewReader(sampleStream), whole.handlers()); err != nil {
		t.Fatalf("readStream failed: %v", err)
	}

	var byteWise recordedEvents
	if err := readStream(iotest.OneByteReader(strings.NewReader(sampleStream)), byteWise.handlers()); err != nil {
		t.Fatalf("readStream (one byte reader) failed: %v", err)
	}

	if !reflect.DeepEqual(whole.events, byteWise.events) {
		t.Fatalf("chunking changed the event sequence:\n whole: %v\n bytes: %v", whole.events, byteWise.events)
	}
}

func TestReadStream_MalformedFrameDropped(t *testing.T) {
	stream := "data: {\"type\": \"linkedin_start\"}\n\n" +
		"data: {not json at all\n\n" +
		"data: {\"type\": \"done\"}\n\n"

	var rec recordedEvents
	if err := readStream(strings.NewReader(stream), rec.handlers()); err != nil {
		t.Fatalf("readStream failed: %v", err)
	}

	want := []string{"linkedin_start", "done"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("expected malformed frame to be dropped, got %v", rec.events)
	}
}

func TestReadStream_IgnoresCommentsAndUnknownTypes(t *testing.T) {
	stream := ": keep-alive\n\n" +
		"data: {\"type\": \"linkedin_start\"}\n\n" +
		"data: {\"type\": \"newsletter_start\"}\n\n" +
		"data: {\"type\": \"done\"}\n\n"

	var rec recordedEvents
	if err := readStream(strings.NewReader(stream), rec.handlers()); err != nil {
		t.Fatalf("readStream failed: %v", err)
	}

	want := []string{"linkedin_start", "done"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("unexpected events: %v", rec.events)
	}
}

func TestReadStream_CRLFLines(t *testing.T) {
	stream := "data: {\"type\": \"linkedin_start\"}\r\n\n" +
		"data: {\"type\": \"done\"}\r\n\n"

	var rec recordedEvents
	if err := readStream(strings.NewReader(stream), rec.handlers()); err != nil {
		t.Fatalf("readStream failed: %v", err)
	}
	want := []string{"linkedin_start", "done"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("unexpected events: %v", rec.events)
	}
}

func TestReadStream_NilListsBecomeEmpty(t *testing.T) {
	stream := "data: {\"type\": \"linkedin_complete\", \"content\": \"x\", \"character_count\": 1}\n\n" +
		"data: {\"type\": \"tickers_detected\"}\n\n"

	var gotTags, gotTickers []string
	h := &StreamHandlers{
		OnLinkedInComplete: func(_ string, tags []string, _ int) { gotTags = tags },
		OnTickersDetected:  func(ts []string) { gotTickers = ts },
	}
	if err := readStream(strings.NewReader(stream), h); err != nil {
		t.Fatalf("readStream failed: %v", err)
	}
	if gotTags == nil || len(gotTags) != 0 {
		t.Fatalf("expected empty hashtags, got %v", gotTags)
	}
	if gotTickers == nil || len(gotTickers) != 0 {
		t.Fatalf("expected empty tickers, got %v", gotTickers)
	}
}

func TestClient_TransformStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/transform/stream" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		// Write in awkward pieces to exercise framing across writes.
		for _, piece := range []string{
			"data: {\"type\": \"linkedin_start\"}\n",
			"\ndata: {\"type\": \"linkedin_chunk\", \"content\": \"hi\"}",
			"\n\ndata: {\"type\": \"done\"}\n\n",
		} {
			fmt.Fprint(w, piece)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	var rec recordedEvents
	client := NewClient(srv.URL)
	err := client.TransformStream(context.Background(), TransformRequest{
		ReportText: strings.Repeat("x", 60),
		Tone:       ToneProfessional,
		Variant:    VariantA,
	}, rec.handlers())
	if err != nil {
		t.Fatalf("TransformStream failed: %v", err)
	}

	want := []string{"linkedin_start", "linkedin_chunk:hi", "done"}
	if !reflect.DeepEqual(rec.events, want) {
		t.Fatalf("unexpected events: %v", rec.events)
	}
}

func TestClient_TransformStream_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"detail": "Report text must be at least 50 characters"}`)
	}))
	defer srv.Close()

	var rec recordedEvents
	h := rec.handlers()
	errCalled := false
	h.OnError = func(err error) { errCalled = true }

	client := NewClient(srv.URL)
	err := client.TransformStream(context.Background(), TransformRequest{}, h)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "Report text must be at least 50 characters") {
		t.Fatalf("expected detail in error, got: %v", err)
	}
	// A pre-stream failure is synchronous only: no events, no OnError.
	if len(rec.events) != 0 {
		t.Fatalf("expected no events before stream, got %v", rec.events)
	}
	if errCalled {
		t.Fatal("OnError must not fire for pre-stream failures")
	}
}

func TestClient_TransformStream_MidStreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\": \"linkedin_start\"}\n\n")
		w.(http.Flusher).Flush()
		// Kill the connection mid-stream.
		conn, _, _ := w.(http.Hijacker).Hijack()
		conn.Close()
	}))
	defer srv.Close()

	var rec recordedEvents
	h := rec.handlers()
	var streamErr error
	h.OnError = func(err error) { streamErr = err }

	client := NewClient(srv.URL)
	err := client.TransformStream(context.Background(), TransformRequest{}, h)
	if err == nil {
		t.Fatal("expected error for dropped stream")
	}
	if streamErr == nil {
		t.Fatal("expected OnError to fire for mid-stream failure")
	}
	if !strings.Contains(err.Error(), "stream interrupted") {
		t.Fatalf("unexpected error: %v", err)
	}
	// Events received before the drop are still delivered.
	if len(rec.events) != 1 || rec.events[0] != "linkedin_start" {
		t.Fatalf("unexpected events: %v", rec.events)
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient("http://localhost:8000/")
	if c.Endpoint() != "http://localhost:8000" {
		t.Fatalf("expected trimmed endpoint, got %s", c.Endpoint())
	}
}
