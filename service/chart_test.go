package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestClient_Chart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chart/TCS" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("period"); got != "3mo" {
			t.Errorf("unexpected period: %s", got)
		}
		if got := r.URL.Query().Get("exchange"); got != "NSE" {
			t.Errorf("unexpected exchange: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"ticker": "TCS",
			"company_name": "Tata Consultancy Services",
			"current_price": 4012.5,
			"price_change_percent": 1.23,
			"chart_image": "aGVsbG8=",
			"historical_prices": [
				{"date": "2026-06-01", "open": 3900, "high": 3950, "low": 3880, "close": 3940, "volume": 120000}
			],
			"fifty_two_week_high": 4250.0,
			"fifty_two_week_low": 3100.0
		}`)
	}))
	defer srv.Close()

	chart, err := NewClient(srv.URL).Chart(context.Background(), "TCS", "3mo", "NSE")
	if err != nil {
		t.Fatalf("Chart failed: %v", err)
	}
	if chart.CompanyName != "Tata Consultancy Services" {
		t.Fatalf("wrong company name: %s", chart.CompanyName)
	}
	if chart.CurrentPrice != 4012.5 {
		t.Fatalf("wrong price: %f", chart.CurrentPrice)
	}
	if len(chart.HistoricalPrices) != 1 || chart.HistoricalPrices[0].Volume != 120000 {
		t.Fatal("historical prices not decoded")
	}
	if chart.FiftyTwoWeekHigh == nil || *chart.FiftyTwoWeekHigh != 4250.0 {
		t.Fatal("52 week high not decoded")
	}
}

func TestClient_ChartDataOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chart/INFY/data" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"ticker": "INFY", "current_price": 1500, "price_change_percent": -0.5}`)
	}))
	defer srv.Close()

	chart, err := NewClient(srv.URL).ChartDataOnly(context.Background(), "INFY", "1mo", "BSE")
	if err != nil {
		t.Fatalf("ChartDataOnly failed: %v", err)
	}
	if chart.ChartImage != "" {
		t.Fatal("data-only response must carry no image")
	}
}

func TestClient_Chart_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail": "Could not fetch data for ticker BOGUS"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Chart(context.Background(), "BOGUS", "3mo", "NSE")
	if err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestClient_Chart_EmptyTicker(t *testing.T) {
	if _, err := NewClient("http://localhost:1").Chart(context.Background(), "", "3mo", "NSE"); err == nil {
		t.Fatal("expected error for empty ticker")
	}
}

func TestSaveChartImage(t *testing.T) {
	payload := []byte("png bytes here")
	chart := &ChartData{
		Ticker:     "TCS",
		ChartImage: base64.StdEncoding.EncodeToString(payload),
	}

	path := filepath.Join(t.TempDir(), "chart.png")
	if err := SaveChartImage(chart, path); err != nil {
		t.Fatalf("SaveChartImage failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written image failed: %v", err)
	}
	if string(raw) != string(payload) {
		t.Fatal("decoded image does not match")
	}

	if err := SaveChartImage(&ChartData{Ticker: "X"}, path); err == nil {
		t.Fatal("expected error for missing image payload")
	}
	if err := SaveChartImage(nil, path); err == nil {
		t.Fatal("expected error for nil chart")
	}
}

func TestValidChartParams(t *testing.T) {
	for _, p := range ChartPeriods {
		if !ValidChartPeriod(p) {
			t.Fatalf("period %s should be valid", p)
		}
	}
	if ValidChartPeriod("5y") {
		t.Fatal("5y should be invalid")
	}
	if !ValidChartExchange("NSE") || !ValidChartExchange("BSE") {
		t.Fatal("NSE and BSE should be valid")
	}
	if ValidChartExchange("NYSE") {
		t.Fatal("NYSE should be invalid")
	}
}

func TestClient_Transform(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/transform" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"linkedin": {"content": "Draft", "hashtags": ["IT"], "character_count": 5},
			"newsletter": {"headline": "", "thesis": "", "key_points": [], "call_to_action": ""},
			"whatsapp": {"formatted_message": "*Draft*", "plain_text": ""},
			"detected_tickers": ["TCS"]
		}`)
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).Transform(context.Background(), TransformRequest{
		ReportText: "some long enough report text",
		Tone:       TonePunchy,
		Variant:    VariantA,
	})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if resp.LinkedIn.Content != "Draft" {
		t.Fatalf("wrong content: %s", resp.LinkedIn.Content)
	}
	// Plain text is derived client-side when the backend omits it.
	if resp.WhatsApp.PlainText != "Draft" {
		t.Fatalf("plain text not derived: %q", resp.WhatsApp.PlainText)
	}
}
