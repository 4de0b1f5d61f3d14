package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxReports caps the report history; the oldest record is
// evicted when a save would exceed it.
const DefaultMaxReports = 50

// LinkedInResult is a finalized LinkedIn post bundle.
type LinkedInResult struct {
	Content        string   `json:"content"`
	Hashtags       []string `json:"hashtags"`
	CharacterCount int      `json:"character_count"`
}

// WhatsAppResult is a finalized WhatsApp message bundle.
type WhatsAppResult struct {
	FormattedMessage string `json:"formatted_message"`
	PlainText        string `json:"plain_text"`
}

// PricePoint is one OHLCV entry of a chart's historical series.
type PricePoint struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// ChartData is the chart payload for one ticker.
type ChartData struct {
	Ticker             string       `json:"ticker"`
	CompanyName        string       `json:"company_name,omitempty"`
	CurrentPrice       float64      `json:"current_price"`
	PriceChangePercent float64      `json:"price_change_percent"`
	ChartImage         string       `json:"chart_image,omitempty"` // base64 PNG
	HistoricalPrices   []PricePoint `json:"historical_prices,omitempty"`
	FiftyTwoWeekHigh   *float64     `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow    *float64     `json:"fifty_two_week_low,omitempty"`
}

// VariantResult is the accumulated output of one generation variant.
// A nil field means that surface never completed for the variant.
type VariantResult struct {
	LinkedIn        *LinkedInResult `json:"linkedin,omitempty"`
	WhatsApp        *WhatsAppResult `json:"whatsapp,omitempty"`
	DetectedTickers []string        `json:"detected_tickers,omitempty"`
	PrimaryChart    *ChartData      `json:"primary_chart,omitempty"`
}

// SavedReport is one persisted generation: the original input plus the
// variant A bundle and, when a B run merged in later, the B bundle.
type SavedReport struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	Title      string         `json:"title"`
	ReportText string         `json:"report_text"`
	Tone       string         `json:"tone"`
	VariantA   VariantResult  `json:"variant_a"`
	VariantB   *VariantResult `json:"variant_b,omitempty"`
}

// ReportStore persists SavedReport records as a single JSON list,
// newest first, capped at maxReports with oldest-first eviction.
type ReportStore struct {
	mu         sync.Mutex
	path       string
	maxReports int
}

// NewReportStore creates a store backed by the given file path.
// max <= 0 falls back to DefaultMaxReports.
func NewReportStore(path string, max int) *ReportStore {
	if max <= 0 {
		max = DefaultMaxReports
	}
	return &ReportStore{path: path, maxReports: max}
}

// DefaultReportStore returns a store at the standard history location.
func DefaultReportStore(max int) *ReportStore {
	return NewReportStore(GetReportsFilePath(), max)
}

func (s *ReportStore) load() ([]SavedReport, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []SavedReport{}, nil
		}
		return nil, fmt.Errorf("failed to read report history: %w", err)
	}
	var reports []SavedReport
	if err := json.Unmarshal(raw, &reports); err != nil {
		return nil, fmt.Errorf("failed to parse report history: %w", err)
	}
	return reports, nil
}

func (s *ReportStore) persist(reports []SavedReport) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	raw, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report history: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write report history: %w", err)
	}
	return nil
}

// Save inserts the report at the front of the history and returns its id.
// A missing id or timestamp is filled in. Oldest records beyond the cap
// are evicted.
func (s *ReportStore) Save(rep *SavedReport) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.load()
	if err != nil {
		return "", err
	}

	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = time.Now()
	}

	reports = append([]SavedReport{*rep}, reports...)
	if len(reports) > s.maxReports {
		reports = reports[:s.maxReports]
	}

	if err := s.persist(reports); err != nil {
		return "", err
	}
	return rep.ID, nil
}

// UpdateVariantB attaches a variant B bundle to an existing report.
func (s *ReportStore) UpdateVariantB(id string, b *VariantResult) error {
	return s.update(id, func(rep *SavedReport) {
		rep.VariantB = b
	})
}

// SetTitle renames an existing report.
func (s *ReportStore) SetTitle(id, title string) error {
	return s.update(id, func(rep *SavedReport) {
		rep.Title = title
	})
}

func (s *ReportStore) update(id string, apply func(*SavedReport)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.load()
	if err != nil {
		return err
	}
	for i := range reports {
		if reports[i].ID == id {
			apply(&reports[i])
			return s.persist(reports)
		}
	}
	return fmt.Errorf("report '%s' not found", id)
}

// List returns all saved reports, newest first.
func (s *ReportStore) List() ([]SavedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Get resolves ref as a 1-based index, a full id, or a unique id prefix.
func (s *ReportStore) Get(ref string) (*SavedReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.load()
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, fmt.Errorf("no saved reports")
	}

	if idx, err := strconv.Atoi(ref); err == nil {
		if idx < 1 || idx > len(reports) {
			return nil, fmt.Errorf("index %d out of range (1-%d)", idx, len(reports))
		}
		rep := reports[idx-1]
		return &rep, nil
	}

	var found *SavedReport
	for i := range reports {
		if reports[i].ID == ref {
			rep := reports[i]
			return &rep, nil
		}
		if strings.HasPrefix(reports[i].ID, ref) {
			if found != nil {
				return nil, fmt.Errorf("report id prefix '%s' is ambiguous", ref)
			}
			rep := reports[i]
			found = &rep
		}
	}
	if found == nil {
		return nil, fmt.Errorf("report '%s' not found", ref)
	}
	return found, nil
}

// Delete removes a report resolved the same way as Get.
func (s *ReportStore) Delete(ref string) error {
	rep, err := s.Get(ref)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reports, err := s.load()
	if err != nil {
		return err
	}
	kept := reports[:0]
	for _, r := range reports {
		if r.ID != rep.ID {
			kept = append(kept, r)
		}
	}
	return s.persist(kept)
}

// Clear removes the whole history.
func (s *ReportStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear report history: %w", err)
	}
	return nil
}
