package service

import (
	"github.com/activebook/reportflow/data"
)

// Tone selects the writing style the backend applies to generated content.
type Tone string

const (
	ToneProfessional   Tone = "professional"
	ToneConversational Tone = "conversational"
	TonePunchy         Tone = "punchy"
)

// Tones lists the allowed tone values in display order.
var Tones = []Tone{ToneProfessional, ToneConversational, TonePunchy}

// ValidTone reports whether s is one of the allowed tone values.
func ValidTone(s string) bool {
	for _, t := range Tones {
		if string(t) == s {
			return true
		}
	}
	return false
}

// Variant identifies one of the two independently generated versions
// of the same transformation request.
type Variant string

const (
	VariantA Variant = "A"
	VariantB Variant = "B"
)

// TransformRequest is the JSON body sent to both transform endpoints.
type TransformRequest struct {
	ReportText string  `json:"report_text"`
	Tone       Tone    `json:"tone"`
	Variant    Variant `json:"variant"`
}

// The result bundle types are owned by the data layer (they double as
// the persisted schema); the service layer works with the same types.
type (
	LinkedInResult = data.LinkedInResult
	WhatsAppResult = data.WhatsAppResult
	PricePoint     = data.PricePoint
	ChartData      = data.ChartData
	VariantResult  = data.VariantResult
)

// streamEvent is one decoded SSE frame from the streaming transform
// endpoint. Which payload fields are meaningful depends on Type.
type streamEvent struct {
	Type           string     `json:"type"`
	Content        string     `json:"content"`
	Hashtags       []string   `json:"hashtags"`
	CharacterCount int        `json:"character_count"`
	Tickers        []string   `json:"tickers"`
	Ticker         string     `json:"ticker"`
	Chart          *ChartData `json:"chart"`
	Error          string     `json:"error"`
	Variant        Variant    `json:"variant"`
}

// Stream event type tags. Unrecognized tags are ignored so the backend
// can add event types without breaking older clients.
const (
	eventLinkedInStart    = "linkedin_start"
	eventLinkedInChunk    = "linkedin_chunk"
	eventLinkedInComplete = "linkedin_complete"
	eventWhatsAppStart    = "whatsapp_start"
	eventWhatsAppChunk    = "whatsapp_chunk"
	eventWhatsAppComplete = "whatsapp_complete"
	eventTickersDetected  = "tickers_detected"
	eventChartStart       = "chart_start"
	eventChartComplete    = "chart_complete"
	eventChartError       = "chart_error"
	eventDone             = "done"
)

// StreamHandlers receives decoded stream events in arrival order.
// Any handler may be nil; events without a handler are dropped.
type StreamHandlers struct {
	OnLinkedInStart    func()
	OnLinkedInChunk    func(content string)
	OnLinkedInComplete func(content string, hashtags []string, characterCount int)
	OnWhatsAppStart    func()
	OnWhatsAppChunk    func(content string)
	OnWhatsAppComplete func(content string)
	OnTickersDetected  func(tickers []string)
	OnChartStart       func(ticker string)
	OnChartComplete    func(chart *ChartData)
	OnChartError       func(message string)
	OnDone             func()
	OnError            func(err error)
}
