package service

import (
	"context"
	"net/http"
	"time"
)

// NewsletterResult is part of the non-streaming response for backward
// compatibility with older service versions; current backends return
// it empty.
type NewsletterResult struct {
	Headline     string   `json:"headline"`
	Thesis       string   `json:"thesis"`
	KeyPoints    []string `json:"key_points"`
	CallToAction string   `json:"call_to_action"`
}

// TransformResponse is the full payload of the non-streaming endpoint.
type TransformResponse struct {
	LinkedIn        LinkedInResult   `json:"linkedin"`
	Newsletter      NewsletterResult `json:"newsletter"`
	WhatsApp        WhatsAppResult   `json:"whatsapp"`
	DetectedTickers []string         `json:"detected_tickers"`
	PrimaryChart    *ChartData       `json:"primary_chart,omitempty"`
}

const transformTimeout = 5 * time.Minute

// Transform runs the whole transformation in one request/response
// round trip, without streaming.
func (c *Client) Transform(ctx context.Context, req TransformRequest) (*TransformResponse, error) {
	var out TransformResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/transform", req, &out, transformTimeout); err != nil {
		return nil, err
	}
	// The backend omits plain text on this endpoint; derive it the same
	// way the streaming path does.
	if out.WhatsApp.PlainText == "" && out.WhatsApp.FormattedMessage != "" {
		out.WhatsApp.PlainText = WhatsAppPlainText(out.WhatsApp.FormattedMessage)
	}
	return &out, nil
}
