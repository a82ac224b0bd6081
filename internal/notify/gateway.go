package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Gateway talks to an mNotify-style SMS API over HTTP GET.
type Gateway struct {
	apiKey   string
	senderID string
	baseURL  string
	client   *http.Client
}

func NewGateway(apiKey, senderID, baseURL string) *Gateway {
	return &Gateway{
		apiKey:   apiKey,
		senderID: senderID,
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type gatewayResponse struct {
	Code      string `json:"code"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	MessageID string `json:"message_id"`
}

func (g *Gateway) Send(ctx context.Context, to, text string) (string, error) {
	params := url.Values{}
	params.Set("key", g.apiKey)
	params.Set("to", FormatPhone(to))
	params.Set("msg", text)
	params.Set("sender_id", g.senderID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build sms request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	var body gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode sms response: %w", err)
	}

	if body.Code != "1000" && body.Status != "success" {
		if body.Message == "" {
			body.Message = "sms sending failed"
		}
		return "", fmt.Errorf("sms gateway: %s", body.Message)
	}

	return body.MessageID, nil
}

// FormatPhone normalizes a Ghanaian phone number to international form
// without the plus sign: 024xxxxxxx becomes 23324xxxxxxx.
func FormatPhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	switch {
	case strings.HasPrefix(cleaned, "0"):
		return "233" + cleaned[1:]
	case strings.HasPrefix(cleaned, "233"):
		return cleaned
	default:
		return "233" + cleaned
	}
}
