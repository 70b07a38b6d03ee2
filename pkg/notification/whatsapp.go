package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"Omnipresence/pkg/errors"
)

const defaultGraphURL = "https://graph.facebook.com/v21.0"

// WhatsAppConfig holds the Meta Business API credentials.
type WhatsAppConfig struct {
	AccessToken string `env:"META_ACCESS_TOKEN"`
	PhoneID     string `env:"META_PHONE_ID"`
	Template    string `env:"META_SOS_TEMPLATE"`
	BaseURL     string `env:"META_GRAPH_URL"`
	Timeout     time.Duration
}

// MessageFields are the template parameters of one SOS message.
type MessageFields struct {
	Recipient string
	User      string
	Latitude  float64
	Longitude float64
}

// WhatsAppSender delivers templated SOS messages over the Meta graph API.
type WhatsAppSender struct {
	cfg    WhatsAppConfig
	client *http.Client
}

func NewWhatsAppSender(cfg WhatsAppConfig) *WhatsAppSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGraphURL
	}
	if cfg.Template == "" {
		cfg.Template = "sos_alert"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &WhatsAppSender{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

// Send posts one template message to a phone number.
func (w *WhatsAppSender) Send(ctx context.Context, phone string, fields MessageFields) error {
	payload := map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                phone,
		"type":              "template",
		"template": map[string]interface{}{
			"name":     w.cfg.Template,
			"language": map[string]string{"code": "en_US"},
			"components": []interface{}{
				map[string]interface{}{
					"type": "body",
					"parameters": []interface{}{
						map[string]string{"type": "text", "text": fields.Recipient},
						map[string]string{"type": "text", "text": fields.User},
						map[string]string{"type": "text", "text": LocationLink(fields.Latitude, fields.Longitude)},
					},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal whatsapp payload")
	}

	url := fmt.Sprintf("%s/%s/messages", w.cfg.BaseURL, w.cfg.PhoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build whatsapp request")
	}
	req.Header.Set("Authorization", "Bearer "+w.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return errors.WrapCode(err, errors.CodeChannelDelivery, "whatsapp send failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.WithCodef(errors.CodeChannelDelivery, "whatsapp send returned %d", resp.StatusCode)
	}
	return nil
}

// LocationLink renders a shareable maps link for the given coordinates.
func LocationLink(latitude, longitude float64) string {
	return fmt.Sprintf("https://www.google.com/maps?q=%v,%v", latitude, longitude)
}
