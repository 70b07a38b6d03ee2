package notification

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"Omnipresence/pkg/errors"
)

const defaultTwilioURL = "https://api.twilio.com"

// TwilioConfig holds the voice-call credentials.
type TwilioConfig struct {
	AccountSID string `env:"TWILIO_ACCOUNT_SID"`
	AuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	FromNumber string `env:"TWILIO_NUMBER"`
	BaseURL    string `env:"TWILIO_URL"`
	Timeout    time.Duration
}

// TwilioVoice places scripted emergency calls.
type TwilioVoice struct {
	cfg    TwilioConfig
	client *http.Client
}

func NewTwilioVoice(cfg TwilioConfig) *TwilioVoice {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultTwilioURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &TwilioVoice{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

// Call places one call per number with the given TwiML script. Per-number
// failures do not stop the remaining calls; the joined error reports them.
func (t *TwilioVoice) Call(ctx context.Context, numbers []string, script string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", t.cfg.BaseURL, t.cfg.AccountSID)

	var failed []string
	for _, number := range numbers {
		form := url.Values{}
		form.Set("To", number)
		form.Set("From", t.cfg.FromNumber)
		form.Set("Twiml", script)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			failed = append(failed, number)
			continue
		}
		req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := t.client.Do(req)
		if err != nil {
			failed = append(failed, number)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			failed = append(failed, number)
		}
	}

	if len(failed) > 0 {
		return errors.WithCodef(errors.CodeChannelDelivery, "voice call failed for %s", strings.Join(failed, ", "))
	}
	return nil
}

// EmergencyCallScript builds the TwiML read out to each contact.
func EmergencyCallScript(username string) string {
	return "<Response><Say voice='alice'>" +
		"Hello, this is an automated emergency alert from Omnipresence." +
		" We have detected a possible emergency involving " + username + "." +
		" Please check in with " + username + " immediately." +
		" Please check your whatsapp for " + username + "'s location." +
		" If you're unable to reach them, consider reaching out to emergency services." +
		" Thank you, and stay safe." +
		" Team Omnipresence" +
		"</Say></Response>"
}
