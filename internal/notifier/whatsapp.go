package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// WhatsAppNotifier sends text messages through an Evolution API instance.
type WhatsAppNotifier struct {
	BaseURL  string
	APIKey   string
	Instance string
	Phone    string
	DelayMs  int
	Client   *http.Client
	limiter  *rate.Limiter
}

// NewWhatsAppNotifier creates a notifier that sends at most one message per second.
func NewWhatsAppNotifier(baseURL, apiKey, instance, phone string) *WhatsAppNotifier {
	return &WhatsAppNotifier{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		APIKey:   apiKey,
		Instance: instance,
		Phone:    phone,
		DelayMs:  1200,
		Client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

func (w *WhatsAppNotifier) Name() string { return "whatsapp" }

type evolutionOptions struct {
	Delay    int    `json:"delay"`
	Presence string `json:"presence"`
}

type evolutionText struct {
	Text string `json:"text"`
}

type sendTextRequest struct {
	Number      string           `json:"number"`
	Options     evolutionOptions `json:"options"`
	TextMessage evolutionText    `json:"textMessage"`
}

func (w *WhatsAppNotifier) Send(ctx context.Context, text string) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}
	body, err := json.Marshal(sendTextRequest{
		Number:      w.Phone,
		Options:     evolutionOptions{Delay: w.DelayMs, Presence: "composing"},
		TextMessage: evolutionText{Text: PlainText(text)},
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/message/sendText/%s", w.BaseURL, w.Instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("apikey", w.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("evolution API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

var htmlToWhatsApp = strings.NewReplacer(
	"<b>", "*", "</b>", "*",
	"<i>", "_", "</i>", "_",
	"<code>", "```", "</code>", "```",
	"<pre>", "```", "</pre>", "```",
	"&lt;", "<", "&gt;", ">", "&amp;", "&",
)

// PlainText converts the Telegram HTML subset into WhatsApp markup.
func PlainText(html string) string {
	return htmlToWhatsApp.Replace(html)
}
