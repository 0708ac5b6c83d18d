package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"
)

type textContent struct {
	Content string `json:"content"`
}

type botPayload struct {
	MsgType string      `json:"msgtype"`
	Text    textContent `json:"text"`
	Title   string      `json:"title"`
	Body    string      `json:"body"`
}

type genericPayload struct {
	Content string `json:"content"`
	Message string `json:"message"`
}

// WebhookPayload picks the body shape by webhook host: dingtalk and feishu bots get
// the text message format, anything else gets {content, message}.
func WebhookPayload(url, content string) ([]byte, error) {
	if strings.Contains(url, "dingtalk") || strings.Contains(url, "feishu") {
		return json.Marshal(botPayload{
			MsgType: "text",
			Text:    textContent{Content: content},
			Title:   "SKAS Report",
			Body:    content,
		})
	}
	return json.Marshal(genericPayload{Content: content, Message: content})
}

func SendWebhook(client HttpDoer, url, content string) error {
	if url == "" {
		return nil
	}

	payload, err := WebhookPayload(url, content)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := fhttp.NewRequest("POST", url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
