// Package telegram реализует клиент Bot API для двух вызовов, которые
// нужны сервису: отправка сообщения с кодом и проверка членства в канале.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client клиент Telegram Bot API.
type Client struct {
	botToken   string
	channelID  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт клиент. apiURL — базовый адрес Bot API, в тестах
// подменяется на локальный сервер.
func NewClient(botToken, channelID, apiURL string) *Client {
	return &Client{
		botToken:   botToken,
		channelID:  channelID,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, body any) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/bot%s/%s", c.apiURL, c.botToken, method)

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, err
	}
	if !apiResp.OK {
		return nil, fmt.Errorf("telegram api %s: %s", method, apiResp.Description)
	}
	return apiResp.Result, nil
}

// SendMessage отправляет текст в чат chatID.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	const op = "telegram.SendMessage"
	_, err := c.call(ctx, "sendMessage", map[string]string{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IsChannelMember проверяет, состоит ли пользователь в канале из конфига.
// Членом считается creator, administrator или member.
func (c *Client) IsChannelMember(ctx context.Context, userID string) (bool, error) {
	const op = "telegram.IsChannelMember"
	result, err := c.call(ctx, "getChatMember", map[string]string{
		"chat_id": c.channelID,
		"user_id": userID,
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	var member struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(result, &member); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	switch member.Status {
	case "creator", "administrator", "member":
		return true, nil
	default:
		return false, nil
	}
}
