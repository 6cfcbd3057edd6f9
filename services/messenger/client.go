// Package messenger talks to the Facebook Messenger Send and User Profile APIs.
package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"barberbot/utils"

	"go.uber.org/zap"
)

// maxMessageRunes is the Send API limit for a text message.
const maxMessageRunes = 2000

type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	MessagingType string `json:"messaging_type"`
	Message       struct {
		Text string `json:"text"`
	} `json:"message"`
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendMessage delivers text to psid, split into several messages when it is
// longer than the Send API allows.
func (c *Client) SendMessage(ctx context.Context, psid, text string) error {
	for _, part := range splitText(text, maxMessageRunes) {
		if err := c.send(ctx, psid, part); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, psid, text string) error {
	var body sendRequest
	body.Recipient.ID = psid
	body.MessagingType = "RESPONSE"
	body.Message.Text = text
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	endpoint := c.baseURL + "/me/messages?access_token=" + url.QueryEscape(c.accessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("messenger send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("messenger send failed: %s", describeError(resp))
	}
	return nil
}

// GetUserName returns "first last" for psid, or the default client name when
// the profile cannot be read.
func (c *Client) GetUserName(ctx context.Context, psid string) string {
	name, err := c.userName(ctx, psid)
	if err != nil || name == "" {
		utils.GetLogger().Warn("Messenger profile lookup failed", zap.String("userID", psid), zap.Error(err))
		return utils.DefaultClientName
	}
	return name
}

func (c *Client) userName(ctx context.Context, psid string) (string, error) {
	q := url.Values{}
	q.Set("fields", "first_name,last_name")
	q.Set("access_token", c.accessToken)
	endpoint := c.baseURL + "/" + url.PathEscape(psid) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("profile lookup: %s", describeError(resp))
	}
	var profile struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return "", fmt.Errorf("profile lookup: %w", err)
	}
	return strings.TrimSpace(profile.FirstName + " " + profile.LastName), nil
}

func describeError(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var ge graphError
	if json.Unmarshal(raw, &ge) == nil && ge.Error.Message != "" {
		return fmt.Sprintf("status %d: %s (code %d)", resp.StatusCode, ge.Error.Message, ge.Error.Code)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}

// splitText cuts text into chunks of at most limit runes, preferring line
// breaks and spaces.
func splitText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i] == '\n' || runes[i] == ' ' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimSpace(string(runes[:cut])))
		runes = runes[cut:]
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		parts = append(parts, rest)
	}
	return parts
}
