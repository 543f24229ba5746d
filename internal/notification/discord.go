package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	colorRed   = 16711680
	colorGreen = 65280
)

type DiscordMessage struct {
	Embeds []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

// Discord posts embeds to a webhook. A zero-value URL disables sending.
type Discord struct {
	URL    string
	Client *http.Client
}

func NewDiscord(url string) *Discord {
	return &Discord{URL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

func (d *Discord) Enabled() bool {
	return d != nil && d.URL != ""
}

func (d *Discord) SendError(errorMessage string) error {
	return d.send(DiscordEmbed{
		Title:       "🚨 NDVI dashboard failed",
		Description: fmt.Sprintf("An error occurred: %s", errorMessage),
		Color:       colorRed,
	})
}

func (d *Discord) SendSuccess(message string) error {
	return d.send(DiscordEmbed{
		Title:       "✅ NDVI dashboard",
		Description: message,
		Color:       colorGreen,
	})
}

func (d *Discord) send(embed DiscordEmbed) error {
	if !d.Enabled() {
		return nil
	}

	payload, err := json.Marshal(DiscordMessage{Embeds: []DiscordEmbed{embed}})
	if err != nil {
		return err
	}

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Post(d.URL, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send Discord notification, status code: %d", resp.StatusCode)
	}

	return nil
}
