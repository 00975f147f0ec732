// Package tts is a client for async text-to-speech HTTP APIs in the
// FPT.AI style: a POST returns a URL where the rendered WAV appears
// after a processing delay.
package tts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const DefaultURL = "https://api.fpt.ai/hmi/tts/v5"

var ErrNoAudio = errors.New("no audio URL in response")

// Client issues synthesis requests. Zero values fall back to
// DefaultURL and http.DefaultClient.
type Client struct {
	APIKey     string
	URL        string
	HTTPClient *http.Client
}

type response struct {
	Async   string `json:"async"`
	Message string `json:"message"`
}

// Synthesize submits text and returns the URL where the WAV artifact
// will be published.
func (c *Client) Synthesize(ctx context.Context, text, voice, speed string) (string, error) {
	url := c.URL
	if url == "" {
		url = DefaultURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(text))
	if err != nil {
		return "", err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("voice", voice)
	req.Header.Set("speed", speed)
	req.Header.Set("format", "wav")

	resp, err := c.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("synthesis request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("synthesis request failed: %s", resp.Status)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("unable to decode response: %v", err)
	}
	if body.Async == "" {
		return "", fmt.Errorf("%w: %s", ErrNoAudio, body.Message)
	}
	if !strings.HasSuffix(body.Async, ".wav") {
		return "", fmt.Errorf("unexpected audio URL: %s", body.Async)
	}
	return body.Async, nil
}

// Fetch waits out the rendering delay, then downloads the artifact to
// name. The delay grows with the text length, matching how long the
// far end takes to render.
func (c *Client) Fetch(ctx context.Context, audioURL, name string, textLen int) error {
	delay := 2*time.Second + time.Duration(textLen)*50*time.Millisecond
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, audioURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client().Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed: %s", resp.Status)
	}

	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(name)
		return fmt.Errorf("unable to save audio: %v", err)
	}
	return f.Close()
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
