package tts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/huandu/go-assert"
)

func TestSynthesize(t *testing.T) {
	var gotVoice, gotKey, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		gotVoice = r.Header.Get("voice")
		gotFormat = r.Header.Get("format")
		w.Write([]byte(`{"async": "https://cdn.example.com/out.wav", "error": 0}`))
	}))
	defer srv.Close()

	c := &Client{APIKey: "secret", URL: srv.URL}
	url, err := c.Synthesize(context.Background(), "xin chào", "banmai", "1.0")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	assert.Equal(t, "https://cdn.example.com/out.wav", url)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "banmai", gotVoice)
	assert.Equal(t, "wav", gotFormat)
}

func TestSynthesizeNoAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": "invalid api key"}`))
	}))
	defer srv.Close()

	c := &Client{URL: srv.URL}
	_, err := c.Synthesize(context.Background(), "hello", "banmai", "1.0")
	if !errors.Is(err, ErrNoAudio) {
		t.Fatalf("Synthesize: err = %v, want ErrNoAudio", err)
	}
}

func TestSynthesizeBadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"async": "https://cdn.example.com/out.mp3"}`))
	}))
	defer srv.Close()

	c := &Client{URL: srv.URL}
	if _, err := c.Synthesize(context.Background(), "hello", "banmai", "1.0"); err == nil {
		t.Fatal("Synthesize accepted a non-WAV artifact URL")
	}
}

func TestSynthesizeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := &Client{URL: srv.URL}
	if _, err := c.Synthesize(context.Background(), "hello", "banmai", "1.0"); err == nil {
		t.Fatal("Synthesize accepted a non-200 response")
	}
}
