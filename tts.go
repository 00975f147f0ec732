package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/novartc/rtpgen/pkg/tts"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

type ttsConfig struct {
	Input  string
	Output string
	APIKey string
	URL    string
	Voices []string
	Rate   float64
}

func newTtsCommand() *cobra.Command {
	var opts ttsConfig

	cmd := &cobra.Command{
		Use:   "tts",
		Short: "batch-generate WAV prompts from a phrase list",
		Long:  "batch-generate WAV prompts by sending each line of the input file to an async TTS API",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runTts(cmd.Context(), opts); err != nil {
				slog.Error("tts generation failed", "error", err)
				os.Exit(1)
			}
		},
	}

	set := cmd.Flags()
	set.StringVarP(&opts.Input, "input", "i", "", "text file with one phrase per line")
	set.StringVarP(&opts.Output, "output", "o", "audio_output", "directory for generated WAV files")
	set.StringVar(&opts.APIKey, "api-key", "", "TTS API key")
	set.StringVar(&opts.URL, "url", tts.DefaultURL, "TTS API endpoint")
	set.StringSliceVar(&opts.Voices, "voices", []string{"banmai", "thuminh", "leminh"}, "voices to pick from, one chosen at random per phrase")
	set.Float64Var(&opts.Rate, "rate", 0.5, "synthesis requests per second")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("api-key")
	return cmd
}

func runTts(ctx context.Context, opts ttsConfig) error {
	f, err := os.Open(opts.Input)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(opts.Output, 0o755); err != nil {
		return fmt.Errorf("unable to create output directory: %v", err)
	}

	client := &tts.Client{APIKey: opts.APIKey, URL: opts.URL}
	limiter := rate.NewLimiter(rate.Limit(opts.Rate), 1)
	category := strings.TrimSuffix(filepath.Base(opts.Input), filepath.Ext(opts.Input))

	var succeeded, failed int
	scanner := bufio.NewScanner(f)
	for i := 0; scanner.Scan(); i++ {
		phrase := strings.TrimSpace(scanner.Text())
		if phrase == "" {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		name := filepath.Join(opts.Output, fmt.Sprintf("%s_%d.wav", category, i))
		if err := generatePhrase(ctx, client, phrase, opts.Voices, name); err != nil {
			slog.Error("phrase generation failed", "phrase", phrase, "error", err)
			failed++
			continue
		}
		slog.Info("generated", "file", name)
		succeeded++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("unable to read phrase list: %v", err)
	}

	slog.Info("tts generation complete", "succeeded", succeeded, "failed", failed)
	return nil
}

func generatePhrase(ctx context.Context, client *tts.Client, phrase string, voices []string, name string) error {
	voice := voices[rand.Intn(len(voices))]
	// Vary delivery speed a little so prompts don't all sound alike.
	speed := fmt.Sprintf("%.1f", 0.8+rand.Float64()*0.4)

	audioURL, err := client.Synthesize(ctx, phrase, voice, speed)
	if err != nil {
		return err
	}
	return client.Fetch(ctx, audioURL, name, len(phrase))
}
