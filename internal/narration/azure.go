package narration

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultVoice       = "en-US-JennyNeural"
	DefaultAudioFormat = "audio-24khz-48kbitrate-mono-mp3"
)

// AzureOption configures the Azure synthesizer.
type AzureOption func(*AzureSynthesizer)

// WithVoice sets the neural voice name.
func WithVoice(voice string) AzureOption {
	return func(s *AzureSynthesizer) {
		s.voice = voice
	}
}

// WithAudioFormat sets the X-Microsoft-OutputFormat value and its MIME type.
func WithAudioFormat(format, mimeType string) AzureOption {
	return func(s *AzureSynthesizer) {
		s.format = format
		s.mimeType = mimeType
	}
}

// WithHTTPTimeout bounds each synthesis request.
func WithHTTPTimeout(d time.Duration) AzureOption {
	return func(s *AzureSynthesizer) {
		s.httpClient.Timeout = d
	}
}

// WithEndpoint overrides the regional endpoint.
func WithEndpoint(url string) AzureOption {
	return func(s *AzureSynthesizer) {
		s.endpoint = url
	}
}

// AzureSynthesizer calls the Azure Cognitive Services text-to-speech REST API.
type AzureSynthesizer struct {
	key        string
	endpoint   string
	voice      string
	format     string
	mimeType   string
	httpClient *http.Client
	log        *zap.Logger
}

// NewAzureSynthesizer creates a synthesizer for the given region.
func NewAzureSynthesizer(key, region string, log *zap.Logger, opts ...AzureOption) *AzureSynthesizer {
	s := &AzureSynthesizer{
		key:        key,
		endpoint:   fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region),
		voice:      DefaultVoice,
		format:     DefaultAudioFormat,
		mimeType:   "audio/mpeg",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Voice returns the configured voice name.
func (s *AzureSynthesizer) Voice() string { return s.voice }

// MIMEType returns the content type of synthesized audio.
func (s *AzureSynthesizer) MIMEType() string { return s.mimeType }

// Synthesize returns the encoded audio for text.
func (s *AzureSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ssml, err := s.buildSSML(text)
	if err != nil {
		return nil, err
	}
	s.log.Debug("azure tts: synthesizing", zap.Int("chars", len(text)), zap.String("voice", s.voice))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", s.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", s.format)
	req.Header.Set("User-Agent", "FridgeChef/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("azure tts error %d: %s", resp.StatusCode, string(body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio data: %w", err)
	}
	s.log.Debug("azure tts: got audio", zap.Int("bytes", len(audio)))
	return audio, nil
}

func (s *AzureSynthesizer) buildSSML(text string) (string, error) {
	var escaped bytes.Buffer
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return "", fmt.Errorf("escaping text: %w", err)
	}
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='en-US'><voice xml:lang='en-US' name='%s'>%s</voice></speak>`,
		s.voice, escaped.String(),
	), nil
}
