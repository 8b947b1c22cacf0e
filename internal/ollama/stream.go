package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"
	"time"

	"stratus-atc/internal/logging"
)

// StreamChunk is one phrase-sized piece of a streamed response. Exactly
// one chunk per completed stream carries Final, and it is the last one.
// When the response ends exactly on a phrase boundary the final chunk
// carries empty Text; Final is the end marker, not the text.
type StreamChunk struct {
	Text      string
	Final     bool
	LatencyMs int64
}

// StreamClient generates streaming responses chunked at phrase
// boundaries so they can be handed to TTS as they arrive.
type StreamClient struct {
	*Client
	minChunkChars int
	maxChunkChars int
}

// NewStreamClient creates a streaming client. Zero chunk sizes fall back
// to the defaults.
func NewStreamClient(baseURL, model string, minChunkChars, maxChunkChars int) *StreamClient {
	return &StreamClient{
		Client:        NewClient(baseURL, model),
		minChunkChars: minChunkChars,
		maxChunkChars: maxChunkChars,
	}
}

// GenerateStream issues a streaming generation request and returns an
// ordered channel of chunks. It fails with ErrUnavailable if the initial
// request does not succeed; after that, malformed lines are skipped and
// an early transport end flushes whatever is buffered as the final chunk.
//
// The channel is closed after the final chunk. Callers that stop
// consuming cancel ctx; the producer exits on the next send.
func (c *StreamClient) GenerateStream(ctx context.Context, prompt string) (<-chan StreamChunk, error) {
	resp, err := c.post(ctx, prompt, true)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ch := make(chan StreamChunk, 32)
	log := logging.FromContext(ctx)

	go func() {
		defer close(ch)
		defer resp.Body.Close()

		chk := newChunker(c.minChunkChars, c.maxChunkChars)
		sentFinal := false

		send := func(chunk StreamChunk) bool {
			select {
			case ch <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scan:
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			var parsed generateResponse
			if err := json.Unmarshal(line, &parsed); err != nil {
				// Best-effort: a garbled line loses one fragment, not the stream.
				log.Debug("skipping malformed stream line", "err", err)
				continue
			}

			chk.append(parsed.Response)

			if parsed.Done || chk.ready() {
				chunk := StreamChunk{
					Text:      chk.take(),
					Final:     parsed.Done,
					LatencyMs: time.Since(start).Milliseconds(),
				}
				if !send(chunk) {
					return
				}
				sentFinal = parsed.Done
			}
			if parsed.Done {
				break scan
			}
		}
		if err := scanner.Err(); err != nil {
			log.Debug("stream transport ended early", "err", err)
		}

		// A stream that ended without done=true still closes with an
		// explicit final marker carrying any remaining text.
		if !sentFinal {
			send(StreamChunk{
				Text:      chk.take(),
				Final:     true,
				LatencyMs: time.Since(start).Milliseconds(),
			})
		}
	}()

	return ch, nil
}

// GenerateWithCallback drains a stream, invoking fn per chunk, and
// returns the space-joined trimmed concatenation of all chunk texts.
func (c *StreamClient) GenerateWithCallback(ctx context.Context, prompt string, fn func(StreamChunk)) (string, error) {
	ch, err := c.GenerateStream(ctx, prompt)
	if err != nil {
		return "", err
	}
	var parts []string
	for chunk := range ch {
		if chunk.Text != "" {
			parts = append(parts, chunk.Text)
		}
		if fn != nil {
			fn(chunk)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}
