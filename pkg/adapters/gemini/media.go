package gemini

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/whitehatjr1001/cine-brain/pkg/ports"
	"google.golang.org/genai"
)

// Speech output is 16-bit mono PCM at 24 kHz.
const (
	pcmSampleRate = 24000
	pcmChannels   = 1
	pcmBits       = 16
)

// Synthesize renders a video or an audio file and returns its path.
func (c *Client) Synthesize(ctx context.Context, req ports.MediaRequest) (string, error) {
	switch req.Kind {
	case ports.MediaVideo:
		return c.video(ctx, req)
	case ports.MediaAudio:
		return c.audio(ctx, req)
	}
	return "", fmt.Errorf("unsupported media kind %q", req.Kind)
}

func (c *Client) video(ctx context.Context, req ports.MediaRequest) (string, error) {
	op, err := c.client.Models.GenerateVideos(ctx, c.cfg.VideoModel, req.Prompt, nil, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    "16:9",
	})
	if err != nil {
		return "", classify("generate video", err)
	}

	ticker := time.NewTicker(c.poll)
	defer ticker.Stop()
	for !op.Done {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
		op, err = c.client.Operations.GetVideosOperation(ctx, op, nil)
		if err != nil {
			return "", classify("poll video", err)
		}
	}

	if op.Error != nil {
		return "", fmt.Errorf("video generation failed: %v", op.Error["message"])
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 || op.Response.GeneratedVideos[0].Video == nil {
		return "", errors.New("video generation returned no video")
	}
	generated := op.Response.GeneratedVideos[0]
	data := generated.Video.VideoBytes
	if len(data) == 0 {
		data, err = c.client.Files.Download(ctx, genai.NewDownloadURIFromGeneratedVideo(generated), nil)
		if err != nil {
			return "", classify("download video", err)
		}
	}
	return c.write(req.SessionID, ".mp4", data)
}

func (c *Client) audio(ctx context.Context, req ports.MediaRequest) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.cfg.SpeechModel, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: c.cfg.Voice},
			},
		},
	})
	if err != nil {
		return "", classify("generate audio", err)
	}

	blob := firstBlob(resp)
	if blob == nil || len(blob.Data) == 0 {
		return "", errors.New("speech generation returned no audio")
	}
	data := blob.Data
	if !strings.Contains(blob.MIMEType, "wav") {
		data = wav(data)
	}
	return c.write(req.SessionID, ".wav", data)
}

func firstBlob(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil {
		return nil
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part != nil && part.InlineData != nil {
				return part.InlineData
			}
		}
	}
	return nil
}

// write stores data under the output directory with a unique name.
func (c *Client) write(sessionID, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(c.cfg.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	prefix := sessionID
	if prefix == "" {
		prefix = "media"
	}
	path := filepath.Join(c.cfg.OutputDir, prefix+"-"+uuid.NewString()[:8]+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media: %w", err)
	}
	c.logger.Debug("media written", "path", path, "bytes", len(data))
	return path, nil
}

// wav wraps raw PCM samples in a RIFF header.
func wav(pcm []byte) []byte {
	var buf bytes.Buffer
	byteRate := pcmSampleRate * pcmChannels * pcmBits / 8
	blockAlign := pcmChannels * pcmBits / 8

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(pcmChannels))
	binary.Write(&buf, binary.LittleEndian, uint32(pcmSampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(pcmBits))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
