package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"vidmill/internal/domain/job"
)

const stderrTailBytes = 400

// Transcoder wraps ffmpeg/ffprobe invocations. It implements both the
// transcoder and prober ports.
type Transcoder struct {
	FFmpegPath  string
	FFprobePath string
}

// NewTranscoder creates an adapter using binaries from PATH.
func NewTranscoder() *Transcoder {
	return &Transcoder{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe"}
}

// Available reports whether the ffmpeg binary can be executed.
func (t *Transcoder) Available(ctx context.Context) error {
	if err := exec.CommandContext(ctx, t.FFmpegPath, "-version").Run(); err != nil {
		return fmt.Errorf("ffmpeg unavailable: %w", err)
	}
	return nil
}

// Start launches a transcode into outputPath. The encode writes to a
// temp file that is renamed into place only on success, so a partial
// output never sits at the final path.
func (t *Transcoder) Start(ctx context.Context, inputPath, outputPath string, profile job.Profile, durationSeconds float64, onProgress func(int)) (job.TranscodeProcess, error) {
	tmpPath := outputPath + ".tmp.mp4"
	_ = os.Remove(tmpPath)

	args := []string{
		"-y",
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=%d:%d", profile.Width, profile.Height),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-b:v", profile.Bitrate,
		"-c:a", "aac",
		"-b:a", "128k",
		"-progress", "pipe:1",
		"-nostats",
		tmpPath,
	}

	cmd := exec.CommandContext(ctx, t.FFmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &process{cmd: cmd, done: make(chan struct{})}

	go func() {
		defer close(p.done)

		parser := NewParser(durationSeconds)
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if percent, changed := parser.Line(scanner.Text()); changed && onProgress != nil {
				onProgress(percent)
			}
		}

		if err := cmd.Wait(); err != nil {
			_ = os.Remove(tmpPath)
			p.err = fmt.Errorf("ffmpeg failed: %w: %s", err, tail(stderr.String()))
			return
		}

		_ = os.Remove(outputPath)
		p.err = os.Rename(tmpPath, outputPath)
	}()

	return p, nil
}

type process struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// Wait blocks until the process and its output rename finish.
func (p *process) Wait() error {
	<-p.done
	return p.err
}

// Stop asks ffmpeg to terminate, waits out the grace interval, then
// kills it if still alive.
func (p *process) Stop(grace time.Duration) {
	if p.cmd.Process == nil {
		return
	}
	_ = p.cmd.Process.Signal(syscall.SIGTERM)

	if grace > 0 {
		select {
		case <-p.done:
			return
		case <-time.After(grace):
		}
	}
	_ = p.cmd.Process.Kill()
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTailBytes {
		s = s[len(s)-stderrTailBytes:]
	}
	return s
}

// Probe extracts media metadata via ffprobe.
func (t *Transcoder) Probe(ctx context.Context, path string) (job.MediaInfo, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}

	out, err := exec.CommandContext(ctx, t.FFprobePath, args...).Output()
	if err != nil {
		return job.MediaInfo{}, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probed struct {
		Format struct {
			Duration   string `json:"duration"`
			Size       string `json:"size"`
			FormatName string `json:"format_name"`
			BitRate    string `json:"bit_rate"`
		} `json:"format"`
		Streams []struct {
			CodecType string `json:"codec_type"`
			CodecName string `json:"codec_name"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &probed); err != nil {
		return job.MediaInfo{}, fmt.Errorf("ffprobe output unreadable: %w", err)
	}

	info := job.MediaInfo{Format: probed.Format.FormatName}
	info.DurationSeconds, _ = strconv.ParseFloat(probed.Format.Duration, 64)
	info.SizeBytes, _ = strconv.ParseInt(probed.Format.Size, 10, 64)
	info.BitRate, _ = strconv.ParseInt(probed.Format.BitRate, 10, 64)

	for _, stream := range probed.Streams {
		if stream.CodecType == "video" {
			info.Width = stream.Width
			info.Height = stream.Height
			info.Codec = stream.CodecName
			break
		}
	}
	info.Quality = job.QualityForHeight(info.Height)

	return info, nil
}
