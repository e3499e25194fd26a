// Package audio plays synthesized speech through whatever command-line
// player the host has. Playback is best-effort: a machine without a
// player gets silence and a log line, never an error that would
// disturb the answer on screen.
package audio

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Clip is one piece of playable audio.
type Clip struct {
	Data      []byte
	MIME      string
	CreatedAt time.Time
}

// NewClip wraps raw audio bytes.
func NewClip(data []byte, mime string) *Clip {
	if mime == "" {
		mime = "audio/mpeg"
	}
	return &Clip{Data: data, MIME: mime, CreatedAt: time.Now()}
}

// Empty reports whether the clip has no audio.
func (c *Clip) Empty() bool {
	return c == nil || len(c.Data) == 0
}

// players lists known command-line players in preference order, with
// the flags that make them play one file quietly and exit.
var players = []struct {
	binary string
	args   func(path string) []string
}{
	{"mpg123", func(p string) []string { return []string{"-q", p} }},
	{"mpv", func(p string) []string { return []string{"--really-quiet", "--no-video", p} }},
	{"ffplay", func(p string) []string { return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", p} }},
	{"afplay", func(p string) []string { return []string{p} }},
	{"aplay", func(p string) []string { return []string{"-q", p} }},
}

// Player plays clips through an external binary. Playing a new clip
// stops the previous one; only one process runs at a time.
type Player struct {
	binary string
	args   func(path string) []string
	logger *zap.Logger

	mu       sync.Mutex
	current  *exec.Cmd
	tempFile string
	done     chan struct{}
}

// NewPlayer creates a player using the given binary, or the first
// known player found on PATH when binary is empty. A player without a
// usable binary is still valid; Play just becomes a no-op.
func NewPlayer(binary string, logger *zap.Logger) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Player{logger: logger}
	if binary != "" {
		if _, err := exec.LookPath(binary); err != nil {
			logger.Warn("configured audio player not found", zap.String("binary", binary))
			return p
		}
		p.binary = binary
		p.args = argsFor(binary)
		return p
	}

	for _, candidate := range players {
		if _, err := exec.LookPath(candidate.binary); err == nil {
			p.binary = candidate.binary
			p.args = candidate.args
			return p
		}
	}
	logger.Warn("no audio player found; speech playback disabled")
	return p
}

// argsFor returns the flag builder for a known binary, or a bare
// single-argument invocation for anything else.
func argsFor(binary string) func(path string) []string {
	for _, candidate := range players {
		if candidate.binary == binary {
			return candidate.args
		}
	}
	return func(p string) []string { return []string{p} }
}

// Available reports whether a playback binary was found.
func (p *Player) Available() bool {
	return p.binary != ""
}

// Play starts playback of a clip, stopping any clip already playing.
// The clip is written to a temp file because every supported player
// takes a path, and the file is removed when playback ends.
func (p *Player) Play(clip *Clip) error {
	if clip.Empty() {
		return nil
	}
	if !p.Available() {
		p.logger.Debug("dropping clip; no audio player available", zap.Int("bytes", len(clip.Data)))
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	f, err := os.CreateTemp("", "baymax-speech-*.mp3")
	if err != nil {
		return fmt.Errorf("failed to create temp audio file: %w", err)
	}
	if _, err := f.Write(clip.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("failed to write audio: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("failed to close audio file: %w", err)
	}

	cmd := exec.Command(p.binary, p.args(f.Name())...)
	if err := cmd.Start(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("failed to start %s: %w", p.binary, err)
	}

	p.current = cmd
	p.tempFile = f.Name()
	p.done = make(chan struct{})

	done := p.done
	path := f.Name()
	go func() {
		defer close(done)
		if err := cmd.Wait(); err != nil {
			p.logger.Debug("player exited with error", zap.String("binary", p.binary), zap.Error(err))
		}
		os.Remove(path)
	}()
	return nil
}

// Stop kills the current playback, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// stopLocked kills the running player and waits for its reaper
// goroutine to clean up. Callers hold p.mu.
func (p *Player) stopLocked() {
	if p.current == nil {
		return
	}
	if p.current.Process != nil {
		_ = p.current.Process.Kill()
	}
	<-p.done
	p.current = nil
	p.tempFile = ""
	p.done = nil
}

// Wait blocks until the current playback finishes. Useful for one-shot
// commands that should not exit mid-sentence.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}
