// Package filewatch tails a text file and sends every newly appended line
// through a chatship client. It watches the parent directory with fsnotify so
// that log rotation and editors that replace the file are followed.
package filewatch

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/chatship/pkg/chatship"
	"github.com/bft-labs/chatship/pkg/log"
)

// DefaultMaxLineBytes caps a single line; longer lines are split.
const DefaultMaxLineBytes = 64 << 10

// Config holds configuration options for the file watcher plugin.
type Config struct {
	// Path is the file to tail.
	Path string

	// FromStart sends the existing content of the file on startup instead of
	// only what is appended afterwards.
	FromStart bool

	// MaxLineBytes caps a single message.
	// Default: 64 KiB
	MaxLineBytes int
}

// Plugin implements chatship.Plugin.
type Plugin struct {
	cfg Config

	mu      sync.Mutex
	offset  int64
	partial []byte

	send    func(string) error
	logger  log.Logger
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new file watcher plugin.
func New(cfg Config) *Plugin {
	if cfg.MaxLineBytes <= 0 {
		cfg.MaxLineBytes = DefaultMaxLineBytes
	}
	return &Plugin{cfg: cfg}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "filewatch"
}

// Initialize starts watching the file. Lines appended after Initialize
// returns are always picked up.
func (p *Plugin) Initialize(ctx context.Context, cfg chatship.PluginConfig) error {
	if p.cfg.Path == "" {
		return fmt.Errorf("%w: filewatch path is required", chatship.ErrInvalidConfig)
	}
	path, err := filepath.Abs(p.cfg.Path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	p.cfg.Path = path
	p.send = cfg.Send
	p.logger = cfg.Logger
	if p.logger == nil {
		p.logger = log.NewNoopLogger()
	}

	if !p.cfg.FromStart {
		if fi, err := os.Stat(path); err == nil {
			p.offset = fi.Size()
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	p.watcher = watcher

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("file watcher started",
		log.String("path", path),
		log.Int64("offset", p.offset))

	p.wg.Add(1)
	go p.watchLoop(watchCtx)

	return nil
}

// Shutdown stops the watcher. A trailing line without a newline is dropped.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Plugin) watchLoop(ctx context.Context) {
	defer p.wg.Done()
	defer p.watcher.Close()

	p.readNew()

	name := filepath.Base(p.cfg.Path)
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			switch {
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				p.logger.Debug("watched file moved away", log.String("op", event.Op.String()))
				p.rewind()
			case event.Op&fsnotify.Create != 0:
				p.rewind()
				p.readNew()
			case event.Op&fsnotify.Write != 0:
				p.readNew()
			}

		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("file watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) rewind() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset = 0
	p.partial = p.partial[:0]
}

// readNew reads everything past the current offset and sends complete lines.
func (p *Plugin) readNew() {
	p.mu.Lock()
	defer p.mu.Unlock()

	f, err := os.Open(p.cfg.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			p.logger.Warn("open watched file", log.Err(err))
		}
		return
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		p.logger.Warn("stat watched file", log.Err(err))
		return
	}
	if fi.Size() < p.offset {
		p.logger.Info("watched file truncated, restarting from the beginning",
			log.Int64("size", fi.Size()),
			log.Int64("offset", p.offset))
		p.offset = 0
		p.partial = p.partial[:0]
	}
	if fi.Size() == p.offset {
		return
	}

	if _, err := f.Seek(p.offset, io.SeekStart); err != nil {
		p.logger.Warn("seek watched file", log.Err(err))
		return
	}

	r := bufio.NewReader(f)
	for {
		chunk, err := r.ReadSlice('\n')
		p.offset += int64(len(chunk))
		p.partial = append(p.partial, chunk...)

		if err == nil {
			p.emit(p.partial)
			p.partial = p.partial[:0]
			continue
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			if len(p.partial) >= p.cfg.MaxLineBytes {
				p.emit(p.partial)
				p.partial = p.partial[:0]
			}
			continue
		}
		if !errors.Is(err, io.EOF) {
			p.logger.Warn("read watched file", log.Err(err))
		}
		return
	}
}

func (p *Plugin) emit(line []byte) {
	text := strings.TrimRight(string(bytes.TrimRight(line, "\n")), "\r")
	if strings.TrimSpace(text) == "" {
		return
	}
	if err := p.send(text); err != nil {
		p.logger.Warn("dropping line, client rejected it", log.Err(err))
	}
}
