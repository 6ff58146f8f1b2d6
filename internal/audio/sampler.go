package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// DefaultBlockSize is the number of samples per loudness reading.
const DefaultBlockSize = 512

// DefaultCaptureCommand records 16 kHz mono signed 16-bit PCM to stdout.
const DefaultCaptureCommand = "arecord -q -t raw -f S16_LE -r 16000 -c 1"

// Sampler reads PCM blocks and publishes their loudness to a Level.
type Sampler struct {
	level     *Level
	blockSize int
	log       *zap.Logger
}

// NewSampler returns a Sampler writing to level.
func NewSampler(level *Level, log *zap.Logger) *Sampler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Sampler{level: level, blockSize: DefaultBlockSize, log: log}
}

// Run reads signed 16-bit little-endian mono PCM from r until EOF, a read
// error or ctx cancellation. A trailing partial block is still measured.
// Cancellation only takes effect between reads; close r to unblock a read.
func (s *Sampler) Run(ctx context.Context, r io.Reader) error {
	buf := make([]byte, s.blockSize*2)
	samples := make([]int16, 0, s.blockSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		n, err := io.ReadFull(r, buf)
		if n >= 2 {
			samples = decodeS16LE(samples, buf[:n])
			s.level.Store(Loudness(samples))
		}
		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil
		case ctx.Err() != nil:
			return nil
		default:
			return fmt.Errorf("failed to read pcm: %w", err)
		}
	}
}

// Capture is a running capture command.
type Capture struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

// StartCommand starts commandLine and returns its stdout as a PCM stream.
// The process is killed when ctx is cancelled.
func StartCommand(ctx context.Context, commandLine string) (*Capture, error) {
	parts := strings.Fields(commandLine)
	if len(parts) == 0 {
		return nil, fmt.Errorf("capture command is empty")
	}
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open capture output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start capture command: %w", err)
	}
	return &Capture{cmd: cmd, stdout: stdout}, nil
}

// Reader returns the PCM stream.
func (c *Capture) Reader() io.Reader {
	return c.stdout
}

// Wait waits for the command to exit.
func (c *Capture) Wait() error {
	return c.cmd.Wait()
}

// Listen captures from commandLine into the sampler until ctx is done or the
// command exits.
func (s *Sampler) Listen(ctx context.Context, commandLine string) error {
	capture, err := StartCommand(ctx, commandLine)
	if err != nil {
		return err
	}
	s.log.Info("capture started", zap.String("command", commandLine))
	runErr := s.Run(ctx, capture.Reader())
	waitErr := capture.Wait()
	if runErr != nil {
		return runErr
	}
	if waitErr != nil && ctx.Err() == nil {
		return fmt.Errorf("capture command exited: %w", waitErr)
	}
	return nil
}
