package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const maxStdinLine = 1 << 20

func (a *app) sendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "send [message...]",
		Short: "Send each argument, or each stdin line, as a message",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := a.newClient(ctx)
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}

			sent, err := queueMessages(c, args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			a.log.Debug().Int("messages", sent).Msg("queued, waiting for delivery")

			// Interrupting abandons whatever has not been delivered yet.
			if err := c.Close(ctx); err != nil {
				return fmt.Errorf("close client: %w", err)
			}
			return nil
		},
	}
}

type messageClient interface {
	Send(msg string) error
	Close(ctx context.Context) error
}

// queueMessages sends args, or every stdin line when there are none. The
// client is closed if queueing fails.
func queueMessages(c messageClient, args []string, stdin io.Reader) (int, error) {
	var (
		sent int
		err  error
	)
	if len(args) > 0 {
		for _, msg := range args {
			if err = c.Send(msg); err != nil {
				break
			}
			sent++
		}
	} else {
		sent, err = sendLines(stdin, c.Send)
		if err != nil {
			err = fmt.Errorf("read stdin: %w", err)
		}
	}
	if err != nil {
		_ = c.Close(context.Background())
		return sent, err
	}
	return sent, nil
}

// sendLines sends every non-empty line of r.
func sendLines(r io.Reader, send func(string) error) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), maxStdinLine)

	n := 0
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if err := send(line); err != nil {
			return n, err
		}
		n++
	}
	return n, sc.Err()
}
