package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/intake-agent/internal/config"
	"github.com/p-blackswan/intake-agent/internal/session"
)

var (
	chatService string
	chatUser    string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Hold an intake conversation in the terminal",
	Long: `chat runs one conversation on stdin/stdout against the configured store
and remote backend.

Commands:
  /approve, /reject   answer a pending approval request
  /attach <file>      queue a text document for the next message
  /brief              show the brief collected so far
  /reset              start over
  /quit               leave (the conversation is kept)`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(func(c *config.Config) {
			c.AuthMode = config.AuthNone
		})
		if err != nil {
			return err
		}
		logger, closer := newLogger(cfg, os.Stderr)
		defer closer.Close()

		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return chat(ctx, a.sessions, session.Key{User: chatUser, Service: chatService}, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	user := os.Getenv("USER")
	if user == "" {
		user = "local"
	}
	chatCmd.Flags().StringVar(&chatService, "service", "Website Development", "service the brief is for")
	chatCmd.Flags().StringVar(&chatUser, "user", user, "user the conversation belongs to")
}

// command is a parsed input line.
type command struct {
	event session.Event
	brief bool
	quit  bool
}

// parseLine turns one input line into a command. ok is false for blank
// lines.
func parseLine(line string, readFile func(string) ([]byte, error)) (command, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{}, false, nil
	}
	if !strings.HasPrefix(line, "/") {
		return command{event: session.Event{Kind: session.EventSubmit, Text: line}}, true, nil
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch strings.ToLower(name) {
	case "/approve":
		return command{event: session.Event{Kind: session.EventDecide, Accept: true}}, true, nil
	case "/reject":
		return command{event: session.Event{Kind: session.EventDecide, Accept: false}}, true, nil
	case "/reset":
		return command{event: session.Event{Kind: session.EventReset}}, true, nil
	case "/brief":
		return command{brief: true}, true, nil
	case "/quit", "/exit":
		return command{quit: true}, true, nil
	case "/attach":
		if arg == "" {
			return command{}, false, fmt.Errorf("usage: /attach <file>")
		}
		data, err := readFile(arg)
		if err != nil {
			return command{}, false, fmt.Errorf("read attachment: %w", err)
		}
		return command{event: session.Event{
			Kind: session.EventAttachment,
			Name: filepath.Base(arg),
			Text: string(data),
		}}, true, nil
	default:
		// Unknown slash words are ordinary messages.
		return command{event: session.Event{Kind: session.EventSubmit, Text: line}}, true, nil
	}
}

// lockedWriter serializes writes from the reader and the event loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func chat(ctx context.Context, sessions *session.Manager, key session.Key, in io.Reader, w io.Writer) error {
	out := &lockedWriter{w: w}
	view, err := sessions.Open(ctx, key)
	if err != nil {
		return err
	}
	for _, t := range view.History {
		fmt.Fprintf(out, "%s: %s\n\n", t.Role, t.Content)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan session.Event)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			cmd, ok, err := parseLine(scanner.Text(), os.ReadFile)
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			if !ok {
				continue
			}
			switch {
			case cmd.quit:
				cancel()
				return
			case cmd.brief:
				printBrief(ctx, sessions, key, out)
				continue
			}
			select {
			case events <- cmd.event:
			case <-ctx.Done():
				return
			}
		}
	}()

	err = sessions.Run(ctx, key, events, func(res session.Result) {
		printResult(out, res)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printResult(out io.Writer, res session.Result) {
	if res.Err != nil {
		fmt.Fprintf(out, "error: %v\n\n", res.Err)
		return
	}
	switch res.Kind {
	case session.EventAttachment:
		fmt.Fprintf(out, "(%d attachment(s) queued for your next message)\n\n", res.Attachments)
		return
	case session.EventSpeech:
		return
	}
	if msg := res.Message(); msg != "" {
		fmt.Fprintf(out, "assistant: %s\n\n", msg)
	}
	if res.Outcome != nil {
		if retry, ok := res.Outcome.Retryable(); ok {
			fmt.Fprintf(out, "(send %q to retry)\n\n", retry)
		}
		if res.Outcome.Proposal != "" {
			fmt.Fprintf(out, "%s\n\n", res.Outcome.Proposal)
		}
	}
}

func printBrief(ctx context.Context, sessions *session.Manager, key session.Key, out io.Writer) {
	view, err := sessions.Open(ctx, key)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n\n", err)
		return
	}
	fmt.Fprintln(out, view.Brief.Summary())
	if view.Complete {
		fmt.Fprintln(out, "\nThe brief is complete.")
		return
	}
	fmt.Fprintln(out, "\nStill missing:")
	for _, d := range view.Missing {
		fmt.Fprintf(out, "  - %s\n", d.ID)
	}
	fmt.Fprintln(out)
}
