package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/firebase/genkit/go/ai"
	"github.com/spf13/cobra"

	"github.com/cslab/cschat/internal/app"
	"github.com/cslab/cschat/internal/chat"
	"github.com/cslab/cschat/internal/config"
	"github.com/cslab/cschat/internal/conversation"
	"github.com/cslab/cschat/internal/database"
)

var (
	chatSessionID string
	chatPlain     bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "resume an existing session by ID")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "stream plain text instead of rendering Markdown")
	rootCmd.AddCommand(chatCmd)

	// Mirror the flags on root so `cschat --session ...` works too.
	rootCmd.Flags().StringVar(&chatSessionID, "session", "", "resume an existing session by ID")
	rootCmd.Flags().BoolVar(&chatPlain, "plain", false, "stream plain text instead of rendering Markdown")
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingAPIKey) {
			fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Please run:")
			fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		}
		return err
	}

	a, err := app.Setup(ctx, cfg)
	if err != nil {
		if errors.Is(err, database.ErrLocked) {
			return fmt.Errorf("another cschat instance is already using %s", cfg.DBPath)
		}
		return err
	}
	defer a.Close()

	loop := &chatLoop{
		app:      a,
		renderer: newMarkdownRenderer(0),
		out:      cmd.OutOrStdout(),
	}
	if err := loop.openSession(ctx, chatSessionID); err != nil {
		return err
	}

	loop.printWelcome()
	return loop.run(ctx, cmd.InOrStdin())
}

// chatLoop holds the interactive session state.
type chatLoop struct {
	app      *app.App
	renderer *markdownRenderer
	out      io.Writer

	session *conversation.Session
	// named tracks whether the session still needs an AI-generated name.
	named bool
}

// openSession resumes the given session or creates a fresh unnamed one.
func (l *chatLoop) openSession(ctx context.Context, id string) error {
	if id != "" {
		sess, err := l.app.Conversations.Session(ctx, id)
		if err != nil {
			return fmt.Errorf("resuming session %s: %w", id, err)
		}
		l.session = sess
		l.named = true
		return nil
	}
	return l.newSession(ctx)
}

func (l *chatLoop) newSession(ctx context.Context) error {
	sess, err := l.app.Conversations.CreateSession(ctx, conversation.NewSessionID(), "")
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	l.session = sess
	l.named = false
	return nil
}

func (l *chatLoop) printWelcome() {
	fmt.Fprintf(l.out, "cschat %s - your study assistant. Type /help for commands, /exit to quit.\n", AppVersion)
	fmt.Fprintf(l.out, "Session: %s\n\n", l.session.DisplayName())
}

func (l *chatLoop) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(l.out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(l.out, "\nGoodbye!")
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			exit, err := l.handleCommand(ctx, input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			if exit {
				break
			}
			continue
		}

		if err := l.turn(ctx, input); err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(l.out, "\nGoodbye!")
				return nil
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

// turn sends one message and prints the reply, either streamed as plain
// text or rendered as Markdown once complete.
func (l *chatLoop) turn(ctx context.Context, input string) error {
	firstExchange := !l.named

	var callback chat.StreamCallback
	if chatPlain {
		fmt.Fprint(l.out, "Assistant: ")
		callback = func(_ context.Context, chunk *ai.ModelResponseChunk) error {
			fmt.Fprint(l.out, chunk.Text())
			return nil
		}
	}

	resp, err := l.app.Agent.SendTurn(ctx, l.session.ID, input, callback)
	if err != nil {
		if chatPlain {
			fmt.Fprintln(l.out)
		}
		return err
	}

	if chatPlain {
		fmt.Fprintln(l.out)
	} else {
		fmt.Fprintf(l.out, "Assistant:\n%s\n", l.renderer.Render(resp.Text))
	}
	if l.app.Config.Debug && resp.Usage != nil {
		fmt.Fprintf(l.out, "(tokens: %d in, %d out)\n", resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
	fmt.Fprintln(l.out)

	if firstExchange {
		l.nameSession(ctx, input)
	}
	return nil
}

// nameSession gives a fresh session an AI-generated name after its
// first exchange. Best-effort: a failure keeps the ID as display name.
func (l *chatLoop) nameSession(ctx context.Context, firstMessage string) {
	title := l.app.Agent.GenerateTitle(ctx, firstMessage)
	if title == "" {
		return
	}
	if err := l.app.Conversations.RenameSession(ctx, l.session.ID, title); err != nil {
		l.app.Logger.Warn("naming session", "session_id", l.session.ID, "error", err)
		return
	}
	l.session.Name = title
	l.named = true
	fmt.Fprintf(l.out, "(session named %q)\n\n", title)
}

// handleCommand executes a slash command. It returns true when the loop
// should exit.
func (l *chatLoop) handleCommand(ctx context.Context, input string) (bool, error) {
	parts := strings.Fields(input)
	switch parts[0] {
	case "/help":
		l.printHelp()
	case "/new":
		if err := l.newSession(ctx); err != nil {
			return false, err
		}
		fmt.Fprintf(l.out, "Started session %s\n\n", l.session.ID)
	case "/sessions":
		return false, l.printSessions(ctx)
	case "/switch":
		if len(parts) < 2 {
			return false, errors.New("usage: /switch <session-id>")
		}
		sess, err := l.app.Conversations.Session(ctx, parts[1])
		if err != nil {
			return false, err
		}
		l.session = sess
		l.named = true
		fmt.Fprintf(l.out, "Switched to session %s\n\n", sess.DisplayName())
	case "/history":
		return false, l.printHistory(ctx)
	case "/clear":
		if err := l.app.Conversations.ClearSession(ctx, l.session.ID); err != nil {
			return false, err
		}
		if err := l.newSession(ctx); err != nil {
			return false, err
		}
		fmt.Fprintf(l.out, "Cleared. Started session %s\n\n", l.session.ID)
	case "/exit", "/quit":
		fmt.Fprintln(l.out, "Goodbye!")
		return true, nil
	default:
		fmt.Fprintf(l.out, "Unknown command %s. Type /help for commands.\n\n", parts[0])
	}
	return false, nil
}

func (l *chatLoop) printHelp() {
	fmt.Fprint(l.out, `Commands:
  /help      Show this help
  /new       Start a new session
  /sessions  List saved sessions
  /switch    Switch to a session: /switch <session-id>
  /history   Show this session's messages
  /clear     Delete this session's history and start fresh
  /exit      Quit

Anything else is sent to the assistant.

`)
}

func (l *chatLoop) printSessions(ctx context.Context) error {
	sessions, err := l.app.Conversations.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprint(l.out, "No saved sessions yet.\n\n")
		return nil
	}

	for _, sess := range sessions {
		marker := " "
		if sess.ID == l.session.ID {
			marker = "*"
		}
		fmt.Fprintf(l.out, "%s %s  %s  (%d messages, %s)\n",
			marker, sess.ID, sess.DisplayName(), sess.MessageCount,
			sess.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintln(l.out)
	return nil
}

func (l *chatLoop) printHistory(ctx context.Context) error {
	msgs, err := l.app.Conversations.Messages(ctx, l.session.ID, 0)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Fprint(l.out, "No messages in this session yet.\n\n")
		return nil
	}

	for _, msg := range msgs {
		label := "Assistant"
		if msg.Role == conversation.RoleUser {
			label = "You"
		} else if msg.Role == conversation.RoleSystem {
			label = "System"
		}
		fmt.Fprintf(l.out, "%s: %s\n", label, msg.Content)
	}
	fmt.Fprintln(l.out)
	return nil
}
