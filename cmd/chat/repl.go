package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/wasiiff/convograph/graph"
	"github.com/wasiiff/convograph/logging"
	"github.com/wasiiff/convograph/session"
)

const helpText = `Commands:
  help          show this help
  stats         show session statistics
  clear, reset  discard the conversation and start over
  exit, quit    end the session

Anything else is sent to the assistant. Pure arithmetic input
(digits, + - * / . and parentheses) is evaluated directly.`

// repl drives the line-oriented chat session. All control inputs are
// resolved here; only real user turns reach the graph.
type repl struct {
	executor  *graph.Executor
	store     session.Store
	sessionID string
	modelName string
	logger    logging.Logger

	out     io.Writer
	profile termenv.Profile
}

func newREPL(executor *graph.Executor, store session.Store, sessionID, modelName string, logger logging.Logger) *repl {
	return &repl{
		executor:  executor,
		store:     store,
		sessionID: sessionID,
		modelName: modelName,
		logger:    logger,
	}
}

func (r *repl) loop(ctx context.Context, in io.Reader, out io.Writer) error {
	r.out = out
	r.profile = termenv.ColorProfile()

	fmt.Fprintf(out, "%s (model: %s, session: %s)\n", r.styled("Conversational graph REPL", termenv.ANSIBrightCyan), r.modelName, r.sessionID)
	fmt.Fprintln(out, "Type 'help' for commands, 'exit' to leave.")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, r.styled("you> ", termenv.ANSIBrightGreen))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "exit", "quit":
			fmt.Fprintln(out, "Bye.")
			return nil
		case "help":
			fmt.Fprintln(out, helpText)
			continue
		case "clear", "reset":
			if err := r.store.Reset(r.sessionID); err != nil {
				return err
			}
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		case "stats":
			r.printStats()
			continue
		}

		if err := r.turn(ctx, line); err != nil {
			return err
		}
	}
}

// turn feeds one user input through a graph run over the carried-over state.
func (r *repl) turn(ctx context.Context, input string) error {
	snap, err := r.store.Get(r.sessionID)
	if err != nil {
		return err
	}

	final, err := r.executor.Run(ctx, snap.State.AppendUserMessage(input))
	if err != nil {
		// Runaway and cancellation are developer-facing: abort this run,
		// keep the session as it was.
		if errors.Is(err, graph.ErrRunaway) {
			r.logger.Error("run aborted", "error", err)
			fmt.Fprintln(r.out, r.styled("(internal error, turn discarded)", termenv.ANSIBrightRed))
			return nil
		}
		return err
	}

	if err := r.store.Update(r.sessionID, final); err != nil {
		return err
	}
	r.printReply(snap.State, final)
	return nil
}

func (r *repl) printReply(before, after graph.State) {
	if reply, ok := after.LastAssistantMessage(); ok {
		fmt.Fprintf(r.out, "%s %s\n", r.styled("bot>", termenv.ANSIBrightCyan), reply)
	}

	if after.Sentiment != graph.SentimentNeutral {
		fmt.Fprintf(r.out, "  %s %s\n", r.styled("sentiment:", termenv.ANSIBrightBlack), after.Sentiment)
	}
	if after.CalmingResponse != "" && after.CalmingResponse != before.CalmingResponse {
		fmt.Fprintf(r.out, "  %s\n", r.styled("(calming response sent)", termenv.ANSIBrightMagenta))
	}
	if len(after.Summaries) > len(before.Summaries) {
		fmt.Fprintf(r.out, "  %s %d\n", r.styled("summaries:", termenv.ANSIBrightBlack), len(after.Summaries))
	}
}

func (r *repl) printStats() {
	snap, err := r.store.Get(r.sessionID)
	if err != nil {
		fmt.Fprintf(r.out, "stats unavailable: %v\n", err)
		return
	}
	fmt.Fprintf(r.out, "session:   %s\n", snap.ID)
	fmt.Fprintf(r.out, "runs:      %d\n", snap.Runs)
	fmt.Fprintf(r.out, "messages:  %d\n", len(snap.State.Messages))
	fmt.Fprintf(r.out, "summaries: %d\n", len(snap.State.Summaries))
	fmt.Fprintf(r.out, "sentiment: %s\n", snap.State.Sentiment)
}

func (r *repl) styled(s string, color termenv.Color) string {
	return termenv.String(s).Foreground(r.profile.Convert(color)).String()
}
