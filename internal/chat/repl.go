package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mwiater/reviewrag/internal/logging"
)

const (
	// Banner is printed before every question.
	Banner = "\n\n===================================="
	// Prompt asks for the next question.
	Prompt = "Ask your question (q to quit): "
)

var errorColor = color.New(color.FgRed)

// RunREPL reads questions from in until the quit token, end of input or an interrupt
// (cancellation of ctx). Per-question errors are printed and logged and the loop continues.
func RunREPL(ctx context.Context, s *Session, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	promptText := Prompt
	if s.QuitToken() != "q" {
		promptText = fmt.Sprintf("Ask your question (%s to quit): ", s.QuitToken())
	}

	for {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.Canceled) {
				logging.LogEvent("[CHAT] Interrupted")
				return nil
			}
			return err
		}
		fmt.Fprintln(out, Banner)
		fmt.Fprint(out, promptText)

		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read question: %w", readErr)
		}
		atEOF := readErr != nil
		if atEOF && line == "" {
			fmt.Fprintln(out)
			logging.LogEvent("[CHAT] End of input")
			return nil
		}
		question := strings.TrimRight(line, "\r\n")
		fmt.Fprint(out, "\n\n\n")

		if s.IsQuit(question) {
			logging.LogEvent("[CHAT] Quit requested")
			return nil
		}
		if strings.TrimSpace(question) != "" {
			answer, err := s.Ask(ctx, question)
			if err != nil {
				logging.LogEvent("[CHAT] Question failed: %v", err)
				errorColor.Fprintf(out, "Error: %v\n", err)
			} else {
				fmt.Fprintln(out, answer.Text)
			}
		}

		if atEOF {
			logging.LogEvent("[CHAT] End of input")
			return nil
		}
	}
}
