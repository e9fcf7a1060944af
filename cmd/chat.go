package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssep-lab/ssep-search/search/assistant"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the optimization assistant (type exit or quit to leave)",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := setup()
		client := cfg.newChatClient()
		if client == nil {
			logrus.Fatalf("The assistant is disabled (USE_GPT / assistant.enabled)")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := runChat(ctx, assistant.NewSession(client), cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("Chat failed: %v", err)
		}
	},
}

// runChat reads one message per line until EOF, exit or quit. A failed turn is
// reported and the session continues.
func runChat(ctx context.Context, session *assistant.Session, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "EHD Optimizer Chat - type 'exit' to quit")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "exit", "quit":
			return nil
		case "":
			continue
		}
		reply, err := session.Send(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logrus.Errorf("assistant: %v", err)
			continue
		}
		fmt.Fprintf(out, "Assistant: %s\n", reply)
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
