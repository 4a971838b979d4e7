package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog/log"
	appx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/app"
	contractx "github.com/tanpawarit/Chative-Caregiver-Assistant/agent/contract"
	logx "github.com/tanpawarit/Chative-Caregiver-Assistant/pkg/logger"
	_ "github.com/tanpawarit/Chative-Caregiver-Assistant/pkg/logger/autoload"
)

type chatter interface {
	HandleMessage(ctx context.Context, q contractx.Query) (contractx.Reply, error)
}

func main() {
	// stdout carries the conversation.
	logx.SetOutput(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, err := appx.Build(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("build assistant")
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error().Err(err).Msg("close assistant")
		}
	}()

	if err := runLoop(ctx, app.Assistant, os.Stdin, os.Stdout, contractx.Query{
		UserID:       os.Getenv("CHAT_USER_ID"),
		Role:         contractx.Role(os.Getenv("CHAT_USER_ROLE")),
		ChildName:    os.Getenv("CHAT_CHILD_NAME"),
		ChildInkling: os.Getenv("CHAT_CHILD_INKLING"),
	}); err != nil {
		log.Error().Err(err).Msg("chat loop")
	}
}

// runLoop reads one query per line until exit, quit or EOF. The first reply
// fixes the conversation id for the rest of the session.
func runLoop(ctx context.Context, a chatter, in io.Reader, out io.Writer, base contractx.Query) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "Caregiver assistant. Type 'exit' or 'quit' to leave.")

	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Goodbye!")
			return scanner.Err()
		}

		text := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		q := base
		q.Text = text
		reply, err := a.HandleMessage(ctx, q)
		if err != nil {
			fmt.Fprintf(out, "Assistant: sorry, something went wrong: %v\n", err)
			continue
		}
		base.ConversationID = reply.ConversationID
		fmt.Fprintf(out, "Assistant: %s\n", reply.Text)
	}
}
