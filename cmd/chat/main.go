// Command chat is a terminal client for the chat relay.
//
// Usage:
//
//	chat [flags]                 open the chat window
//	chat login --email <email>   sign in (password read from stdin)
//	chat logout                  forget the saved credential
//	chat history                 list saved chats
//	chat clear                   delete all saved chats
//
// Settings are read from ~/.chatrelay/config.yaml and overridden by flags.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "chat: %v\n", err)
		os.Exit(1)
	}
}
