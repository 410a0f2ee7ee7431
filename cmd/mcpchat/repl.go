package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Cyclone1070/mcpchat/internal/ui"
	"github.com/Cyclone1070/mcpchat/internal/workflow/loop"
	"github.com/effective-security/xlog"
)

const greeting = "MCP Client Started! Type 'quit' to exit, 'clear' to clear history."

// chatSession is the part of session.Session the REPL drives.
type chatSession interface {
	Banner() string
	ToolNames() []string
	Process(ctx context.Context, query string) (*loop.Result, error)
	Clear()
}

// runREPL reads queries until the user quits, input ends or ctx is done.
// It always asks the UI to quit before returning.
func runREPL(ctx context.Context, u ui.UserInterface, sess chatSession, model string) {
	defer u.Quit()
	defer func() {
		if r := recover(); r != nil {
			logger.KV(xlog.ERROR, "reason", "panic", "err", fmt.Sprint(r))
			u.WriteNotice(fmt.Sprintf("Error: %v", r))
		}
	}()

	select {
	case <-u.Ready():
	case <-ctx.Done():
		return
	}

	u.SetModel(model)
	u.SetTools(sess.ToolNames())
	u.WriteNotice(sess.Banner())
	u.WriteNotice(greeting)
	u.WriteStatus("ready", "Ready")

	for {
		input, err := u.ReadInput(ctx, "Query: ")
		if err != nil {
			return
		}

		query := strings.TrimSpace(input)
		switch strings.ToLower(query) {
		case "":
			continue
		case "quit":
			return
		case "clear":
			sess.Clear()
			u.WriteNotice("Conversation history cleared.")
			continue
		}

		res, err := sess.Process(ctx, query)
		if err != nil {
			u.WriteStatus("error", "Query failed")
			u.WriteNotice(fmt.Sprintf("Error: %v", err))
			continue
		}
		u.WriteMessage(res.Response)
		u.WriteStatus("ready", "Ready")
	}
}
