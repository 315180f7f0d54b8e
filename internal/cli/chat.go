package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/collegetrack/collegetrack/internal/chat"
)

const chatHelp = `Chat commands:
  /new          start a new chat
  /list         list your chats
  /open <n>     open chat number n from /list
  /delete       delete the open chat
  /back         return to the main menu
Anything else is sent to the assistant.`

// Chat runs the general chat screen until the user leaves it.
func (a *App) Chat(ctx context.Context) error {
	user := a.session.CurrentUser()
	if user == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}

	view := chat.NewView(*user, a.chats, a.relay, a.logger)
	if err := view.Load(ctx); err != nil {
		a.logger.WarnContext(ctx, "load chats", "error", err)
		fmt.Fprintln(a.out, "Could not load your saved chats.")
	}
	if view.Current() == nil {
		if _, err := view.NewConversation(ctx); err != nil {
			return err
		}
	}
	printConversation(a, view.Current())
	fmt.Fprintln(a.out, "Type /help for chat commands.")

	for {
		line, err := GetSimpleText(a.reader, "", a.out)
		if err != nil {
			return err
		}
		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "":
			continue
		case "/help":
			fmt.Fprintln(a.out, chatHelp)
		case "/back":
			return nil
		case "/new":
			if _, err := view.NewConversation(ctx); err != nil {
				a.logger.WarnContext(ctx, "new chat", "error", err)
				fmt.Fprintln(a.out, "Could not start a new chat.")
				continue
			}
			printConversation(a, view.Current())
		case "/list":
			current := view.Current()
			for i, c := range view.Conversations() {
				marker := " "
				if current != nil && current.ID == c.ID {
					marker = "*"
				}
				fmt.Fprintf(a.out, "%s %d. %s (%s)\n", marker, i+1, c.Title, c.CreatedAt.Local().Format("Jan 2 15:04"))
			}
		case "/open":
			convs := view.Conversations()
			n, err := strconv.Atoi(strings.TrimSpace(arg))
			if err != nil || n < 1 || n > len(convs) {
				fmt.Fprintln(a.out, "Usage: /open <n>")
				continue
			}
			view.Select(convs[n-1].ID)
			printConversation(a, view.Current())
		case "/delete":
			if err := view.Remove(ctx); err != nil {
				a.logger.WarnContext(ctx, "delete chat", "error", err)
				fmt.Fprintln(a.out, "Could not delete the chat.")
				continue
			}
			if view.Current() == nil {
				if _, err := view.NewConversation(ctx); err != nil {
					return err
				}
			}
			printConversation(a, view.Current())
		default:
			if reply, ok := view.Send(ctx, line); ok {
				printMessage(a, reply)
			}
		}
	}
}

// Essay runs the essay assistant screen. Its transcript is not saved.
func (a *App) Essay(ctx context.Context) error {
	user := a.session.CurrentUser()
	if user == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}

	assistant := chat.NewEssayAssistant(*user, a.relay)
	for _, m := range assistant.Messages() {
		printMessage(a, m)
	}
	fmt.Fprintln(a.out, "Type /back to return to the main menu.")

	for {
		line, err := GetSimpleText(a.reader, "", a.out)
		if err != nil {
			return err
		}
		switch {
		case line == "":
			continue
		case line == "/back":
			return nil
		case assistant.Category() == "":
			if !assistant.SelectCategory(line) {
				fmt.Fprintln(a.out, "Please choose 1, 2 or 3.")
				continue
			}
			msgs := assistant.Messages()
			printMessage(a, msgs[len(msgs)-1])
		default:
			if reply, ok := assistant.Send(ctx, line); ok {
				printMessage(a, reply)
			}
		}
	}
}

func printConversation(a *App, c *chat.Conversation) {
	if c == nil {
		return
	}
	fmt.Fprintf(a.out, "\n-- %s --\n", c.Title)
	for _, m := range c.Messages {
		printMessage(a, m)
	}
}

func printMessage(a *App, m chat.Message) {
	who := "You"
	if m.Sender == chat.SenderBot {
		who = "Assistant"
	}
	fmt.Fprintf(a.out, "[%s] %s: %s\n", m.Timestamp.Local().Format("15:04"), who, m.Content)
}
