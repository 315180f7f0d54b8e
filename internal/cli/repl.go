package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/collegetrack/collegetrack/internal/authui"
)

func (a *App) status() string {
	if user := a.session.CurrentUser(); user != nil {
		return "(" + user.Name() + ")"
	}
	return ""
}

// Run resumes any stored session and reads commands until exit or EOF.
//
//	Signed out:
//	  login | register | recover | exit
//
//	Signed in:
//	  profile | update | chat | essay | logout | exit
func (a *App) Run(ctx context.Context) error {
	a.resume(ctx)
	fmt.Fprintln(a.out, "Welcome to CollegeTrack (type 'help' for commands)")

	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprintf(a.out, "collegetrack%s> ", a.status())
		line, err := a.reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		var cmdErr error
		switch cmd := fields[0]; cmd {
		case "help":
			if a.session.IsAuthenticated() {
				fmt.Fprintln(a.out, "Available commands: profile, update, chat, essay, logout, exit")
			} else {
				fmt.Fprintln(a.out, "Available commands: login, register, recover, exit")
			}
		case "login":
			cmdErr = a.Authenticate(ctx, authui.ModeLogin)
		case "register":
			cmdErr = a.Authenticate(ctx, authui.ModeRegister)
		case "recover":
			cmdErr = a.Authenticate(ctx, authui.ModeRecover)
		case "profile":
			a.ShowProfile()
		case "update":
			cmdErr = a.UpdateProfile(ctx)
		case "chat":
			cmdErr = a.Chat(ctx)
		case "essay":
			cmdErr = a.Essay(ctx)
		case "logout":
			a.Logout(ctx)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return nil
		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			if errors.Is(cmdErr, io.EOF) {
				return nil
			}
			return cmdErr
		}
	}
}

// Logout ends the session and forgets the stored token.
func (a *App) Logout(ctx context.Context) {
	a.session.Logout(ctx)
	a.forgetToken(ctx)
	fmt.Fprintln(a.out, "Signed out.")
}
