package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/poreview/internal/app"
	"github.com/dmitrijs2005/poreview/internal/models"
)

type Shell struct {
	app    *app.App
	reader *bufio.Reader
	out    io.Writer
}

func NewShell(a *app.App, in io.Reader, out io.Writer) *Shell {
	return &Shell{app: a, reader: bufio.NewReader(in), out: out}
}

func (s *Shell) isLoggedIn() bool {
	return s.app.Session.CurrentUser() != nil
}

// status renders "(email mode)" for the prompt.
func (s *Shell) status() string {
	who := "anonymous"
	if u := s.app.Session.CurrentUser(); u != nil {
		who = u.Email
	}
	return fmt.Sprintf("(%s %s)", who, s.app.Mode())
}

// Run blocks until the user exits or input ends.
func (s *Shell) Run(ctx context.Context) {
	unsubscribe := s.app.Session.OnAuthStateChange(func(u *models.User) {
		if u == nil {
			fmt.Fprintln(s.out, "* signed out")
			return
		}
		fmt.Fprintf(s.out, "* signed in as %s\n", u.Email)
	})
	defer unsubscribe()

	fmt.Fprintf(s.out, "poreview (%s backend, type 'help' for commands)\n", s.app.Mode())
	if u := s.app.Session.CurrentUser(); u != nil {
		fmt.Fprintf(s.out, "Welcome back, %s\n", u.DisplayName)
	}

	runREPL(ctx, s, s.status, s.reader)
}
