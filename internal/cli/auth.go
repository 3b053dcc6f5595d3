package cli

import (
	"context"
	"fmt"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (s *Shell) Register(ctx context.Context) error {
	email, err := getSimpleText(s.reader, "Enter email", s.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(s.reader, "Display name (empty to use the email)", s.out)
	if err != nil {
		return err
	}
	password, err := getPassword(s.out)
	if err != nil {
		return err
	}

	if _, err := s.app.Session.SignUp(ctx, email, password, name); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Success!")
	return nil
}

func (s *Shell) Login(ctx context.Context) error {
	email, err := getSimpleText(s.reader, "Enter email", s.out)
	if err != nil {
		return err
	}
	password, err := getPassword(s.out)
	if err != nil {
		return err
	}

	_, err = s.app.Session.SignIn(ctx, email, password)
	return err
}

// Guest signs in with the reserved guest credentials.
func (s *Shell) Guest(ctx context.Context) error {
	_, err := s.app.Session.SignIn(ctx, "guest", "guest")
	return err
}

func (s *Shell) Logout(ctx context.Context) error {
	return s.app.Session.SignOut(ctx)
}

func (s *Shell) Whoami(ctx context.Context) error {
	u, err := s.app.Session.RequireUser()
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "%s <%s> id=%s backend=%s\n", u.DisplayName, u.Email, u.ID, s.app.Mode())
	return nil
}
