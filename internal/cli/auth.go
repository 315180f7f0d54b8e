package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/collegetrack/collegetrack/internal/authui"
)

// Authenticate runs the sign-in dialog starting in mode until it closes,
// either signed in or cancelled.
func (a *App) Authenticate(ctx context.Context, mode authui.Mode) error {
	a.modal.Open(mode)
	defer func() {
		if a.modal.IsOpen() {
			a.modal.Close()
		}
	}()

	for a.modal.IsOpen() {
		fmt.Fprintf(a.out, "\n== %s ==\n", a.modal.Title())
		if notice := a.modal.Notice(); notice != "" {
			fmt.Fprintln(a.out, notice)
		}

		var err error
		switch a.modal.Mode() {
		case authui.ModeLogin:
			err = a.fillLogin()
		case authui.ModeRegister:
			err = a.fillRegister()
		case authui.ModeRecover:
			err = a.fillRecover()
		case authui.ModeRecoverySuccess:
			err = a.showRecoveryCode()
		}
		if err != nil {
			return err
		}

		a.modal.Submit(ctx)

		if msg := a.modal.Error(); msg != "" {
			fmt.Fprintln(a.out, "Error:", msg)
			next, err := GetSimpleText(a.reader, "Press Enter to try again, or type login, register, recover, show or cancel", a.out)
			if err != nil {
				return err
			}
			switch strings.ToLower(next) {
			case "login":
				a.modal.Switch(authui.ModeLogin)
			case "register":
				a.modal.Switch(authui.ModeRegister)
			case "recover":
				a.modal.Switch(authui.ModeRecover)
			case "show":
				a.modal.TogglePassword()
			case "cancel":
				a.modal.Close()
			}
		}
	}

	if a.session.IsAuthenticated() {
		a.rememberToken(ctx)
	}
	return nil
}

func (a *App) fillLogin() error {
	email, err := GetTextOr(a.reader, "Email", a.modal.Form.Email, a.out)
	if err != nil {
		return err
	}
	password, err := a.secret("Password")
	if err != nil {
		return err
	}
	a.modal.Form.Email = email
	a.modal.Form.Password = password
	return nil
}

func (a *App) fillRegister() error {
	email, err := GetTextOr(a.reader, "Email", a.modal.Form.Email, a.out)
	if err != nil {
		return err
	}
	password, err := a.secret("Password (8+ characters, upper and lower case, a number)")
	if err != nil {
		return err
	}
	name, err := GetTextOr(a.reader, "Display name", a.modal.Form.DisplayName, a.out)
	if err != nil {
		return err
	}
	a.listCountries()
	country, err := a.country("Destination country", a.modal.Form.Country)
	if err != nil {
		return err
	}
	residence, err := a.country("Country of residence", a.modal.Form.Residence)
	if err != nil {
		return err
	}

	a.modal.Form.Email = email
	a.modal.Form.Password = password
	a.modal.Form.DisplayName = name
	a.modal.Form.Country = country
	a.modal.Form.Residence = residence
	return nil
}

func (a *App) fillRecover() error {
	email, err := GetTextOr(a.reader, "Email", a.modal.Form.Email, a.out)
	if err != nil {
		return err
	}
	code, err := GetSimpleText(a.reader, "Recovery code", a.out)
	if err != nil {
		return err
	}
	password, err := a.secret("New password")
	if err != nil {
		return err
	}
	a.modal.Form.Email = email
	a.modal.Form.RecoveryCode = code
	a.modal.Form.NewPassword = password
	return nil
}

// showRecoveryCode keeps the code on screen until the user continues.
func (a *App) showRecoveryCode() error {
	fmt.Fprintf(a.out, "Your recovery code: %s\n%s\n", a.modal.RecoveryCode(), a.modal.Warning())
	for {
		answer, err := GetSimpleText(a.reader, "Type copy to copy it to the clipboard, or press Enter to continue", a.out)
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "copy") {
			return nil
		}
		if a.modal.CopyRecoveryCode() && a.modal.Copied() {
			fmt.Fprintln(a.out, "Copied!")
		} else if msg := a.modal.Error(); msg != "" {
			fmt.Fprintln(a.out, "Error:", msg)
		}
	}
}

func (a *App) listCountries() {
	fmt.Fprintln(a.out, "Countries:")
	for _, c := range authui.Countries {
		fmt.Fprintf(a.out, "  %s  %s\n", c.Code, c.Name)
	}
}

func (a *App) country(prompt, current string) (string, error) {
	for {
		code, err := GetTextOr(a.reader, prompt, current, a.out)
		if err != nil {
			return "", err
		}
		code = strings.ToUpper(code)
		if authui.ValidCountry(code) {
			return code, nil
		}
		fmt.Fprintf(a.out, "Unknown country %q\n", code)
	}
}

// secret reads a password, echoing it only when the dialog shows passwords.
func (a *App) secret(prompt string) (string, error) {
	if a.modal.PasswordVisible() {
		return GetSimpleText(a.reader, prompt, a.out)
	}
	return GetPassword(prompt, a.out)
}
