package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/collegetrack/collegetrack/internal/authui"
	"github.com/collegetrack/collegetrack/internal/profile"
)

func (a *App) ShowProfile() {
	user := a.session.CurrentUser()
	if user == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return
	}
	fmt.Fprintf(a.out, "Name:       %s\n", user.Name())
	fmt.Fprintf(a.out, "Email:      %s\n", user.Email)
	fmt.Fprintf(a.out, "Country:    %s\n", countryName(user.Country))
	fmt.Fprintf(a.out, "Residence:  %s\n", countryName(user.Residence))
	if !user.CreatedAt.IsZero() {
		fmt.Fprintf(a.out, "Member since %s\n", user.CreatedAt.Format("January 2, 2006"))
	}
}

// UpdateProfile prompts for each editable field, keeping the current value
// on a blank answer, and saves whatever changed.
func (a *App) UpdateProfile(ctx context.Context) error {
	user := a.session.CurrentUser()
	if user == nil {
		fmt.Fprintln(a.out, "Not signed in.")
		return nil
	}

	name, err := GetTextOr(a.reader, "Display name", user.DisplayName, a.out)
	if err != nil {
		return err
	}
	a.listCountries()
	country, err := a.country("Destination country", user.Country)
	if err != nil {
		return err
	}
	residence, err := a.country("Country of residence", user.Residence)
	if err != nil {
		return err
	}

	var update profile.Update
	if name = strings.TrimSpace(name); name != user.DisplayName {
		update.DisplayName = &name
	}
	if country != user.Country {
		update.Country = &country
	}
	if residence != user.Residence {
		update.Residence = &residence
	}
	if update.Empty() {
		fmt.Fprintln(a.out, "Nothing to update.")
		return nil
	}

	if a.session.UpdateProfile(ctx, update) {
		fmt.Fprintln(a.out, "Profile updated.")
	} else {
		fmt.Fprintln(a.out, "Could not update your profile. Please try again.")
	}
	return nil
}

func countryName(code string) string {
	for _, c := range authui.Countries {
		if c.Code == code {
			return c.Name
		}
	}
	if code == "" {
		return "-"
	}
	return code
}
