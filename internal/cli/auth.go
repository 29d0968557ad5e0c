package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/perfumery/internal/model"
)

// userView is the JSON shape of session commands.
type userView struct {
	Authenticated bool        `json:"authenticated"`
	User          *model.User `json:"user,omitempty"`
	Tree          string      `json:"tree"`
	BasketUnits   int         `json:"basketUnits"`
}

func (a *App) userView() userView {
	v := userView{Tree: a.Tree().Name, BasketUnits: a.Cart.Snapshot().Count()}
	if u, ok := a.Session.User(); ok {
		v.Authenticated = true
		v.User = &u
	}
	return v
}

func newAuthCommand(app *App, opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign in, register and sign out",
	}
	cmd.AddCommand(
		newLoginCommand(app, opts),
		newSignupCommand(app, opts),
		newLogoutCommand(app, opts),
		newWhoamiCommand(app, opts),
	)
	return cmd
}

func newLoginCommand(app *App, opts *RootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and merge the local basket into the account cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			ctx := cmd.Context()

			user, err := app.Session.SignIn(ctx, email, password)
			if err != nil {
				return err
			}
			f.VerboseLog("signed in as %s", user.ID)
			if _, err := app.Cart.SyncCart(ctx); err != nil {
				app.Logger.Warn("cli: basket merge after sign in failed", zap.Error(err))
			}
			return f.Emit(app.userView(), func() {
				f.Printf("Signed in as %s (%s)\n", user.DisplayName(), user.Role)
				f.Printf("Basket: %d item(s)\n", app.Cart.Snapshot().Count())
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSignupCommand(app *App, opts *RootOptions) *cobra.Command {
	var reg model.Registration
	var gender string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			ctx := cmd.Context()

			g, err := parseGender(gender)
			if err != nil {
				return err
			}
			reg.Gender = g
			user, err := app.Session.SignUp(ctx, reg)
			if err != nil {
				return err
			}
			if _, err := app.Cart.SyncCart(ctx); err != nil {
				app.Logger.Warn("cli: basket merge after sign up failed", zap.Error(err))
			}
			return f.Emit(app.userView(), func() {
				f.Printf("Welcome, %s\n", user.DisplayName())
			})
		},
	}

	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "password")
	cmd.Flags().StringVar(&reg.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&reg.LastName, "last-name", "", "last name")
	cmd.Flags().IntVar(&reg.Age, "age", 0, "age")
	cmd.Flags().StringVar(&gender, "gender", "", "male|female|other")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(app *App, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the local basket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			ctx := cmd.Context()

			app.Session.Logout(ctx)
			if err := app.Store.ClearCookies(ctx); err != nil {
				return err
			}
			app.Client.Jar().Reset()
			// anonymous now, so this only clears the local copy
			if _, err := app.Cart.EmptyCart(ctx); err != nil {
				return err
			}
			return f.Emit(app.userView(), func() {
				fmt.Fprintln(f.Writer, "Signed out")
			})
		},
	}
}

func newWhoamiCommand(app *App, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			v := app.userView()
			return f.Emit(v, func() {
				if !v.Authenticated {
					f.Printf("Not signed in (%s)\n", v.Tree)
					return
				}
				f.Printf("%s <%s>\n", v.User.DisplayName(), v.User.Email)
				f.Printf("role: %s (%s)\n", v.User.Role, v.Tree)
			})
		},
	}
}

func newAccountCommand(app *App, opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Profile and password",
	}
	cmd.AddCommand(
		newAccountShowCommand(app, opts),
		newAccountUpdateCommand(app, opts),
		newAccountPasswordCommand(app, opts),
	)
	return cmd
}

func newAccountShowCommand(app *App, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			user, ok := app.Session.User()
			if !ok {
				return errNotSignedIn()
			}
			return f.Emit(user, func() { printProfile(f, user) })
		},
	}
}

func newAccountUpdateCommand(app *App, opts *RootOptions) *cobra.Command {
	var upd model.ProfileUpdate
	var gender string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change name, age or gender",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			current, ok := app.Session.User()
			if !ok {
				return errNotSignedIn()
			}
			// unset flags keep the current profile values
			if !cmd.Flags().Changed("first-name") {
				upd.FirstName = current.FirstName
			}
			if !cmd.Flags().Changed("last-name") {
				upd.LastName = current.LastName
			}
			if !cmd.Flags().Changed("age") {
				upd.Age = current.Age
			}
			upd.Gender = current.Gender
			if cmd.Flags().Changed("gender") {
				g, err := parseGender(gender)
				if err != nil {
					return err
				}
				upd.Gender = g
			}

			user, err := app.Session.UpdateProfile(cmd.Context(), upd)
			if err != nil {
				return err
			}
			return f.Emit(user, func() { printProfile(f, user) })
		},
	}

	cmd.Flags().StringVar(&upd.Password, "password", "", "current password, required to confirm")
	cmd.Flags().StringVar(&upd.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&upd.LastName, "last-name", "", "last name")
	cmd.Flags().IntVar(&upd.Age, "age", 0, "age")
	cmd.Flags().StringVar(&gender, "gender", "", "male|female|other")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAccountPasswordCommand(app *App, opts *RootOptions) *cobra.Command {
	var oldPassword, newPassword string

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			if err := app.Session.ChangePassword(cmd.Context(), oldPassword, newPassword); err != nil {
				return err
			}
			return f.Emit(map[string]bool{"changed": true}, func() {
				fmt.Fprintln(f.Writer, "Password changed")
			})
		},
	}

	cmd.Flags().StringVar(&oldPassword, "old", "", "current password")
	cmd.Flags().StringVar(&newPassword, "new", "", "new password")
	_ = cmd.MarkFlagRequired("old")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}

func printProfile(f *OutputFormatter, u model.User) {
	f.Printf("%s <%s>\n", u.DisplayName(), u.Email)
	if u.Age > 0 {
		f.Printf("age:    %d\n", u.Age)
	}
	if u.Gender != "" {
		f.Printf("gender: %s\n", u.Gender)
	}
	f.Printf("role:   %s\n", u.Role)
}

func parseGender(s string) (model.Gender, error) {
	switch g := model.Gender(s); g {
	case "", model.GenderMale, model.GenderFemale, model.GenderOther:
		return g, nil
	}
	return "", usageError("unknown gender %q: want male, female or other", s)
}
