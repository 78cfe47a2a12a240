package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/corruptguard/helix/internal/bootstrap"
	domainauth "github.com/corruptguard/helix/internal/domain/auth"
	"github.com/corruptguard/helix/internal/service"
)

type demoLoginOptions struct {
	Role      domainauth.UserRole
	Principal string
}

func parseDemoLoginFlags(args []string) (demoLoginOptions, error) {
	fs := flag.NewFlagSet("demo-login", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var role string
	var opts demoLoginOptions
	fs.StringVar(&role, "role", string(domainauth.RoleCitizen), "Demo role to log in as")
	fs.StringVar(&opts.Principal, "principal", "", "Principal ID (defaults to the one issued by the backend)")

	if err := fs.Parse(args); err != nil {
		return demoLoginOptions{}, err
	}
	r, err := domainauth.ParseUserRole(role)
	if err != nil {
		return demoLoginOptions{}, fmt.Errorf("--role: %w", err)
	}
	opts.Role = r
	return opts, nil
}

func runLogin(cmdCtx *commandContext, _ []string) error {
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		user, err := app.Sessions.Login(ctx)
		if err != nil {
			return err
		}
		return printUser(cmdCtx.Out, user, app.Sessions.DemoMode())
	})
}

func runDemoLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseDemoLoginFlags(args)
	if err != nil {
		return err
	}
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		user, loginErr := app.Sessions.LoginDemo(ctx, opts.Principal, opts.Role)
		if loginErr != nil {
			return loginErr
		}
		return printUser(cmdCtx.Out, user, true)
	})
}

func runLogout(cmdCtx *commandContext, _ []string) error {
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		res := app.Sessions.Logout(ctx)
		if err := printCleanup(cmdCtx.Out, res); err != nil {
			return err
		}
		return res.Err()
	})
}

func runWhoAmI(cmdCtx *commandContext, _ []string) error {
	return withApp(cmdCtx, func(_ context.Context, app *bootstrap.App) error {
		user, ok := app.Sessions.User()
		if !ok {
			return writeln(cmdCtx.Out, "Not logged in.")
		}
		return printUser(cmdCtx.Out, user, app.Sessions.DemoMode())
	})
}

func runProfile(cmdCtx *commandContext, _ []string) error {
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		user, err := app.Sessions.GetUserProfile(ctx)
		if err != nil {
			return err
		}
		return printUser(cmdCtx.Out, user, app.Sessions.DemoMode())
	})
}

func runRefresh(cmdCtx *commandContext, _ []string) error {
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		if !app.Sessions.IsAuthenticated() {
			return errors.New("no session to refresh; run login first")
		}
		if !app.Sessions.RefreshToken(ctx) {
			return errors.New("token refresh failed; the session has been cleared")
		}
		return writeln(cmdCtx.Out, "Token refreshed.")
	})
}

func runDemoUsers(cmdCtx *commandContext, _ []string) error {
	return withApp(cmdCtx, func(ctx context.Context, app *bootstrap.App) error {
		return printDemoUsers(cmdCtx.Out, app.Sessions.GetDemoUsers(ctx))
	})
}

func printUser(w io.Writer, user domainauth.User, demo bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"Principal", user.Principal},
		{"Name", user.Name},
		{"Role", string(user.Role)},
		{"Permissions", strings.Join(user.Permissions, ", ")},
	}
	if demo {
		rows = append(rows, [2]string{"Mode", "demo"})
	}
	for _, r := range rows {
		if err := writef(tw, "%s:\t%s\n", r[0], r[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printCleanup(w io.Writer, res service.CleanupResult) error {
	status := func(err error) string {
		if err != nil {
			return "failed: " + err.Error()
		}
		return "ok"
	}
	if err := writef(w, "Backend logout: %s\n", status(res.BackendErr)); err != nil {
		return err
	}
	if err := writef(w, "Stored slots:   %s\n", status(res.StorageErr)); err != nil {
		return err
	}
	if err := writef(w, "Wallet:         %s\n", status(res.WalletErr)); err != nil {
		return err
	}
	if n := len(res.Notify.Failures); n > 0 {
		return writef(w, "Listeners:      %d delivered, %d failed\n", res.Notify.Delivered, n)
	}
	return nil
}

func printDemoUsers(w io.Writer, users []domainauth.DemoUser) error {
	if len(users) == 0 {
		return writeln(w, "No demo users available.")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "ROLE\tNAME\tTITLE\tPRINCIPAL\tAVAILABLE\n"); err != nil {
		return err
	}
	for _, u := range users {
		if err := writef(tw, "%s\t%s\t%s\t%s\t%t\n", u.Role, u.Name, u.Title, u.PrincipalID, u.Available); err != nil {
			return err
		}
	}
	return tw.Flush()
}
