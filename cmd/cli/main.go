package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/MartinaC181/MiGymApp-sub000/internal/app"
	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/infrastructure/logger"
	"github.com/MartinaC181/MiGymApp-sub000/internal/kvstore"
	"github.com/MartinaC181/MiGymApp-sub000/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]
	if command == "help" {
		printUsage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, logger.NewLogger(getEnv("MIGYM_CLI_LOG_LEVEL", "warn")))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	switch command {
	case "auth":
		err = handleAuth(ctx, a, args)
	case "users":
		err = listUsers(ctx, a, args)
	case "classes":
		err = listClasses(ctx, a, args)
	case "payments":
		err = handlePayments(ctx, a, args)
	case "keys":
		err = handleKeys(ctx, a, args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: migym auth <login|logout|who>")
		return nil
	}

	switch args[0] {
	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "password")
		remember := fs.Bool("remember", false, "restore this session on next start")
		_ = fs.Parse(args[1:])

		if *email == "" || *password == "" {
			fs.PrintDefaults()
			return fmt.Errorf("email and password are required")
		}
		res, err := a.Auth.Login(ctx, *email, *password)
		if err != nil {
			return err
		}
		if _, err := a.Auth.StartDeviceSession(ctx, res, *remember); err != nil {
			return err
		}
		fmt.Printf("✓ Logged in as %s (%s)\n", res.User.DisplayName(), res.User.Role())
		fmt.Printf("  Token expires %s\n", res.ExpiresAt.Format(time.RFC3339))
	case "logout":
		if err := a.Auth.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("✓ Logged out")
	case "who":
		s, ok := a.Repos.Sessions.GetSession(ctx)
		if !ok || !s.IsAuthenticated {
			fmt.Println("Not logged in")
			return nil
		}
		u, _ := a.Repos.Sessions.GetCurrentUser(ctx)
		name := s.CurrentUserID
		if u != nil {
			name = u.DisplayName()
		}
		fmt.Printf("%s (%s) since %s, remember=%t\n", name, s.Role, s.CreatedAt.Format(time.RFC3339), s.RememberMe)
	default:
		return fmt.Errorf("unknown auth command: %s", args[0])
	}
	return nil
}

func listUsers(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("users", flag.ExitOnError)
	role := fs.String("role", "", "client or gym (default: both)")
	_ = fs.Parse(args)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROLE\tNAME\tEMAIL\tGYM\tPAID")
	for _, u := range a.Repos.Users.ListUsers(ctx, domain.Role(*role)) {
		gym, paid := "-", "-"
		if u.Role() == domain.RoleClient {
			if u.Client.GymID != "" {
				gym = u.Client.GymID
			}
			paid = fmt.Sprintf("%t", u.Client.IsPaymentUpToDate)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", u.ID(), u.Role(), u.DisplayName(), u.Email(), gym, paid)
	}
	return w.Flush()
}

func listClasses(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("classes", flag.ExitOnError)
	gymID := fs.String("gym", "", "gym id (default: active classes of every gym)")
	_ = fs.Parse(args)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGYM\tNAME\tCAPACITY\tACTIVE\tSLOTS")
	row := func(gym string, c domain.Class) {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%t\t%d\n", c.ID, gym, c.Nombre, c.CupoMaximo, c.Activa, len(c.Slots()))
	}
	if *gymID != "" {
		for _, c := range a.Repos.Classes.GetGymClasses(ctx, *gymID) {
			row(*gymID, c)
		}
	} else {
		for _, c := range a.Repos.Classes.GetAvailableClasses(ctx) {
			row(c.GymID, c.Class)
		}
	}
	return w.Flush()
}

func handlePayments(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: migym payments <summary|history|reconcile>")
		return nil
	}

	fs := flag.NewFlagSet(args[0], flag.ExitOnError)
	gymID := fs.String("gym", "", "gym id")
	clientID := fs.String("client", "", "client id (history only)")
	_ = fs.Parse(args[1:])

	switch args[0] {
	case "summary":
		if *gymID == "" {
			return fmt.Errorf("-gym is required")
		}
		s := a.Repos.Payments.GetGymPaymentsSummary(ctx, *gymID)
		fmt.Printf("Collected:  %.2f (%d payments)\n", s.TotalRecaudado, s.PagosCompletados)
		fmt.Printf("Pending:    %.2f (%d payments)\n", s.PagosPendientes, s.CantidadPendientes)
		fmt.Printf("Clients:    %d\n", s.TotalClientes)
	case "history":
		if *gymID == "" {
			return fmt.Errorf("-gym is required")
		}
		history := a.Repos.Payments.GetGymPaymentHistory(ctx, *gymID)
		if *clientID != "" {
			history = a.Repos.Payments.GetClientPaymentHistory(ctx, *gymID, *clientID)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCLIENT\tPERIOD\tAMOUNT\tMETHOD\tSTATUS\tINVOICE")
		for _, p := range history {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\t%s\t%s\n", p.ID, p.ClientID, p.Periodo, p.Monto, p.MetodoPago, p.Estado, p.NumeroFactura)
		}
		return w.Flush()
	case "reconcile":
		w := a.ReconcileWorker()
		if w == nil {
			return fmt.Errorf("reconciler is disabled")
		}
		fmt.Printf("✓ Repaired %d client payment flags\n", w.RunOnce(ctx))
	default:
		return fmt.Errorf("unknown payments command: %s", args[0])
	}
	return nil
}

func handleKeys(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 1 {
		fmt.Println("Usage: migym keys <list|purge>")
		return nil
	}

	fs := flag.NewFlagSet(args[0], flag.ExitOnError)
	prefix := fs.String("prefix", "", "key prefix")
	yes := fs.Bool("yes", false, "confirm deletion (purge only)")
	_ = fs.Parse(args[1:])

	keys, err := kvstore.KeysWithPrefix(ctx, a.Store, *prefix)
	if err != nil {
		return err
	}

	switch args[0] {
	case "list":
		for _, k := range keys {
			fmt.Println(k)
		}
	case "purge":
		if strings.TrimSpace(*prefix) == "" {
			return fmt.Errorf("-prefix is required")
		}
		if !*yes {
			fmt.Printf("%d keys match %q; rerun with -yes to delete them\n", len(keys), *prefix)
			return nil
		}
		if err := a.Store.RemoveMany(ctx, keys); err != nil {
			return err
		}
		fmt.Printf("✓ Removed %d keys\n", len(keys))
	default:
		return fmt.Errorf("unknown keys command: %s", args[0])
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printUsage() {
	fmt.Print(`MiGym admin CLI

Usage:
  migym <command> [options]

Commands:
  auth       Device session (login, logout, who)
  users      List users (-role client|gym)
  classes    List classes (-gym <id>)
  payments   Gym billing (summary, history, reconcile)
  keys       Inspect or purge raw store keys (list, purge)
  help       Show this help message

The CLI opens the same store as the server; see STORE_BACKEND and friends.

Examples:
  migym auth login -email owner@gym.test -password secret -remember
  migym classes -gym gym-3f2a...
  migym payments summary -gym gym-3f2a...
  migym keys purge -prefix userClasses: -yes
`)
}
