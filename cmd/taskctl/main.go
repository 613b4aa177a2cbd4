package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/spec-kit/taskflow-service/internal/client"
	"github.com/spec-kit/taskflow-service/internal/session"
)

const usage = `Usage: taskctl <command> [flags]

Commands:
  login <email>   sign in and cache the session
  logout          end the session and clear the cache
  whoami          show the cached identity (--refresh asks the server)
`

const requestTimeout = 30 * time.Second

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("command is required")
	}
	switch args[0] {
	case "login":
		return login(args[1:], stdout)
	case "logout":
		return logout(args[1:], stdout)
	case "whoami":
		return whoami(args[1:], stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

type commonFlags struct {
	server      string
	sessionFile string
}

func newFlagSet(name string, common *commonFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVar(&common.server, "server", envOr("TASKFLOW_SERVER", "http://localhost:8080"), "taskflow server URL")
	fs.StringVar(&common.sessionFile, "session-file", "", "session cache path (default: $TASKFLOW_SESSION_FILE or ~/.config/taskflow/session.json)")
	return fs
}

func login(args []string, stdout io.Writer) error {
	var common commonFlags
	var passwordFile string
	fs := newFlagSet("login", &common)
	fs.StringVar(&passwordFile, "password-file", "", "file holding the password, or - to prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: taskctl login <email> [--server URL] [--password-file PATH]")
	}

	password, err := readPassword(passwordFile)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	api := client.New(common.server, nil)
	resp, err := api.SignIn(ctx, fs.Arg(0), password)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}

	store := session.NewStore(common.sessionFile)
	err = store.Save(&session.Session{
		Server: api.BaseURL(),
		User: session.User{
			ID:    resp.User.ID,
			Name:  resp.User.Name,
			Email: resp.User.Email,
			Role:  resp.User.Role,
		},
		Token:     resp.Auth.Token,
		ExpiresAt: resp.Auth.ExpiresAt,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Signed in as %s (%s)\nSession saved to %s\n", resp.User.Email, resp.User.Role, store.Path())
	return nil
}

// logout tells the server first and clears the cache whatever the outcome.
func logout(args []string, stdout io.Writer) error {
	var common commonFlags
	fs := newFlagSet("logout", &common)
	if err := fs.Parse(args); err != nil {
		return err
	}

	store := session.NewStore(common.sessionFile)
	sess, err := store.Load()
	if errors.Is(err, session.ErrNoSession) {
		fmt.Fprintln(stdout, "Not signed in")
		return nil
	}
	if err == nil && !sess.Expired(time.Now()) {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		server := sess.Server
		if fs.Changed("server") || server == "" {
			server = common.server
		}
		if err := client.New(server, nil).Logout(ctx, sess.Token); err != nil {
			fmt.Fprintln(stdout, "warning: server logout failed:", err)
		}
	}
	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "Signed out")
	return nil
}

func whoami(args []string, stdout io.Writer) error {
	var common commonFlags
	var refresh bool
	fs := newFlagSet("whoami", &common)
	fs.BoolVar(&refresh, "refresh", false, "verify the session with the server")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store := session.NewStore(common.sessionFile)
	sess, err := store.Load()
	if errors.Is(err, session.ErrNoSession) {
		return errors.New(`not signed in; run "taskctl login <email>"`)
	}
	if err != nil {
		return err
	}
	if sess.Expired(time.Now()) {
		_ = store.Clear()
		return errors.New(`session expired; run "taskctl login <email>"`)
	}

	if refresh {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		me, err := client.New(sess.Server, nil).Me(ctx, sess.Token)
		if err != nil {
			var apiErr *client.APIError
			if errors.As(err, &apiErr) && apiErr.Code == "UNAUTHORIZED" {
				_ = store.Clear()
			}
			return err
		}
		sess.User = session.User{ID: me.ID, Name: me.Name, Email: me.Email, Role: me.Role}
		if err := store.Save(sess); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "%s <%s>\nrole: %s\nid: %s\nexpires: %s\n",
		sess.User.Name, sess.User.Email, sess.User.Role, sess.User.ID, sess.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func readPassword(passwordFile string) (string, error) {
	if passwordFile != "" && passwordFile != "-" {
		data, err := os.ReadFile(passwordFile)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", passwordFile, err)
		}
		password := strings.TrimRight(string(data), "\r\n")
		if password == "" {
			return "", fmt.Errorf("file %s is empty", passwordFile)
		}
		return password, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal available for password prompt (use --password-file)")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(raw), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
