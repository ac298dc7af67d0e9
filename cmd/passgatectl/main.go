// Command passgatectl administers accounts directly against the database.
//
//	passgatectl [-driver sqlite|postgres] [-dsn DSN] promote EMAIL
//	passgatectl [-driver sqlite|postgres] [-dsn DSN] demote EMAIL
//	passgatectl [-driver sqlite|postgres] [-dsn DSN] create-admin NAME EMAIL
//
// create-admin reads the password from the terminal, or from the first line
// of stdin when stdin is not a terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/msomdec/passgate/internal/config"
	"github.com/msomdec/passgate/internal/domain"
	"github.com/msomdec/passgate/internal/repository"
	"github.com/msomdec/passgate/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "passgatectl:", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage: passgatectl [-driver D] [-dsn DSN] promote EMAIL | demote EMAIL | create-admin NAME EMAIL")

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("passgatectl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	driver := fs.String("driver", cfg.DatabaseDriver, "database driver (sqlite or postgres)")
	dsn := fs.String("dsn", cfg.DatabaseDSN, "database DSN or SQLite path")
	bcryptCost := fs.Int("bcrypt-cost", cfg.BcryptCost, "bcrypt cost for new passwords")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return errUsage
	}

	store, err := repository.Open(ctx, *driver, *dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	accounts := service.NewAccountService(store.Accounts(), service.NewHasher(*bcryptCost), nil, nil, nil)

	switch cmd := rest[0]; {
	case (cmd == "promote" || cmd == "demote") && len(rest) == 2:
		role := domain.RoleAdmin
		if cmd == "demote" {
			role = domain.RoleUser
		}
		if err := accounts.SetRole(ctx, rest[1], role); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s is now %s\n", rest[1], role)
	case cmd == "create-admin" && len(rest) == 3:
		password, err := readPassword(stdin, stdout)
		if err != nil {
			return err
		}
		account, err := accounts.CreateAdmin(ctx, rest[1], rest[2], password)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "created admin %s (%s)\n", account.Email, account.ID)
	default:
		return errUsage
	}
	return nil
}

func readPassword(stdin io.Reader, stdout io.Writer) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(stdout, "Password: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(stdout)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
