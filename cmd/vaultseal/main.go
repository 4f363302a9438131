// Command vaultseal writes the encrypted email credential file read by the
// server's notification mailer.
//
//	EMAIL_ENCRYPTION_KEY=... vaultseal -user me@gmail.com -service gmail
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/folio/portfolio-api/internal/core/domain"
	"github.com/folio/portfolio-api/internal/infrastructure/config"
	"github.com/folio/portfolio-api/internal/infrastructure/vault"
	"github.com/folio/portfolio-api/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "vaultseal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(context.Background())
	if err != nil {
		return err
	}

	user := flag.String("user", "", "mailbox address")
	service := flag.String("service", "gmail", "provider name (gmail, outlook, ...) or SMTP host")
	path := flag.String("path", cfg.VaultPath(), "output file")
	flag.Parse()

	log := logger.Init(logger.Options{Level: "warn", Pretty: true, Output: os.Stderr, Service: "vaultseal"})

	in := bufio.NewReader(os.Stdin)
	if *user == "" {
		fmt.Fprint(os.Stderr, "Email address: ")
		line, err := in.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read user: %w", err)
		}
		*user = strings.TrimSpace(line)
	}

	password, err := readPassword(in)
	if err != nil {
		return err
	}

	creds := domain.MailCredentials{User: *user, Password: password, Service: *service}
	if !creds.Complete() {
		return errors.New("user, password and service are required")
	}

	if err := vault.New(*path, cfg.Vault.Secret, log).Write(creds); err != nil {
		return fmt.Errorf("write %s: %w", *path, err)
	}
	fmt.Fprintf(os.Stderr, "credentials sealed to %s\n", *path)
	return nil
}

// readPassword prompts without echo on a terminal and reads a plain line
// otherwise, so the command can be scripted.
func readPassword(in *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "App password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
