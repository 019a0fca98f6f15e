// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/VA7DBI/movieAPI/auth"
	"github.com/VA7DBI/movieAPI/logging"
	"github.com/VA7DBI/movieAPI/repository"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const minPasswordLength = 6

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func init() {
	var (
		username      string
		passwordStdin bool
	)

	createAdminCmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote and reset an existing one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.Database.Users.Driver == "memory" {
				return errors.New("create-admin needs a persistent users database")
			}

			var password string
			if passwordStdin {
				password, err = readLine(cmd.InOrStdin())
			} else {
				password, err = promptPassword(cmd.ErrOrStderr())
			}
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
			if err != nil {
				return err
			}

			logger := logging.New(cfg.Log.Verbosity).WithName("create-admin")
			st, err := openStores(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			created, err := ensureAdmin(cmd.Context(), st.users, hasher, username, password)
			if err != nil {
				return err
			}
			if created {
				cmd.Printf("Created admin %q\n", username)
			} else {
				cmd.Printf("Promoted %q to admin and reset the password\n", username)
			}
			return nil
		},
	}
	createAdminCmd.Flags().StringVar(&username, "username", "", "Account name")
	createAdminCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin instead of prompting")
	_ = createAdminCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(createAdminCmd)
}

// ensureAdmin creates username as an admin, or promotes an existing account
// and replaces its password. It reports whether the account was new.
func ensureAdmin(ctx context.Context, users repository.UserRepository, hasher *auth.PasswordHasher, username, password string) (bool, error) {
	if len(password) < minPasswordLength {
		return false, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	hash, err := hasher.Hash(password)
	if err != nil {
		return false, err
	}

	_, err = users.Create(ctx, username, hash, true)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, repository.ErrDuplicateUsername) {
		return false, err
	}

	if err := users.SetAdmin(ctx, username, true); err != nil {
		return false, err
	}
	if err := users.SetPassword(ctx, username, hash); err != nil {
		return false, err
	}
	return false, nil
}

func promptPassword(w io.Writer) (string, error) {
	fmt.Fprint(w, "Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
