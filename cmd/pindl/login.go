package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pindl/pkg/auth"
	"pindl/pkg/session"
	"pindl/pkg/ui"
)

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to Pinterest and store the session",
	Long: `Open a browser, walk the Pinterest sign in form and store the resulting
session cookies for later download runs.

Credentials are read from PINDL_EMAIL and PINDL_PASSWORD, or prompted
interactively. Cookies go to the system keychain when available, otherwise
to an encrypted file.`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig(nil)
	if err != nil {
		return err
	}

	email := cfg.Pinterest.Email
	password := cfg.Pinterest.Password
	if email == "" {
		email, err = promptLine("Email: ")
		if err != nil {
			return err
		}
	}
	if password == "" {
		password, err = promptPassword("Password: ")
		if err != nil {
			return err
		}
	}
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	// The sign in form needs a visible browser; Pinterest blocks headless
	// login attempts.
	cfg.Browser.Headless = false

	ctx := context.Background()
	sess, err := session.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer sess.Close()

	ui.PrintInfo("Signing in as", email)
	if err := sess.Login(ctx, email, password); err != nil {
		ui.PrintError("Login failed", err.Error())
		return err
	}

	cookies, err := sess.Cookies()
	if err != nil {
		return err
	}
	set := auth.CookieSet(cookies)
	if err := set.Valid(); err != nil {
		ui.PrintError("Login did not produce a valid session", err.Error())
		return err
	}

	store, err := auth.NewStore(auth.DefaultStorePath(cfg.Pinterest.CookieFile))
	if err != nil {
		return err
	}
	if err := store.Save(set); err != nil {
		return err
	}

	ui.PrintSuccess("Session stored")
	return nil
}

func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}
