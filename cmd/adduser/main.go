package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"kharchabook/internal/cli"
	"kharchabook/internal/config"
	"kharchabook/internal/logger"
	"kharchabook/internal/storage"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	email := fs.String("email", "", "Email address")
	dbPath := fs.String("db", "", "Path to database file (default KHARCHA_DB_PATH or kharcha_book.db)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> [-password <password>] [-email <email>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: user")
	}

	password := *passwordFlag
	if password == "" {
		var err error
		password, err = cli.PromptPassword("Password: ", stdin, stdout)
		if err != nil {
			return err
		}
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	config.LoadEnvFile()
	cfg := config.Load()
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	log := logger.New(logger.Config{Level: logger.ParseLevel(cfg.LogLevel), Format: cfg.LogFormat, Out: stderr})

	db, err := storage.NewDB(cfg.DBPath, storage.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ok, err := db.RegisterUser(*username, password, *email)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if !ok {
		return fmt.Errorf("user %s already exists", *username)
	}

	user, err := db.GetUserByUsername(strings.TrimSpace(*username))
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)
	return nil
}
