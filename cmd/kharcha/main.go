package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"kharchabook/internal/category"
	"kharchabook/internal/cli"
	"kharchabook/internal/config"
	"kharchabook/internal/handlers"
	"kharchabook/internal/logger"
	"kharchabook/internal/models"
	"kharchabook/internal/storage"
)

const usage = `Usage: kharcha <command> [flags]

Commands:
  register        -user <name> [-password <pw>] [-email <addr>]
  login           -user <name> [-password <pw>]
  logout
  reset-password  -user <name> [-password <new pw>]
  add             -amount <amt> [-date <date>] [-category <name>] [-notes <text>]
  month           [-year <yyyy>] [-month <m>]
  range           -from <date> -to <date>
  years
  budget          [-set <amt>]
  stats           [-year <yyyy>] [-month <m>]
  export          [-out <file>|-]
  categorize      [-list] <description>
  fix-dates
  help

Dates may be written as YYYY-MM-DD, MM/DD/YY or DD-MM-YYYY.
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.Config
	db     *storage.DB
	h      *handlers.Handlers
	log    zerolog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return errors.New("missing command")
	}
	command, rest := args[0], args[1:]
	switch command {
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	}

	config.LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Out:    stderr,
	})

	categorizer := category.Default()
	if cfg.CategoriesFile != "" {
		c, err := category.LoadFile(cfg.CategoriesFile)
		if err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}
		categorizer = c
	}

	if err := cfg.EnsureDBDir(); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := storage.NewDB(cfg.DBPath, storage.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	a := &app{
		cfg: cfg,
		db:  db,
		h: handlers.NewHandlers(db, categorizer, stdout,
			handlers.WithLogger(log),
			handlers.WithCurrency(cfg.Currency),
			handlers.WithSessionDuration(cfg.SessionTTL),
		),
		log:    log,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}

	switch command {
	case "register":
		return a.register(rest)
	case "login":
		return a.login(rest)
	case "logout":
		return a.logout(rest)
	case "reset-password":
		return a.resetPassword(rest)
	case "add":
		return a.add(rest)
	case "month":
		return a.month(rest)
	case "range":
		return a.dateRange(rest)
	case "years":
		return a.years(rest)
	case "budget":
		return a.budget(rest)
	case "stats":
		return a.stats(rest)
	case "export":
		return a.export(rest)
	case "categorize":
		return a.categorize(rest)
	case "fix-dates":
		return a.fixDates(rest)
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) password(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	return cli.PromptPassword(prompt, a.stdin, a.stdout)
}

// session loads the token saved by login and resolves it.
func (a *app) session() (*models.Session, error) {
	data, err := os.ReadFile(a.cfg.SessionFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: run 'kharcha login' first", handlers.ErrNotLoggedIn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	s, err := a.h.Authenticate(strings.TrimSpace(string(data)))
	if errors.Is(err, handlers.ErrNotLoggedIn) {
		_ = os.Remove(a.cfg.SessionFile)
		return nil, fmt.Errorf("%w: session expired, run 'kharcha login' again", err)
	}
	return s, err
}

func (a *app) register(args []string) error {
	fs := a.flagSet("register")
	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	email := fs.String("email", "", "Email address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		fs.PrintDefaults()
		return errors.New("missing required flags: user")
	}

	password, err := a.password(*passwordFlag, "Password: ")
	if err != nil {
		return err
	}
	return a.h.Register(*username, password, *email)
}

func (a *app) login(args []string) error {
	fs := a.flagSet("login")
	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		fs.PrintDefaults()
		return errors.New("missing required flags: user")
	}

	password, err := a.password(*passwordFlag, "Password: ")
	if err != nil {
		return err
	}

	if n, err := a.db.CleanExpiredSessions(); err != nil {
		a.log.Warn().Err(err).Msg("failed to clean expired sessions")
	} else if n > 0 {
		a.log.Debug().Int64("removed", n).Msg("expired sessions cleaned")
	}

	s, err := a.h.Login(*username, password)
	if err != nil {
		return err
	}
	if err := os.WriteFile(a.cfg.SessionFile, []byte(s.Token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (a *app) logout(args []string) error {
	if err := a.flagSet("logout").Parse(args); err != nil {
		return err
	}
	s, err := a.session()
	if err != nil {
		return err
	}
	if err := a.h.Logout(s); err != nil {
		return err
	}
	if err := os.Remove(a.cfg.SessionFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

func (a *app) resetPassword(args []string) error {
	fs := a.flagSet("reset-password")
	username := fs.String("user", "", "Username")
	passwordFlag := fs.String("password", "", "New password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" {
		fs.PrintDefaults()
		return errors.New("missing required flags: user")
	}

	password, err := a.password(*passwordFlag, "New password: ")
	if err != nil {
		return err
	}
	return a.h.ResetPassword(*username, password)
}

func (a *app) add(args []string) error {
	fs := a.flagSet("add")
	date := fs.String("date", "", "Expense date (default today)")
	amount := fs.String("amount", "", "Amount spent")
	categoryName := fs.String("category", "", "Category (derived from notes if omitted)")
	notes := fs.String("notes", "", "Free-text description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := a.session()
	if err != nil {
		return err
	}
	return a.h.AddExpense(s, *date, *amount, *categoryName, *notes)
}

func (a *app) monthFlags(name string, args []string) (year, month int, err error) {
	year, month = a.h.CurrentMonth()
	fs := a.flagSet(name)
	fs.IntVar(&year, "year", year, "Year")
	fs.IntVar(&month, "month", month, "Month (1-12)")
	if err := fs.Parse(args); err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

func (a *app) month(args []string) error {
	year, month, err := a.monthFlags("month", args)
	if err != nil {
		return err
	}
	s, err := a.session()
	if err != nil {
		return err
	}
	return a.h.ListMonth(s, year, month)
}

func (a *app) dateRange(args []string) error {
	fs := a.flagSet("range")
	from := fs.String("from", "", "Start date (inclusive)")
	to := fs.String("to", "", "End date (inclusive)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *from == "" || *to == "" {
		fs.PrintDefaults()
		return errors.New("missing required flags: from, to")
	}

	s, err := a.session()
	if err != nil {
		return err
	}
	return a.h.ListRange(s, *from, *to)
}

func (a *app) years(args []string) error {
	if err := a.flagSet("years").Parse(args); err != nil {
		return err
	}
	s, err := a.session()
	if err != nil {
		return err
	}
	return a.h.Years(s)
}

func (a *app) budget(args []string) error {
	fs := a.flagSet("budget")
	set := fs.String("set", "", "New monthly budget")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := a.session()
	if err != nil {
		return err
	}
	if *set != "" {
		return a.h.SetBudget(s, *set)
	}
	return a.h.BudgetStatus(s)
}

func (a *app) stats(args []string) error {
	year, month, err := a.monthFlags("stats", args)
	if err != nil {
		return err
	}
	s, err := a.session()
	if err != nil {
		return err
	}
	return a.h.Statistics(s, year, month)
}

func (a *app) export(args []string) error {
	fs := a.flagSet("export")
	out := fs.String("out", "expenses_export.csv", "Output file, or - for stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := a.session()
	if err != nil {
		return err
	}
	return a.h.Export(s, *out)
}

func (a *app) categorize(args []string) error {
	fs := a.flagSet("categorize")
	list := fs.Bool("list", false, "List the available categories")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *list {
		for _, name := range a.h.Categories() {
			fmt.Fprintln(a.stdout, name)
		}
		return nil
	}
	description := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(description) == "" {
		return errors.New("missing description")
	}
	a.h.Categorize(description)
	return nil
}

func (a *app) fixDates(args []string) error {
	if err := a.flagSet("fix-dates").Parse(args); err != nil {
		return err
	}
	return a.h.FixDates()
}
