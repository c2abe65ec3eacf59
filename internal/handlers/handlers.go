package handlers

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"kharchabook/internal/auth"
	"kharchabook/internal/category"
	"kharchabook/internal/export"
	"kharchabook/internal/models"
	"kharchabook/internal/storage"
)

const (
	// DefaultSessionDuration is how long sessions last (30 days).
	DefaultSessionDuration = 30 * 24 * time.Hour
	// DefaultCurrency prefixes every printed amount.
	DefaultCurrency = "₹"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotLoggedIn        = errors.New("not logged in")
	ErrNoData             = errors.New("no data to export")
	ErrUserNotFound       = errors.New("username not found")
)

// Handlers is the navigation layer: every user action goes through it, and it reaches
// storage only through storage.DB operations.
type Handlers struct {
	db          *storage.DB
	categorizer *category.Categorizer
	out         io.Writer
	log         zerolog.Logger
	currency    string
	sessionTTL  time.Duration
}

// Option configures Handlers.
type Option func(*Handlers)

func WithLogger(log zerolog.Logger) Option {
	return func(h *Handlers) { h.log = log.With().Str("component", "handlers").Logger() }
}

func WithCurrency(symbol string) Option {
	return func(h *Handlers) { h.currency = symbol }
}

func WithSessionDuration(d time.Duration) Option {
	return func(h *Handlers) { h.sessionTTL = d }
}

// NewHandlers creates a new Handlers instance writing user-facing output to out.
func NewHandlers(db *storage.DB, categorizer *category.Categorizer, out io.Writer, opts ...Option) *Handlers {
	h := &Handlers{
		db:          db,
		categorizer: categorizer,
		out:         out,
		log:         zerolog.Nop(),
		currency:    DefaultCurrency,
		sessionTTL:  DefaultSessionDuration,
	}
	if h.categorizer == nil {
		h.categorizer = category.Default()
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CurrentMonth returns the year and month of the store clock.
func (h *Handlers) CurrentMonth() (year, month int) {
	now := h.db.Now()
	return now.Year(), int(now.Month())
}

func (h *Handlers) money(d decimal.Decimal) string {
	return h.currency + d.StringFixed(2)
}

// Register creates a new account.
func (h *Handlers) Register(username, password, email string) error {
	ok, err := h.db.RegisterUser(username, password, email)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrUsernameTaken, strings.TrimSpace(username))
	}
	fmt.Fprintf(h.out, "User %s registered successfully!\n", strings.TrimSpace(username))
	return nil
}

// Login checks credentials and opens a session.
func (h *Handlers) Login(username, password string) (*models.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New("username and password are required")
	}

	userID, ok, err := h.db.LoginUser(username, password)
	if err != nil {
		h.log.Error().Err(err).Str("username", username).Msg("login lookup failed")
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to generate session token")
		return nil, err
	}

	expiresAt := h.db.Now().Add(h.sessionTTL)
	if err := h.db.CreateSession(token, userID, expiresAt); err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("failed to create session")
		return nil, err
	}

	fmt.Fprintf(h.out, "Welcome, %s!\n", username)
	return &models.Session{Token: token, UserID: userID, Username: username, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves a session token. A session past the halfway point of its
// lifetime is renewed so active users stay logged in.
func (h *Handlers) Authenticate(token string) (*models.Session, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrNotLoggedIn
	}
	info, err := h.db.ValidateSessionWithInfo(token)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}

	expiresAt := info.ExpiresAt
	now := h.db.Now()
	if info.ExpiresAt.Sub(now) < h.sessionTTL/2 {
		renewed := now.Add(h.sessionTTL)
		if err := h.db.RenewSession(token, renewed); err != nil {
			// keep the current session
			h.log.Warn().Err(err).Msg("session renewal failed")
		} else {
			expiresAt = renewed
		}
	}

	return &models.Session{
		Token:     token,
		UserID:    info.User.ID,
		Username:  info.User.Username,
		ExpiresAt: expiresAt,
	}, nil
}

// Logout ends a session.
func (h *Handlers) Logout(s *models.Session) error {
	if err := h.db.DeleteSession(s.Token); err != nil {
		h.log.Error().Err(err).Msg("failed to delete session")
		return err
	}
	fmt.Fprintf(h.out, "Goodbye, %s.\n", s.Username)
	return nil
}

// ResetPassword sets a new password for an existing username.
func (h *Handlers) ResetPassword(username, newPassword string) error {
	ok, err := h.db.ResetPassword(username, newPassword)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, strings.TrimSpace(username))
	}
	fmt.Fprintln(h.out, "Password reset successfully!")
	return nil
}

// AddExpense records an expense for the session user. An empty date means today; an empty
// category is derived from the notes. A budget alert is printed when the month goes over budget.
func (h *Handlers) AddExpense(s *models.Session, date, amount, categoryName, notes string) error {
	if strings.TrimSpace(date) == "" {
		date = h.db.Today()
	}
	iso, err := storage.NormalizeDate(date)
	if err != nil {
		return err
	}
	amt, err := storage.ParseAmount(amount)
	if err != nil {
		return err
	}

	categoryName = strings.TrimSpace(categoryName)
	if categoryName == "" {
		if strings.TrimSpace(notes) == "" {
			return &storage.ValidationError{Field: "category", Err: storage.ErrRequired}
		}
		categoryName = h.categorizer.Categorize(notes)
	}

	id, err := h.db.AddExpense(s.UserID, iso, amt, categoryName, notes)
	if err != nil {
		return err
	}
	fmt.Fprintf(h.out, "Saved expense #%d: %s | %s | %s\n", id, iso, h.money(amt), categoryName)

	status, err := h.db.CheckBudgetExceeded(s.UserID)
	if err != nil {
		h.log.Warn().Err(err).Int64("user_id", s.UserID).Msg("budget check failed")
		return nil
	}
	if status.Exceeded {
		h.printBudgetAlert(status)
	}
	return nil
}

// ListMonth prints the session user's expenses for a month, oldest first.
func (h *Handlers) ListMonth(s *models.Session, year, month int) error {
	expenses, err := h.db.ExpensesByMonth(s.UserID, year, month)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		fmt.Fprintf(h.out, "No expenses found for %s %d.\n", time.Month(month), year)
		return nil
	}
	h.printExpenses(expenses)
	return nil
}

// ListRange prints the session user's expenses between two dates, newest first.
func (h *Handlers) ListRange(s *models.Session, start, end string) error {
	expenses, err := h.db.ExpensesByDateRange(s.UserID, start, end)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		fmt.Fprintln(h.out, "No expenses found for the selected dates!")
		return nil
	}
	h.printExpenses(expenses)
	return nil
}

// Years prints the years that have expenses, newest first.
func (h *Handlers) Years(s *models.Session) error {
	years, err := h.db.UniqueYears(s.UserID)
	if err != nil {
		return err
	}
	for _, y := range years {
		fmt.Fprintln(h.out, y)
	}
	return nil
}

// SetBudget stores the monthly budget for the session user.
func (h *Handlers) SetBudget(s *models.Session, amount string) error {
	amt, err := storage.ParseAmount(amount)
	if err != nil {
		return err
	}
	if err := h.db.SetMonthlyBudget(s.UserID, amt); err != nil {
		return err
	}
	fmt.Fprintf(h.out, "Monthly budget set to %s\n", h.money(amt))
	return nil
}

// BudgetStatus prints the budget, this month's spending and any overspend.
func (h *Handlers) BudgetStatus(s *models.Session) error {
	status, err := h.db.CheckBudgetExceeded(s.UserID)
	if err != nil {
		return err
	}
	if status.Budget.IsZero() {
		fmt.Fprintln(h.out, "No monthly budget set.")
		fmt.Fprintf(h.out, "Spent this month: %s\n", h.money(status.Total))
		return nil
	}

	fmt.Fprintf(h.out, "Monthly budget:   %s\n", h.money(status.Budget))
	fmt.Fprintf(h.out, "Spent this month: %s\n", h.money(status.Total))
	if status.Exceeded {
		h.printBudgetAlert(status)
		return nil
	}
	fmt.Fprintf(h.out, "Remaining:        %s\n", h.money(status.Budget.Sub(status.Total)))
	return nil
}

// Export writes all of the session user's expenses as CSV. A path of "-" writes to the output.
func (h *Handlers) Export(s *models.Session, path string) error {
	expenses, err := h.db.ListExpenses(s.UserID)
	if err != nil {
		return err
	}
	if len(expenses) == 0 {
		return ErrNoData
	}

	if path == "-" {
		return export.WriteCSV(h.out, expenses)
	}
	if err := export.ExportFile(path, expenses); err != nil {
		h.log.Error().Err(err).Str("path", path).Msg("export failed")
		return err
	}
	fmt.Fprintf(h.out, "Exported %d expenses to %s\n", len(expenses), path)
	return nil
}

// Categorize prints the category a description would be filed under.
func (h *Handlers) Categorize(description string) string {
	label := h.categorizer.Categorize(description)
	fmt.Fprintln(h.out, label)
	return label
}

// FixDates repairs expenses with missing dates.
func (h *Handlers) FixDates() error {
	n, err := h.db.FixBrokenDates()
	if err != nil {
		return err
	}
	fmt.Fprintf(h.out, "Repaired %d expense dates.\n", n)
	return nil
}

// Categories returns the configured category labels.
func (h *Handlers) Categories() []string {
	return h.categorizer.Names()
}

func (h *Handlers) printExpenses(expenses []models.Expense) {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
		line := fmt.Sprintf("%s | %s | %s", e.Date, h.money(e.Amount), e.Category)
		if e.Notes != "" {
			line += " | " + e.Notes
		}
		fmt.Fprintln(h.out, line)
	}
	fmt.Fprintf(h.out, "Total: %s\n", h.money(total))
}

func (h *Handlers) printBudgetAlert(status models.BudgetStatus) {
	fmt.Fprintf(h.out, "Budget exceeded! Spent %s of %s this month (over by %s)\n",
		h.money(status.Total), h.money(status.Budget), h.money(status.Overspend()))
}
