package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// E2ETestSuite runs the built binary against a fresh database for every test.
type E2ETestSuite struct {
	suite.Suite
	dir string
	env []string
}

// SetupTest runs before each test
func (suite *E2ETestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.env = append(os.Environ(),
		"KHARCHA_DB_PATH="+filepath.Join(suite.dir, "data", "kharcha_book.db"),
		"KHARCHA_SESSION_FILE="+filepath.Join(suite.dir, ".kharcha_session"),
		"KHARCHA_LOG_LEVEL=disabled",
		"KHARCHA_CATEGORIES_FILE=",
		"KHARCHA_CURRENCY=₹",
	)
}

// kharcha runs the binary and returns stdout, stderr and the exit error.
func (suite *E2ETestSuite) kharcha(stdin string, args ...string) (string, string, error) {
	cmd := exec.Command(binPath, args...)
	cmd.Dir = suite.dir
	cmd.Env = suite.env
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func (suite *E2ETestSuite) mustRun(args ...string) string {
	out, stderr, err := suite.kharcha("", args...)
	require.NoError(suite.T(), err, "kharcha %v failed: %s", args, stderr)
	return out
}

func (suite *E2ETestSuite) login() {
	suite.mustRun("register", "-user", "testuser", "-password", "testpass123")
	out := suite.mustRun("login", "-user", "testuser", "-password", "testpass123")
	assert.Contains(suite.T(), out, "Welcome, testuser!")
}

func (suite *E2ETestSuite) TestFullFlow() {
	suite.login()

	today := time.Now().Format("2006-01-02")

	suite.mustRun("budget", "-set", "1,000")
	out := suite.mustRun("add", "-amount", "600", "-notes", "Electricity bill")
	assert.Contains(suite.T(), out, today+" | ₹600.00 | Bills")
	assert.NotContains(suite.T(), out, "Budget exceeded")

	out = suite.mustRun("add", "-amount", "₹450.50", "-category", "Food", "-notes", "team dinner")
	assert.Contains(suite.T(), out, "Budget exceeded! Spent ₹1050.50 of ₹1000.00 this month (over by ₹50.50)")

	out = suite.mustRun("month")
	assert.Contains(suite.T(), out, "Total: ₹1050.50")

	out = suite.mustRun("stats")
	assert.Contains(suite.T(), out, "Bills")
	assert.Contains(suite.T(), out, "Food")

	suite.mustRun("export")
	data, err := os.ReadFile(filepath.Join(suite.dir, "expenses_export.csv"))
	require.NoError(suite.T(), err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(suite.T(), lines, 3)
	assert.Equal(suite.T(), "Date,Amount,Category", lines[0])

	out = suite.mustRun("logout")
	assert.Contains(suite.T(), out, "Goodbye, testuser.")
}

func (suite *E2ETestSuite) TestNotLoggedIn() {
	_, stderr, err := suite.kharcha("", "month")
	require.Error(suite.T(), err)
	assert.Contains(suite.T(), stderr, "not logged in")
}

func (suite *E2ETestSuite) TestInvalidInputExitCode() {
	suite.login()

	_, stderr, err := suite.kharcha("", "add", "-amount", "-5", "-category", "Food")
	require.Error(suite.T(), err)
	exitErr, ok := err.(*exec.ExitError)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), 1, exitErr.ExitCode())
	assert.Contains(suite.T(), stderr, "invalid amount")
}

func (suite *E2ETestSuite) TestPasswordFromStdin() {
	_, stderr, err := suite.kharcha("piped-secret\n", "register", "-user", "piper")
	require.NoError(suite.T(), err, stderr)

	out, stderr, err := suite.kharcha("piped-secret\n", "login", "-user", "piper")
	require.NoError(suite.T(), err, stderr)
	assert.Contains(suite.T(), out, "Welcome, piper!")
}

func (suite *E2ETestSuite) TestDataPersistsAcrossRuns() {
	suite.login()
	suite.mustRun("add", "-date", "15-06-2023", "-amount", "99", "-category", "Health")

	out := suite.mustRun("years")
	assert.Equal(suite.T(), "2023\n", out)

	out = suite.mustRun("range", "-from", "2023-06-01", "-to", "2023-06-30")
	assert.Contains(suite.T(), out, "2023-06-15 | ₹99.00 | Health")
}

func TestE2ETestSuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
