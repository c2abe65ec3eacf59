package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// BudgetTestSuite covers budget upserts and the exceeded check
type BudgetTestSuite struct {
	suite.Suite
	db     *DB
	userID int64
}

func (suite *BudgetTestSuite) SetupTest() {
	db, err := NewDB(":memory:", WithClock(march2024().Now))
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db

	ok, err := suite.db.RegisterUser("alice", "pw1", "")
	require.NoError(suite.T(), err)
	require.True(suite.T(), ok)
	id, ok, err := suite.db.LoginUser("alice", "pw1")
	require.NoError(suite.T(), err)
	require.True(suite.T(), ok)
	suite.userID = id
}

func (suite *BudgetTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *BudgetTestSuite) spend(date, amt string) {
	_, err := suite.db.AddExpense(suite.userID, date, amount(amt), "Food", "")
	require.NoError(suite.T(), err)
}

func (suite *BudgetTestSuite) TestBudgetDefaultsToZero() {
	budget, err := suite.db.MonthlyBudget(suite.userID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.userID, budget.UserID)
	assert.True(suite.T(), budget.MonthlyBudget.IsZero())
}

func (suite *BudgetTestSuite) TestSetBudgetUpserts() {
	require.NoError(suite.T(), suite.db.SetMonthlyBudget(suite.userID, amount("100")))
	require.NoError(suite.T(), suite.db.SetMonthlyBudget(suite.userID, amount("200.50")))

	budget, err := suite.db.MonthlyBudget(suite.userID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.userID, budget.UserID)
	assertAmount(suite.T(), "200.50", budget.MonthlyBudget)

	var rows int
	require.NoError(suite.T(), suite.db.conn.QueryRow("SELECT COUNT(*) FROM budget WHERE user_id = ?", suite.userID).Scan(&rows))
	assert.Equal(suite.T(), 1, rows, "at most one budget row per user")
}

func (suite *BudgetTestSuite) TestSetBudgetValidation() {
	err := suite.db.SetMonthlyBudget(suite.userID, amount("-5"))
	assert.ErrorIs(suite.T(), err, ErrInvalidAmount)

	err = suite.db.SetMonthlyBudget(0, amount("5"))
	assert.ErrorIs(suite.T(), err, ErrRequired)
}

func (suite *BudgetTestSuite) TestZeroBudgetNeverExceeded() {
	suite.spend("2024-03-01", "5000")

	status, err := suite.db.CheckBudgetExceeded(suite.userID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), status.Exceeded, "unset budget")

	require.NoError(suite.T(), suite.db.SetMonthlyBudget(suite.userID, amount("0")))
	status, err = suite.db.CheckBudgetExceeded(suite.userID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), status.Exceeded, "zero budget")
	assertAmount(suite.T(), "5000", status.Total)
	assert.True(suite.T(), status.Overspend().IsZero())
}

func (suite *BudgetTestSuite) TestBudgetExceeded() {
	require.NoError(suite.T(), suite.db.SetMonthlyBudget(suite.userID, amount("1000")))
	suite.spend("2024-03-02", "1000")
	suite.spend("2024-03-10", "500")

	status, err := suite.db.CheckBudgetExceeded(suite.userID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), status.Exceeded)
	assertAmount(suite.T(), "1000", status.Budget)
	assertAmount(suite.T(), "1500", status.Total)
	assertAmount(suite.T(), "500", status.Overspend())
}

func (suite *BudgetTestSuite) TestBudgetExactlyMetIsNotExceeded() {
	require.NoError(suite.T(), suite.db.SetMonthlyBudget(suite.userID, amount("1000")))
	suite.spend("2024-03-02", "1000")

	status, err := suite.db.CheckBudgetExceeded(suite.userID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), status.Exceeded)
}

func (suite *BudgetTestSuite) TestOnlyCurrentMonthCounts() {
	require.NoError(suite.T(), suite.db.SetMonthlyBudget(suite.userID, amount("100")))
	suite.spend("2024-02-29", "5000")
	suite.spend("2023-03-20", "5000")
	suite.spend("2024-03-20", "50")

	status, err := suite.db.CheckBudgetExceeded(suite.userID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), status.Exceeded)
	assertAmount(suite.T(), "50", status.Total)
}

// Register, log in, spend 250 in March 2024 against a budget of 200.
func (suite *BudgetTestSuite) TestAliceScenario() {
	assert.Equal(suite.T(), int64(1), suite.userID)

	_, err := suite.db.AddExpense(1, "2024-03-05", amount("250"), "Food", "")
	require.NoError(suite.T(), err)

	budget, err := suite.db.MonthlyBudget(1)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), budget.MonthlyBudget.IsZero())

	require.NoError(suite.T(), suite.db.SetMonthlyBudget(1, amount("200")))

	total, err := suite.db.MonthlyExpenseTotal(1)
	require.NoError(suite.T(), err)
	assertAmount(suite.T(), "250", total)

	status, err := suite.db.CheckBudgetExceeded(1)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), status.Exceeded)
	assertAmount(suite.T(), "200", status.Budget)
	assertAmount(suite.T(), "250", status.Total)
}

func TestBudgetSuite(t *testing.T) {
	suite.Run(t, new(BudgetTestSuite))
}
