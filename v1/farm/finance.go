package farm

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Aleph-Alpha/farmstore/v1/engine"
	"github.com/Aleph-Alpha/farmstore/v1/store"
)

// Finance entry types.
const (
	EntryIncome  = "income"
	EntryExpense = "expense"
)

// Entry is a finance booking to record.
type Entry struct {
	FarmID      string
	Type        string
	Category    string
	Amount      decimal.Decimal
	Date        time.Time
	Description string
}

// Summary totals the finance entries of a farm. ByCategory holds the net of
// each category: income adds, expenses subtract.
type Summary struct {
	Income     decimal.Decimal
	Expense    decimal.Decimal
	Net        decimal.Decimal
	ByCategory map[string]decimal.Decimal
	Entries    int
}

// FinanceRepository stores income and expense entries.
type FinanceRepository struct {
	Repository
}

// NewFinanceRepository creates the finance repository.
func NewFinanceRepository(f *store.Facade) *FinanceRepository {
	return &FinanceRepository{Repository: NewRepository(f, TableFinanceEntries)}
}

// Record stores e. The amount must be positive; the type says which way it
// counts.
func (r *FinanceRepository) Record(ctx context.Context, e Entry) (engine.Row, error) {
	if e.Type != EntryIncome && e.Type != EntryExpense {
		return nil, invalid("finance entry type must be income or expense", map[string]any{"type": e.Type})
	}
	if !e.Amount.IsPositive() {
		return nil, invalid("finance entry amount must be positive", map[string]any{"amount": e.Amount.String()})
	}
	if e.Date.IsZero() {
		e.Date = r.now()
	}

	return r.Create(ctx, map[string]any{
		"farm_id":     e.FarmID,
		"entry_type":  e.Type,
		"category":    strings.TrimSpace(e.Category),
		"amount":      e.Amount.StringFixed(2),
		"entry_date":  Date(e.Date),
		"description": e.Description,
	})
}

// Summary totals the entries of farmID dated within [from, to]. A zero bound
// is open.
func (r *FinanceRepository) Summary(ctx context.Context, farmID string, from, to time.Time) (*Summary, error) {
	var b strings.Builder
	b.WriteString("SELECT entry_type, category, amount FROM finance_entries WHERE farm_id = ?")
	args := []any{farmID}
	if !from.IsZero() {
		b.WriteString(" AND entry_date >= ?")
		args = append(args, Date(from))
	}
	if !to.IsZero() {
		b.WriteString(" AND entry_date <= ?")
		args = append(args, Date(to))
	}

	res, err := r.query(ctx, store.OpQuery, b.String(), args...)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Income:     decimal.Zero,
		Expense:    decimal.Zero,
		ByCategory: make(map[string]decimal.Decimal),
	}
	for _, row := range res.Rows {
		amount, err := toDecimal(row["amount"])
		if err != nil {
			return nil, store.NewError(store.CodeDatabaseError, "unexpected finance amount", map[string]any{
				"table": TableFinanceEntries,
			}, err)
		}
		category := toString(row["category"])

		switch toString(row["entry_type"]) {
		case EntryIncome:
			sum.Income = sum.Income.Add(amount)
			sum.ByCategory[category] = sum.ByCategory[category].Add(amount)
		case EntryExpense:
			sum.Expense = sum.Expense.Add(amount)
			sum.ByCategory[category] = sum.ByCategory[category].Sub(amount)
		default:
			continue
		}
		sum.Entries++
	}
	sum.Net = sum.Income.Sub(sum.Expense)
	return sum, nil
}
