package core

import "github.com/shopspring/decimal"

// Summary aggregates entries into income and expense totals.
type Summary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Balance      decimal.Decimal
}

// Summarize computes the financial summary of a set of entries. Amounts are
// stored unsigned, so expenses are accumulated from their absolute value and
// the balance is income minus expense.
func Summarize(entries []LedgerEntry) Summary {
	s := Summary{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
	}
	for _, e := range entries {
		switch e.Kind {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(e.Amount)
		case Expense:
			s.TotalExpense = s.TotalExpense.Add(e.Amount)
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}
