package core

import (
	"fmt"
	"time"
)

// MainAccount is the only account budget items are booked against.
const MainAccount = "Main Account"

// Transaction is the dashboard view of a budget item.
type Transaction struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Amount   Money     `json:"amount"` // negative for expenses
	Date     time.Time `json:"date"`
	Category string    `json:"category"`
	Account  string    `json:"account"`
	Notes    string    `json:"notes,omitempty"`
}

// TransactionFromItem maps an item to a transaction dated at its last update.
func TransactionFromItem(it BudgetItem) Transaction {
	amount := it.Amount
	label := "Income"
	if it.ItemType == ItemExpense {
		amount = amount.Neg()
		label = "Expense"
	}
	return Transaction{
		ID:       it.ID,
		Name:     it.Name,
		Amount:   amount,
		Date:     it.UpdatedAt,
		Category: it.CategoryName(),
		Account:  MainAccount,
		Notes:    fmt.Sprintf("%s for %d/%d", label, it.Period.Month, it.Period.Year),
	}
}
