//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"budget/internal/core"
	ports "budget/internal/sheets"
)

// Integration tests require a real spreadsheet shared with a service account.
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegration_WriteMonth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	opts := Options{
		SpreadsheetID:   spreadsheetID,
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}
	if opts.CredentialsJSON == "" && opts.CredentialsFile == "" {
		t.Skip("service account not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := New(ctx, opts)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	cat := &core.Category{Name: "Integration", Type: core.CategoryMixed}
	p := core.PeriodOf(time.Now())
	items := []core.BudgetItem{
		{Name: "Test income", Category: cat, Amount: core.MustMoney("100"), ItemType: core.ItemIncome, Period: p, Repeat: core.OneTime},
		{Name: "Test expense", Category: cat, Amount: core.MustMoney("12.34"), ItemType: core.ItemExpense, Period: p, Repeat: core.OneTime},
	}
	sheet := ports.MonthSheet{UserID: "integration-test", Period: p, Summary: core.Aggregate(items, p), Items: items}

	// Twice: the second write must succeed against the existing tab.
	for i := 0; i < 2; i++ {
		if err := client.WriteMonth(ctx, sheet); err != nil {
			t.Fatalf("WriteMonth() #%d error = %v", i+1, err)
		}
	}
	t.Logf("Wrote tab %q", ports.TabName(sheet.UserID, p))
}
