package http

import (
	"net/http"

	"budget/internal/core"
	"budget/internal/services"
)

// statistics resolves the {period} path value and the year/month query into
// the chart data for that range.
func (s *Server) statistics(r *http.Request) (services.Statistics, error) {
	kind, err := core.ParsePeriodKind(r.PathValue("period"))
	if err != nil {
		return services.Statistics{}, err
	}
	p, err := parsePeriod(r, s.now())
	if err != nil {
		return services.Statistics{}, err
	}
	return s.reports.Statistics(r.Context(), userFrom(r), kind, p.Year, p.Month)
}

func (s *Server) handleIncomeExpenses(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statistics(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats.IncomeExpenses)
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statistics(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats.Categories)
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	stats, err := s.statistics(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, stats.Recurring)
}

func (s *Server) handleMonthlySummaries(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", s.now().Year())
	if err != nil {
		writeError(w, r, err)
		return
	}
	sums, err := s.reports.MonthlySummaries(r.Context(), userFrom(r), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sums)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	sum, err := s.reports.Summary(r.Context(), userFrom(r), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, overviewView{
		TotalIncome:     sum.TotalIncome.Round(),
		TotalExpenses:   sum.TotalExpenses.Round(),
		RemainingBudget: sum.RemainingBudget.Round(),
	})
}
