package http

import (
	"net/http"

	"budget/internal/core"
	"budget/internal/services"
)

func (s *Server) handleRecentTransactions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", services.DefaultRecentLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := s.budget.RecentItems(r.Context(), userFrom(r), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]core.Transaction, 0, len(items))
	for _, it := range items {
		out = append(out, core.TransactionFromItem(it))
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req updateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	it, err := s.budget.UpdateItem(r.Context(), userFrom(r), r.PathValue("id"), req.toPatch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, core.TransactionFromItem(it))
}

func (s *Server) handleAccountSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.reports.AccountSummary(r.Context(), userFrom(r), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sum)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	p, err := parsePeriod(r, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	insights, err := s.reports.Insights(r.Context(), userFrom(r), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, insights)
}
