// Package submission reconciles loan/savings request records arriving
// from multiple role-scoped data pulls into one list keyed by submission
// id.
package submission

import (
	"strings"

	domain "koperasi-collection-backend/internal/domain/submission"
	"koperasi-collection-backend/pkg/schedule"
	"koperasi-collection-backend/pkg/sheet"
)

// Reconciler merges submission sheets across fetches. Later-seen records
// for the same id overwrite earlier ones; insertion order is preserved
// for the flattened output.
type Reconciler struct {
	byID  map[string]domain.LoanSubmission
	order []string
}

func NewReconciler() *Reconciler {
	return &Reconciler{byID: make(map[string]domain.LoanSubmission)}
}

// Merge folds one submission sheet in. The source key decides the
// subtype: savings sheets produce withdrawal requests, everything else is
// a loan request.
func (r *Reconciler) Merge(list []sheet.Record, sourceKey string) {
	subType := domain.TypeLoan
	if strings.Contains(strings.ToLower(sourceKey), "simpanan") {
		subType = domain.TypeSavingsWithdrawal
	}

	for _, rec := range list {
		if len(rec) == 0 {
			continue
		}
		id := strings.TrimSpace(sheet.Stringify(rec["id_pengajuan"]))
		if id == "" {
			id = strings.TrimSpace(sheet.Stringify(rec["id"]))
		}
		if id == "" {
			continue
		}

		status := domain.Status(sheet.String(rec, []string{"status"}))
		if status == "" {
			// default only when the record carries no status at all
			status = domain.StatusPending
		}

		sub := domain.LoanSubmission{
			ID:         id,
			Date:       schedule.ParseDate(rec["tanggal"]),
			CustomerID: sheet.String(rec, []string{"id_nasabah"}),
			Nama:       sheet.String(rec, []string{"nama"}),
			Amount:     sheet.Number(rec, []string{"jumlah"}),
			Tenor:      int(sheet.Number(rec, []string{"tenor"})),
			Petugas:    sheet.String(rec, []string{"petugas"}),
			Status:     status,
			Type:       subType,
		}

		if _, seen := r.byID[id]; !seen {
			r.order = append(r.order, id)
		}
		r.byID[id] = sub
	}
}

// Submissions flattens the merged map back to a list in first-seen order.
func (r *Reconciler) Submissions() []domain.LoanSubmission {
	out := make([]domain.LoanSubmission, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}
