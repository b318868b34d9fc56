package submission

import "time"

// Status moves forward only: Pending -> Approved -> Disbursed. The
// transition itself happens on the backend; CanAdvanceTo guards the proxy
// endpoints so a stale client cannot replay an earlier state.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusDisbursed Status = "Disbursed"
)

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusApproved:
		return 1
	case StatusDisbursed:
		return 2
	default:
		return -1
	}
}

func (s Status) CanAdvanceTo(next Status) bool {
	cur, nxt := s.rank(), next.rank()
	return cur >= 0 && nxt >= 0 && nxt == cur+1
}

// Type distinguishes loan requests from savings-withdrawal requests that
// arrive through the same submission sheets.
type Type string

const (
	TypeLoan              Type = "LOAN"
	TypeSavingsWithdrawal Type = "SAVINGS_WITHDRAWAL"
)

// LoanSubmission is a pending/approved/disbursed request, reconciled
// across the role-scoped fetches.
type LoanSubmission struct {
	ID         string    `json:"id_pengajuan"`
	Date       time.Time `json:"tanggal"`
	CustomerID string    `json:"id_nasabah"`
	Nama       string    `json:"nama"`
	Amount     float64   `json:"jumlah"`
	Tenor      int       `json:"tenor"`
	Petugas    string    `json:"petugas"`
	Status     Status    `json:"status"`
	Type       Type      `json:"submission_type"`
}
