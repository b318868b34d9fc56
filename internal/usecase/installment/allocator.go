// Package installment computes per-ticket payment allocation and the
// collection queue. Nothing here is stored: every output is recomputed
// from the contract roster and the generated schedule on each refresh.
package installment

import (
	"sort"
	"time"

	"koperasi-collection-backend/internal/domain/contract"
	"koperasi-collection-backend/pkg/schedule"
)

// TicketState is the render state of one scheduled installment.
type TicketState string

const (
	StatePaid     TicketState = "paid"
	StatePartial  TicketState = "partial"
	StateOverdue  TicketState = "overdue"
	StateDueToday TicketState = "due_today"
	StateFuture   TicketState = "future"
)

// one currency unit of slack for rounded installment amounts
const paidTolerance = 1

// Ticket is one installment occurrence with the slice of cumulative
// payment allocated to it.
type Ticket struct {
	Index          int         `json:"index"`
	DueDate        time.Time   `json:"due_date"`
	Allocated      float64     `json:"allocated"`
	RemainingAfter float64     `json:"remaining_after"`
	State          TicketState `json:"state"`
}

// Tickets allocates a contract's cumulative paid amount across its
// schedule. Ticket i receives clamp(cumPaid - i*installment, 0,
// installment); earlier tickets always fill first.
func Tickets(c *contract.LoanContract, today time.Time) []Ticket {
	dates := schedule.Generate(c.DisbursedAt, c.Tenor)
	if len(dates) == 0 {
		return nil
	}
	today = schedule.Midnight(today)
	cumPaid := c.CumulativePaid()

	out := make([]Ticket, 0, len(dates))
	for i, due := range dates {
		allocated := cumPaid - float64(i)*c.Installment
		if allocated < 0 {
			allocated = 0
		}
		if allocated > c.Installment {
			allocated = c.Installment
		}

		remaining := c.TotalPayable - float64(i+1)*c.Installment
		if remaining < 0 {
			remaining = 0
		}

		out = append(out, Ticket{
			Index:          i,
			DueDate:        due,
			Allocated:      allocated,
			RemainingAfter: remaining,
			State:          ticketState(allocated, c.Installment, due, today),
		})
	}
	return out
}

func ticketState(allocated, installment float64, due, today time.Time) TicketState {
	switch {
	case installment > 0 && allocated >= installment-paidTolerance:
		return StatePaid
	case allocated > 0:
		return StatePartial
	case due.Before(today):
		return StateOverdue
	case due.Equal(today):
		return StateDueToday
	default:
		return StateFuture
	}
}

// QueueEntry is one contract in today's collection queue.
type QueueEntry struct {
	contract.LoanContract
	DueToday bool `json:"due_today"`
	Overdue  bool `json:"overdue"`
}

// BuildQueue selects the active contracts a collector should visit today:
// those with a ticket due today plus those behind schedule. The overdue
// test here is the coarse contract-level policy (cumulative paid vs
// installments elapsed); it deliberately stays separate from the
// per-ticket states above, which can disagree under uneven historical
// payments.
func BuildQueue(contracts []contract.LoanContract, today time.Time) []QueueEntry {
	today = schedule.Midnight(today)

	var queue []QueueEntry
	for _, c := range contracts {
		if c.Status != contract.StatusActive {
			continue
		}
		dates := schedule.Generate(c.DisbursedAt, c.Tenor)

		dueToday := false
		pastCount := 0
		for _, d := range dates {
			switch {
			case d.Equal(today):
				dueToday = true
			case d.Before(today):
				pastCount++
			}
		}

		expectedPaid := c.Installment * float64(pastCount)
		overdue := c.CumulativePaid() < expectedPaid

		if dueToday || overdue {
			queue = append(queue, QueueEntry{LoanContract: c, DueToday: dueToday, Overdue: overdue})
		}
	}

	// overdue contracts surface first; ties keep roster order
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].Overdue && !queue[j].Overdue
	})
	return queue
}

// DailyTarget totals the installments scheduled for today across the
// whole roster, settled contracts included (a payment made earlier today
// still counts toward the day's target).
func DailyTarget(contracts []contract.LoanContract, today time.Time) float64 {
	today = schedule.Midnight(today)

	var total float64
	for _, c := range contracts {
		for _, d := range schedule.Generate(c.DisbursedAt, c.Tenor) {
			if d.Equal(today) {
				total += c.Installment
				break
			}
		}
	}
	return total
}
