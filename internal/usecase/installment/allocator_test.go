package installment

import (
	"testing"
	"time"

	"koperasi-collection-backend/internal/domain/contract"
)

func activeContract(disbursed time.Time, tenor int, installment, totalPayable, remaining float64) contract.LoanContract {
	return contract.LoanContract{
		LoanID:       "P-1",
		DisbursedAt:  disbursed,
		CustomerID:   "N-001",
		Nama:         "Siti",
		TotalPayable: totalPayable,
		Tenor:        tenor,
		Installment:  installment,
		Remaining:    remaining,
		Status:       contract.StatusActive,
	}
}

func localDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestTickets_AllocationBoundary(t *testing.T) {
	// installment 50k, cumulative paid 125k: two full tickets, one half
	c := activeContract(localDate(2024, time.March, 1), 4, 50000, 200000, 75000)
	tickets := Tickets(&c, localDate(2024, time.March, 1))
	if len(tickets) != 4 {
		t.Fatalf("got %d tickets", len(tickets))
	}
	if tickets[0].Allocated != 50000 || tickets[0].State != StatePaid {
		t.Fatalf("ticket 0 = %+v", tickets[0])
	}
	if tickets[1].Allocated != 50000 || tickets[1].State != StatePaid {
		t.Fatalf("ticket 1 = %+v", tickets[1])
	}
	if tickets[2].Allocated != 25000 || tickets[2].State != StatePartial {
		t.Fatalf("ticket 2 = %+v", tickets[2])
	}
	if tickets[3].Allocated != 0 {
		t.Fatalf("ticket 3 = %+v", tickets[3])
	}
}

func TestTickets_DateStates(t *testing.T) {
	// tenor 4 weekly: due dates Mar 4, 11, 18, 25 (disbursed Fri Mar 1)
	c := activeContract(localDate(2024, time.March, 1), 4, 50000, 200000, 200000)
	today := localDate(2024, time.March, 11)
	tickets := Tickets(&c, today)

	if tickets[0].State != StateOverdue {
		t.Fatalf("ticket 0 state = %s, want overdue", tickets[0].State)
	}
	if tickets[1].State != StateDueToday {
		t.Fatalf("ticket 1 state = %s, want due_today", tickets[1].State)
	}
	if tickets[2].State != StateFuture || tickets[3].State != StateFuture {
		t.Fatalf("future tickets = %s, %s", tickets[2].State, tickets[3].State)
	}
}

func TestTickets_PaidToleranceOneUnit(t *testing.T) {
	// paid 49,999 of a 50,000 installment: within rounding tolerance
	c := activeContract(localDate(2024, time.March, 1), 4, 50000, 200000, 150001)
	tickets := Tickets(&c, localDate(2024, time.March, 1))
	if tickets[0].State != StatePaid {
		t.Fatalf("ticket 0 state = %s, want paid within tolerance", tickets[0].State)
	}
}

func TestTickets_EmptyScheduleForZeroTenor(t *testing.T) {
	c := activeContract(localDate(2024, time.March, 1), 0, 50000, 200000, 200000)
	if ts := Tickets(&c, localDate(2024, time.March, 1)); ts != nil {
		t.Fatalf("tenor 0 produced %d tickets", len(ts))
	}
}

func TestBuildQueue_OverdueAndToday(t *testing.T) {
	today := localDate(2024, time.March, 11) // due date 2 of the weekly schedule

	onTrack := activeContract(localDate(2024, time.March, 1), 4, 50000, 200000, 150000)
	onTrack.LoanID = "P-ONTRACK" // paid ticket 0, ticket due today
	behind := activeContract(localDate(2024, time.March, 1), 4, 50000, 200000, 200000)
	behind.LoanID = "P-BEHIND" // nothing paid, ticket 0 past
	settled := activeContract(localDate(2024, time.March, 1), 4, 50000, 200000, 0)
	settled.LoanID = "P-LUNAS"
	settled.Status = contract.StatusSettled
	fresh := activeContract(localDate(2024, time.March, 8), 4, 50000, 200000, 200000)
	fresh.LoanID = "P-FRESH" // disbursed Friday, first due lands today

	queue := BuildQueue([]contract.LoanContract{onTrack, behind, settled, fresh}, today)

	ids := make(map[string]QueueEntry, len(queue))
	for _, q := range queue {
		ids[q.LoanID] = q
	}
	if _, ok := ids["P-LUNAS"]; ok {
		t.Fatal("settled contract must not queue")
	}
	b, ok := ids["P-BEHIND"]
	if !ok || !b.Overdue {
		t.Fatalf("behind contract missing or not overdue: %+v", b)
	}
	o, ok := ids["P-ONTRACK"]
	if !ok || o.Overdue || !o.DueToday {
		t.Fatalf("on-track contract = %+v, want due today and not overdue", o)
	}
	// overdue entries sort first
	if len(queue) == 0 || !queue[0].Overdue {
		t.Fatalf("queue head = %+v, want an overdue entry", queue)
	}
}

// Twenty daily payments exactly matching a tenor-20 schedule settle the
// contract, and a settled contract leaves the queue.
func TestBuildQueue_SettledAfterFullRepayment(t *testing.T) {
	c := activeContract(localDate(2024, time.March, 1), 20, 10000, 200000, 0)
	c.Status = contract.StatusSettled

	queue := BuildQueue([]contract.LoanContract{c}, localDate(2024, time.April, 1))
	if len(queue) != 0 {
		t.Fatalf("settled contract still queued: %+v", queue)
	}
	tickets := Tickets(&c, localDate(2024, time.April, 1))
	for _, tk := range tickets {
		if tk.State != StatePaid {
			t.Fatalf("ticket %d = %s, want paid", tk.Index, tk.State)
		}
	}
}

func TestDailyTarget(t *testing.T) {
	today := localDate(2024, time.March, 11)
	dueToday := activeContract(localDate(2024, time.March, 1), 4, 50000, 200000, 200000)
	notToday := activeContract(localDate(2024, time.March, 4), 4, 60000, 240000, 240000)
	// weekly from Mar 5: Mar 5, 12, 19, 26 - nothing on the 11th

	got := DailyTarget([]contract.LoanContract{dueToday, notToday}, today)
	if got != 50000 {
		t.Fatalf("daily target = %v, want 50000", got)
	}
}
