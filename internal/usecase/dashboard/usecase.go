// Package dashboard orchestrates a full data refresh: fetch both gateway
// surfaces, merge them, and run the ledger, roster, submission and queue
// builders over the result.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"koperasi-collection-backend/internal/domain/contract"
	"koperasi-collection-backend/internal/domain/customer"
	domledger "koperasi-collection-backend/internal/domain/ledger"
	"koperasi-collection-backend/internal/domain/petugas"
	domsubmission "koperasi-collection-backend/internal/domain/submission"
	"koperasi-collection-backend/internal/usecase/installment"
	"koperasi-collection-backend/internal/usecase/ledger"
	"koperasi-collection-backend/internal/usecase/roster"
	"koperasi-collection-backend/internal/usecase/submission"
	"koperasi-collection-backend/pkg/schedule"
	"koperasi-collection-backend/pkg/sheet"
)

// Gateway is the spreadsheet-backed data source.
type Gateway interface {
	GetDashboardData(ctx context.Context, role petugas.Role, userID string) (map[string]any, error)
	GetData(ctx context.Context) (map[string]any, error)
}

// Store persists snapshots between restarts. Persistence failures are
// logged, never surfaced to the caller.
type Store interface {
	Save(ctx context.Context, scope string, snap *Snapshot) error
	Load(ctx context.Context, scope string) (*Snapshot, error)
}

// Notification records a submission status change observed between two
// consecutive refreshes of the same scope.
type Notification struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"id_pengajuan"`
	Status       string    `json:"status"`
	Message      string    `json:"pesan"`
	At           time.Time `json:"waktu"`
}

// Snapshot is everything the app screen needs for one officer scope.
type Snapshot struct {
	Role          petugas.Role                   `json:"role"`
	PetugasID     string                         `json:"id_petugas"`
	FetchedAt     time.Time                      `json:"fetched_at"`
	Contracts     []contract.LoanContract        `json:"pinjaman"`
	Mutations     []domledger.Mutation           `json:"mutasi"`
	Submissions   []domsubmission.LoanSubmission `json:"pengajuan"`
	Customers     []customer.Customer            `json:"nasabah"`
	AllCustomers  []customer.Customer            `json:"nasabah_semua"`
	Queue         []installment.QueueEntry       `json:"antrian_tagihan"`
	DailyTarget   float64                        `json:"target_harian"`
	Notifications []Notification                 `json:"notifikasi"`
}

type Usecase struct {
	gw    Gateway
	store Store
	now   func() time.Time

	mu      sync.RWMutex
	current map[string]*Snapshot
}

func NewUsecase(gw Gateway, store Store) *Usecase {
	return &Usecase{
		gw:      gw,
		store:   store,
		now:     time.Now,
		current: make(map[string]*Snapshot),
	}
}

func scopeKey(role petugas.Role, userID string) string {
	return string(role) + "/" + userID
}

// Refresh pulls both gateway surfaces and rebuilds the scope's snapshot.
// The action endpoint is the primary source; the read-only dump overlays
// it key by key because the dump is usually fresher.
func (u *Usecase) Refresh(ctx context.Context, role petugas.Role, userID string) (*Snapshot, error) {
	primary, perr := u.gw.GetDashboardData(ctx, role, userID)
	secondary, serr := u.gw.GetData(ctx)
	if perr != nil && serr != nil {
		return nil, fmt.Errorf("both gateway sources failed: %w", errors.Join(perr, serr))
	}

	merged := make(map[string]any, len(primary)+len(secondary))
	for k, v := range primary {
		merged[k] = v
	}
	for k, v := range secondary {
		merged[k] = v
	}
	tables := sheet.Tables(merged)

	rec := submission.NewReconciler()
	syn := ledger.NewSynthesizer(role)
	ingestSubmissions(rec, tables)
	syn.Ingest(tables)

	// Collector scopes see only their own sheets, so submission status
	// updates made by the admin live in the admin bundle. Best effort.
	if role.IsKolektor() {
		if adminData, err := u.gw.GetDashboardData(ctx, petugas.RoleAdmin, userID); err == nil {
			adminTables := sheet.Tables(adminData)
			ingestSubmissions(rec, adminTables)
			syn.Ingest(adminTables)
		} else {
			log.Printf("admin-scope supplement failed for %s: %v", userID, err)
		}
	}

	contracts := roster.Collect(tables)
	// the gateway serves the member roster under nasabah_list
	visible, all := roster.VisibleCustomers(tables["nasabah_list"], contracts)

	today := schedule.Midnight(u.now())
	snap := &Snapshot{
		Role:         role,
		PetugasID:    userID,
		FetchedAt:    u.now(),
		Contracts:    contracts,
		Mutations:    syn.Mutations(),
		Submissions:  rec.Submissions(),
		Customers:    visible,
		AllCustomers: all,
		Queue:        installment.BuildQueue(contracts, today),
		DailyTarget:  installment.DailyTarget(contracts, today),
	}

	key := scopeKey(role, userID)
	u.mu.Lock()
	prev := u.current[key]
	snap.Notifications = diffNotifications(prev, snap, u.now())
	u.current[key] = snap
	u.mu.Unlock()

	if u.store != nil {
		if err := u.store.Save(ctx, key, snap); err != nil {
			log.Printf("snapshot persist failed for %s: %v", key, err)
		}
	}
	return snap, nil
}

// Current returns the last built snapshot for the scope, falling back to
// the persisted copy when the process has not refreshed yet.
func (u *Usecase) Current(ctx context.Context, role petugas.Role, userID string) (*Snapshot, bool) {
	key := scopeKey(role, userID)
	u.mu.RLock()
	snap := u.current[key]
	u.mu.RUnlock()
	if snap != nil {
		return snap, true
	}
	if u.store == nil {
		return nil, false
	}
	loaded, err := u.store.Load(ctx, key)
	if err != nil || loaded == nil {
		return nil, false
	}
	u.mu.Lock()
	if u.current[key] == nil {
		u.current[key] = loaded
	}
	snap = u.current[key]
	u.mu.Unlock()
	return snap, true
}

func ingestSubmissions(rec *submission.Reconciler, tables map[string][]sheet.Record) {
	for _, key := range sortedKeys(tables) {
		lower := strings.ToLower(key)
		// simpanan sheets carry savings-withdrawal requests
		if strings.Contains(lower, "pengajuan") || strings.Contains(lower, "submission") || strings.Contains(lower, "simpanan") {
			rec.Merge(tables[key], key)
		}
	}
}

func sortedKeys(tables map[string][]sheet.Record) []string {
	keys := make([]string, 0, len(tables))
	for k := range tables {
		keys = append(keys, k)
	}
	// deterministic merge order so last-wins is stable across refreshes
	sort.Strings(keys)
	return keys
}

// diffNotifications reports submissions whose status moved since the
// previous snapshot of the same scope, plus submissions that first appear
// already approved (the admin decided between two refreshes).
func diffNotifications(prev, next *Snapshot, at time.Time) []Notification {
	if prev == nil {
		return nil
	}
	before := make(map[string]domsubmission.Status, len(prev.Submissions))
	for _, s := range prev.Submissions {
		before[s.ID] = s.Status
	}
	var out []Notification
	for _, s := range next.Submissions {
		old, known := before[s.ID]
		if known && old == s.Status {
			continue
		}
		if !known && s.Status != domsubmission.StatusApproved {
			continue
		}
		out = append(out, Notification{
			ID:           uuid.NewString(),
			SubmissionID: s.ID,
			Status:       string(s.Status),
			Message:      fmt.Sprintf("Pengajuan %s untuk %s sekarang %s", s.ID, s.Nama, s.Status),
			At:           at,
		})
	}
	return out
}
