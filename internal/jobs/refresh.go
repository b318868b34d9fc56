// Package jobs schedules the periodic gateway refresh so snapshots stay
// warm without waiting for an app-triggered POST /refresh.
package jobs

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"koperasi-collection-backend/internal/domain/petugas"
	"koperasi-collection-backend/internal/usecase/dashboard"
)

const refreshTimeout = 2 * time.Minute

type Refresher interface {
	Refresh(ctx context.Context, role petugas.Role, userID string) (*dashboard.Snapshot, error)
}

type scope struct {
	role petugas.Role
	id   string
}

type RefreshRunner struct {
	dash   Refresher
	cron   *cron.Cron
	scopes []scope
}

// ParseScope reads a "ROLE:id_petugas" pair from configuration.
func parseScope(raw string) (scope, error) {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return scope{}, fmt.Errorf("malformed refresh scope %q, want ROLE:id_petugas", raw)
	}
	role := petugas.ParseRole(parts[0])
	if !role.IsAdmin() && !role.IsKolektor() {
		return scope{}, fmt.Errorf("unknown role in refresh scope %q", raw)
	}
	return scope{role: role, id: parts[1]}, nil
}

func NewRefreshRunner(dash Refresher, spec string, rawScopes []string) (*RefreshRunner, error) {
	r := &RefreshRunner{dash: dash, cron: cron.New()}
	for _, raw := range rawScopes {
		s, err := parseScope(raw)
		if err != nil {
			return nil, err
		}
		r.scopes = append(r.scopes, s)
	}
	if _, err := r.cron.AddFunc(spec, r.runAll); err != nil {
		return nil, fmt.Errorf("bad refresh cron spec %q: %w", spec, err)
	}
	return r, nil
}

func (r *RefreshRunner) runAll() {
	for _, s := range r.scopes {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		if _, err := r.dash.Refresh(ctx, s.role, s.id); err != nil {
			log.Printf("scheduled refresh %s/%s failed: %v", s.role, s.id, err)
		}
		cancel()
	}
}

func (r *RefreshRunner) Start() { r.cron.Start() }

// Stop waits for a running refresh to finish.
func (r *RefreshRunner) Stop() { <-r.cron.Stop().Done() }
