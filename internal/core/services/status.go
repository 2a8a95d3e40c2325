package services

import (
	"context"
	"strings"
	"time"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driving"
)

// Ensure StatusService implements the interface.
var _ driving.StatusService = (*StatusService)(nil)

// DefaultCheckTimeout bounds each dependency check.
const DefaultCheckTimeout = 5 * time.Second

// Pinger is anything that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StatusCheck is one named dependency.
type StatusCheck struct {
	Name   string
	Target Pinger

	// Detail describes the target when it is healthy, e.g. a model name.
	Detail string
}

// StatusService pings each configured dependency.
type StatusService struct {
	checks  []StatusCheck
	session func() domain.AuthSession
	missing []string
	timeout time.Duration
}

// NewStatusService creates a status service over the given checks.
// Checks with a nil target are reported as not configured.
func NewStatusService(checks ...StatusCheck) *StatusService {
	return &StatusService{checks: checks, timeout: DefaultCheckTimeout}
}

// SetSession adds the e-signature session to the report.
func (s *StatusService) SetSession(session func() domain.AuthSession) {
	s.session = session
}

// SetMissing lists configuration names that are absent.
func (s *StatusService) SetMissing(names []string) {
	s.missing = names
}

// SetTimeout overrides the per-check timeout.
func (s *StatusService) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Check pings every dependency in order, each under its own timeout.
func (s *StatusService) Check(ctx context.Context) []domain.ServiceStatus {
	statuses := make([]domain.ServiceStatus, 0, len(s.checks)+2)

	for _, c := range s.checks {
		if c.Target == nil {
			statuses = append(statuses, domain.ServiceStatus{Name: c.Name, Detail: "not configured"})
			continue
		}

		checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := c.Target.Ping(checkCtx)
		cancel()

		st := domain.ServiceStatus{Name: c.Name, OK: err == nil, Detail: c.Detail}
		if err != nil {
			st.Detail = err.Error()
		}
		statuses = append(statuses, st)
	}

	if s.session != nil {
		sess := s.session()
		st := domain.ServiceStatus{Name: "docusign session", OK: sess.Valid(), Detail: sess.State.String()}
		if sess.Valid() {
			st.Detail = "account " + sess.AccountID
		}
		statuses = append(statuses, st)
	}

	if len(s.missing) > 0 {
		statuses = append(statuses, domain.ServiceStatus{
			Name:   "configuration",
			Detail: "missing " + strings.Join(s.missing, ", "),
		})
	}

	return statuses
}
