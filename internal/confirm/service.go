package confirm

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"taskpilot/internal/csync"
	"taskpilot/internal/fault"
	"taskpilot/internal/pubsub"
)

// DefaultTimeout bounds how long a confirmation request stays outstanding.
const DefaultTimeout = 30 * time.Second

// Request is published to observers when a tool call needs human approval.
type Request struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Args     map[string]any `json:"args"`
	IssuedAt time.Time      `json:"issued_at"`
}

// Rule decides whether a tool call may proceed without asking the user.
type Rule func(name string, args map[string]any) bool

// DefaultRule treats read-only operations as safe: names carrying a
// "list"/"get" marker, or calls whose args set an explicit skip flag.
func DefaultRule(name string, args map[string]any) bool {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "list") || strings.Contains(lower, "get") {
		return true
	}
	if skip, ok := args["skip_confirm"].(bool); ok && skip {
		return true
	}
	return false
}

// Service coordinates confirmation requests between tool execution and the
// user-facing observer. Each invocation id may have at most one request
// outstanding at any instant.
type Service struct {
	broker  *pubsub.Broker[Request]
	pending *csync.Map[string, chan bool]

	mu          sync.RWMutex
	timeout     time.Duration
	rule        Rule
	allowTools  []string
	grantAlways map[string]bool
	skip        bool
}

func NewService(rule Rule) *Service {
	if rule == nil {
		rule = DefaultRule
	}
	return &Service{
		broker:      pubsub.NewBroker[Request](),
		pending:     csync.NewMap[string, chan bool](),
		timeout:     DefaultTimeout,
		rule:        rule,
		grantAlways: make(map[string]bool),
	}
}

// Subscribe registers an observer for confirmation requests.
func (s *Service) Subscribe(ctx context.Context) <-chan Request {
	return s.broker.Subscribe(ctx)
}

// SetTimeout overrides the response deadline. Zero restores the default.
func (s *Service) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	s.mu.Lock()
	s.timeout = d
	s.mu.Unlock()
}

// SetAllowTools replaces the configured allow-list. Safe to call while
// requests are in flight; the next request sees the fresh list.
func (s *Service) SetAllowTools(tools []string) {
	s.mu.Lock()
	s.allowTools = slices.Clone(tools)
	s.mu.Unlock()
}

// SetSkip toggles the global confirmation bypass.
func (s *Service) SetSkip(skip bool) {
	s.mu.Lock()
	s.skip = skip
	s.mu.Unlock()
}

// GrantAlways approves every future call of the named tool for the lifetime
// of this service.
func (s *Service) GrantAlways(name string) {
	s.mu.Lock()
	s.grantAlways[name] = true
	s.mu.Unlock()
}

// Auto reports whether a call would be approved without surfacing a
// confirmation request.
func (s *Service) Auto(name string, args map[string]any) bool {
	return s.autoApproved(name, args)
}

func (s *Service) autoApproved(name string, args map[string]any) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.skip {
		return true
	}
	if s.grantAlways[name] {
		return true
	}
	if slices.Contains(s.allowTools, name) {
		return true
	}
	return s.rule(name, args)
}

// Request asks for approval of one tool invocation and blocks until it is
// resolved. Auto-approved calls resolve true immediately without publishing
// anything. An unanswered request resolves false after the timeout. A fired
// context yields a Cancelled error; a second request for an id that is still
// outstanding yields a DuplicateRequest error and never displaces the first.
func (s *Service) Request(ctx context.Context, id, name string, args map[string]any) (bool, error) {
	if s.autoApproved(name, args) {
		return true, nil
	}

	respCh := make(chan bool, 1)
	if !s.pending.SetIfAbsent(id, respCh) {
		return false, fault.New(fault.KindDuplicateRequest, "confirmation already outstanding for "+id)
	}
	defer s.pending.Del(id)

	s.broker.Publish(Request{ID: id, Name: name, Args: args, IssuedAt: time.Now()})

	s.mu.RLock()
	timeout := s.timeout
	s.mu.RUnlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case accepted := <-respCh:
		return accepted, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, fault.Wrap(fault.KindCancelled, "confirmation aborted", ctx.Err())
	}
}

// Resolve delivers the correlated response for an outstanding request,
// reporting whether anything was waiting on id.
func (s *Service) Resolve(id string, accepted bool) bool {
	respCh, ok := s.pending.Get(id)
	if !ok {
		return false
	}
	select {
	case respCh <- accepted:
		return true
	default:
		// Already resolved; the entry is on its way out.
		return false
	}
}

// Outstanding reports how many confirmation requests are waiting.
func (s *Service) Outstanding() int {
	return s.pending.Len()
}

// Shutdown closes the request broker.
func (s *Service) Shutdown() {
	s.broker.Shutdown()
}
