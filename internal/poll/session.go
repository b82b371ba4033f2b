package poll

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/henri123lemoine/asmdw/internal/debug"
)

// State is the long-poll session state.
type State int

const (
	// StateIdle means no request is in flight. A next cycle may be armed.
	StateIdle State = iota
	// StateRequesting means exactly one request is in flight.
	StateRequesting
	// StateBackoff means the last request failed and a retry is armed.
	StateBackoff
	// StateHalted is terminal: the server spoke a protocol we do not know.
	StateHalted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateBackoff:
		return "backoff"
	case StateHalted:
		return "halted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Default session timings.
const (
	DefaultDelay       = 100 * time.Millisecond
	DefaultBackoffSeed = 5 * time.Second
)

// SessionConfig tunes a Session.
type SessionConfig struct {
	// Continuous re-polls after every successful response.
	Continuous bool
	// Delay is the pause between healthy cycles.
	Delay time.Duration
	// BackoffSeed is the wait after the first consecutive failure. Each
	// further failure doubles it.
	BackoffSeed time.Duration
}

// DefaultSessionConfig returns the standard timings with continuous
// polling on.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Continuous:  true,
		Delay:       DefaultDelay,
		BackoffSeed: DefaultBackoffSeed,
	}
}

// Request describes the request the caller must now issue.
type Request struct {
	NoWait bool
}

// Outcome is what the caller must do after a request completed.
type Outcome struct {
	// Response is valid when Err is nil.
	Response Response
	// Err is a *TransportError or *ProtocolError.
	Err error
	// Schedule is set when a next request is armed. The caller waits
	// Delay and then calls Fire with Token.
	Schedule bool
	Delay    time.Duration
	Token    int
}

// Retrying reports whether the outcome is a transport failure waiting on
// backoff.
func (o Outcome) Retrying() bool {
	var te *TransportError
	return errors.As(o.Err, &te) && o.Schedule
}

// FailureMessage is the user-facing countdown for a transport failure.
func (o Outcome) FailureMessage() string {
	secs := math.Round(o.Delay.Seconds())
	return fmt.Sprintf("Failed to communicate with server, trying again in %d seconds", int(secs))
}

// Session is the long-poll state machine. It performs no I/O and owns no
// timers: callers issue the requests and arm timers carrying the returned
// token. Re-arming or starting a request invalidates the previous token,
// so at most one retry is ever live and at most one request is in flight.
// A Session is not safe for concurrent use.
type Session struct {
	cfg SessionConfig

	state    State
	received int
	backoff  time.Duration

	tokens  int
	pending int
}

// NewSession returns an idle session.
func NewSession(cfg SessionConfig) *Session {
	if cfg.BackoffSeed <= 0 {
		cfg.BackoffSeed = DefaultBackoffSeed
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	return &Session{cfg: cfg}
}

// State returns the current state.
func (s *Session) State() State { return s.state }

// Received returns how many diffs have been applied.
func (s *Session) Received() int { return s.received }

// Backoff returns the current failure delay, zero when healthy.
func (s *Session) Backoff() time.Duration { return s.backoff }

// Pending reports whether a timer token is live.
func (s *Session) Pending() bool { return s.pending != 0 }

// Begin starts a request. It fails while a request is already in flight
// or after the session halted. Any armed timer is cancelled.
func (s *Session) Begin() (Request, bool) {
	if s.state == StateRequesting || s.state == StateHalted {
		return Request{}, false
	}
	s.pending = 0
	s.state = StateRequesting
	req := Request{NoWait: s.received == 0}
	debug.Log(debug.CatPoll, "request nowait=%v", req.NoWait)
	return req, true
}

// Fire is the timer callback. Stale tokens are ignored.
func (s *Session) Fire(token int) (Request, bool) {
	if token == 0 || token != s.pending {
		debug.Log(debug.CatPoll, "ignoring stale token %d", token)
		return Request{}, false
	}
	return s.Begin()
}

// RetryNow short-circuits a backoff wait. It is only valid while a failed
// request is waiting for its retry.
func (s *Session) RetryNow() (Request, bool) {
	if s.state != StateBackoff {
		return Request{}, false
	}
	debug.Log(debug.CatPoll, "manual retry cancels token %d", s.pending)
	return s.Begin()
}

// Complete records the result of the in-flight request. err is the
// transport error, if any; otherwise body is parsed.
func (s *Session) Complete(body string, err error) Outcome {
	if s.state != StateRequesting {
		return Outcome{Err: fmt.Errorf("no request in flight (state %s)", s.state)}
	}

	if err != nil {
		var te *TransportError
		if !errors.As(err, &te) {
			err = &TransportError{Query: "diff", Err: err}
		}
		if s.backoff == 0 {
			s.backoff = s.cfg.BackoffSeed
		} else {
			s.backoff *= 2
		}
		s.state = StateBackoff
		debug.Log(debug.CatPoll, "backoff %dms: %v", s.backoff.Milliseconds(), err)
		return Outcome{Err: err, Schedule: true, Delay: s.backoff, Token: s.arm()}
	}

	s.backoff = 0
	resp, perr := ParseResponse(body)
	if perr != nil {
		s.state = StateHalted
		debug.Log(debug.CatPoll, "halted: %v", perr)
		return Outcome{Err: perr}
	}

	s.state = StateIdle
	out := Outcome{Response: resp}
	if resp.Kind.IsDiff() {
		s.received++
	}
	switch {
	case resp.Kind == KindDiffOnce:
		debug.Log(debug.CatPoll, "diff once: polling stops")
	case resp.Kind == KindRefresh:
		out.Schedule, out.Delay, out.Token = true, 0, s.arm()
	case s.cfg.Continuous:
		out.Schedule, out.Delay, out.Token = true, s.cfg.Delay, s.arm()
	}
	debug.Log(debug.CatPoll, "%s received=%d next=%v", resp.Kind, s.received, out.Schedule)
	return out
}

func (s *Session) arm() int {
	s.tokens++
	s.pending = s.tokens
	return s.pending
}
