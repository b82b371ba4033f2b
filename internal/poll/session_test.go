package poll

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var errNetwork = errors.New("connection refused")

func begin(t require.TestingT, s *Session) Request {
	req, ok := s.Begin()
	require.True(t, ok, "Begin refused in state %s", s.State())
	return req
}

func TestSessionDiffStopsNoWait(t *testing.T) {
	s := NewSession(DefaultSessionConfig())

	req := begin(t, s)
	require.True(t, req.NoWait, "first request asks for an immediate answer")
	require.Equal(t, 0, s.Received())

	out := s.Complete("diff\n<table>...</table>", nil)
	require.NoError(t, out.Err)
	require.Equal(t, KindDiff, out.Response.Kind)
	require.Equal(t, "<table>...</table>", out.Response.Payload)
	require.Equal(t, 1, s.Received())
	require.True(t, out.Schedule)
	require.Equal(t, DefaultDelay, out.Delay)

	req, ok := s.Fire(out.Token)
	require.True(t, ok)
	require.False(t, req.NoWait)
}

func TestSessionStatusLeavesCounter(t *testing.T) {
	s := NewSession(DefaultSessionConfig())
	begin(t, s)

	out := s.Complete("status\nBuilding...", nil)
	require.NoError(t, out.Err)
	require.Equal(t, KindStatus, out.Response.Kind)
	require.Equal(t, "Building...", out.Response.Payload)
	require.Equal(t, 0, s.Received())
	require.True(t, out.Schedule)

	req, ok := s.Fire(out.Token)
	require.True(t, ok)
	require.True(t, req.NoWait, "no diff yet, keep asking for nowait")
}

func TestSessionBogusTagHalts(t *testing.T) {
	s := NewSession(DefaultSessionConfig())
	begin(t, s)

	out := s.Complete("bogus\n...", nil)

	var pe *ProtocolError
	require.ErrorAs(t, out.Err, &pe)
	require.Equal(t, "bogus", pe.Tag)
	require.False(t, out.Schedule)
	require.Equal(t, StateHalted, s.State())
	require.False(t, s.Pending())

	_, ok := s.Begin()
	require.False(t, ok, "halted sessions never request again")
	_, ok = s.RetryNow()
	require.False(t, ok)
}

func TestSessionBackoffAndManualRetry(t *testing.T) {
	s := NewSession(DefaultSessionConfig())
	require.Equal(t, time.Duration(0), s.Backoff())

	begin(t, s)
	first := s.Complete("", &TransportError{Query: "diff", Status: 500})
	require.True(t, first.Retrying())
	require.Equal(t, 5000*time.Millisecond, s.Backoff())
	require.Equal(t, 5000*time.Millisecond, first.Delay)
	require.Equal(t, "Failed to communicate with server, trying again in 5 seconds", first.FailureMessage())

	_, ok := s.Fire(first.Token)
	require.True(t, ok)
	second := s.Complete("", errNetwork)
	require.Equal(t, 10000*time.Millisecond, s.Backoff())
	require.Equal(t, StateBackoff, s.State())

	var te *TransportError
	require.ErrorAs(t, second.Err, &te, "plain errors are wrapped as transport failures")
	require.ErrorIs(t, second.Err, errNetwork)

	_, ok = s.RetryNow()
	require.True(t, ok)
	require.Equal(t, StateRequesting, s.State())
	require.False(t, s.Pending())

	_, ok = s.Fire(second.Token)
	require.False(t, ok, "the timer armed before the manual retry is cancelled")

	out := s.Complete("diff\n<table></table>", nil)
	require.NoError(t, out.Err)
	require.Equal(t, time.Duration(0), s.Backoff())
}

func TestSessionOneRequestInFlight(t *testing.T) {
	s := NewSession(DefaultSessionConfig())
	begin(t, s)

	_, ok := s.Begin()
	require.False(t, ok)
	_, ok = s.RetryNow()
	require.False(t, ok, "retry is only offered while waiting on backoff")
}

func TestSessionCompleteWithoutRequest(t *testing.T) {
	s := NewSession(DefaultSessionConfig())
	out := s.Complete("diff\n", nil)
	require.Error(t, out.Err)
	require.Equal(t, 0, s.Received())
	require.Equal(t, StateIdle, s.State())
}

func TestSessionDiffOnceStopsPolling(t *testing.T) {
	s := NewSession(DefaultSessionConfig())
	begin(t, s)

	out := s.Complete("diff once\n<table></table>", nil)
	require.NoError(t, out.Err)
	require.True(t, out.Response.Kind.IsDiff())
	require.False(t, out.Schedule)
	require.Equal(t, 1, s.Received())
	require.Equal(t, StateIdle, s.State())
}

func TestSessionRefreshIsImmediate(t *testing.T) {
	s := NewSession(SessionConfig{Continuous: false, Delay: time.Second})
	begin(t, s)

	out := s.Complete("refresh\n", nil)
	require.True(t, out.Schedule)
	require.Equal(t, time.Duration(0), out.Delay)
}

func TestSessionNotContinuous(t *testing.T) {
	s := NewSession(SessionConfig{Continuous: false})
	begin(t, s)

	out := s.Complete("diff\n", nil)
	require.False(t, out.Schedule)

	_, ok := s.Begin()
	require.True(t, ok, "a manual refresh is still possible")
}

func TestSessionStaleTokens(t *testing.T) {
	s := NewSession(DefaultSessionConfig())
	begin(t, s)
	out := s.Complete("status\nx", nil)

	_, ok := s.Fire(0)
	require.False(t, ok)
	_, ok = s.Fire(out.Token + 1)
	require.False(t, ok)

	begin(t, s)
	_, ok = s.Fire(out.Token)
	require.False(t, ok, "Begin cancels the armed timer")
}

// ===========================================================================
// Property-Based Tests
// ===========================================================================

func TestProperty_BackoffDoublesFromSeed(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seedMs := rapid.IntRange(1, 10000).Draw(rt, "seedMs")
		seed := time.Duration(seedMs) * time.Millisecond
		s := NewSession(SessionConfig{Continuous: true, Delay: DefaultDelay, BackoffSeed: seed})

		failures := rapid.IntRange(1, 12).Draw(rt, "failures")
		begin(rt, s)
		want := seed
		for i := 0; i < failures; i++ {
			out := s.Complete("", errNetwork)
			require.Equal(rt, want, out.Delay)
			require.Equal(rt, want, s.Backoff())
			_, ok := s.Fire(out.Token)
			require.True(rt, ok)
			want *= 2
		}

		out := s.Complete("status\nok", nil)
		require.NoError(rt, out.Err)
		require.Equal(rt, time.Duration(0), s.Backoff())

		_, ok := s.Fire(out.Token)
		require.True(rt, ok)
		out = s.Complete("", errNetwork)
		require.Equal(rt, seed, out.Delay, "backoff restarts at the seed after a success")
	})
}
