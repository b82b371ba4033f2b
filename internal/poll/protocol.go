package poll

import (
	"fmt"
	"strings"
)

// Kind identifies the payload of a content response.
type Kind int

const (
	// KindDiff carries replacement table markup.
	KindDiff Kind = iota
	// KindDiffOnce carries table markup and asks the client to stop polling.
	KindDiffOnce
	// KindStatus carries a plain-text status line.
	KindStatus
	// KindRefresh asks for an immediate new request.
	KindRefresh
)

func (k Kind) String() string {
	switch k {
	case KindDiff:
		return "diff"
	case KindDiffOnce:
		return "diff once"
	case KindStatus:
		return "status"
	case KindRefresh:
		return "refresh"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// IsDiff reports whether the payload replaces the table.
func (k Kind) IsDiff() bool {
	return k == KindDiff || k == KindDiffOnce
}

// ProtocolError means the server answered with a tag this client does not
// understand. It indicates a version mismatch and is not retried.
type ProtocolError struct {
	Tag string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unknown response tag %q", e.Tag)
}

// Response is a parsed content response.
type Response struct {
	Kind    Kind
	Payload string
}

// ParseResponse splits body into its tag line and payload. A body without
// a newline is all tag.
func ParseResponse(body string) (Response, error) {
	tag, payload, _ := strings.Cut(body, "\n")
	tag = strings.TrimSuffix(tag, "\r")

	var kind Kind
	switch tag {
	case "diff":
		kind = KindDiff
	case "diff once":
		kind = KindDiffOnce
	case "status":
		kind = KindStatus
	case "refresh":
		kind = KindRefresh
	default:
		return Response{}, &ProtocolError{Tag: tag}
	}
	return Response{Kind: kind, Payload: payload}, nil
}
