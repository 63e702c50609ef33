package chat

import (
	"strings"
	"time"

	"docsearch-console/internal/entity"
)

// localTurn is a buffered turn together with what a history load needs to
// decide whether it confirms the turn.
type localTurn struct {
	entity.Message

	// issuedAt anchors the skew window. For sent turns it is the moment the
	// request left, so answer latency does not count against the window.
	issuedAt time.Time
	// minLoad is the first load generation issued after the turn was sent;
	// older loads cannot contain it.
	minLoad uint64
}

// reconcile merges a fresh server history, fetched by load generation gen,
// with the locally buffered turns. The server sequence wins outright; an
// optimistic turn is kept, after it, only when no server turn confirms it.
// Each server turn confirms at most one optimistic turn, so repeated
// identical messages are not collapsed.
func reconcile(server []entity.Message, local []localTurn, gen uint64, skew time.Duration) []localTurn {
	out := make([]localTurn, 0, len(server)+len(local))
	for _, m := range server {
		m.Pending = false
		out = append(out, localTurn{Message: m})
	}

	used := make([]bool, len(server))
	for _, p := range local {
		if !p.Pending {
			continue
		}
		if gen >= p.minLoad {
			if i := confirmingTurn(server, used, p, skew); i >= 0 {
				used[i] = true
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

func confirmingTurn(server []entity.Message, used []bool, pending localTurn, skew time.Duration) int {
	for i, m := range server {
		if used[i] {
			continue
		}
		if sameTurn(m, pending, skew) {
			return i
		}
	}
	return -1
}

// sameTurn compares by identity: role, trimmed content and a server timestamp
// no earlier than the issue time minus skew. Missing timestamps match on content alone.
func sameTurn(confirmed entity.Message, pending localTurn, skew time.Duration) bool {
	if confirmed.Role != pending.Role {
		return false
	}
	if strings.TrimSpace(confirmed.Content) != strings.TrimSpace(pending.Content) {
		return false
	}
	anchor := pending.issuedAt
	if anchor.IsZero() {
		anchor = pending.CreatedAt
	}
	if confirmed.CreatedAt.IsZero() || anchor.IsZero() {
		return true
	}
	return !confirmed.CreatedAt.Before(anchor.Add(-skew))
}

func countPending(turns []localTurn) int {
	n := 0
	for _, t := range turns {
		if t.Pending {
			n++
		}
	}
	return n
}

func messagesOf(turns []localTurn) []entity.Message {
	msgs := make([]entity.Message, len(turns))
	for i, t := range turns {
		msgs[i] = t.Message
	}
	return msgs
}
