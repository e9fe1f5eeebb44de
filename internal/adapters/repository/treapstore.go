package repository

import (
	"context"
	"maps"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/okian/tourney/internal/domain/model"
	"github.com/okian/tourney/internal/domain/scoring"
	"github.com/okian/tourney/internal/domain/types"
	"github.com/okian/tourney/pkg/metrics"
)

// Treap-based, in-memory Standings implementation. One treap per category.
//
// Ordering: total DESC, then playerID ASC (deterministic).
// "less" means ranks earlier, so in-order traversal produces the table
// from first to last.

type node struct {
	id    string
	total int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aTotal, aID) should appear before (bTotal, bID).
func less(aTotal int, aID string, bTotal int, bID string) bool {
	if aTotal != bTotal {
		return aTotal > bTotal
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n, item *node) *node {
	if n == nil {
		return item
	}
	if less(item.total, item.id, n.total, n.id) {
		n.left = insert(n.left, item)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, item)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, total int) *node {
	if n == nil {
		return nil
	}
	switch {
	case total == n.total && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, total)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, total)
		}
	case less(total, id, n.total, n.id):
		n.left = deleteNode(n.left, id, total)
	default:
		n.right = deleteNode(n.right, id, total)
	}
	fix(n)
	return n
}

// above counts players with a strictly higher total in O(log n).
func above(n *node, total int) int {
	count := 0
	for n != nil {
		if n.total > total {
			count += nsize(n.left) + 1
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit nodes in table order.
func collectTopN(n *node, limit int, out *[]*node) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n)
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

type player struct {
	name   string
	total  int
	events map[string]int
}

type board struct {
	root    *node
	players map[string]*player
}

// contribution is what one event added, by category then player.
type contribution struct {
	seq    uint64
	points map[string]map[string]int
}

// TreapStore accumulates event points into per-category championship tables.
type TreapStore struct {
	mu     sync.RWMutex
	boards map[string]*board
	events map[string]contribution
	rnd    *rand.Rand
}

var _ Standings = (*TreapStore)(nil)

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		boards: make(map[string]*board),
		events: make(map[string]contribution),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// ReplaceEvent implements Standings.ReplaceEvent in O(k log n) for k rows.
func (s *TreapStore) ReplaceEvent(_ context.Context, eventID string, seq uint64, standings scoring.Standings) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStandingsLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]struct{})
	if prev, ok := s.events[eventID]; ok {
		if seq < prev.seq {
			return false, nil
		}
		s.subtract(eventID, prev, touched)
	}

	c := contribution{seq: seq, points: make(map[string]map[string]int, len(standings))}
	for category, rows := range standings {
		if len(rows) == 0 {
			continue
		}
		byPlayer := make(map[string]int, len(rows))
		for _, r := range rows {
			s.set(category, eventID, r)
			byPlayer[r.PlayerID] = r.Points
		}
		c.points[category] = byPlayer
		touched[category] = struct{}{}
	}
	s.events[eventID] = c
	s.publishSizes(touched)
	return true, nil
}

// RemoveEvent implements Standings.RemoveEvent.
func (s *TreapStore) RemoveEvent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.events[eventID]
	if !ok {
		return ErrNotFound
	}
	touched := make(map[string]struct{})
	s.subtract(eventID, prev, touched)
	delete(s.events, eventID)
	s.publishSizes(touched)
	return nil
}

// Rank returns a player's competition rank in O(log n).
func (s *TreapStore) Rank(_ context.Context, category, playerID string) (types.Standing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[category]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Standing{}, ErrNotFound
	}
	p, ok := b.players[playerID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Standing{}, ErrNotFound
	}
	return row(category, playerID, p, above(b.root, p.total)+1), nil
}

// TopN returns the top n rows of a category. Players with equal totals share
// a rank and the next rank skips accordingly.
func (s *TreapStore) TopN(_ context.Context, category string, n int) ([]types.Standing, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[category]
	if !ok {
		return []types.Standing{}, nil
	}
	nodes := make([]*node, 0, min(n, len(b.players)))
	collectTopN(b.root, n, &nodes)

	out := make([]types.Standing, len(nodes))
	rank := 0
	for i, nd := range nodes {
		if i == 0 || nd.total != nodes[i-1].total {
			rank = i + 1
		}
		out[i] = row(category, nd.id, b.players[nd.id], rank)
	}
	return out, nil
}

// Categories returns the categories that have players, sorted.
func (s *TreapStore) Categories(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.boards))
}

// Count returns the number of players in a category.
func (s *TreapStore) Count(_ context.Context, category string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.boards[category]; ok {
		return len(b.players)
	}
	return 0
}

// set records a player's points for one event. Assumes the write lock.
func (s *TreapStore) set(category, eventID string, r model.ScoredRow) {
	b, ok := s.boards[category]
	if !ok {
		b = &board{players: make(map[string]*player)}
		s.boards[category] = b
	}
	p, ok := b.players[r.PlayerID]
	if ok {
		b.root = deleteNode(b.root, r.PlayerID, p.total)
	} else {
		p = &player{events: make(map[string]int)}
		b.players[r.PlayerID] = p
	}
	if r.DisplayName != "" {
		p.name = r.DisplayName
	}
	p.total += r.Points - p.events[eventID]
	p.events[eventID] = r.Points
	b.root = insert(b.root, &node{id: r.PlayerID, total: p.total, prio: s.rnd.Uint64(), size: 1})
}

// subtract removes a previous contribution. Assumes the write lock.
func (s *TreapStore) subtract(eventID string, c contribution, touched map[string]struct{}) {
	for category, byPlayer := range c.points {
		touched[category] = struct{}{}
		b, ok := s.boards[category]
		if !ok {
			continue
		}
		for playerID := range byPlayer {
			p, ok := b.players[playerID]
			if !ok {
				continue
			}
			pts, ok := p.events[eventID]
			if !ok {
				continue
			}
			b.root = deleteNode(b.root, playerID, p.total)
			delete(p.events, eventID)
			if len(p.events) == 0 {
				delete(b.players, playerID)
				continue
			}
			p.total -= pts
			b.root = insert(b.root, &node{id: playerID, total: p.total, prio: s.rnd.Uint64(), size: 1})
		}
		if len(b.players) == 0 {
			delete(s.boards, category)
		}
	}
}

func (s *TreapStore) publishSizes(touched map[string]struct{}) {
	for category := range touched {
		n := 0
		if b, ok := s.boards[category]; ok {
			n = len(b.players)
		}
		metrics.UpdateStandingsPlayers(category, n)
	}
}

func row(category, playerID string, p *player, rank int) types.Standing {
	name := p.name
	if name == "" {
		name = playerID
	}
	return types.Standing{
		Rank:     rank,
		Category: category,
		PlayerID: playerID,
		Name:     name,
		Total:    p.total,
		Events:   maps.Clone(p.events),
	}
}
