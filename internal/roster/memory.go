package roster

import (
	"context"
	"sync"

	"matchgate/pkg/platform/sentinel"
)

// InMemoryProvider holds rosters seeded by tests or the dev entrypoint.
type InMemoryProvider struct {
	mu      sync.RWMutex
	players map[rosterKey][]Player
}

type rosterKey struct {
	matchID string
	teamID  string
}

func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{players: make(map[rosterKey][]Player)}
}

// Seed replaces the roster for one (match, team).
func (p *InMemoryProvider) Seed(matchID, teamID string, players []Player) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.players[rosterKey{matchID, teamID}] = append([]Player(nil), players...)
}

func (p *InMemoryProvider) EligiblePlayers(_ context.Context, matchID, teamID string) ([]Player, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Player(nil), p.players[rosterKey{matchID, teamID}]...), nil
}

func (p *InMemoryProvider) Player(_ context.Context, matchID, teamID, playerID string) (Player, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, player := range p.players[rosterKey{matchID, teamID}] {
		if player.ID == playerID {
			return player, nil
		}
	}
	return Player{}, sentinel.ErrNotFound
}

// InMemoryEligibility tracks blocked teams.
type InMemoryEligibility struct {
	mu      sync.RWMutex
	blocked map[string]bool
}

func NewInMemoryEligibility() *InMemoryEligibility {
	return &InMemoryEligibility{blocked: make(map[string]bool)}
}

// SetBlocked marks or unmarks a team as blocked.
func (e *InMemoryEligibility) SetBlocked(teamID string, blocked bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.blocked[teamID] = blocked
}

func (e *InMemoryEligibility) IsBlocked(_ context.Context, teamID string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.blocked[teamID], nil
}
