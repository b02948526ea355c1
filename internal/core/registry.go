package core

import (
	"github.com/avray/parley/internal/domain"

	"github.com/samber/lo"
)

// participantRegistry tracks which identities are present in a room and
// which distinct users that amounts to. A user with several live sessions
// counts once. Callers hold the room lock; the registry itself is plain
// bookkeeping.
type participantRegistry struct {
	identities map[domain.Identity]struct{}
	users      map[domain.UserID]int // live identity count per user
}

func newParticipantRegistry() *participantRegistry {
	return &participantRegistry{
		identities: make(map[domain.Identity]struct{}),
		users:      make(map[domain.UserID]int),
	}
}

// insert registers the identity and reports whether its user transitioned
// from absent to present. Re-inserting a live identity is a caller error and
// is ignored so it cannot skew the distinct count.
func (r *participantRegistry) insert(id domain.Identity) bool {
	if _, ok := r.identities[id]; ok {
		return false
	}
	r.identities[id] = struct{}{}
	r.users[id.UserID]++
	return r.users[id.UserID] == 1
}

// remove unregisters the identity and reports whether its user transitioned
// from present to absent.
func (r *participantRegistry) remove(id domain.Identity) bool {
	if _, ok := r.identities[id]; !ok {
		return false
	}
	delete(r.identities, id)
	r.users[id.UserID]--
	if r.users[id.UserID] <= 0 {
		delete(r.users, id.UserID)
		return true
	}
	return false
}

// distinctUserIDs snapshots the users currently present.
func (r *participantRegistry) distinctUserIDs() []string {
	return lo.Map(lo.Keys(r.users), func(u domain.UserID, _ int) string {
		return string(u)
	})
}

func (r *participantRegistry) identityCount() int {
	return len(r.identities)
}
