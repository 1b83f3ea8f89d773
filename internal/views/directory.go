package views

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/models"
	"github.com/vennapp/venner/internal/realtime"
	"github.com/vennapp/venner/internal/services"
)

// DirectoryEntry is one browsable profile enriched with the viewer's
// relationship to it.
type DirectoryEntry struct {
	Profile   models.Profile        `json:"profile"`
	Interests []string              `json:"interests"`
	Status    models.RelationStatus `json:"status"`
	IsFriend  bool                  `json:"is_friend"`
	Age       *int                  `json:"age,omitempty"`
}

// Directory is one user's view of every other profile. It reloads wholesale
// after each mutation and on relevant change events; there is no incremental
// patching, so a successful reload is always internally consistent.
type Directory struct {
	selfID    uuid.UUID
	profiles  services.ProfileServiceInterface
	friends   services.FriendServiceInterface
	interests services.InterestServiceInterface
	now       func() time.Time

	mu         gosync.Mutex
	generation uint64
	entries    []DirectoryEntry
	loaded     bool
}

func NewDirectory(selfID uuid.UUID, profiles services.ProfileServiceInterface, friends services.FriendServiceInterface, interests services.InterestServiceInterface) *Directory {
	return &Directory{
		selfID:    selfID,
		profiles:  profiles,
		friends:   friends,
		interests: interests,
		now:       time.Now,
	}
}

// Load refetches everything the directory is built from and rebuilds the
// enriched list. A load that finishes after a newer one started is dropped:
// the generation check keeps a slow fetch from overwriting fresher state.
func (d *Directory) Load(ctx context.Context) error {
	d.mu.Lock()
	d.generation++
	gen := d.generation
	d.mu.Unlock()

	profiles, err := d.profiles.ListExcept(ctx, d.selfID)
	if err != nil {
		return fmt.Errorf("loading directory profiles: %w", err)
	}
	edges, err := d.friends.ListTouching(ctx, d.selfID)
	if err != nil {
		return fmt.Errorf("loading directory friendships: %w", err)
	}
	memberships, err := d.interests.ListMemberships(ctx)
	if err != nil {
		return fmt.Errorf("loading directory interests: %w", err)
	}

	interestsByUser := make(map[uuid.UUID][]string)
	for _, m := range memberships {
		interestsByUser[m.UserID] = append(interestsByUser[m.UserID], m.InterestName)
	}

	now := d.now()
	entries := make([]DirectoryEntry, 0, len(profiles))
	for _, p := range profiles {
		status := ResolveFriendshipStatus(d.selfID, p.UserID, edges)
		names := interestsByUser[p.UserID]
		if names == nil {
			names = []string{}
		}
		entries = append(entries, DirectoryEntry{
			Profile:   p,
			Interests: names,
			Status:    status,
			IsFriend:  status == models.RelationAccepted,
			Age:       p.Age(now),
		})
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.generation != gen {
		return nil
	}
	d.entries = entries
	d.loaded = true
	return nil
}

// Entries returns the current enriched list. Callers must not mutate it.
func (d *Directory) Entries() []DirectoryEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]DirectoryEntry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Loaded reports whether at least one Load has completed.
func (d *Directory) Loaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}

// SendFriendRequest writes the edge, then reloads so the caller reads its own
// write. A failed write skips the reload and leaves the last good state.
func (d *Directory) SendFriendRequest(ctx context.Context, targetID uuid.UUID) error {
	if _, err := d.friends.SendRequest(ctx, d.selfID, targetID); err != nil {
		return err
	}
	return d.Load(ctx)
}

// AcceptFriendRequest accepts the pending request from requesterID.
func (d *Directory) AcceptFriendRequest(ctx context.Context, requesterID uuid.UUID) error {
	if _, err := d.friends.AcceptRequest(ctx, d.selfID, requesterID); err != nil {
		return err
	}
	return d.Load(ctx)
}

// RejectFriendRequest deletes the pending request from requesterID.
func (d *Directory) RejectFriendRequest(ctx context.Context, requesterID uuid.UUID) error {
	if err := d.friends.RejectRequest(ctx, d.selfID, requesterID); err != nil {
		return err
	}
	return d.Load(ctx)
}

// CancelFriendRequest withdraws the pending request the user sent.
func (d *Directory) CancelFriendRequest(ctx context.Context, addresseeID uuid.UUID) error {
	if err := d.friends.CancelRequest(ctx, d.selfID, addresseeID); err != nil {
		return err
	}
	return d.Load(ctx)
}

// RemoveFriend deletes the accepted edge with targetID.
func (d *Directory) RemoveFriend(ctx context.Context, targetID uuid.UUID) error {
	if err := d.friends.RemoveFriend(ctx, d.selfID, targetID); err != nil {
		return err
	}
	return d.Load(ctx)
}

// HandleEvent reloads the directory when a change could affect it. Friendship
// events not touching the user are ignored; profile events always reload
// since any profile in the list may have changed.
func (d *Directory) HandleEvent(ctx context.Context, evt realtime.Event) error {
	if !d.Loaded() {
		return nil
	}
	switch evt.Table {
	case realtime.TableFriendships:
		var edge models.Friendship
		if err := evt.Decode(&edge); err == nil && !edge.Touches(d.selfID) {
			return nil
		}
		return d.Load(ctx)
	case realtime.TableProfiles:
		return d.Load(ctx)
	}
	return nil
}
