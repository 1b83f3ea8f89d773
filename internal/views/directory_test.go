package views

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/vennapp/venner/internal/models"
	"github.com/vennapp/venner/internal/realtime"
)

func findEntry(t *testing.T, entries []DirectoryEntry, userID uuid.UUID) DirectoryEntry {
	t.Helper()
	for _, e := range entries {
		if e.Profile.UserID == userID {
			return e
		}
	}
	t.Fatalf("no directory entry for user %s", userID)
	return DirectoryEntry{}
}

func TestDirectory_LoadEnrichesEntries(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	self := uuid.New()
	friend := uuid.New()
	stranger := uuid.New()
	store.addProfile(self, "Mig", true)
	store.addProfile(friend, "Anna", true)
	store.addProfile(stranger, "Bo", false)
	store.addEdge(self, friend, models.FriendshipStatusAccepted)

	interestID := uuid.New()
	store.memberships = append(store.memberships, models.InterestMembership{
		UserID: friend, InterestID: interestID, InterestName: "Løb",
	})

	d := NewDirectory(self, store, store, store)
	if err := d.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	entries := d.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Profile.UserID == self {
			t.Error("directory must not contain the viewer's own profile")
		}
	}

	friendEntry := findEntry(t, entries, friend)
	if friendEntry.Status != models.RelationAccepted || !friendEntry.IsFriend {
		t.Errorf("expected accepted friend, got status=%q isFriend=%v", friendEntry.Status, friendEntry.IsFriend)
	}
	if len(friendEntry.Interests) != 1 || friendEntry.Interests[0] != "Løb" {
		t.Errorf("expected interests [Løb], got %v", friendEntry.Interests)
	}

	strangerEntry := findEntry(t, entries, stranger)
	if strangerEntry.Status != models.RelationNone || strangerEntry.IsFriend {
		t.Errorf("expected no relation, got status=%q isFriend=%v", strangerEntry.Status, strangerEntry.IsFriend)
	}
	if strangerEntry.Interests == nil {
		t.Error("interests must be an empty slice, not nil")
	}
}

func TestDirectory_LoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	self := uuid.New()
	other := uuid.New()
	store.addProfile(self, "Mig", true)
	store.addProfile(other, "Anna", false)
	store.addEdge(self, other, models.FriendshipStatusPending)

	d := NewDirectory(self, store, store, store)
	if err := d.Load(ctx); err != nil {
		t.Fatalf("first Load failed: %v", err)
	}
	first := d.Entries()
	if err := d.Load(ctx); err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	second := d.Entries()

	if len(first) != len(second) {
		t.Fatalf("reload changed entry count: %d vs %d", len(first), len(second))
	}
	if first[0].Profile.UserID != second[0].Profile.UserID || first[0].Status != second[0].Status {
		t.Error("reload without data changes must produce the same entries")
	}
}

func TestDirectory_SendFriendRequestReflectsImmediately(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	self := uuid.New()
	other := uuid.New()
	store.addProfile(self, "Mig", true)
	store.addProfile(other, "Anna", false)

	d := NewDirectory(self, store, store, store)
	if err := d.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := d.SendFriendRequest(ctx, other); err != nil {
		t.Fatalf("SendFriendRequest failed: %v", err)
	}

	entry := findEntry(t, d.Entries(), other)
	if entry.Status != models.RelationPending {
		t.Errorf("expected status %q after sending request, got %q", models.RelationPending, entry.Status)
	}
}

func TestDirectory_WriteFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	self := uuid.New()
	other := uuid.New()
	store.addProfile(self, "Mig", true)
	store.addProfile(other, "Anna", false)

	d := NewDirectory(self, store, store, store)
	if err := d.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	before := store.loadCalls

	store.failSendRequest = errors.New("db down")
	if err := d.SendFriendRequest(ctx, other); err == nil {
		t.Fatal("expected write error")
	}

	if store.loadCalls != before {
		t.Error("failed write must not trigger a reload")
	}
	entry := findEntry(t, d.Entries(), other)
	if entry.Status != models.RelationNone {
		t.Errorf("expected status unchanged at %q, got %q", models.RelationNone, entry.Status)
	}
}

func TestDirectory_RequestLifecycleAcrossTwoViews(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	alice := uuid.New()
	bob := uuid.New()
	store.addProfile(alice, "Alice", true)
	store.addProfile(bob, "Bob", true)

	aliceDir := NewDirectory(alice, store, store, store)
	bobDir := NewDirectory(bob, store, store, store)
	if err := aliceDir.Load(ctx); err != nil {
		t.Fatalf("alice Load failed: %v", err)
	}
	if err := bobDir.Load(ctx); err != nil {
		t.Fatalf("bob Load failed: %v", err)
	}

	if err := aliceDir.SendFriendRequest(ctx, bob); err != nil {
		t.Fatalf("SendFriendRequest failed: %v", err)
	}
	if err := bobDir.Load(ctx); err != nil {
		t.Fatalf("bob reload failed: %v", err)
	}

	if got := findEntry(t, aliceDir.Entries(), bob).Status; got != models.RelationPending {
		t.Errorf("alice sees %q, want %q", got, models.RelationPending)
	}
	if got := findEntry(t, bobDir.Entries(), alice).Status; got != models.RelationRequested {
		t.Errorf("bob sees %q, want %q", got, models.RelationRequested)
	}

	if err := bobDir.AcceptFriendRequest(ctx, alice); err != nil {
		t.Fatalf("AcceptFriendRequest failed: %v", err)
	}
	if err := aliceDir.Load(ctx); err != nil {
		t.Fatalf("alice reload failed: %v", err)
	}

	if got := findEntry(t, aliceDir.Entries(), bob).Status; got != models.RelationAccepted {
		t.Errorf("alice sees %q after accept, want %q", got, models.RelationAccepted)
	}
	if got := findEntry(t, bobDir.Entries(), alice).Status; got != models.RelationAccepted {
		t.Errorf("bob sees %q after accept, want %q", got, models.RelationAccepted)
	}

	if err := aliceDir.RemoveFriend(ctx, bob); err != nil {
		t.Fatalf("RemoveFriend failed: %v", err)
	}
	if err := bobDir.Load(ctx); err != nil {
		t.Fatalf("bob reload failed: %v", err)
	}
	if got := findEntry(t, bobDir.Entries(), alice).Status; got != models.RelationNone {
		t.Errorf("bob sees %q after unfriend, want %q", got, models.RelationNone)
	}
}

func TestDirectory_HandleEventSkipsBeforeFirstLoad(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	self := uuid.New()

	d := NewDirectory(self, store, store, store)
	evt := insertEvent(realtime.TableProfiles, models.Profile{ID: uuid.New(), UserID: uuid.New()})
	if err := d.HandleEvent(ctx, evt); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if store.loadCalls != 0 {
		t.Error("events before the first load must not trigger fetches")
	}
	if d.Loaded() {
		t.Error("directory must stay unloaded until Load is called")
	}
}

func TestDirectory_HandleEventIgnoresForeignFriendships(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	self := uuid.New()
	store.addProfile(self, "Mig", true)

	d := NewDirectory(self, store, store, store)
	if err := d.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	before := store.loadCalls

	foreign := models.Friendship{ID: uuid.New(), RequesterID: uuid.New(), AddresseeID: uuid.New(), Status: models.FriendshipStatusPending}
	if err := d.HandleEvent(ctx, insertEvent(realtime.TableFriendships, foreign)); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if store.loadCalls != before {
		t.Error("friendship events not touching the user must not reload")
	}

	mine := models.Friendship{ID: uuid.New(), RequesterID: uuid.New(), AddresseeID: self, Status: models.FriendshipStatusPending}
	if err := d.HandleEvent(ctx, insertEvent(realtime.TableFriendships, mine)); err != nil {
		t.Fatalf("HandleEvent failed: %v", err)
	}
	if store.loadCalls != before+1 {
		t.Error("friendship events touching the user must reload")
	}
}
