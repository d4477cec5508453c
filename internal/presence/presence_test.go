package presence

import (
	"sort"
	"testing"
)

func TestAddRemoveRoundTrip(t *testing.T) {
	s := NewSet()
	s.Add("42", "alice")
	if !s.Contains("42") || !s.Contains("alice") {
		t.Fatal("both aliases should be members after Add")
	}

	s.Remove("42", "alice")
	if s.Len() != 0 {
		t.Errorf("set should be empty after removal, has %d members", s.Len())
	}
}

func TestAliasAwareRemoval(t *testing.T) {
	// A connect event carries both the id and username; a later
	// disconnect may carry only the username. The id must go too.
	s := NewSet()
	s.Add("42", "alice")
	s.Remove("alice")

	if s.Contains("42") {
		t.Error("removing username should also remove the aliased numeric id")
	}
	if s.Contains("alice") {
		t.Error("alice should be removed")
	}
}

func TestRemoveByIDClearsUsername(t *testing.T) {
	s := NewSet()
	s.Add("42", "alice")
	s.Remove("42")
	if s.Contains("alice") {
		t.Error("removing id should also remove the aliased username")
	}
}

func TestIsOnlineAnyAlias(t *testing.T) {
	s := NewSet()
	s.Add("7", "bob")

	if !s.IsOnline("7", "bob", "Bob Smith") {
		t.Error("user should be online via id alias")
	}
	if !s.IsOnline("bob") {
		t.Error("user should be online via username alias")
	}
	if s.IsOnline("8", "carol") {
		t.Error("unknown user should not be online")
	}
}

func TestReplaceAllDiscardsStale(t *testing.T) {
	s := NewSet()
	s.Add("1", "alice")
	s.Add("2", "bob")

	s.ReplaceAll([][]string{{"3", "carol"}})

	if s.IsOnline("1") || s.IsOnline("bob") {
		t.Error("stale entries should be gone after ReplaceAll")
	}
	if !s.IsOnline("3") || !s.IsOnline("carol") {
		t.Error("snapshot entries should be present")
	}

	// Alias groups from the snapshot survive for later removals.
	s.Remove("carol")
	if s.Contains("3") {
		t.Error("snapshot alias group should be removable as a unit")
	}
}

func TestIdempotentAdd(t *testing.T) {
	s := NewSet()
	s.Add("5", "dave")
	s.Add("5", "dave")
	s.Add("5")

	if s.Len() != 2 {
		t.Errorf("expected 2 members, got %d", s.Len())
	}
	if s.Users() != 1 {
		t.Errorf("expected 1 user, got %d", s.Users())
	}

	got := s.Snapshot()
	sort.Strings(got)
	want := []string{"5", "dave"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("snapshot = %v, want %v", got, want)
		}
	}
}

func TestUsersCountsAliasGroupsOnce(t *testing.T) {
	s := NewSet()
	s.ReplaceAll([][]string{{"2", "bob"}, {"3"}})
	if s.Users() != 2 {
		t.Errorf("Users = %d, want 2", s.Users())
	}

	// A later event linking a new alias to an existing user must not
	// bump the count.
	s.Add("bob", "Bob Smith")
	if s.Users() != 2 {
		t.Errorf("Users after alias merge = %d, want 2", s.Users())
	}

	s.Remove("3")
	if s.Users() != 1 {
		t.Errorf("Users after removal = %d, want 1", s.Users())
	}
}

func TestEmptyIdentifiersIgnored(t *testing.T) {
	s := NewSet()
	s.Add("", "eve", "")
	if s.Len() != 1 {
		t.Errorf("expected 1 member, got %d", s.Len())
	}
	s.Remove("")
	if !s.Contains("eve") {
		t.Error("removing an empty id should not touch real members")
	}
}
