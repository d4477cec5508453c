// Package unread derives per-friend and total unread message counts.
//
// Two sources feed the counts: incoming WebSocket messages (push path,
// incremental) and periodic refreshes over the full message lists (poll
// path, recomputed from scratch). Both compare message timestamps against
// the persisted per-friend visit records, so overlapping refreshes with
// the same input converge on the same result.
package unread

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/statefile"
)

const recordVersion = 1

// Counter tracks visit records and unread counts for one authenticated
// user. Visit records are durable; live counts are rebuilt each session.
type Counter struct {
	mu      sync.Mutex
	path    string // empty disables persistence (tests)
	visits  map[client.UserID]time.Time
	clicks  map[client.UserID]time.Time
	lastMsg map[client.UserID]time.Time
	counts  map[client.UserID]int
}

// diskRecord is the stored shape, keyed by stringified friend ids.
type diskRecord struct {
	Version     int                  `json:"version"`
	LastVisited map[string]time.Time `json:"lastVisited"`
	LastClicked map[string]time.Time `json:"lastClicked"`
	LastMessage map[string]time.Time `json:"lastMessage"`
}

// NewCounter creates a counter backed by a per-user state file under dir.
// A missing or corrupt file starts fresh; an empty dir disables
// persistence entirely.
func NewCounter(dir string, userID client.UserID) *Counter {
	c := &Counter{
		visits:  make(map[client.UserID]time.Time),
		clicks:  make(map[client.UserID]time.Time),
		lastMsg: make(map[client.UserID]time.Time),
		counts:  make(map[client.UserID]int),
	}
	if dir == "" {
		return c
	}
	c.path = filepath.Join(dir, fmt.Sprintf("chat_visits_%d.json", userID))

	var rec diskRecord
	if err := statefile.Load(c.path, &rec); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("unread: discarding visit records: %v", err)
		}
		return c
	}
	c.visits = fromDisk(rec.LastVisited)
	c.clicks = fromDisk(rec.LastClicked)
	c.lastMsg = fromDisk(rec.LastMessage)
	return c
}

// MarkVisited records that the user opened the friend's chat now.
func (c *Counter) MarkVisited(friendID client.UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visits[friendID] = time.Now().UTC()
	c.saveLocked()
}

// MarkClicked records that the user selected the friend in the list.
// Feeds the blue-tick display, not the unread counts.
func (c *Counter) MarkClicked(friendID client.UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clicks[friendID] = time.Now().UTC()
	c.saveLocked()
}

// UpdateLastMessage records the timestamp of the newest message received
// from the friend.
func (c *Counter) UpdateLastMessage(friendID client.UserID, ts time.Time) {
	if ts.IsZero() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastMsg[friendID] = ts
	c.saveLocked()
}

// LastVisit returns the recorded last visit for a friend, if any.
func (c *Counter) LastVisit(friendID client.UserID) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.visits[friendID]
	return t, ok
}

// LastClick returns the recorded last click for a friend, if any.
func (c *Counter) LastClick(friendID client.UserID) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.clicks[friendID]
	return t, ok
}

// CalculateUnread counts unseen messages from the friend that arrived
// after the last visit. A friend never visited counts every unseen
// message (first-contact semantics).
func (c *Counter) CalculateUnread(friendID client.UserID, msgs []client.Message) int {
	c.mu.Lock()
	lastVisit, visited := c.visits[friendID]
	c.mu.Unlock()
	return countUnread(friendID, lastVisit, visited, msgs)
}

// CountGreyTicks counts the friend's delivered-but-unseen messages for
// the delivery-status badge. It shares countUnread with CalculateUnread
// on purpose: the two badges must never diverge.
func (c *Counter) CountGreyTicks(friendID client.UserID, msgs []client.Message) int {
	return c.CalculateUnread(friendID, msgs)
}

// HandleIncoming processes a pushed chat message, incrementing the
// sender's count when the message postdates the last visit. Messages not
// addressed to self are ignored.
func (c *Counter) HandleIncoming(self client.UserID, msg client.Message) {
	if msg.Receiver != self || msg.Sender == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !msg.Timestamp.IsZero() {
		c.lastMsg[msg.Sender] = msg.Timestamp.Time
		c.saveLocked()
	}
	lastVisit, visited := c.visits[msg.Sender]
	if !visited || (!msg.Timestamp.IsZero() && msg.Timestamp.After(lastVisit)) {
		c.counts[msg.Sender]++
	}
}

// UpdateAll recomputes every friend's count from full message lists.
// Running it twice with the same input yields the same state.
func (c *Counter) UpdateAll(perFriend map[client.UserID][]client.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := make(map[client.UserID]int, len(perFriend))
	for friendID, msgs := range perFriend {
		lastVisit, visited := c.visits[friendID]
		if n := countUnread(friendID, lastVisit, visited, msgs); n > 0 {
			counts[friendID] = n
		}
	}
	c.counts = counts
}

// ClearForFriend zeroes a friend's count immediately, ahead of any
// recomputation. Called when the friend's chat is opened.
func (c *Counter) ClearForFriend(friendID client.UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, friendID)
}

// Count returns the live count for one friend.
func (c *Counter) Count(friendID client.UserID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[friendID]
}

// TotalUnread sums the live counts across all friends.
func (c *Counter) TotalUnread() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Counts returns a copy of the live per-friend counts.
func (c *Counter) Counts() map[client.UserID]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[client.UserID]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// ClearRecords wipes all visit records and the backing file.
func (c *Counter) ClearRecords() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visits = make(map[client.UserID]time.Time)
	c.clicks = make(map[client.UserID]time.Time)
	c.lastMsg = make(map[client.UserID]time.Time)
	c.counts = make(map[client.UserID]int)
	if c.path != "" {
		if err := statefile.Remove(c.path); err != nil {
			log.Printf("unread: removing visit records: %v", err)
		}
	}
}

// countUnread is the single unread predicate shared by the notification
// badge and the grey-tick badge. Messages with unparsable timestamps are
// excluded from the visited branch rather than crashing the comparison.
func countUnread(friendID client.UserID, lastVisit time.Time, visited bool, msgs []client.Message) int {
	n := 0
	for _, m := range msgs {
		if m.Sender != friendID || m.Seen {
			continue
		}
		if !visited {
			n++
			continue
		}
		if !m.Timestamp.IsZero() && m.Timestamp.After(lastVisit) {
			n++
		}
	}
	return n
}

func (c *Counter) saveLocked() {
	if c.path == "" {
		return
	}
	rec := diskRecord{
		Version:     recordVersion,
		LastVisited: toDisk(c.visits),
		LastClicked: toDisk(c.clicks),
		LastMessage: toDisk(c.lastMsg),
	}
	if err := statefile.Save(c.path, &rec); err != nil {
		log.Printf("unread: saving visit records: %v", err)
	}
}

func toDisk(m map[client.UserID]time.Time) map[string]time.Time {
	out := make(map[string]time.Time, len(m))
	for k, v := range m {
		out[k.String()] = v
	}
	return out
}

func fromDisk(m map[string]time.Time) map[client.UserID]time.Time {
	out := make(map[client.UserID]time.Time, len(m))
	for k, v := range m {
		if id, err := strconv.ParseInt(k, 10, 64); err == nil {
			out[client.UserID(id)] = v
		}
	}
	return out
}
