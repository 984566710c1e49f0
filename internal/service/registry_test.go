package service

import (
	"encoding/json"
	"fmt"
	"testing"

	"go.uber.org/zap"
)

func newTestRegistry(queueCap int) *Registry {
	return NewRegistry(1024, 1024, 0, queueCap, zap.NewNop())
}

func newTestClient(id string) *Client {
	return NewClient(id, nil, 32, zap.NewNop())
}

// drainFrames reads every pending frame off the client's send channel.
func drainFrames(t *testing.T, c *Client) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return out
			}
			var env Envelope
			if err := json.Unmarshal(frame, &env); err != nil {
				t.Fatalf("unmarshal frame: %v", err)
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestSendBuffersWhenNoClient(t *testing.T) {
	r := newTestRegistry(16)

	if delivered := r.Send("sess-1", "video", map[string]string{"url": "a"}); delivered {
		t.Fatal("Send reported live delivery with no client connected")
	}
	if got := r.BufferedTargets(); got != 1 {
		t.Fatalf("BufferedTargets = %d, want 1", got)
	}
}

func TestRegisterReplaysBufferedQueueInOrder(t *testing.T) {
	r := newTestRegistry(16)

	for i := 0; i < 3; i++ {
		r.Send("sess-1", fmt.Sprintf("event-%d", i), map[string]int{"i": i})
	}

	c := newTestClient("c1")
	r.Register(c, "sess-1")

	frames := drainFrames(t, c)
	if len(frames) != 3 {
		t.Fatalf("replayed %d frames, want 3", len(frames))
	}
	for i, env := range frames {
		if want := fmt.Sprintf("event-%d", i); env.Event != want {
			t.Errorf("frame %d event = %q, want %q", i, env.Event, want)
		}
	}
	// Replay is exactly-once: the queue is gone.
	if got := r.BufferedTargets(); got != 0 {
		t.Fatalf("BufferedTargets after replay = %d, want 0", got)
	}

	c2 := newTestClient("c2")
	r.Register(c2, "sess-1")
	if frames := drainFrames(t, c2); len(frames) != 0 {
		t.Fatalf("second registration replayed %d frames, want 0", len(frames))
	}
}

func TestBufferQueueDropsOldestAtCapacity(t *testing.T) {
	r := newTestRegistry(2)

	r.Send("sess-1", "first", nil)
	r.Send("sess-1", "second", nil)
	r.Send("sess-1", "third", nil)

	c := newTestClient("c1")
	r.Register(c, "sess-1")

	frames := drainFrames(t, c)
	if len(frames) != 2 {
		t.Fatalf("replayed %d frames, want 2", len(frames))
	}
	if frames[0].Event != "second" || frames[1].Event != "third" {
		t.Errorf("got events %q, %q; want second, third", frames[0].Event, frames[1].Event)
	}
}

func TestRegisterEvictsPreviousClient(t *testing.T) {
	r := newTestRegistry(16)

	c1 := newTestClient("c1")
	c2 := newTestClient("c2")
	r.Register(c1, "sess-1")
	r.Register(c2, "sess-1")

	// The old client's send channel is closed by the eviction.
	if _, ok := <-c1.send; ok {
		t.Fatal("evicted client still has an open send channel")
	}

	if delivered := r.Send("sess-1", "video", nil); !delivered {
		t.Fatal("Send did not reach the replacement client")
	}
	frames := drainFrames(t, c2)
	if len(frames) != 1 || frames[0].Event != "video" {
		t.Fatalf("replacement client frames = %+v, want single video event", frames)
	}
}

func TestEnqueueAfterCloseIsRejected(t *testing.T) {
	c := newTestClient("c1")
	c.Close()
	c.Close() // idempotent

	if c.Enqueue("video", nil) {
		t.Fatal("Enqueue on a closed client reported delivery")
	}
}

func TestBroadcastSurvivesEvictedRoomMember(t *testing.T) {
	r := newTestRegistry(16)

	// c1 is registered, authenticated and joined to a room, then evicted by
	// a duplicate registration while all its bindings are still in place.
	c1 := newTestClient("c1")
	r.Register(c1, "sess-1")
	r.Authenticate(c1, "u1", "alice")
	r.AddToVideo(c1, "vid-1")

	peer := newTestClient("c2")
	r.Authenticate(peer, "u2", "bob")
	r.AddToVideo(peer, "vid-1")
	drainFrames(t, peer)

	replacement := newTestClient("c3")
	r.Register(replacement, "sess-1")

	// Fan-out over the room must skip the closed member, not panic.
	r.Broadcast("vid-1", "playback_state", map[string]any{"isPlaying": true}, nil)
	if r.SendToUser("u1", "collaboration_invite", nil) {
		t.Error("SendToUser reported live delivery through a closed connection")
	}

	frames := drainFrames(t, peer)
	if len(frames) != 1 || frames[0].Event != "playback_state" {
		t.Fatalf("peer frames = %+v, want single playback_state", frames)
	}
}

func TestAuthenticateReplaysUserQueue(t *testing.T) {
	r := newTestRegistry(16)

	if delivered := r.SendToUser("u1", "collaboration_invite", nil); delivered {
		t.Fatal("SendToUser reported delivery with user offline")
	}

	c := newTestClient("c1")
	r.Authenticate(c, "u1", "alice")

	frames := drainFrames(t, c)
	if len(frames) != 1 || frames[0].Event != "collaboration_invite" {
		t.Fatalf("frames = %+v, want buffered collaboration_invite", frames)
	}
	if userID, username := c.Identity(); userID != "u1" || username != "alice" {
		t.Errorf("Identity = %q/%q, want u1/alice", userID, username)
	}
}

func TestSendToUserReachesAllConnections(t *testing.T) {
	r := newTestRegistry(16)

	c1 := newTestClient("c1")
	c2 := newTestClient("c2")
	r.Authenticate(c1, "u1", "alice")
	r.Authenticate(c2, "u1", "alice")

	if delivered := r.SendToUser("u1", "control_granted", nil); !delivered {
		t.Fatal("SendToUser failed with two live connections")
	}
	for _, c := range []*Client{c1, c2} {
		frames := drainFrames(t, c)
		if len(frames) != 1 || frames[0].Event != "control_granted" {
			t.Fatalf("client %s frames = %+v, want control_granted", c.ID, frames)
		}
	}
}

func TestBroadcastExcludesInitiator(t *testing.T) {
	r := newTestRegistry(16)

	c1 := newTestClient("c1")
	c2 := newTestClient("c2")
	r.AddToVideo(c1, "vid-1")
	r.AddToVideo(c2, "vid-1")

	r.Broadcast("vid-1", "playback_control", nil, c1)

	if frames := drainFrames(t, c1); len(frames) != 0 {
		t.Fatalf("initiator received %d frames, want 0", len(frames))
	}
	frames := drainFrames(t, c2)
	if len(frames) != 1 || frames[0].Event != "playback_control" {
		t.Fatalf("peer frames = %+v, want playback_control", frames)
	}
}

func TestBroadcastBuffersForEmptyRoom(t *testing.T) {
	r := newTestRegistry(16)

	r.Broadcast("vid-1", "language_added", map[string]string{"language": "es"}, nil)
	if got := r.BufferedTargets(); got != 1 {
		t.Fatalf("BufferedTargets = %d, want 1", got)
	}

	c := newTestClient("c1")
	r.AddToVideo(c, "vid-1")
	frames := drainFrames(t, c)
	if len(frames) != 1 || frames[0].Event != "language_added" {
		t.Fatalf("frames = %+v, want buffered language_added", frames)
	}
}

func TestUnregisterRemovesAllBindings(t *testing.T) {
	r := newTestRegistry(16)

	c := newTestClient("c1")
	r.Register(c, "sess-1")
	r.Authenticate(c, "u1", "alice")
	r.AddToVideo(c, "vid-1")

	if got := r.ConnectionCount(); got != 1 {
		t.Fatalf("ConnectionCount = %d, want 1", got)
	}

	r.Unregister(c)

	if got := r.ConnectionCount(); got != 0 {
		t.Fatalf("ConnectionCount after unregister = %d, want 0", got)
	}
	if _, ok := r.UserInVideo("vid-1", "u1"); ok {
		t.Fatal("unregistered client still visible in video room")
	}
	// Post-unregister sends fall back to buffering, not a dead client.
	if delivered := r.Send("sess-1", "video", nil); delivered {
		t.Fatal("Send reported delivery to an unregistered client")
	}
}

func TestUserInVideo(t *testing.T) {
	r := newTestRegistry(16)

	c := newTestClient("c1")
	r.Authenticate(c, "u1", "alice")
	r.AddToVideo(c, "vid-1")

	if _, ok := r.UserInVideo("vid-1", "u1"); !ok {
		t.Fatal("UserInVideo missed a joined user")
	}
	if _, ok := r.UserInVideo("vid-1", "u2"); ok {
		t.Fatal("UserInVideo matched a user who never joined")
	}

	r.RemoveFromVideo(c, "vid-1")
	if _, ok := r.UserInVideo("vid-1", "u1"); ok {
		t.Fatal("UserInVideo matched after RemoveFromVideo")
	}
}
