package service

import (
	"sync"
	"time"

	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/errs"
	"github.com/Chaitanya-Sonawane/clueso-clone-sub000/internal/model"
	"go.uber.org/zap"
)

// Playback rate bounds applied to rate changes.
const (
	minPlaybackRate = 0.25
	maxPlaybackRate = 2.0
)

// playbackState is the authoritative per-video record. All mutations happen
// under mu; broadcasts are issued while holding mu so room delivery order
// matches the server-observed mutation order.
type playbackState struct {
	mu sync.Mutex

	// deleted marks a state removed from the engine map; a joiner that
	// fetched the pointer before removal must re-fetch instead of writing
	// into an orphaned state.
	deleted bool

	videoID            string
	currentTime        float64
	isPlaying          bool
	playbackRate       float64
	originalDuration   float64
	hasAudio           bool
	audioTrackDuration float64
	controllerID       string // userID holding control; empty when unset
	participants       map[*Client]model.Identity
	lastUpdate         time.Time
}

func (s *playbackState) snapshotLocked() model.PlaybackSnapshot {
	return model.PlaybackSnapshot{
		VideoID:            s.videoID,
		CurrentTime:        s.currentTime,
		IsPlaying:          s.isPlaying,
		PlaybackRate:       s.playbackRate,
		OriginalDuration:   s.originalDuration,
		HasAudio:           s.hasAudio,
		AudioTrackDuration: s.audioTrackDuration,
		ControllerID:       s.controllerID,
		ActiveUsers:        len(s.participants),
		LastUpdate:         s.lastUpdate.UnixMilli(),
	}
}

// CapabilityResolver returns the capability set a user holds for a video's
// collaboration session (none when no session or membership exists).
type CapabilityResolver func(videoID, userID string) Capability

// JoinResult is the snapshot handed to a freshly joined client.
type JoinResult struct {
	model.PlaybackSnapshot
	IsController bool `json:"isController"`
}

// ControlParams are the optional fields of a playback_control message.
type ControlParams struct {
	CurrentTime  *float64
	PlaybackRate *float64
}

// PlaybackEngine owns the authoritative playback state per video and
// arbitrates every mutation. Single-controller semantics: at most one
// userID holds control for a video at any instant.
type PlaybackEngine struct {
	mu       sync.RWMutex
	states   map[string]*playbackState
	registry *Registry
	caps     CapabilityResolver
	log      *zap.Logger
}

// NewPlaybackEngine creates the engine on top of a connection registry.
func NewPlaybackEngine(registry *Registry, log *zap.Logger) *PlaybackEngine {
	return &PlaybackEngine{
		states:   make(map[string]*playbackState),
		registry: registry,
		caps:     func(string, string) Capability { return 0 },
		log:      log,
	}
}

// SetCapabilityResolver wires the session/permission model in; called once
// at startup.
func (e *PlaybackEngine) SetCapabilityResolver(fn CapabilityResolver) {
	if fn != nil {
		e.caps = fn
	}
}

// InitializeVideo creates the playback state for a video if absent.
// Idempotent: existing state is returned untouched, metadata ignored.
func (e *PlaybackEngine) InitializeVideo(videoID string, meta model.VideoMetadata) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.states[videoID]; ok {
		return
	}
	e.states[videoID] = &playbackState{
		videoID:            videoID,
		playbackRate:       1.0,
		originalDuration:   meta.OriginalDuration,
		hasAudio:           meta.HasAudio,
		audioTrackDuration: meta.AudioTrackDuration,
		participants:       make(map[*Client]model.Identity),
		lastUpdate:         time.Now(),
	}
	e.log.Info("initialized video session", zap.String("video_id", videoID))
}

// Join adds a client to a video room and returns the current snapshot so
// the joiner can render immediately. The rest of the room gets user_joined.
// A client may occupy one room at a time; joining a new video leaves the
// previous one first.
func (e *PlaybackEngine) Join(videoID string, c *Client, identity model.Identity) (JoinResult, error) {
	if prev := c.VideoID(); prev != "" && prev != videoID {
		e.Leave(c)
	}

	for {
		e.mu.RLock()
		st := e.states[videoID]
		e.mu.RUnlock()
		if st == nil {
			return JoinResult{}, errs.ErrVideoNotFound
		}

		st.mu.Lock()
		if st.deleted {
			// Lost a race with empty-room cleanup; the map may hold a
			// fresh state by now.
			st.mu.Unlock()
			continue
		}
		st.participants[c] = identity
		e.registry.AddToVideo(c, videoID)
		res := JoinResult{
			PlaybackSnapshot: st.snapshotLocked(),
			IsController:     st.controllerID == identity.UserID,
		}
		e.registry.Broadcast(videoID, model.EventUserJoined, map[string]any{
			"user":        identity,
			"activeUsers": len(st.participants),
		}, c)
		st.mu.Unlock()

		e.log.Info("user joined video",
			zap.String("video_id", videoID),
			zap.String("user_id", identity.UserID),
			zap.String("username", identity.Username))
		return res, nil
	}
}

// Leave removes a client from every room it occupies. Control held by the
// leaving client is released to unset (no automatic promotion); an empty
// room's state is deleted.
func (e *PlaybackEngine) Leave(c *Client) {
	e.mu.RLock()
	states := make(map[string]*playbackState, len(e.states))
	for vid, st := range e.states {
		states[vid] = st
	}
	e.mu.RUnlock()

	for vid, st := range states {
		e.leaveRoom(vid, st, c)
	}
	if vid := c.VideoID(); vid != "" {
		e.registry.RemoveFromVideo(c, vid)
	}
}

func (e *PlaybackEngine) leaveRoom(videoID string, st *playbackState, c *Client) {
	st.mu.Lock()
	identity, present := st.participants[c]
	if !present {
		st.mu.Unlock()
		return
	}
	delete(st.participants, c)
	e.registry.RemoveFromVideo(c, videoID)

	released := false
	if st.controllerID == identity.UserID && !e.userStillPresentLocked(st, identity.UserID) {
		st.controllerID = ""
		st.lastUpdate = time.Now()
		released = true
	}
	empty := len(st.participants) == 0
	if !empty {
		e.registry.Broadcast(videoID, model.EventUserLeft, map[string]any{
			"user":        identity,
			"activeUsers": len(st.participants),
		}, nil)
		if released {
			e.registry.Broadcast(videoID, model.EventPlaybackState, st.snapshotLocked(), nil)
		}
	}
	st.mu.Unlock()

	if empty && e.deleteStateIfEmpty(videoID, st) {
		e.log.Info("cleaned up empty video session", zap.String("video_id", videoID))
	}
	e.log.Info("user left video",
		zap.String("video_id", videoID),
		zap.String("user_id", identity.UserID),
		zap.Bool("control_released", released))
}

// deleteStateIfEmpty removes a state from the engine map only if it is
// still mapped and still empty at deletion time. A join that slipped in
// after the caller's emptiness observation keeps the room alive.
func (e *PlaybackEngine) deleteStateIfEmpty(videoID string, st *playbackState) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.states[videoID] != st {
		return false
	}
	st.mu.Lock()
	empty := len(st.participants) == 0
	if empty {
		st.deleted = true
	}
	st.mu.Unlock()
	if !empty {
		return false
	}
	delete(e.states, videoID)
	return true
}

// userStillPresentLocked reports whether another connection of the same user
// remains in the room. Caller holds st.mu.
func (e *PlaybackEngine) userStillPresentLocked(st *playbackState, userID string) bool {
	for _, id := range st.participants {
		if id.UserID == userID {
			return true
		}
	}
	return false
}

// ApplyControl validates that the caller holds control and applies a
// play/pause/seek/rate action. On success the full resulting state is
// broadcast to the rest of the room, tagged with the initiator. A caller
// that is not the controller gets an error and no state change.
func (e *PlaybackEngine) ApplyControl(c *Client, action string, params ControlParams) (model.ControlBroadcast, error) {
	videoID := c.VideoID()
	if videoID == "" {
		return model.ControlBroadcast{}, errs.ErrVideoNotFound
	}
	userID, username := c.Identity()

	e.mu.RLock()
	st := e.states[videoID]
	e.mu.RUnlock()
	if st == nil {
		return model.ControlBroadcast{}, errs.ErrVideoNotFound
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.controllerID == "" || st.controllerID != userID {
		e.log.Warn("playback control denied",
			zap.String("video_id", videoID),
			zap.String("user_id", userID),
			zap.String("action", action))
		return model.ControlBroadcast{}, errs.ErrNotController
	}

	now := time.Now()
	switch action {
	case model.ActionPlay:
		st.isPlaying = true
		if params.CurrentTime != nil {
			st.currentTime = clamp(*params.CurrentTime, 0, st.originalDuration)
		}
	case model.ActionPause:
		st.isPlaying = false
		if params.CurrentTime != nil {
			st.currentTime = clamp(*params.CurrentTime, 0, st.originalDuration)
		}
	case model.ActionSeek:
		if params.CurrentTime == nil {
			return model.ControlBroadcast{}, errs.ErrValidation
		}
		st.currentTime = clamp(*params.CurrentTime, 0, st.originalDuration)
	case model.ActionRate:
		if params.PlaybackRate == nil {
			return model.ControlBroadcast{}, errs.ErrValidation
		}
		st.playbackRate = clamp(*params.PlaybackRate, minPlaybackRate, maxPlaybackRate)
		if params.CurrentTime != nil {
			st.currentTime = clamp(*params.CurrentTime, 0, st.originalDuration)
		}
	default:
		return model.ControlBroadcast{}, errs.ErrValidation
	}
	st.lastUpdate = now

	out := model.ControlBroadcast{
		Action:       action,
		VideoID:      videoID,
		CurrentTime:  st.currentTime,
		IsPlaying:    st.isPlaying,
		PlaybackRate: st.playbackRate,
		Timestamp:    now.UnixMilli(),
		InitiatedBy:  model.Identity{UserID: userID, Username: username},
	}
	e.registry.Broadcast(videoID, model.EventPlaybackControl, out, c)

	e.log.Info("playback control applied",
		zap.String("video_id", videoID),
		zap.String("user_id", userID),
		zap.String("action", action),
		zap.Float64("current_time", st.currentTime))
	return out, nil
}

// GrantControl reassigns playback authority. The grantor must be the
// current controller or hold a moderator capability (owner/admin). The
// target must have a live connection joined to the video; otherwise
// nothing changes.
func (e *PlaybackEngine) GrantControl(videoID, targetUserID, grantorUserID string) error {
	e.mu.RLock()
	st := e.states[videoID]
	e.mu.RUnlock()
	if st == nil {
		return errs.ErrVideoNotFound
	}

	// Resolved before taking the state lock; the resolver may hit the DB.
	grantorCaps := e.caps(videoID, grantorUserID)

	st.mu.Lock()
	defer st.mu.Unlock()

	if !e.userStillPresentLocked(st, targetUserID) {
		return errs.ErrNoLiveConnection
	}

	if st.controllerID != grantorUserID {
		// CapRemove is held by owner/admin only, which is the
		// moderator bar for reassigning authority.
		if !grantorCaps.Has(CapRemove) {
			return errs.ErrNotAuthorized
		}
	}

	st.controllerID = targetUserID
	st.lastUpdate = time.Now()

	e.registry.SendToUser(targetUserID, model.EventControlGranted, map[string]any{
		"videoId":   videoID,
		"grantedBy": grantorUserID,
		"message":   "You now have playback control",
	})
	e.registry.Broadcast(videoID, model.EventPlaybackState, st.snapshotLocked(), nil)

	e.log.Info("control granted",
		zap.String("video_id", videoID),
		zap.String("target_user_id", targetUserID),
		zap.String("granted_by", grantorUserID))
	return nil
}

// PublicState returns the read-only projection used for the join snapshot
// and the REST polling fallback.
func (e *PlaybackEngine) PublicState(videoID string) (model.PlaybackSnapshot, error) {
	e.mu.RLock()
	st := e.states[videoID]
	e.mu.RUnlock()
	if st == nil {
		return model.PlaybackSnapshot{}, errs.ErrVideoNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snapshotLocked(), nil
}

// Stats summarizes active rooms for diagnostics.
func (e *PlaybackEngine) Stats() model.HubStats {
	e.mu.RLock()
	states := make([]*playbackState, 0, len(e.states))
	for _, st := range e.states {
		states = append(states, st)
	}
	e.mu.RUnlock()

	out := model.HubStats{
		ActiveVideos:     len(states),
		TotalConnections: e.registry.ConnectionCount(),
		BufferedTargets:  e.registry.BufferedTargets(),
	}
	for _, st := range states {
		st.mu.Lock()
		out.Videos = append(out.Videos, model.VideoRoomStats{
			VideoID:     st.videoID,
			ActiveUsers: len(st.participants),
			IsPlaying:   st.isPlaying,
			Duration:    st.originalDuration,
		})
		st.mu.Unlock()
	}
	return out
}

// ActiveUsers returns the current participant count for a video (0 when the
// room does not exist).
func (e *PlaybackEngine) ActiveUsers(videoID string) int {
	e.mu.RLock()
	st := e.states[videoID]
	e.mu.RUnlock()
	if st == nil {
		return 0
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.participants)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}
