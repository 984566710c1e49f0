package model

// Wire event names. Event names are the contract with the frontend;
// renaming one breaks clients.
const (
	// Client -> server
	EventRegister         = "register"
	EventAuthenticate     = "authenticate"
	EventJoinVideo        = "join_video"
	EventPlaybackControl  = "playback_control"
	EventGetPlaybackState = "get_playback_state"
	EventGrantControl     = "grant_control"

	// Server -> client
	EventRegistered            = "registered"
	EventAuthenticated         = "authenticated"
	EventPlaybackState         = "playback_state"
	EventControlFailed         = "control_failed"
	EventControlGranted        = "control_granted"
	EventControlGrantedSuccess = "control_granted_success"
	EventControlGrantFailed    = "control_grant_failed"
	EventUserJoined            = "user_joined"
	EventUserLeft              = "user_left"
	EventError                 = "error"

	// Passthrough events produced by external collaborators and relayed
	// through the registry unchanged.
	EventVideo              = "video"
	EventAudio              = "audio"
	EventInstructions       = "instructions"
	EventProcessingStatus   = "processing_status"
	EventProcessingComplete = "processing_complete"
	EventProcessingError    = "processing_error"
	EventNewComment         = "new_comment"
	EventCommentUpdated     = "comment_updated"
	EventCommentResolved    = "comment_resolved"
	EventAISuggestions      = "ai_suggestions"
	EventLanguageAdded      = "language_added"
	EventAIReviewGenerated  = "ai_review_generated"
	EventCollabInvite       = "collaboration_invite"
	EventCollabRemoved      = "collaboration_removed"
)

// Playback control actions.
const (
	ActionPlay  = "play"
	ActionPause = "pause"
	ActionSeek  = "seek"
	ActionRate  = "rate"
)

// Identity is the authenticated identity bound to a connection.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// VideoMetadata is supplied by the joining client (extracted upstream by
// the processing pipeline); it seeds the playback state on first join.
type VideoMetadata struct {
	OriginalDuration   float64 `json:"originalDuration"`
	HasAudio           bool    `json:"hasAudio"`
	AudioTrackDuration float64 `json:"audioTrackDuration"`
}

// PlaybackSnapshot is the public projection of a video's playback state,
// sent on join, on request, and via REST polling fallback.
type PlaybackSnapshot struct {
	VideoID            string  `json:"videoId"`
	CurrentTime        float64 `json:"currentTime"`
	IsPlaying          bool    `json:"isPlaying"`
	PlaybackRate       float64 `json:"playbackRate"`
	OriginalDuration   float64 `json:"originalDuration"`
	HasAudio           bool    `json:"hasAudio"`
	AudioTrackDuration float64 `json:"audioTrackDuration"`
	ControllerID       string  `json:"controllerId,omitempty"`
	ActiveUsers        int     `json:"activeUsers"`
	LastUpdate         int64   `json:"lastUpdate"` // unix millis
}

// ControlBroadcast is the room broadcast of an applied playback action.
type ControlBroadcast struct {
	Action       string   `json:"action"`
	VideoID      string   `json:"videoId"`
	CurrentTime  float64  `json:"currentTime"`
	IsPlaying    bool     `json:"isPlaying"`
	PlaybackRate float64  `json:"playbackRate"`
	Timestamp    int64    `json:"timestamp"`
	InitiatedBy  Identity `json:"initiatedBy"`
}

// HubStats is the diagnostic projection for GET /stats.
type HubStats struct {
	ActiveVideos     int              `json:"activeVideos"`
	TotalConnections int              `json:"totalConnections"`
	BufferedTargets  int              `json:"bufferedTargets"`
	Videos           []VideoRoomStats `json:"videos"`
}

// VideoRoomStats summarizes one active video room.
type VideoRoomStats struct {
	VideoID     string  `json:"videoId"`
	ActiveUsers int     `json:"activeUsers"`
	IsPlaying   bool    `json:"isPlaying"`
	Duration    float64 `json:"duration"`
}
