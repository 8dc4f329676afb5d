package syncer

// EventType tags a progress event emitted during a pass.
type EventType string

const (
	EventFileSynced     EventType = "file_synced"
	EventFileConflicted EventType = "file_conflicted"
	EventFileFailed     EventType = "file_failed"
	EventPassFinished   EventType = "pass_finished"
)

// Event is one progress notification. Events are advisory: delivery is
// best-effort and slow consumers never stall a pass.
type Event struct {
	Type     EventType
	GameID   int64
	Filename string
	Err      string
}
