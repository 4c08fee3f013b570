package mealsync

import "fmt"

// State is a step of a save. Every save starts Idle and ends Done or Failed.
type State int

const (
	Idle State = iota
	UploadingThumbnail
	UploadingPhoto
	Fetching
	Persisting
	CleaningUp
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case UploadingThumbnail:
		return "uploading_thumbnail"
	case UploadingPhoto:
		return "uploading_photo"
	case Fetching:
		return "fetching"
	case Persisting:
		return "persisting"
	case CleaningUp:
		return "cleaning_up"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StepError is returned by every failed workflow call. Kind is one of the
// models.Err* sentinels and matches with errors.Is, as does Err.
type StepError struct {
	State State
	Kind  error
	Err   error
}

func (e *StepError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.State, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.State, e.Kind, e.Err)
}

func (e *StepError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
