package models

// Record is the caller-facing meal: what the list and edit screens hold.
type Record struct {
	// ID is empty until the record has been persisted remotely.
	ID     string
	Name   string
	Rating int
	// Image holds encoded image bytes. It only ever lives on the client.
	Image []byte

	// PhotoURL and ThumbnailURL are both set or both empty.
	PhotoURL     string
	ThumbnailURL string

	// ReplacePhoto marks a new Image that supersedes an uploaded photo.
	ReplacePhoto bool
}

// NewRecord validates name and rating. Ratings have no upper bound here;
// only negative values are rejected.
func NewRecord(name string, image []byte, rating int) (*Record, error) {
	if name == "" {
		return nil, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if rating < 0 {
		return nil, &ValidationError{Field: "rating", Reason: "must not be negative"}
	}
	return &Record{Name: name, Rating: rating, Image: image}, nil
}

// Persisted reports whether the record has a remote identity.
func (r *Record) Persisted() bool {
	return r.ID != ""
}

// HasRemotePhoto reports whether a photo has been uploaded for the record.
func (r *Record) HasRemotePhoto() bool {
	return r.PhotoURL != "" && r.ThumbnailURL != ""
}

// AttachPhoto sets a new local image. If a photo was already uploaded the
// record is flagged so the next save replaces it.
func (r *Record) AttachPhoto(image []byte) {
	r.Image = image
	r.ReplacePhoto = len(image) > 0 && r.PhotoURL != ""
}

// Validate re-checks the construction rules after in-place edits.
func (r *Record) Validate() error {
	_, err := NewRecord(r.Name, nil, r.Rating)
	return err
}
