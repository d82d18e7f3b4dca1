package dto

import "time"

// LinkDTO is the API representation of a link. ID is the durable UUID.
type LinkDTO struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmittedLink is one entry of a full link-set submission. A client marks
// entries it created locally with an id carrying the "new-" prefix; those
// are inserted with a server-assigned id.
type SubmittedLink struct {
	ID    string `json:"id" validate:"required"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SaveLinksRequest replaces the caller's entire link set in one operation
type SaveLinksRequest struct {
	Links []SubmittedLink `json:"links" validate:"dive"`
}

// GetLinksResponse wraps a link list read or write result
type GetLinksResponse struct {
	Message string    `json:"message"`
	Links   []LinkDTO `json:"links"`
}
