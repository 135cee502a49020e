package entity

// Candidate describes one place posts can be fetched from.
type Candidate struct {
	URL     string
	Method  string
	Headers map[string]string
	// Optional request body, sent as is.
	Body []byte
}
