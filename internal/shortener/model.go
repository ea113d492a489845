package shortener

// ShortenRequest is the input of Service.Shorten. An empty ShortCode asks the
// service to generate one.
type ShortenRequest struct {
	URL       string
	ShortCode string
}

// shortenBody is the JSON body accepted by POST /shorten.
type shortenBody struct {
	URL       string `json:"url"`
	ShortCode string `json:"shortCode"`
}

// ShortenResponse is the JSON body returned for an accepted link.
type ShortenResponse struct {
	Success   bool   `json:"success"`
	ShortCode string `json:"shortCode"`
}

// HealthResponse is the JSON body of the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}
