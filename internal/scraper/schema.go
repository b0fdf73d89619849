package scraper

import "time"

// Record is one quote extracted from a listing page.
// Tags keep document order and duplicates.
type Record struct {
	Text       string    `json:"text"`
	Author     string    `json:"author"`
	Tags       []string  `json:"tags"`
	CapturedAt time.Time `json:"scraped_at"`
}
