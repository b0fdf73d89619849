package scraper

// Outcome classifies a single page fetch.
type Outcome int

const (
	// OutcomeRecords means the page yielded at least one record.
	OutcomeRecords Outcome = iota
	// OutcomeEmpty means the page was fetched and parsed but held no records.
	OutcomeEmpty
	// OutcomeFailed means the page could not be fetched or parsed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRecords:
		return "records"
	case OutcomeEmpty:
		return "empty"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PageResult is what FetchPage reports for one page index.
type PageResult struct {
	Page    int
	URL     string
	Outcome Outcome
	Records []Record
	Skipped int   // quote blocks dropped for missing text or author
	Err     error // set only for OutcomeFailed
}
