package scheduler

import "time"

// CycleReport describes one polling cycle.
type CycleReport struct {
	ID         string         `json:"id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Sources    []SourceResult `json:"sources"`
	Err        string         `json:"error,omitempty"`
}

// Delivered returns the number of items fanned out during the cycle.
func (r CycleReport) Delivered() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Delivered
	}
	return n
}

// FailedSources returns the number of sources that ended with an error.
func (r CycleReport) FailedSources() int {
	n := 0
	for _, s := range r.Sources {
		if s.Err != "" {
			n++
		}
	}
	return n
}

// SourceResult is the outcome of polling one source.
type SourceResult struct {
	Source   string `json:"source"`
	Strategy string `json:"strategy,omitempty"`
	FeedURL  string `json:"feed_url,omitempty"`

	Entries    int `json:"entries"`
	Dropped    int `json:"dropped"`
	Duplicates int `json:"duplicates"`
	Irrelevant int `json:"irrelevant"`
	Delivered  int `json:"delivered"`

	SendsOK     int `json:"sends_ok"`
	SendsFailed int `json:"sends_failed"`

	Err string `json:"error,omitempty"`
}

func (r *SourceResult) add(o outcome) {
	switch o.kind {
	case outcomeDropped:
		r.Dropped++
	case outcomeDuplicate:
		r.Duplicates++
	case outcomeIrrelevant:
		r.Irrelevant++
	case outcomeDelivered:
		r.Delivered++
		r.SendsOK += o.summary.Sent
		r.SendsFailed += o.summary.Failed
	}
}
