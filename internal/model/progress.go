package model

// ProgressEvent is the name under which progress is published to observers.
const ProgressEvent = "downloading-symbol"

// Progress reports that the n-th ticker of a batch is about to be fetched.
type Progress struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Progress int    `json:"progress"` // 1-based
}
