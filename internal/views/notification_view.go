package views

// DispatchSummary is the result of a notification dispatch sweep.
type DispatchSummary struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}
