package wine

// Fragment is one piece of recognized text from a frame. It is discarded once
// segmentation has grouped it into a Candidate.
type Fragment struct {
	Text       string      `json:"text"`
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"`
}

// Candidate is a spatially grouped cluster of fragments hypothesized to be one
// wine-list entry. It lives for one frame or photo.
type Candidate struct {
	Text       string      `json:"text"`
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence"`
	LineCount  int         `json:"line_count"`
}
