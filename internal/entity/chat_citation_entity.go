package entity

// Source is a retrieved document chunk the assistant grounded its answer on.
type Source struct {
	DocumentID string
	Score      float64
	Content    string
	ChunkIndex int
}
