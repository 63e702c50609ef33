package entity

// Provider is an answer-generation backend registered on the server.
type Provider struct {
	ID           string
	Name         string
	ModelName    string
	IsMainSystem bool
	IsActive     bool
}
