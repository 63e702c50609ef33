package model

// DocumentChunk is the retrieval unit the mock backend searches when a chat
// request asks for retrieval augmentation.
type DocumentChunk struct {
	DocumentId string
	ChunkIndex int
	Content    string
}
