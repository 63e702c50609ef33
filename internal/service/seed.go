package service

import "docsearch-console/internal/model"

// DefaultDocuments is the corpus the mock backend retrieves from.
func DefaultDocuments() []model.DocumentChunk {
	return []model.DocumentChunk{
		{DocumentId: "employee-handbook", ChunkIndex: 0, Content: "Employees accrue one and a half vacation days per month of service. Unused vacation days carry over for one year."},
		{DocumentId: "employee-handbook", ChunkIndex: 1, Content: "Remote work is allowed up to three days per week with manager approval."},
		{DocumentId: "vendor-contract", ChunkIndex: 0, Content: "The service agreement renews automatically every twelve months unless either party cancels in writing."},
		{DocumentId: "vendor-contract", ChunkIndex: 1, Content: "Termination requires thirty days written notice and settlement of outstanding invoices."},
		{DocumentId: "security-policy", ChunkIndex: 0, Content: "Passwords must be rotated every ninety days and may not reuse the last five passwords."},
		{DocumentId: "security-policy", ChunkIndex: 1, Content: "Security incidents must be reported to the security team within twenty four hours."},
	}
}
