package constants

// Context keys
const (
	ContextKeyIdentity = "identity"
	ContextKeyTask     = "task"
)

// Pagination
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 6
	BearerPrefix      = "Bearer "
)

// Upload limits
const (
	MaxDocumentsPerRequest = 3
	MaxDocumentBytes       = 5 << 20 // 5 MiB per file
	PDFMediaType           = "application/pdf"
	UploadFieldName        = "documents"
)
