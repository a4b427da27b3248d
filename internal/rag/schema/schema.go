package schema

// Namespace names for the two logical partitions of the vector index.
// The corpus namespace is populated by automated ingestion, the uploads
// namespace by manually uploaded documents. They can be queried singly or
// as a union.
const (
	NamespaceCorpus  = "corpus"
	NamespaceUploads = "uploads"
)

// Metadata keys carried on documents through the pipeline.
const (
	// MetadataKeyFileName is the key for the source file name.
	MetadataKeyFileName = "file_name"
	// MetadataKeyPageLabel is the key for the page number or label from the
	// source document.
	MetadataKeyPageLabel = "page_label"
	// MetadataKeySourceURL is the key for the origin URL of web documents.
	MetadataKeySourceURL = "source_url"
	// MetadataKeySheetName is the key for the worksheet a table came from.
	MetadataKeySheetName = "sheet_name"
)

// Document is a raw source document as produced by a Loader. It is created
// at ingestion and immutable thereafter; chunks reference it by ID.
type Document struct {
	// ID is the unique identifier of the document.
	ID string

	// Source is the file name or URL the document came from; it becomes the
	// citation label on answers.
	Source string

	// Text is the full raw text of the document.
	Text string

	// Metadata holds auxiliary data such as page labels or sheet names.
	Metadata map[string]string
}

// Chunk is a bounded span of a document's text, the unit of embedding and
// retrieval. Chunks from one document, ordered by Start, cover the full
// document text; successive chunks overlap by the configured amount.
type Chunk struct {
	// ID is deterministic per document and position so that re-ingesting a
	// document replaces its chunks instead of duplicating them.
	ID string

	// DocumentID references the parent Document.
	DocumentID string

	// Source is carried from the parent document for citation labels.
	Source string

	// Start and End are the rune offsets of the chunk's span within the
	// parent document text (half-open interval).
	Start int
	End   int

	// Text is the chunk content.
	Text string

	// Embedding is the vector representation of Text, populated by the
	// indexing pipeline before the chunk reaches the vector store.
	Embedding []float32

	// Metadata is carried from the parent document.
	Metadata map[string]string
}

// Candidate is a chunk retrieved for a query together with its similarity
// score. Candidates are ephemeral and never persisted.
type Candidate struct {
	Chunk Chunk
	Score float64
}

// Turn is one completed (question, answer) exchange in a conversation.
type Turn struct {
	Question string
	Answer   string
}
