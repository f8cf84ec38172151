package models

// Block is one layout-level unit of text extracted from a PDF page,
// annotated with the structural context it was seen in.
type Block struct {
	Text      string  `json:"text"`
	Page      int     `json:"page"`
	Section   string  `json:"section"`
	Heading   string  `json:"heading,omitempty"` // most recent heading text, empty before any heading
	FontSize  float64 `json:"font_size"`
	IsHeading bool    `json:"is_heading"`
}

// Chunk is a bounded, citation-ready unit of text assembled from one or more blocks
type Chunk struct {
	Text      string        `json:"text"`
	Metadata  ChunkMetadata `json:"metadata"`
	Embedding []float64     `json:"embedding,omitempty"`
}

// ChunkMetadata contains the provenance information for a chunk
type ChunkMetadata struct {
	ChunkID   int    `json:"chunk_id"`
	Section   string `json:"section"`
	Page      int    `json:"page"`
	Heading   string `json:"heading,omitempty"` // empty when the chunk precedes the first heading
	WordCount int    `json:"word_count"`
	Filename  string `json:"filename,omitempty"` // stamped when the chunk is handed to the store
}

// BBox is an axis-aligned bounding box in PDF user space (origin bottom-left)
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bottom returns the bottom edge Y coordinate
func (b BBox) Bottom() float64 { return b.Y }

// Top returns the top edge Y coordinate
func (b BBox) Top() float64 { return b.Y + b.Height }

// ImageItem is one embedded raster image pulled from a page
type ImageItem struct {
	Data    []byte `json:"-"`
	Filter  string `json:"filter,omitempty"` // stream filter the image was encoded with
	Width   int    `json:"width"`            // pixel dimensions from the image dictionary
	Height  int    `json:"height"`
	BBox    BBox   `json:"bbox"` // placement on the page, zero when it could not be recovered
	Page    int    `json:"page"`
	Index   int    `json:"index"`             // zero-based per page
	Caption string `json:"caption,omitempty"` // empty when no nearby caption matched
}

// TableItem is a table extracted as a 2D cell grid
type TableItem struct {
	Rows    [][]string `json:"rows"`
	Page    int        `json:"page"`
	Index   int        `json:"index"`
	Caption string     `json:"caption,omitempty"`
}

// HeadingEntry records one detected heading for navigation
type HeadingEntry struct {
	Heading string `json:"heading"`
	Page    int    `json:"page"`
	Section string `json:"section"`
}

// ExtractionWarning describes a single non-fatal extraction failure
type ExtractionWarning struct {
	Page   int    `json:"page"`
	Kind   string `json:"kind"` // "image", "table" or "page"
	Detail string `json:"detail"`
}

// ProcessedDocument is the full output of one PDF processing run
type ProcessedDocument struct {
	Chunks   []Chunk             `json:"chunks"`
	Images   []ImageItem         `json:"images"`
	Tables   []TableItem         `json:"tables"`
	Headings []HeadingEntry      `json:"headings"`
	FileName string              `json:"file_name"`
	Warnings []ExtractionWarning `json:"warnings,omitempty"`
}

// RetrievedResult is one ranked chunk returned by the vector store
type RetrievedResult struct {
	Text       string        `json:"text"`
	Metadata   ChunkMetadata `json:"metadata"`
	Similarity float64       `json:"similarity"` // 1 - distance, in [0,1]
}

// StoreStats summarizes the contents of the vector store
type StoreStats struct {
	TotalChunks     int      `json:"total_chunks"`
	UniqueDocuments int      `json:"unique_documents"`
	Documents       []string `json:"documents"`
}

// Answer is the response assembled for a user question
type Answer struct {
	Answer    string            `json:"answer"`
	Sources   []RetrievedResult `json:"sources"`
	Query     string            `json:"query"`
	Timestamp string            `json:"timestamp"`
}
