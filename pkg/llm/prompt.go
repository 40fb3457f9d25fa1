package llm

import "fmt"

const chunkPromptTemplate = `Analyze this document and return its content ready to be embedded for retrieval augmented generation.

Return one entry for each chunk of text you think is appropriate.

Do not omit information and do not create new information: stick to what the document actually says.

The chunks must be as long as possible, up to %d characters each, and some overlap between consecutive chunks, up to %d characters, is welcome.

The response must be JSON with this shape:

{
    "chunks": [
        {"page_content": "first chunk ..."},
        {"page_content": "second chunk ..."}
    ]
}`

// ChunkPrompt is the instruction sent along with the file.
func ChunkPrompt(chunkSize, chunkOverlap int) string {
	return fmt.Sprintf(chunkPromptTemplate, chunkSize, chunkOverlap)
}
