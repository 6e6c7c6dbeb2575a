package store

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

const maxChunkChars = 800

// splitIntoChunks merges consecutive paragraphs into chunks of at most
// maxChunkChars characters. Oversized single paragraphs become their
// own chunk.
func splitIntoChunks(content string) []string {
	var chunks []string
	var current strings.Builder

	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(para)+2 > maxChunkChars {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// IngestDataFromFile reads a text/markdown file, splits it into chunks,
// generates embeddings and replaces the knowledge base contents.
func (s *SQLiteStore) IngestDataFromFile(filePath string, embedder func(string) ([]float32, error)) (int, error) {
	contentBytes, err := os.ReadFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to read data file %s: %w", filePath, err)
	}

	rawChunks := splitIntoChunks(string(contentBytes))
	if len(rawChunks) == 0 {
		log.Println("No chunks generated from data file.")
		return 0, nil
	}

	log.Printf("Generated %d chunks. Now embedding (this may take a while)...", len(rawChunks))

	if err := s.ClearDataChunks(); err != nil {
		return 0, fmt.Errorf("failed to clear existing data chunks: %w", err)
	}

	count := 0

	ticker := time.NewTicker(40 * time.Millisecond) // stay under the embedding rate limit
	defer ticker.Stop()

	for i, rawChunk := range rawChunks {
		<-ticker.C

		embedding, err := embedder(rawChunk)
		if err != nil {
			log.Printf("Failed to generate embedding for chunk %d: %v. Skipping.", i+1, err)
			continue
		}

		chunk := DataChunk{
			Content:   rawChunk,
			Source:    filePath,
			Embedding: embedding,
		}
		if err := s.createDataChunk(&chunk); err != nil {
			log.Printf("Failed to store data chunk %d: %v. Skipping.", i+1, err)
			continue
		}
		count++
		if count%10 == 0 || count == len(rawChunks) {
			log.Printf("Ingested %d/%d chunks...", count, len(rawChunks))
		}
	}
	log.Printf("Successfully ingested %d chunks.", count)
	return count, nil
}
