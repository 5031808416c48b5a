package chroma

import (
	"context"
	"fmt"
	"log"
	"os"

	"fiwb-backend/internal/sync/domain"
	"fiwb-backend/pkg/config"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
)

// MaxDocumentChars bounds the text sent for embedding; longer content is
// cut and tagged so readers know the tail is missing.
const MaxDocumentChars = 60000

const truncationMarker = "\n\n[TRUNCATED - content exceeded size limit]"

type ChromaClient struct {
	client     chroma.Client
	embedFunc  *gemini.GeminiEmbeddingFunction
	config     *config.Config
	collection chroma.Collection
}

func NewChromaClient(cfg *config.Config) (*ChromaClient, error) {
	if cfg.ChromaAPIKey == "" {
		return nil, fmt.Errorf("CHROMA_API_KEY is required")
	}

	if cfg.GeminiApiKey != "" {
		os.Setenv("GEMINI_API_KEY", cfg.GeminiApiKey)
	}

	embedFunc, err := gemini.NewGeminiEmbeddingFunction(
		gemini.WithEnvAPIKey(),
		gemini.WithDefaultModel("text-embedding-004"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding function: %w", err)
	}

	var client chroma.Client
	if cfg.ChromaDatabase != "" && cfg.ChromaTenant != "" {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
			chroma.WithDatabaseAndTenant(cfg.ChromaDatabase, cfg.ChromaTenant),
		)
	} else if cfg.ChromaTenant != "" {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
			chroma.WithTenant(cfg.ChromaTenant),
		)
	} else {
		client, err = chroma.NewHTTPClient(
			chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
			chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Chroma client: %w", err)
	}

	ctx := context.Background()
	collection, err := client.GetOrCreateCollection(
		ctx,
		"materials",
		chroma.WithEmbeddingFunctionCreate(embedFunc),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("[Chroma] Initialized client with collection: materials")

	return &ChromaClient{
		client:     client,
		embedFunc:  embedFunc,
		config:     cfg,
		collection: collection,
	}, nil
}

// TruncateContent enforces the embedding size bound.
func TruncateContent(content string) string {
	if len(content) <= MaxDocumentChars {
		return content
	}
	return content[:MaxDocumentChars] + truncationMarker
}

// UpsertDocument writes one material document to the index. Using the
// material's native ID as the document ID makes re-indexing idempotent.
func (c *ChromaClient) UpsertDocument(ctx context.Context, doc *domain.IndexDocument) error {
	text := fmt.Sprintf("Title: %s\n\n%s", doc.Title, TruncateContent(doc.Content))

	metadata, err := chroma.NewDocumentMetadataFromMap(map[string]interface{}{
		"user_id":     doc.UserEmail,
		"course_id":   doc.CourseID,
		"course_name": doc.CourseName,
		"professor":   doc.Professor,
		"type":        doc.Type,
		"source":      doc.Source,
		"source_link": doc.SourceLink,
		"title":       doc.Title,
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata: %w", err)
	}

	err = c.collection.Upsert(
		ctx,
		chroma.WithIDs(chroma.DocumentID(doc.ID)),
		chroma.WithMetadatas(metadata),
		chroma.WithTexts(text),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

// SemanticSearch queries the index scoped to one user, optionally narrowed
// to a single course. Returns matching material IDs with distances.
func (c *ChromaClient) SemanticSearch(ctx context.Context, userEmail, courseID, query string, limit int) ([]string, []float64, error) {
	if c.collection == nil {
		return nil, nil, fmt.Errorf("collection is nil")
	}

	where := chroma.EqString("user_id", userEmail)
	if courseID != "" {
		where = chroma.And(where, chroma.EqString("course_id", courseID))
	}

	results, err := c.collection.Query(
		ctx,
		chroma.WithQueryTexts(query),
		chroma.WithNResults(limit),
		chroma.WithWhereQuery(where),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query collection: %w", err)
	}

	if results == nil || results.CountGroups() == 0 {
		return []string{}, []float64{}, nil
	}

	idGroups := results.GetIDGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(idGroups) == 0 || len(idGroups[0]) == 0 {
		return []string{}, []float64{}, nil
	}

	ids := make([]string, 0, len(idGroups[0]))
	for _, id := range idGroups[0] {
		ids = append(ids, string(id))
	}

	distances := []float64{}
	if len(distanceGroups) > 0 && len(distanceGroups[0]) > 0 {
		for _, d := range distanceGroups[0] {
			distances = append(distances, float64(d))
		}
	}

	log.Printf("[Chroma] Semantic search for %s returned %d results", userEmail, len(ids))
	return ids, distances, nil
}

// DeleteDocument removes one document from the index.
func (c *ChromaClient) DeleteDocument(ctx context.Context, docID string) error {
	err := c.collection.Delete(ctx, chroma.WithIDsDelete(chroma.DocumentID(docID)))
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
