package chromaclient

import (
	"context"
	"fmt"
	"strconv"

	"github.com/WangWilly/tweetsim/pkgs/model"
	"github.com/WangWilly/tweetsim/pkgs/vectorcodec"
	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	log "github.com/sirupsen/logrus"
)

const (
	DEFAULT_COLLECTION_NAME = "tweets"
	BATCH_SIZE              = 100
)

type ChromaClient struct {
	client     chroma.Client
	collection chroma.Collection
}

// New connects to Chroma and opens (or creates) the tweet collection.
func New(ctx context.Context, chromaURL, collectionName string) (*ChromaClient, error) {
	if collectionName == "" {
		collectionName = DEFAULT_COLLECTION_NAME
	}

	client, err := chroma.NewHTTPClient(
		chroma.WithBaseURL(chromaURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(
		ctx,
		collectionName,
		chroma.WithCollectionMetadataCreate(
			chroma.NewMetadata(
				chroma.NewStringAttribute("description", "Tweet embeddings mirrored from the tweet store"),
				chroma.NewStringAttribute("type", "tweets"),
				chroma.NewStringAttribute("hnsw:space", "cosine"),
			),
		),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get or create collection: %w", err)
	}

	return &ChromaClient{
		client:     client,
		collection: collection,
	}, nil
}

func (c *ChromaClient) Close() error {
	return c.client.Close()
}

func (c *ChromaClient) Count(ctx context.Context) (int, error) {
	count, err := c.collection.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection count: %w", err)
	}
	return count, nil
}

////////////////////////////////////////////////////////////////////////////////

// UpsertTweets mirrors tweets keyed by their store id, reusing the stored
// vectors so Chroma never re-embeds the text.
func (c *ChromaClient) UpsertTweets(ctx context.Context, tweets []*model.Tweet) error {
	logger := log.WithFields(log.Fields{
		"caller": "ChromaClient.UpsertTweets",
		"count":  len(tweets),
	})

	for start := 0; start < len(tweets); start += BATCH_SIZE {
		end := min(start+BATCH_SIZE, len(tweets))

		b, err := newBatch(tweets[start:end])
		if err != nil {
			return err
		}

		err = c.collection.Upsert(ctx,
			chroma.WithIDs(b.ids...),
			chroma.WithTexts(b.texts...),
			chroma.WithMetadatas(b.metadatas...),
			chroma.WithEmbeddings(b.embeddings...),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert tweets %d..%d to chroma: %w", start, end, err)
		}
		logger.WithField("upserted", end).Debug("batch upserted")
	}
	return nil
}

type batch struct {
	ids        []chroma.DocumentID
	texts      []string
	metadatas  []chroma.DocumentMetadata
	embeddings []embeddings.Embedding
}

func newBatch(tweets []*model.Tweet) (*batch, error) {
	b := &batch{}
	for _, t := range tweets {
		vec, err := vectorcodec.Decode(t.EmbeddingVector)
		if err != nil {
			return nil, fmt.Errorf("tweet %d: %w", t.Id, err)
		}

		b.ids = append(b.ids, DocumentID(t.Id))
		b.texts = append(b.texts, t.DisplayText())
		b.metadatas = append(b.metadatas, chroma.NewDocumentMetadata(
			chroma.NewIntAttribute("tweet_id", t.Id),
			chroma.NewStringAttribute("lang", t.Lang),
			chroma.NewStringAttribute("sentiment", t.Sentiment),
			chroma.NewFloatAttribute("sentiment_val", t.SentimentVal),
			chroma.NewStringAttribute("created_at", t.CreatedAt.Format("2006-01-02")),
		))
		b.embeddings = append(b.embeddings, embeddings.NewEmbeddingFromFloat32(toFloat32(vec)))
	}
	return b, nil
}

func DocumentID(id int64) chroma.DocumentID {
	return chroma.DocumentID("tweet-" + strconv.FormatInt(id, 10))
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
