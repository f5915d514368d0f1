package neo4j

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"JobScraper/internal/domain"

	pkgneo4j "JobScraper/pkg/neo4j"
)

// JobStore merges discovered postings into the graph, keyed by canonical URL
type JobStore struct {
	client *pkgneo4j.Client
	now    func() time.Time
}

func NewJobStore(client *pkgneo4j.Client) *JobStore {
	return &JobStore{client: client, now: time.Now}
}

// SaveURLs merges one (:Job {url}) node per URL and links it to the requesting user
func (s *JobStore) SaveURLs(ctx context.Context, userID string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	query := `
		UNWIND $urls AS url
		MERGE (j:Job {url: url})
		ON CREATE SET j.discoveredAt = datetime({epochMillis: $now})
		WITH j
		MERGE (u:User {id: $userId})
		MERGE (u)-[:DISCOVERED]->(j)
	`
	return s.write(ctx, query, map[string]any{
		"urls":   urls,
		"userId": userID,
		"now":    s.now().UnixMilli(),
	})
}

// SaveDetails merges the posting and sets whichever fields were extracted
func (s *JobStore) SaveDetails(ctx context.Context, userID string, d domain.JobDetails) error {
	query := `
		MERGE (j:Job {url: $url})
		SET j.fetchedAt = datetime({epochMillis: $now})
		FOREACH (v IN CASE WHEN $id IS NULL THEN [] ELSE [$id] END | SET j.externalId = v)
		FOREACH (v IN CASE WHEN $description IS NULL THEN [] ELSE [$description] END | SET j.description = v)
		FOREACH (v IN CASE WHEN $position IS NULL THEN [] ELSE [$position] END | SET j.title = v)
		FOREACH (name IN CASE WHEN $company IS NULL THEN [] ELSE [$company] END |
			MERGE (c:Company {name: name})
			MERGE (j)-[:POSTED_BY]->(c)
		)
		WITH j
		MERGE (u:User {id: $userId})
		MERGE (u)-[:DISCOVERED]->(j)
	`
	return s.write(ctx, query, map[string]any{
		"url":         d.URL,
		"id":          optional(d.ID),
		"description": optional(d.RawJobDescription),
		"company":     optional(d.CompanyName),
		"position":    optional(d.Position),
		"userId":      userID,
		"now":         s.now().UnixMilli(),
	})
}

// CountByURL reports how many Job nodes carry url
func (s *JobStore) CountByURL(ctx context.Context, url string) (int64, error) {
	session := s.client.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	res, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `MATCH (j:Job {url: $url}) RETURN count(j) AS n`, map[string]any{"url": url})
		if err != nil {
			return nil, err
		}
		record, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		n, _ := record.Get("n")
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	n, _ := res.(int64)
	return n, nil
}

func (s *JobStore) write(ctx context.Context, query string, params map[string]any) error {
	session := s.client.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
