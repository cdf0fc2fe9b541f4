// Package graph exports extracted messages to Neo4j as a graph of messages,
// the files they occur in and their translation domain.
package graph

import (
	"context"
	"fmt"

	"i18nextract/internal/message"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Runner executes one Cypher statement.
type Runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) error
}

type sessionRunner struct {
	session neo4j.SessionWithContext
}

func (s sessionRunner) Run(ctx context.Context, cypher string, params map[string]any) error {
	_, err := s.session.Run(ctx, cypher, params)
	return err
}

// Exporter writes catalog snapshots to the graph.
type Exporter struct {
	driver neo4j.DriverWithContext
	runner Runner
}

// NewExporter creates an exporter that opens one session per operation.
func NewExporter(driver neo4j.DriverWithContext) *Exporter {
	return &Exporter{driver: driver}
}

// NewRunnerExporter creates an exporter on an existing runner.
func NewRunnerExporter(r Runner) *Exporter {
	return &Exporter{runner: r}
}

// Connect opens a driver and verifies connectivity.
func Connect(ctx context.Context, uri, user, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")
	return driver, nil
}

func (e *Exporter) with(ctx context.Context, fn func(Runner) error) error {
	if e.runner != nil {
		return fn(e.runner)
	}
	session := e.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)
	return fn(sessionRunner{session: session})
}

// EnsureSchema creates the uniqueness constraints.
func (e *Exporter) EnsureSchema(ctx context.Context) error {
	constraints := []string{
		"CREATE CONSTRAINT IF NOT EXISTS FOR (m:Message) REQUIRE m.msgid IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (f:SourceFile) REQUIRE f.path IS UNIQUE",
		"CREATE CONSTRAINT IF NOT EXISTS FOR (d:Domain) REQUIRE d.name IS UNIQUE",
	}
	return e.with(ctx, func(r Runner) error {
		for _, c := range constraints {
			if err := r.Run(ctx, c, nil); err != nil {
				return fmt.Errorf("create constraint: %w", err)
			}
		}
		log.Info().Msg("Graph schema ensured")
		return nil
	})
}

// Export replaces the occurrences recorded for domain with those in set.
// Message and file nodes are merged, never deleted.
func (e *Exporter) Export(ctx context.Context, domain string, set message.Set) error {
	return e.with(ctx, func(r Runner) error {
		if err := r.Run(ctx, `
			MATCH (:Domain {name: $domain})<-[:IN_DOMAIN]-(:Message)-[o:FOUND_IN]->(:SourceFile)
			DELETE o
		`, map[string]any{"domain": domain}); err != nil {
			return fmt.Errorf("clear occurrences: %w", err)
		}

		edges := 0
		for _, x := range set {
			params := map[string]any{
				"msgid":  x.Key.Text,
				"domain": domain,
			}
			if x.Key.HasDefault {
				params["default"] = x.Key.Default
			} else {
				params["default"] = nil
			}
			if err := r.Run(ctx, `
				MERGE (d:Domain {name: $domain})
				MERGE (m:Message {msgid: $msgid})
				SET m.default = $default
				MERGE (m)-[:IN_DOMAIN]->(d)
			`, params); err != nil {
				return fmt.Errorf("upsert message %q: %w", x.Key.Text, err)
			}

			for _, o := range x.Occurrences {
				if err := r.Run(ctx, `
					MATCH (m:Message {msgid: $msgid})
					MERGE (f:SourceFile {path: $file})
					MERGE (m)-[:FOUND_IN {line: $line}]->(f)
				`, map[string]any{
					"msgid": x.Key.Text,
					"file":  o.File,
					"line":  o.Line,
				}); err != nil {
					log.Warn().Err(err).
						Str("msgid", x.Key.Text).
						Str("file", o.File).
						Int("line", o.Line).
						Msg("Failed to link occurrence")
					continue
				}
				edges++
			}
		}

		log.Info().Int("messages", len(set)).Int("occurrences", edges).Str("domain", domain).Msg("Exported message graph")
		return nil
	})
}
