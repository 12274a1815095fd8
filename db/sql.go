package db

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/EO-DataHub/eodhp-scim-services/models"
)

var placeholderRegex = regexp.MustCompile(`\$\d+`)

// SQLPersister stores one resource type's collection as rows of scim_resources.
type SQLPersister struct {
	DB           *sql.DB
	ResourceType string
	dialect      string
	nowFunc      func() time.Time
}

// NewPostgresPersister returns a persister scoped to resourceType.
func NewPostgresPersister(db *sql.DB, resourceType string) *SQLPersister {
	return newSQLPersister(db, resourceType, DialectPostgres)
}

// NewSQLitePersister returns a persister scoped to resourceType.
func NewSQLitePersister(db *sql.DB, resourceType string) *SQLPersister {
	return newSQLPersister(db, resourceType, DialectSQLite)
}

func newSQLPersister(db *sql.DB, resourceType, dialect string) *SQLPersister {
	return &SQLPersister{
		DB:           db,
		ResourceType: resourceType,
		dialect:      dialect,
		nowFunc:      func() time.Time { return time.Now().UTC() },
	}
}

// rebind rewrites $n placeholders for drivers that only take ?.
func (p *SQLPersister) rebind(query string) string {
	if p.dialect == DialectPostgres {
		return query
	}
	return placeholderRegex.ReplaceAllString(query, "?")
}

// Load reads every document stored for the resource type.
func (p *SQLPersister) Load(ctx context.Context) (map[string]models.Document, error) {
	query := `SELECT id, document FROM scim_resources WHERE resource_type = $1`
	rows, err := p.DB.QueryContext(ctx, p.rebind(query), p.ResourceType)
	if err != nil {
		return nil, fmt.Errorf("error retrieving %s resources: %w", p.ResourceType, err)
	}
	defer rows.Close()

	docs := make(map[string]models.Document)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("error scanning %s resources: %w", p.ResourceType, err)
		}

		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var doc models.Document
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding %s %s: %w", p.ResourceType, id, err)
		}
		docs[id] = doc
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s resources: %w", p.ResourceType, err)
	}
	return docs, nil
}

// Save rewrites the whole collection inside one transaction.
func (p *SQLPersister) Save(ctx context.Context, docs map[string]models.Document) error {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		p.rebind(`DELETE FROM scim_resources WHERE resource_type = $1`), p.ResourceType); err != nil {
		tx.Rollback()
		return fmt.Errorf("error clearing %s resources: %w", p.ResourceType, err)
	}

	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	updatedAt := p.nowFunc()
	for _, id := range ids {
		body, err := json.Marshal(docs[id])
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error encoding %s %s: %w", p.ResourceType, id, err)
		}

		// JSONB must be sent as text; pq encodes []byte as bytea.
		if _, err := tx.ExecContext(ctx, p.rebind(`
			INSERT INTO scim_resources (resource_type, id, document, updated_at)
			VALUES ($1, $2, $3, $4)`),
			p.ResourceType, id, string(body), updatedAt); err != nil {
			tx.Rollback()
			return fmt.Errorf("error inserting %s %s: %w", p.ResourceType, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}
