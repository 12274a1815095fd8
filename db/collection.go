package db

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/EO-DataHub/eodhp-scim-services/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Collection is the live, in-memory set of resources of one type. Every mutation is
// persisted before it becomes visible; a failed save leaves the collection unchanged.
type Collection struct {
	resourceType string
	persister    Persister
	log          *zerolog.Logger
	newID        func() string

	mu   sync.RWMutex
	docs map[string]models.Document
}

// NewCollection loads the current snapshot from p.
func NewCollection(ctx context.Context, resourceType string, p Persister, log *zerolog.Logger) (*Collection, error) {
	if p == nil {
		return nil, fmt.Errorf("persister is required for %s collection", resourceType)
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	docs, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading %s collection: %w", resourceType, err)
	}

	// Re-key on the stored id attribute in case the snapshot was edited by hand.
	for key, doc := range docs {
		if doc == nil {
			delete(docs, key)
			continue
		}
		doc["id"] = key
	}

	log.Debug().Str("resource_type", resourceType).Int("count", len(docs)).Msg("Collection loaded")

	return &Collection{
		resourceType: resourceType,
		persister:    p,
		log:          log,
		newID:        uuid.NewString,
		docs:         docs,
	}, nil
}

// ResourceType is the SCIM resource type held, e.g. "User".
func (c *Collection) ResourceType() string {
	return c.resourceType
}

// Len returns the number of stored resources.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// List returns copies of all resources ordered by id.
func (c *Collection) List() []models.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.docs))
	for id := range c.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]models.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.docs[id].Clone())
	}
	return out
}

// Get returns a copy of the resource with the given id.
func (c *Collection) Get(id string) (models.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	doc, ok := c.docs[id]
	if !ok {
		return nil, false
	}
	return doc.Clone(), true
}

// Snapshot returns a copy of the whole id → document mapping.
func (c *Collection) Snapshot() map[string]models.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]models.Document, len(c.docs))
	for id, doc := range c.docs {
		out[id] = doc.Clone()
	}
	return out
}

// Create stores doc under a freshly generated id, overwriting any client-supplied id.
func (c *Collection) Create(ctx context.Context, doc models.Document) (models.Document, error) {
	if doc == nil {
		return nil, fmt.Errorf("cannot create a nil %s", c.resourceType)
	}
	stored := doc.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.newID()
	for {
		if _, taken := c.docs[id]; !taken {
			break
		}
		id = c.newID()
	}
	stored["id"] = id

	c.docs[id] = stored
	if err := c.persister.Save(ctx, c.docs); err != nil {
		delete(c.docs, id)
		return nil, fmt.Errorf("persisting %s %s: %w", c.resourceType, id, err)
	}

	c.log.Debug().Str("resource_type", c.resourceType).Str("id", id).Msg("Resource created")
	return stored.Clone(), nil
}

// Delete removes id if present. Deleting an unknown id still rewrites the snapshot and
// succeeds.
func (c *Collection) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, existed := c.docs[id]
	delete(c.docs, id)

	if err := c.persister.Save(ctx, c.docs); err != nil {
		if existed {
			c.docs[id] = prev
		}
		return fmt.Errorf("persisting deletion of %s %s: %w", c.resourceType, id, err)
	}

	c.log.Debug().Str("resource_type", c.resourceType).Str("id", id).Bool("existed", existed).Msg("Resource deleted")
	return nil
}
