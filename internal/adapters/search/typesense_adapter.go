package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	tsclient "github.com/zatekoja/storeguard/internal/infrastructure/clients/typesense"
	"github.com/zatekoja/storeguard/pkg/filter"
)

const (
	queryBy = "name,location,type_label"
	// one entry per queryBy field
	queryInfix = "always,always,always"
	// maxPerPage is the largest page Typesense serves
	maxPerPage = 250
)

// TypesenseAdapter implements store search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.StoreSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// storeDocument flattens a store into its index document
func storeDocument(store *entities.Store) map[string]interface{} {
	return map[string]interface{}{
		"id":           store.ID,
		"name":         store.Name,
		"location":     store.Location,
		"type_label":   store.TypeLabel(),
		"type":         string(store.Type),
		"status":       string(store.Status),
		"subscription": string(store.Subscription),
		"camera_count": store.CameraCount,
		"created_at":   store.CreatedAt.Unix(),
	}
}

// Index upserts a store document
func (a *TypesenseAdapter) Index(ctx context.Context, store *entities.Store) error {
	_, err := a.client.Client().Collection(tsclient.StoresCollection).Documents().Upsert(ctx, storeDocument(store))
	if err != nil {
		return fmt.Errorf("failed to index store: %w", err)
	}
	return nil
}

// Delete removes a store from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(tsclient.StoresCollection).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete store from index: %w", err)
	}
	return nil
}

// errNoMatch marks a filter value that can never match an indexed store
var errNoMatch = errors.New("filter value matches no store")

// filterBy renders the enum selectors as a Typesense filter expression.
// Values are canonicalized so "inactive" and "Inactive" select the same facet.
func filterBy(f repositories.StoreFilter) (string, error) {
	var clauses []string

	add := func(field, selected string, parse func(string) (string, bool)) error {
		if filter.IsAll(selected) {
			return nil
		}
		v, ok := parse(selected)
		if !ok {
			return errNoMatch
		}
		clauses = append(clauses, fmt.Sprintf("%s:=`%s`", field, v))
		return nil
	}

	if err := add("status", f.Status, func(s string) (string, bool) {
		v, ok := entities.ParseStoreStatus(s)
		return string(v), ok
	}); err != nil {
		return "", err
	}
	if err := add("type", f.Type, func(s string) (string, bool) {
		v, ok := entities.ParseStoreType(s)
		return string(v), ok
	}); err != nil {
		return "", err
	}
	if err := add("subscription", f.Subscription, func(s string) (string, bool) {
		v, ok := entities.ParseSubscriptionTier(s)
		return string(v), ok
	}); err != nil {
		return "", err
	}
	return strings.Join(clauses, " && "), nil
}

// searchParams translates a store filter. Matching is exact substring
// matching: no typo tolerance and no dropped tokens. Offsets that are not a
// multiple of the limit are served from the page containing the offset.
func searchParams(f repositories.StoreFilter) (*api.SearchCollectionParams, error) {
	by, err := filterBy(f)
	if err != nil {
		return nil, err
	}

	q := strings.TrimSpace(f.Search)
	if q == "" {
		q = "*"
	}
	perPage := f.Limit
	if perPage <= 0 || perPage > maxPerPage {
		perPage = maxPerPage
	}
	page := 1
	if f.Offset > 0 {
		page = f.Offset/perPage + 1
	}

	params := &api.SearchCollectionParams{
		Q:       pointer.String(q),
		QueryBy: pointer.String(queryBy),
		SortBy:  pointer.String("created_at:asc"),
		Page:    pointer.Int(page),
		PerPage: pointer.Int(perPage),

		NumTypos:            pointer.String("0"),
		Infix:               pointer.String(queryInfix),
		DropTokensThreshold: pointer.Int(0),
	}
	if by != "" {
		params.FilterBy = pointer.String(by)
	}
	return params, nil
}

// Search returns the ids of matching stores in index order
func (a *TypesenseAdapter) Search(ctx context.Context, f repositories.StoreFilter) ([]string, int, error) {
	params, err := searchParams(f)
	if errors.Is(err, errNoMatch) {
		return []string{}, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	result, err := a.client.Client().Collection(tsclient.StoresCollection).Documents().Search(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search stores: %w", err)
	}

	ids := []string{}
	if result.Hits != nil {
		for _, hit := range *result.Hits {
			if hit.Document == nil {
				continue
			}
			if id, ok := (*hit.Document)["id"].(string); ok {
				ids = append(ids, id)
			}
		}
	}
	total := len(ids)
	if result.Found != nil {
		total = *result.Found
	}
	return ids, total, nil
}
