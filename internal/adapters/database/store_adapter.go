package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
	"github.com/zatekoja/storeguard/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/storeguard/pkg/errors"
)

const (
	storesTable  = "stores"
	camerasTable = "cameras"
)

var storeColumns = []interface{}{
	"id", "name", "location", "contact_email", "contact_phone", "store_type",
	"status", "subscription", "camera_count", "nvr_login_email", "nvr_login_password",
	"nvr_rtsp_url", "nvr_port", "last_activity_at", "created_at", "updated_at",
}

// StoreAdapter implements the StoreRepository interface on Postgres
type StoreAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewStoreAdapter creates a new store adapter
func NewStoreAdapter(client *postgres.Client) repositories.StoreRepository {
	return &StoreAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

var _ repositories.StoreRepository = (*StoreAdapter)(nil)

func storeRecord(s *entities.Store) goqu.Record {
	return goqu.Record{
		"id":                 s.ID,
		"name":               s.Name,
		"location":           s.Location,
		"contact_email":      s.ContactEmail,
		"contact_phone":      s.ContactPhone,
		"store_type":         string(s.Type),
		"status":             string(s.Status),
		"subscription":       string(s.Subscription),
		"camera_count":       s.CameraCount,
		"nvr_login_email":    s.NVR.LoginEmail,
		"nvr_login_password": s.NVR.LoginPassword,
		"nvr_rtsp_url":       s.NVR.RTSPURL,
		"nvr_port":           s.NVR.Port,
		"last_activity_at":   nullTime(s.LastActivityAt),
		"created_at":         s.CreatedAt,
		"updated_at":         s.UpdatedAt,
	}
}

func cameraRecords(s *entities.Store) []interface{} {
	rows := make([]interface{}, 0, len(s.Cameras))
	for i, c := range s.Cameras {
		rows = append(rows, goqu.Record{
			"id":          c.ID,
			"store_id":    s.ID,
			"name":        c.Name,
			"stream_type": string(c.StreamType),
			"location":    c.Location,
			"status":      string(c.Status),
			"position":    i,
			"created_at":  c.CreatedAt,
		})
	}
	return rows
}

// Create inserts the store and its cameras in one transaction
func (a *StoreAdapter) Create(ctx context.Context, store *entities.Store) error {
	if store == nil {
		return apperrors.NewInternalError("store is nil", fmt.Errorf("store is nil"))
	}

	return a.inTx(ctx, "create store", func(tx *sql.Tx) error {
		query, args, err := a.db.Insert(storesTable).Rows(storeRecord(store)).ToSQL()
		if err != nil {
			return fmt.Errorf("build store insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
		return a.insertCameras(ctx, tx, store)
	})
}

func (a *StoreAdapter) insertCameras(ctx context.Context, tx *sql.Tx, store *entities.Store) error {
	if len(store.Cameras) == 0 {
		return nil
	}
	query, args, err := a.db.Insert(camerasTable).Rows(cameraRecords(store)...).ToSQL()
	if err != nil {
		return fmt.Errorf("build camera insert: %w", err)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a store with its cameras
func (a *StoreAdapter) GetByID(ctx context.Context, id string) (*entities.Store, error) {
	query, args, err := a.db.From(storesTable).Select(storeColumns...).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build store query", err)
	}

	store, err := scanStore(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("store with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get store", err)
	}

	cameras, err := a.camerasFor(ctx, id)
	if err != nil {
		return nil, err
	}
	store.Cameras = cameras
	return store, nil
}

func (a *StoreAdapter) camerasFor(ctx context.Context, storeID string) ([]entities.Camera, error) {
	query, args, err := a.db.From(camerasTable).
		Select("id", "store_id", "name", "stream_type", "location", "status", "created_at").
		Where(goqu.Ex{"store_id": storeID}).
		Order(goqu.I("position").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build camera query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list cameras", err)
	}
	defer rows.Close()

	cameras := []entities.Camera{}
	for rows.Next() {
		var c entities.Camera
		if err := rows.Scan(&c.ID, &c.StoreID, &c.Name, &c.StreamType, &c.Location, &c.Status, &c.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan camera", err)
		}
		cameras = append(cameras, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating cameras", err)
	}
	return cameras, nil
}

// GetByIDs retrieves stores in the order of ids without their cameras
func (a *StoreAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Store, error) {
	if len(ids) == 0 {
		return []*entities.Store{}, nil
	}
	stores, err := a.query(ctx, a.db.From(storesTable).Select(storeColumns...).Where(goqu.Ex{"id": ids}))
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*entities.Store, len(stores))
	for _, s := range stores {
		byID[s.ID] = s
	}
	out := make([]*entities.Store, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Update replaces the store row and its cameras, and renames its billing rows.
// An empty NVR password leaves the stored one unchanged.
func (a *StoreAdapter) Update(ctx context.Context, store *entities.Store) error {
	return a.inTx(ctx, "update store", func(tx *sql.Tx) error {
		record := storeRecord(store)
		delete(record, "id")
		delete(record, "created_at")
		if store.NVR.LoginPassword == "" {
			delete(record, "nvr_login_password")
		}

		query, args, err := a.db.Update(storesTable).Set(record).Where(goqu.Ex{"id": store.ID}).ToSQL()
		if err != nil {
			return fmt.Errorf("build store update: %w", err)
		}
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if n, err := result.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return apperrors.NewNotFoundError(fmt.Sprintf("store with id %s not found", store.ID))
		}

		query, args, err = a.db.Delete(camerasTable).Where(goqu.Ex{"store_id": store.ID}).ToSQL()
		if err != nil {
			return fmt.Errorf("build camera delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return err
		}
		if err := a.insertCameras(ctx, tx, store); err != nil {
			return err
		}

		query, args, err = a.db.Update(paymentsTable).
			Set(goqu.Record{"store_name": store.Name}).
			Where(goqu.Ex{"store_id": store.ID}).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build payment rename: %w", err)
		}
		_, err = tx.ExecContext(ctx, query, args...)
		return err
	})
}

// Delete removes a store. Cameras and alerts cascade; payments and
// feedback keep their rows with the store reference cleared.
func (a *StoreAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete(storesTable).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build store delete", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete store", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("store with id %s not found", id))
	}
	return nil
}

// storeTypeLabel renders the display label of store_type so that search
// matches what the list shows.
var storeTypeLabel = func() exp.LiteralExpression {
	var b strings.Builder
	b.WriteString("(CASE store_type")
	args := []interface{}{}
	for _, t := range entities.StoreTypes() {
		b.WriteString(" WHEN ? THEN ?")
		args = append(args, string(t), t.Label())
	}
	b.WriteString(" ELSE store_type END)")
	return goqu.L(b.String(), args...)
}()

func storeListConditions(f repositories.StoreFilter) []exp.Expression {
	return conditions(
		searchCondition(f.Search, goqu.I("name"), goqu.I("location"), storeTypeLabel),
		enumCondition("status", f.Status),
		enumCondition("store_type", f.Type),
		enumCondition("subscription", f.Subscription),
	)
}

// List retrieves stores in creation order
func (a *StoreAdapter) List(ctx context.Context, f repositories.StoreFilter) ([]*entities.Store, int, error) {
	where := storeListConditions(f)

	total, err := a.count(ctx, where)
	if err != nil {
		return nil, 0, err
	}

	ds := a.db.From(storesTable).Select(storeColumns...).Where(where...).
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc())
	stores, err := a.query(ctx, paginate(ds, f.Limit, f.Offset))
	if err != nil {
		return nil, 0, err
	}
	return stores, total, nil
}

// ListRecent retrieves the newest stores first
func (a *StoreAdapter) ListRecent(ctx context.Context, limit int) ([]*entities.Store, error) {
	ds := a.db.From(storesTable).Select(storeColumns...).Order(goqu.I("created_at").Desc())
	return a.query(ctx, paginate(ds, limit, 0))
}

// Count counts stores matching the filter
func (a *StoreAdapter) Count(ctx context.Context, f repositories.StoreCountFilter) (int, error) {
	var where []exp.Expression
	if f.Status != "" {
		where = append(where, goqu.Ex{"status": string(f.Status)})
	}
	if f.CreatedBefore != nil {
		where = append(where, goqu.I("created_at").Lt(*f.CreatedBefore))
	}
	return a.count(ctx, where)
}

func (a *StoreAdapter) count(ctx context.Context, where []exp.Expression) (int, error) {
	query, args, err := a.db.From(storesTable).Select(goqu.COUNT("*")).Where(where...).ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build store count", err)
	}
	var n int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, apperrors.NewInternalError("failed to count stores", err)
	}
	return n, nil
}

func (a *StoreAdapter) query(ctx context.Context, ds *goqu.SelectDataset) ([]*entities.Store, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build store query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list stores", err)
	}
	defer rows.Close()

	stores := []*entities.Store{}
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan store", err)
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating stores", err)
	}
	return stores, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStore(row rowScanner) (*entities.Store, error) {
	s := &entities.Store{}
	var lastActivity sql.NullTime
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Location,
		&s.ContactEmail,
		&s.ContactPhone,
		&s.Type,
		&s.Status,
		&s.Subscription,
		&s.CameraCount,
		&s.NVR.LoginEmail,
		&s.NVR.LoginPassword,
		&s.NVR.RTSPURL,
		&s.NVR.Port,
		&lastActivity,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.LastActivityAt = timePtr(lastActivity)
	return s, nil
}

// inTx runs fn in a transaction. AppErrors returned by fn pass through
// unchanged; anything else is reported as an internal error.
func (a *StoreAdapter) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	return withTx(ctx, a.client, op, fn)
}
