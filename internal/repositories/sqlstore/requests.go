package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domain "github.com/august-web/dev-quoteX/internal/domain"
	"github.com/august-web/dev-quoteX/internal/platform/pagination"
	"github.com/august-web/dev-quoteX/internal/repositories"
	"github.com/august-web/dev-quoteX/internal/repositories/records"
)

const (
	insertRequestSQL = `INSERT INTO client_requests (id, status, created_at, updated_at, payload) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING`
	updateRequestSQL = `UPDATE client_requests SET status = ?, updated_at = ?, payload = ? WHERE id = ?`
	selectRequestSQL = `SELECT payload FROM client_requests WHERE id = ?`
)

// RequestRepository stores each request as a JSON payload next to the columns used for listing.
type RequestRepository struct {
	db *DB
}

var _ repositories.RequestRepository = (*RequestRepository)(nil)

func NewRequestRepository(db *DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Insert(ctx context.Context, request domain.ClientRequest) error {
	payload, err := encodeRequest(request)
	if err != nil {
		return err
	}
	res, err := r.db.exec(ctx, insertRequestSQL,
		request.ID, string(request.Status), formatTime(request.CreatedAt), formatTime(request.UpdatedAt), payload)
	if err != nil {
		return wrap("requests.insert", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repositories.NewStoreError("requests.insert", repositories.StoreErrorConflict, fmt.Errorf("request %s already exists", request.ID))
	}
	return nil
}

func (r *RequestRepository) Update(ctx context.Context, request domain.ClientRequest) error {
	payload, err := encodeRequest(request)
	if err != nil {
		return err
	}
	res, err := r.db.exec(ctx, updateRequestSQL, string(request.Status), formatTime(request.UpdatedAt), payload, request.ID)
	if err != nil {
		return wrap("requests.update", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return notFound("requests.update", request.ID)
	}
	return nil
}

func (r *RequestRepository) FindByID(ctx context.Context, id string) (domain.ClientRequest, error) {
	var payload string
	err := r.db.queryRow(ctx, selectRequestSQL, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ClientRequest{}, notFound("requests.find", id)
	}
	if err != nil {
		return domain.ClientRequest{}, wrap("requests.find", err)
	}
	return decodeRequest(payload)
}

// List pages by (created_at, id) descending. One extra row is read to decide whether a next page exists.
func (r *RequestRepository) List(ctx context.Context, filter repositories.RequestListFilter) (domain.CursorPage[domain.ClientRequest], error) {
	page := domain.CursorPage[domain.ClientRequest]{}
	cursor, err := pagination.DecodeToken(filter.Pagination.PageToken)
	if err != nil {
		return page, err
	}
	size := filter.Pagination.PageSize
	if size <= 0 {
		size = pagination.DefaultPageSize
	}

	var (
		where []string
		args  []any
	)
	if filter.Status != nil {
		where = append(where, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if !cursor.IsZero() {
		at := formatTime(cursor.CreatedAt)
		where = append(where, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, at, at, cursor.ID)
	}
	query := "SELECT payload FROM client_requests"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, size+1)

	rows, err := r.db.query(ctx, query, args...)
	if err != nil {
		return page, wrap("requests.list", err)
	}
	defer rows.Close()

	items := make([]domain.ClientRequest, 0, size+1)
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return page, wrap("requests.list", err)
		}
		item, err := decodeRequest(payload)
		if err != nil {
			return page, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return page, wrap("requests.list", err)
	}

	if len(items) > size {
		items = items[:size]
		last := items[size-1]
		token, err := pagination.EncodeToken(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		if err != nil {
			return page, err
		}
		page.NextPageToken = token
	}
	page.Items = items
	return page, nil
}

func encodeRequest(request domain.ClientRequest) (string, error) {
	raw, err := json.Marshal(records.FromRequest(request))
	if err != nil {
		return "", fmt.Errorf("sqlstore: encode request %s: %w", request.ID, err)
	}
	return string(raw), nil
}

func decodeRequest(payload string) (domain.ClientRequest, error) {
	var rec records.Request
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return domain.ClientRequest{}, fmt.Errorf("sqlstore: decode request: %w", err)
	}
	return rec.Domain(), nil
}

func notFound(op, id string) error {
	return repositories.NewStoreError(op, repositories.StoreErrorNotFound, fmt.Errorf("request %s not found", id))
}
