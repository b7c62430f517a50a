package params

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"hdcn-access/internal/metadata"
	"hdcn-access/internal/store"
)

// HTTPSource fetches the override as JSON from a URL, typically the
// parameter document published by the backend or CDN.
type HTTPSource struct {
	url     string
	timeout time.Duration
}

func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSource{url: url, timeout: timeout}
}

// Fetch issues a GET. The agent does not take a context, so only an already
// cancelled ctx is honoured; the request is bounded by the timeout.
func (s *HTTPSource) Fetch(ctx context.Context) (metadata.FunctionPermissions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a := fiber.Get(s.url)
	a.Timeout(s.timeout)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if err := a.Parse(); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.url, err)
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("fetch %s: %w", s.url, errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", s.url, code)
	}
	return DecodeTable(body)
}

// PostgresSource reads and writes the override in the _parameters table.
type PostgresSource struct {
	db *store.Store
}

func NewPostgresSource(db *store.Store) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Fetch(ctx context.Context) (metadata.FunctionPermissions, error) {
	p, err := s.db.GetParameter(ctx, Key)
	if errors.Is(err, store.ErrNotFound) {
		return metadata.FunctionPermissions{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", Key, err)
	}
	return DecodeTable(p.Value)
}

func (s *PostgresSource) Save(ctx context.Context, table metadata.FunctionPermissions, updatedBy string) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode %s: %w", Key, err)
	}
	return s.db.PutParameter(ctx, Key, data, updatedBy)
}
