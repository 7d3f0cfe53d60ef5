package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/account-registry/interfaces"
	"golang.org/x/sync/errgroup"
)

// ErrContentMismatch is returned when fetched data does not hash to the
// requested content ID.
var ErrContentMismatch = errors.New("fetched content does not match its id")

// MultiStorageBackend writes to every available backend and reads from the
// first one, in configuration order, that returns content matching the
// requested ID.
type MultiStorageBackend struct {
	backends []interfaces.StorageBackend
	log      *slog.Logger
}

func NewMultiStorageBackend(backends []interfaces.StorageBackend, logger *slog.Logger) *MultiStorageBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &MultiStorageBackend{
		backends: backends,
		log:      logger,
	}
}

func (m *MultiStorageBackend) Fetch(ctx context.Context, id interfaces.ContentID, contentType interfaces.ContentType) ([]byte, error) {
	start := time.Now()
	var errs []error

	for _, backend := range m.backends {
		if !backend.Available(ctx) {
			m.log.Debug("Backend unavailable", "backend", backend.Name(), "contentID", id.String())
			continue
		}

		data, err := backend.Fetch(ctx, id, contentType)
		if err == nil && interfaces.ComputeID(data) != id {
			err = ErrContentMismatch
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", backend.Name(), err))
			m.log.Debug("Failed to fetch from backend", "backend", backend.Name(), "contentID", id.String(), "err", err)
			continue
		}

		m.log.Debug("Fetched content",
			"backend", backend.Name(),
			"contentID", id.String(),
			"duration", time.Since(start))
		return data, nil
	}

	if len(errs) == 0 {
		return nil, interfaces.ErrBackendUnavailable
	}
	if allNotFound(errs) {
		return nil, interfaces.ErrContentNotFound
	}
	return nil, fmt.Errorf("all backends failed to fetch %s: %w", id, errors.Join(errs...))
}

// maxConcurrentStores bounds the number of backends written in parallel.
const maxConcurrentStores = 4

type storeResult struct {
	id      interfaces.ContentID
	err     error
	skipped bool
}

// Store saves data to all available backends in parallel. It succeeds if at
// least one backend stored the data; the id reported is that of the first
// backend in configuration order.
func (m *MultiStorageBackend) Store(ctx context.Context, data []byte, contentType interfaces.ContentType) (interfaces.ContentID, error) {
	start := time.Now()
	results := make([]storeResult, len(m.backends))

	var g errgroup.Group
	g.SetLimit(maxConcurrentStores)
	for i, backend := range m.backends {
		g.Go(func() error {
			if !backend.Available(ctx) {
				results[i].skipped = true
				return nil
			}
			results[i].id, results[i].err = backend.Store(ctx, data, contentType)
			return nil
		})
	}
	_ = g.Wait()

	var (
		result  interfaces.ContentID
		success bool
		errs    []error
	)
	for i, res := range results {
		name := m.backends[i].Name()
		switch {
		case res.skipped:
			m.log.Debug("Backend unavailable", "backend", name)
		case res.err != nil:
			errs = append(errs, fmt.Errorf("%s: %w", name, res.err))
			m.log.Warn("Failed to store to backend", "backend", name, "err", res.err)
		case !success:
			result = res.id
			success = true
		case result != res.id:
			m.log.Warn("Inconsistent content ids from backends",
				"backend", name,
				"expected", result.String(),
				"actual", res.id.String())
		}
	}

	if !success {
		if len(errs) == 0 {
			return result, interfaces.ErrBackendUnavailable
		}
		return result, fmt.Errorf("all backends failed to store data: %w", errors.Join(errs...))
	}

	m.log.Info("Stored content",
		"contentID", result.String(),
		"type", contentType.String(),
		"failed_backends", len(errs),
		"duration", time.Since(start))
	return result, nil
}

// Available reports whether any backend is available.
func (m *MultiStorageBackend) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

func (m *MultiStorageBackend) Name() string {
	return "multi-storage"
}

func (m *MultiStorageBackend) LocationURI() string {
	locations := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		locations = append(locations, backend.LocationURI())
	}
	return "multi:[" + strings.Join(locations, ",") + "]"
}

func allNotFound(errs []error) bool {
	for _, err := range errs {
		if !errors.Is(err, interfaces.ErrContentNotFound) {
			return false
		}
	}
	return true
}
