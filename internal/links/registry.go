package links

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/store"
)

// ChangeFunc is called after a link was updated or deleted.
type ChangeFunc func(slug string)

// CreateInput carries the fields accepted on create.
type CreateInput struct {
	Slug        string
	Destination string
	Status      string
	QRCode      string
}

// Registry is CRUD over slug -> destination records. It does not check
// authorization; callers do.
type Registry struct {
	store    store.Store
	log      logger.Logger
	now      func() time.Time
	onChange []ChangeFunc
}

func NewRegistry(s store.Store, log logger.Logger) *Registry {
	return &Registry{
		store: s,
		log:   log,
		now:   time.Now,
	}
}

// WithClock overrides time.Now and returns r.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// OnChange registers fn to run after every update or delete.
// Not safe to call once the registry is serving.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.onChange = append(r.onChange, fn)
}

func (r *Registry) notify(slug string) {
	for _, fn := range r.onChange {
		fn(slug)
	}
}

// Create validates and stores a new link with zero clicks.
func (r *Registry) Create(ctx context.Context, in CreateInput) (domain.Link, error) {
	if err := ValidateSlug(in.Slug); err != nil {
		return domain.Link{}, err
	}
	if err := ValidateDestination(in.Destination); err != nil {
		return domain.Link{}, err
	}
	status, err := ParseStatus(in.Status)
	if err != nil {
		return domain.Link{}, err
	}

	now := r.now().UTC()
	link := domain.Link{
		Slug:        in.Slug,
		Destination: in.Destination,
		CreatedAt:   now,
		UpdatedAt:   now,
		Clicks:      0,
		Status:      status,
		QRCode:      in.QRCode,
	}
	data, err := json.Marshal(link)
	if err != nil {
		return domain.Link{}, fmt.Errorf("failed to marshal link: %w", err)
	}

	created, err := r.store.SetNX(ctx, store.LinkKey(in.Slug), data, 0)
	if err != nil {
		return domain.Link{}, err
	}
	if !created {
		return domain.Link{}, domain.ErrDuplicateSlug
	}

	r.log.Debug("link created",
		logger.String("slug", link.Slug),
		logger.String("destination", link.Destination))
	return link, nil
}

// Get returns the link for slug or domain.ErrLinkNotFound.
func (r *Registry) Get(ctx context.Context, slug string) (domain.Link, error) {
	data, err := r.store.Get(ctx, store.LinkKey(slug))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Link{}, domain.ErrLinkNotFound
		}
		return domain.Link{}, err
	}
	return decode(data)
}

// Update merges the provided fields. Validation happens before anything is
// written, so a rejected patch leaves the record untouched.
func (r *Registry) Update(ctx context.Context, slug string, patch domain.LinkPatch) (domain.Link, error) {
	if patch.Destination != nil {
		if err := ValidateDestination(*patch.Destination); err != nil {
			return domain.Link{}, err
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.Link{}, domain.ErrInvalidStatus
	}

	var updated domain.Link
	err := r.store.Update(ctx, store.LinkKey(slug), func(current []byte) ([]byte, error) {
		link, err := decode(current)
		if err != nil {
			return nil, err
		}
		if patch.Destination != nil {
			link.Destination = *patch.Destination
		}
		if patch.Status != nil {
			link.Status = *patch.Status
		}
		if patch.QRCode != nil {
			link.QRCode = *patch.QRCode
		}
		link.UpdatedAt = r.now().UTC()
		updated = link
		return json.Marshal(link)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Link{}, domain.ErrLinkNotFound
		}
		return domain.Link{}, err
	}

	r.notify(slug)
	return updated, nil
}

// Delete removes the record for slug.
func (r *Registry) Delete(ctx context.Context, slug string) error {
	if _, err := r.Get(ctx, slug); err != nil {
		return err
	}
	if err := r.store.Del(ctx, store.LinkKey(slug)); err != nil {
		return err
	}
	r.notify(slug)
	r.log.Debug("link deleted", logger.String("slug", slug))
	return nil
}

// List loads every link, most recently updated first.
func (r *Registry) List(ctx context.Context) ([]domain.Link, error) {
	keys, err := r.store.Keys(ctx, store.LinkPattern())
	if err != nil {
		return nil, err
	}

	links := make([]domain.Link, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				// deleted between SCAN and GET
				continue
			}
			return nil, err
		}
		link, err := decode(data)
		if err != nil {
			r.log.Warn("skipping unreadable link", logger.String("key", key), logger.Error(err))
			continue
		}
		links = append(links, link)
	}

	sort.Slice(links, func(i, j int) bool {
		if !links[i].UpdatedAt.Equal(links[j].UpdatedAt) {
			return links[i].UpdatedAt.After(links[j].UpdatedAt)
		}
		return links[i].Slug < links[j].Slug
	})
	return links, nil
}

// IncrementClicks adds one click to slug. updatedAt is left alone, so
// traffic does not reorder the admin list.
func (r *Registry) IncrementClicks(ctx context.Context, slug string) (int64, error) {
	var clicks int64
	err := r.store.Update(ctx, store.LinkKey(slug), func(current []byte) ([]byte, error) {
		link, err := decode(current)
		if err != nil {
			return nil, err
		}
		link.Clicks++
		clicks = link.Clicks
		return json.Marshal(link)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, domain.ErrLinkNotFound
		}
		return 0, err
	}
	return clicks, nil
}

func decode(data []byte) (domain.Link, error) {
	var link domain.Link
	if err := json.Unmarshal(data, &link); err != nil {
		return domain.Link{}, fmt.Errorf("%w: unreadable link record: %w", domain.ErrStorage, err)
	}
	return link, nil
}
