package notice

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/madrasa/core"
)

var ErrNotFound = errors.New("notice not found")

type Notice struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Content     string    `json:"content" db:"content"`
	IsPublished bool      `json:"is_published" db:"is_published"`
	PublishDate time.Time `json:"publish_date" db:"publish_date"`
	ExpiryDate  null.Time `json:"expiry_date" db:"expiry_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Visible reports whether the notice is shown on the public board at `now`.
// A notice stays visible through its whole expiry day.
func (n Notice) Visible(now time.Time) bool {
	if !n.IsPublished {
		return false
	}
	if n.ExpiryDate.Valid {
		y, m, d := n.ExpiryDate.Time.Date()
		endOfDay := time.Date(y, m, d+1, 0, 0, 0, 0, n.ExpiryDate.Time.Location())
		return now.Before(endOfDay)
	}
	return true
}

type NewNotice struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Content     string     `json:"content" validate:"required"`
	IsPublished bool       `json:"is_published"`
	PublishDate *time.Time `json:"publish_date"`
	ExpiryDate  *time.Time `json:"expiry_date"`
}

func (nn *NewNotice) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Content = core.CleanString(nn.Content)
	if err := validate.Struct(nn); err != nil {
		return err
	}
	publish := time.Now()
	if nn.PublishDate != nil {
		publish = *nn.PublishDate
	}
	return checkExpiry(publish, nn.ExpiryDate)
}

// UpdateNotice changes the set fields. NoExpiry clears the expiry date.
type UpdateNotice struct {
	Title       string     `json:"title" validate:"omitempty,max=200"`
	Content     string     `json:"content"`
	IsPublished *bool      `json:"is_published"`
	PublishDate *time.Time `json:"publish_date"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	NoExpiry    bool       `json:"no_expiry"`
}

func (un *UpdateNotice) Validate(orig Notice, validate *validator.Validate) error {
	un.Title = core.CleanString(un.Title)
	un.Content = core.CleanString(un.Content)
	if err := validate.Struct(un); err != nil {
		return err
	}
	publish := orig.PublishDate
	if un.PublishDate != nil {
		publish = *un.PublishDate
	}
	return checkExpiry(publish, un.ExpiryDate)
}

func checkExpiry(publish time.Time, expiry *time.Time) error {
	if expiry != nil && expiry.Before(publish.Truncate(24*time.Hour)) {
		return core.NewValidationError(nil, core.FieldError{Field: "expiry_date", Error: "expiry date cannot be before the publish date"})
	}
	return nil
}

type (
	Repository interface {
		CreateNotice(ctx context.Context, n Notice) (Notice, error)
		GetNotice(ctx context.Context, id string) (Notice, error)
		// QueryNotices returns notices ordered by the given ordering; publishedOnly drops drafts.
		QueryNotices(ctx context.Context, publishedOnly bool, ordering []core.DBOrdering) ([]Notice, error)
		UpdateNotice(ctx context.Context, n Notice) (Notice, error)
		DeleteNotice(ctx context.Context, id string) error
	}

	Service interface {
		Create(nn NewNotice) (Notice, error)
		Get(id string) (Notice, error)
		// List returns every notice, newest first.
		List() ([]Notice, error)
		// Public returns the published, unexpired notices at `now`, latest publish date first.
		Public(now time.Time) ([]Notice, error)
		Update(orig Notice, un UpdateNotice) (Notice, error)
		TogglePublish(orig Notice) (Notice, error)
		Delete(id string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Create(nn NewNotice) (Notice, error) {
	now := time.Now().UTC()
	n := Notice{
		ID:          uuid.New().String(),
		Title:       nn.Title,
		Content:     nn.Content,
		IsPublished: nn.IsPublished,
		PublishDate: now.Truncate(24 * time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if nn.PublishDate != nil {
		n.PublishDate = nn.PublishDate.UTC()
	}
	if nn.ExpiryDate != nil {
		n.ExpiryDate = null.TimeFrom(nn.ExpiryDate.UTC())
	}
	return svc.repo.CreateNotice(context.Background(), n)
}

func (svc *service) Get(id string) (Notice, error) {
	return svc.repo.GetNotice(context.Background(), id)
}

func (svc *service) List() ([]Notice, error) {
	return svc.repo.QueryNotices(context.Background(), false, []core.DBOrdering{{Field: "created_at"}})
}

func (svc *service) Public(now time.Time) ([]Notice, error) {
	notices, err := svc.repo.QueryNotices(context.Background(), true, []core.DBOrdering{{Field: "publish_date"}, {Field: "created_at"}})
	if err != nil {
		return nil, err
	}
	visible := make([]Notice, 0, len(notices))
	for _, n := range notices {
		if n.Visible(now) {
			visible = append(visible, n)
		}
	}
	return visible, nil
}

func (svc *service) Update(orig Notice, un UpdateNotice) (Notice, error) {
	n := orig
	if un.Title != "" {
		n.Title = un.Title
	}
	if un.Content != "" {
		n.Content = un.Content
	}
	if un.IsPublished != nil {
		n.IsPublished = *un.IsPublished
	}
	if un.PublishDate != nil {
		n.PublishDate = un.PublishDate.UTC()
	}
	switch {
	case un.NoExpiry:
		n.ExpiryDate = null.Time{}
	case un.ExpiryDate != nil:
		n.ExpiryDate = null.TimeFrom(un.ExpiryDate.UTC())
	}
	n.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateNotice(context.Background(), n)
}

func (svc *service) TogglePublish(orig Notice) (Notice, error) {
	orig.IsPublished = !orig.IsPublished
	orig.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateNotice(context.Background(), orig)
}

func (svc *service) Delete(id string) error {
	return svc.repo.DeleteNotice(context.Background(), id)
}
