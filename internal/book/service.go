package book

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

// Repository is the persistence port for books.
type Repository interface {
	List(ctx context.Context, q entity.Query) ([]entity.Book, int, error)
	Get(ctx context.Context, id int64) (*entity.Book, error)
	Create(ctx context.Context, b *entity.Book) error
	Update(ctx context.Context, b *entity.Book) error
	Delete(ctx context.Context, id int64) error
}

// AuthorLookup checks that a referenced author exists.
type AuthorLookup interface {
	AuthorExists(ctx context.Context, id int64) (bool, error)
}

// Service validates and persists books. Every write path runs the same
// validation, so a stored book never has a publication year after the
// current one.
type Service struct {
	repo    Repository
	authors AuthorLookup
	// Now is the clock used for the publication year bound.
	Now func() time.Time
}

func NewService(r Repository, authors AuthorLookup) *Service {
	return &Service{repo: r, authors: authors, Now: time.Now}
}

// CurrentYear returns the year used to validate publication years.
func (s *Service) CurrentYear() int {
	return s.Now().Year()
}

func (s *Service) List(ctx context.Context, q entity.Query) ([]entity.Book, int, error) {
	return s.repo.List(ctx, q)
}

func (s *Service) Get(ctx context.Context, id int64) (*entity.Book, error) {
	return s.repo.Get(ctx, id)
}

// Create validates in as a full payload and stores a new book.
func (s *Service) Create(ctx context.Context, in Input) (*entity.Book, error) {
	var b entity.Book
	if err := s.apply(ctx, &b, in, false); err != nil {
		return nil, err
	}
	b.ID = utilities.NewID()
	if err := s.repo.Create(ctx, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Update replaces the book's fields. With partial set, absent fields keep
// their stored values; otherwise every field is required.
func (s *Service) Update(ctx context.Context, id int64, in Input, partial bool) (*entity.Book, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, b, in, partial); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// apply validates in and copies the present fields onto b.
func (s *Service) apply(ctx context.Context, b *entity.Book, in Input, partial bool) error {
	verr := common.ValidationError{}
	if !partial {
		if in.Title == nil {
			verr.Add("title", msgRequired)
		}
		if in.PublicationYear == nil {
			verr.Add("publication_year", msgRequired)
		}
		if in.AuthorID == nil {
			verr.Add("author", msgRequired)
		}
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		switch {
		case title == "":
			verr.Add("title", msgBlank)
		case utf8.RuneCountInString(title) > maxTitleLength:
			verr.Add("title", fmt.Sprintf("Ensure this field has no more than %d characters.", maxTitleLength))
		default:
			b.Title = title
		}
	}
	if in.PublicationYear != nil {
		if msg := s.validateYear(*in.PublicationYear); msg != "" {
			verr.Add("publication_year", msg)
		} else {
			b.PublicationYear = *in.PublicationYear
		}
	}
	if in.AuthorID != nil {
		ok, err := s.authors.AuthorExists(ctx, *in.AuthorID)
		if err != nil {
			return fmt.Errorf("check author: %w", err)
		}
		if !ok {
			verr.Add("author", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *in.AuthorID))
		} else {
			b.AuthorID = *in.AuthorID
		}
	}
	return verr.Err()
}

func (s *Service) validateYear(year int) string {
	if year < math.MinInt32 {
		return fmt.Sprintf("Ensure this value is greater than or equal to %d.", math.MinInt32)
	}
	current := s.CurrentYear()
	if year > current {
		return fmt.Sprintf("Publication year cannot be in the future. Current year is %d.", current)
	}
	return ""
}
