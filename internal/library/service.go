package library

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	bookentity "github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/library/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

const maxNameLength = 100

type Repository interface {
	List(ctx context.Context) ([]entity.Detail, error)
	Get(ctx context.Context, id int64) (*entity.Detail, error)
	Create(ctx context.Context, l *entity.Library) error
	Update(ctx context.Context, l *entity.Library) error
	Delete(ctx context.Context, id int64) error
	SetLibrarian(ctx context.Context, l *entity.Librarian) error
}

// BookGetter resolves book ids referenced by a library.
type BookGetter interface {
	Get(ctx context.Context, id int64) (*bookentity.Book, error)
}

type Service struct {
	repo  Repository
	books BookGetter
}

func NewService(r Repository, books BookGetter) *Service {
	return &Service{repo: r, books: books}
}

// Input carries writable library fields. Nil means absent.
type Input struct {
	Name  *string     `json:"name"`
	Books *common.IDs `json:"books"`
}

func (s *Service) List(ctx context.Context) ([]entity.Detail, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*entity.Detail, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (*entity.Detail, error) {
	l := entity.Library{Books: []int64{}}
	if err := s.apply(ctx, &l, in, false); err != nil {
		return nil, err
	}
	l.ID = utilities.NewID()
	if err := s.repo.Create(ctx, &l); err != nil {
		return nil, err
	}
	return &entity.Detail{Library: l}, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input, partial bool) (*entity.Detail, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	l := d.Library
	if err := s.apply(ctx, &l, in, partial); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &l); err != nil {
		return nil, err
	}
	return &entity.Detail{Library: l, Librarian: d.Librarian}, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// SetLibrarian names the librarian of library id, replacing any previous one.
func (s *Service) SetLibrarian(ctx context.Context, id int64, name string) (*entity.Detail, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	verr := common.ValidationError{}
	switch {
	case name == "":
		verr.Add("name", "This field may not be blank.")
	case utf8.RuneCountInString(name) > maxNameLength:
		verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}
	lib := &entity.Librarian{ID: utilities.NewID(), Name: name, LibraryID: id}
	if d.Librarian != nil {
		lib.ID = d.Librarian.ID
	}
	if err := s.repo.SetLibrarian(ctx, lib); err != nil {
		return nil, err
	}
	d.Librarian = lib
	return d, nil
}

func (s *Service) apply(ctx context.Context, l *entity.Library, in Input, partial bool) error {
	verr := common.ValidationError{}
	if in.Name == nil && !partial {
		verr.Add("name", "This field is required.")
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		switch {
		case name == "":
			verr.Add("name", "This field may not be blank.")
		case utf8.RuneCountInString(name) > maxNameLength:
			verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
		default:
			l.Name = name
		}
	}
	if in.Books != nil {
		ids := dedupe(*in.Books)
		for _, id := range ids {
			_, err := s.books.Get(ctx, id)
			if errors.Is(err, common.ErrNotFound) {
				verr.Add("books", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
				continue
			}
			if err != nil {
				return err
			}
		}
		l.Books = ids
	}
	return verr.Err()
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
