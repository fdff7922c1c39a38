package author

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/author/entity"
	bookentity "github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/utilities"
)

const maxNameLength = 100

// Repository is the persistence port for authors. Deleting an author must
// also delete the author's books.
type Repository interface {
	List(ctx context.Context, q entity.Query) ([]entity.Author, int, error)
	Get(ctx context.Context, id int64) (*entity.Author, error)
	Create(ctx context.Context, a *entity.Author) error
	Update(ctx context.Context, a *entity.Author) error
	Delete(ctx context.Context, id int64) error
}

// BookLister loads the books nested under authors.
type BookLister interface {
	ListByAuthors(ctx context.Context, authorIDs []int64) ([]bookentity.Book, error)
}

type Service struct {
	repo  Repository
	books BookLister
}

func NewService(r Repository, books BookLister) *Service {
	return &Service{repo: r, books: books}
}

// Input carries the writable author fields. Nil means absent.
type Input struct {
	Name *string `json:"name"`
}

// DecodeInput reads a JSON object body into Input.
func DecodeInput(body []byte) (Input, error) {
	var raw map[string]json.RawMessage
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			return Input{}, err
		}
	}
	var in Input
	if v, ok := raw["name"]; ok {
		var s *string
		if err := json.Unmarshal(v, &s); err != nil {
			return Input{}, common.ValidationError{"name": {"Not a valid string."}}
		}
		if s == nil {
			return Input{}, common.ValidationError{"name": {"This field may not be null."}}
		}
		in.Name = s
	}
	return in, nil
}

func (s *Service) List(ctx context.Context, q entity.Query) ([]entity.Detail, int, error) {
	authors, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	details, err := s.nest(ctx, authors...)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*entity.Detail, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.one(ctx, *a)
}

func (s *Service) Create(ctx context.Context, in Input) (*entity.Detail, error) {
	var a entity.Author
	if err := apply(&a, in, false); err != nil {
		return nil, err
	}
	a.ID = utilities.NewID()
	if err := s.repo.Create(ctx, &a); err != nil {
		return nil, err
	}
	d := entity.NewDetail(a, nil)
	return &d, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input, partial bool) (*entity.Detail, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(a, in, partial); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return s.one(ctx, *a)
}

// Delete removes the author together with every book it owns.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) one(ctx context.Context, a entity.Author) (*entity.Detail, error) {
	details, err := s.nest(ctx, a)
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (s *Service) nest(ctx context.Context, authors ...entity.Author) ([]entity.Detail, error) {
	out := make([]entity.Detail, 0, len(authors))
	if len(authors) == 0 {
		return out, nil
	}
	ids := make([]int64, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	books, err := s.books.ListByAuthors(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("nest books: %w", err)
	}
	byAuthor := make(map[int64][]bookentity.Book, len(authors))
	for _, b := range books {
		byAuthor[b.AuthorID] = append(byAuthor[b.AuthorID], b)
	}
	for _, a := range authors {
		out = append(out, entity.NewDetail(a, byAuthor[a.ID]))
	}
	return out, nil
}

func apply(a *entity.Author, in Input, partial bool) error {
	verr := common.ValidationError{}
	if in.Name == nil {
		if !partial {
			verr.Add("name", "This field is required.")
		}
		return verr.Err()
	}
	name := strings.TrimSpace(*in.Name)
	switch {
	case name == "":
		verr.Add("name", "This field may not be blank.")
	case utf8.RuneCountInString(name) > maxNameLength:
		verr.Add("name", fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
	default:
		a.Name = name
	}
	return verr.Err()
}
