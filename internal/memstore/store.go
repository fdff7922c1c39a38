// Package memstore keeps every table in process memory. It backs
// STORAGE_DRIVER=memory and the handler tests, and mirrors the foreign key
// behavior of the postgres schema: deleting an author drops its books, and
// deleting a book or library drops the links between them.
package memstore

import (
	"sync"
	"time"

	authorentity "github.com/ovaphlow/pitchfork/service-library-go/internal/author/entity"
	bookentity "github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
	groupentity "github.com/ovaphlow/pitchfork/service-library-go/internal/group/entity"
	libraryentity "github.com/ovaphlow/pitchfork/service-library-go/internal/library/entity"
	profileentity "github.com/ovaphlow/pitchfork/service-library-go/internal/profile/entity"
	userentity "github.com/ovaphlow/pitchfork/service-library-go/internal/user/entity"
)

type refreshSession struct {
	id        int64
	userID    int64
	clientID  string
	expiresAt time.Time
}

// Store holds all tables behind one lock.
type Store struct {
	mu sync.RWMutex
	// Now is the clock used for lockouts and timestamps.
	Now func() time.Time

	authors    map[int64]authorentity.Author
	books      map[int64]bookentity.Book
	users      map[int64]userentity.User
	refresh    map[string]refreshSession
	groups     map[int64]groupentity.Group
	members    map[int64]map[int64]bool // group id -> user ids
	libraries  map[int64]libraryentity.Library
	librarians map[int64]libraryentity.Librarian // keyed by library id
	profiles   map[int64]profileentity.UserProfile
}

func New() *Store {
	return &Store{
		Now:        time.Now,
		authors:    map[int64]authorentity.Author{},
		books:      map[int64]bookentity.Book{},
		users:      map[int64]userentity.User{},
		refresh:    map[string]refreshSession{},
		groups:     map[int64]groupentity.Group{},
		members:    map[int64]map[int64]bool{},
		libraries:  map[int64]libraryentity.Library{},
		librarians: map[int64]libraryentity.Librarian{},
		profiles:   map[int64]profileentity.UserProfile{},
	}
}

func (s *Store) Books() *Books         { return &Books{s} }
func (s *Store) Authors() *Authors     { return &Authors{s} }
func (s *Store) Users() *Users         { return &Users{s} }
func (s *Store) Refresh() *Refresh     { return &Refresh{s} }
func (s *Store) Groups() *Groups       { return &Groups{s} }
func (s *Store) Libraries() *Libraries { return &Libraries{s} }
func (s *Store) Profiles() *Profiles   { return &Profiles{s} }

// deleteBookLocked removes a book and its library links.
func (s *Store) deleteBookLocked(id int64) {
	delete(s.books, id)
	for lid, l := range s.libraries {
		kept := l.Books[:0:0]
		for _, b := range l.Books {
			if b != id {
				kept = append(kept, b)
			}
		}
		l.Books = kept
		s.libraries[lid] = l
	}
}
