package entity

import "github.com/ovaphlow/pitchfork/service-library-go/internal/common"

// Library holds a set of books.
type Library struct {
	ID    int64      `json:"id,string" db:"id"`
	Name  string     `json:"name" db:"name"`
	Books common.IDs `json:"books" db:"-"`
}

// Librarian runs exactly one library.
type Librarian struct {
	ID        int64  `json:"id,string" db:"id"`
	Name      string `json:"name" db:"name"`
	LibraryID int64  `json:"library,string" db:"library_id"`
}

type Detail struct {
	Library
	Librarian *Librarian `json:"librarian"`
}
