package memstore

import (
	"cmp"
	"context"
	"slices"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	groupentity "github.com/ovaphlow/pitchfork/service-library-go/internal/group/entity"
	libraryentity "github.com/ovaphlow/pitchfork/service-library-go/internal/library/entity"
)

// Groups implements group.Repository.
type Groups struct{ s *Store }

func (g *Groups) List(_ context.Context) ([]groupentity.Group, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()
	out := make([]groupentity.Group, 0, len(g.s.groups))
	for _, grp := range g.s.groups {
		out = append(out, cloneGroup(grp))
	}
	slices.SortFunc(out, func(a, b groupentity.Group) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (g *Groups) GetByID(_ context.Context, id int64) (*groupentity.Group, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()
	grp, ok := g.s.groups[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	grp = cloneGroup(grp)
	return &grp, nil
}

func (g *Groups) Create(_ context.Context, grp *groupentity.Group) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	if g.nameTakenLocked(grp.Name, grp.ID) {
		return common.ErrConflict
	}
	g.s.groups[grp.ID] = cloneGroup(*grp)
	return nil
}

func (g *Groups) Update(_ context.Context, grp *groupentity.Group) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	if _, ok := g.s.groups[grp.ID]; !ok {
		return common.ErrNotFound
	}
	if g.nameTakenLocked(grp.Name, grp.ID) {
		return common.ErrConflict
	}
	g.s.groups[grp.ID] = cloneGroup(*grp)
	return nil
}

func (g *Groups) Delete(_ context.Context, id int64) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	if _, ok := g.s.groups[id]; !ok {
		return common.ErrNotFound
	}
	delete(g.s.groups, id)
	delete(g.s.members, id)
	return nil
}

func (g *Groups) Members(_ context.Context, groupID int64) ([]int64, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()
	ids := []int64{}
	for uid := range g.s.members[groupID] {
		ids = append(ids, uid)
	}
	slices.Sort(ids)
	return ids, nil
}

func (g *Groups) AddMember(_ context.Context, groupID, userID int64) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	if _, ok := g.s.groups[groupID]; !ok {
		return common.ErrNotFound
	}
	if _, ok := g.s.users[userID]; !ok {
		return common.ErrNotFound
	}
	if g.s.members[groupID] == nil {
		g.s.members[groupID] = map[int64]bool{}
	}
	g.s.members[groupID][userID] = true
	return nil
}

func (g *Groups) RemoveMember(_ context.Context, groupID, userID int64) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	if !g.s.members[groupID][userID] {
		return common.ErrNotFound
	}
	delete(g.s.members[groupID], userID)
	return nil
}

func (g *Groups) HasPermission(_ context.Context, userID int64, perm string) (bool, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()
	for gid, users := range g.s.members {
		if users[userID] && slices.Contains(g.s.groups[gid].Permissions, perm) {
			return true, nil
		}
	}
	return false, nil
}

func (g *Groups) nameTakenLocked(name string, id int64) bool {
	for _, other := range g.s.groups {
		if other.Name == name && other.ID != id {
			return true
		}
	}
	return false
}

func cloneGroup(grp groupentity.Group) groupentity.Group {
	grp.Permissions = append([]string{}, grp.Permissions...)
	return grp
}

// Libraries implements library.Repository.
type Libraries struct{ s *Store }

func (l *Libraries) List(_ context.Context) ([]libraryentity.Detail, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	out := make([]libraryentity.Detail, 0, len(l.s.libraries))
	for id := range l.s.libraries {
		out = append(out, l.detailLocked(id))
	}
	slices.SortFunc(out, func(a, b libraryentity.Detail) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (l *Libraries) Get(_ context.Context, id int64) (*libraryentity.Detail, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()
	if _, ok := l.s.libraries[id]; !ok {
		return nil, common.ErrNotFound
	}
	d := l.detailLocked(id)
	return &d, nil
}

func (l *Libraries) Create(_ context.Context, lib *libraryentity.Library) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if err := l.checkBooksLocked(lib.Books); err != nil {
		return err
	}
	l.s.libraries[lib.ID] = cloneLibrary(*lib)
	return nil
}

func (l *Libraries) Update(_ context.Context, lib *libraryentity.Library) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if _, ok := l.s.libraries[lib.ID]; !ok {
		return common.ErrNotFound
	}
	if err := l.checkBooksLocked(lib.Books); err != nil {
		return err
	}
	l.s.libraries[lib.ID] = cloneLibrary(*lib)
	return nil
}

func (l *Libraries) Delete(_ context.Context, id int64) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if _, ok := l.s.libraries[id]; !ok {
		return common.ErrNotFound
	}
	delete(l.s.libraries, id)
	delete(l.s.librarians, id)
	return nil
}

func (l *Libraries) SetLibrarian(_ context.Context, lib *libraryentity.Librarian) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if _, ok := l.s.libraries[lib.LibraryID]; !ok {
		return common.ErrNotFound
	}
	if prev, ok := l.s.librarians[lib.LibraryID]; ok {
		lib.ID = prev.ID
	}
	l.s.librarians[lib.LibraryID] = *lib
	return nil
}

func (l *Libraries) detailLocked(id int64) libraryentity.Detail {
	d := libraryentity.Detail{Library: cloneLibrary(l.s.libraries[id])}
	slices.Sort(d.Books)
	if lib, ok := l.s.librarians[id]; ok {
		d.Librarian = &lib
	}
	return d
}

func (l *Libraries) checkBooksLocked(ids []int64) error {
	for _, id := range ids {
		if _, ok := l.s.books[id]; !ok {
			return common.ValidationError{"books": {"One or more books do not exist."}}
		}
	}
	return nil
}

func cloneLibrary(lib libraryentity.Library) libraryentity.Library {
	lib.Books = append([]int64{}, lib.Books...)
	return lib
}
