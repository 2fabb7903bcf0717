package orchestrators

import (
	"context"
	"fmt"
	"io"
	"path"

	"shepherd/internal/adapters/files"
	"shepherd/internal/domain/gallery"
)

// mapStore is a keyed in-memory store covering the GetByID/Save/Delete
// surface shared by the admin writer interfaces.
type mapStore[T any] struct {
	items    map[string]T
	key      func(T) string
	notFound error
	saveErr  error
	trace    *[]string
}

func newMapStore[T any](key func(T) string, notFound error, items ...T) *mapStore[T] {
	m := &mapStore[T]{items: map[string]T{}, key: key, notFound: notFound}
	for _, it := range items {
		m.items[key(it)] = it
	}
	return m
}

func (m *mapStore[T]) GetByID(_ context.Context, id string) (T, error) {
	v, ok := m.items[id]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: %w", id, m.notFound)
	}
	return v, nil
}

func (m *mapStore[T]) Save(_ context.Context, v T) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.trace != nil {
		*m.trace = append(*m.trace, "save:"+m.key(v))
	}
	m.items[m.key(v)] = v
	return nil
}

func (m *mapStore[T]) Delete(_ context.Context, id string) error {
	if m.trace != nil {
		*m.trace = append(*m.trace, "record:"+id)
	}
	delete(m.items, id)
	return nil
}

// mockFileStore names saved files new-1, new-2, ... under the folder.
type mockFileStore struct {
	saved     []string
	deleted   []string
	saveErr   error
	deleteErr error
	trace     *[]string
}

func (m *mockFileStore) Save(_ context.Context, name string, r io.Reader, folder string) (files.Saved, error) {
	if m.saveErr != nil {
		return files.Saved{}, m.saveErr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return files.Saved{}, err
	}
	p := fmt.Sprintf("%s/new-%d%s", folder, len(m.saved)+1, path.Ext(name))
	m.saved = append(m.saved, p)
	return files.Saved{Path: p, ThumbPath: path.Dir(p) + "/thumb_" + path.Base(p)}, nil
}

func (m *mockFileStore) Delete(_ context.Context, p string) error {
	if m.trace != nil {
		*m.trace = append(*m.trace, "file:"+p)
	}
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, p)
	return nil
}

// mockGalleryStore implements GalleryWriter and MediaLiker.
type mockGalleryStore struct {
	albums       map[string]gallery.Album
	media        map[string]gallery.Media
	saveMediaErr error
	trace        *[]string
}

func newMockGalleryStore() *mockGalleryStore {
	return &mockGalleryStore{albums: map[string]gallery.Album{}, media: map[string]gallery.Media{}}
}

func (m *mockGalleryStore) GetAlbum(_ context.Context, id string) (gallery.Album, error) {
	a, ok := m.albums[id]
	if !ok {
		return gallery.Album{}, fmt.Errorf("album %s: %w", id, gallery.ErrAlbumNotFound)
	}
	return a, nil
}

func (m *mockGalleryStore) SaveAlbum(_ context.Context, a gallery.Album) error {
	m.albums[a.ID] = a
	return nil
}

func (m *mockGalleryStore) DeleteAlbum(_ context.Context, id string) error {
	if m.trace != nil {
		*m.trace = append(*m.trace, "album:"+id)
	}
	delete(m.albums, id)
	for mid, md := range m.media {
		if md.AlbumID == id {
			delete(m.media, mid)
		}
	}
	return nil
}

func (m *mockGalleryStore) GetMedia(_ context.Context, id string) (gallery.Media, error) {
	md, ok := m.media[id]
	if !ok {
		return gallery.Media{}, fmt.Errorf("media %s: %w", id, gallery.ErrMediaNotFound)
	}
	return md, nil
}

func (m *mockGalleryStore) SaveMedia(_ context.Context, md gallery.Media) error {
	if m.saveMediaErr != nil {
		return m.saveMediaErr
	}
	m.media[md.ID] = md
	return nil
}

func (m *mockGalleryStore) DeleteMedia(_ context.Context, id string) error {
	if m.trace != nil {
		*m.trace = append(*m.trace, "media:"+id)
	}
	delete(m.media, id)
	return nil
}

func (m *mockGalleryStore) ListMedia(_ context.Context, albumID string) ([]gallery.Media, error) {
	var out []gallery.Media
	for _, md := range m.media {
		if md.AlbumID == albumID {
			out = append(out, md)
		}
	}
	return out, nil
}

func (m *mockGalleryStore) Like(_ context.Context, id string) (int, error) {
	md, ok := m.media[id]
	if !ok {
		return 0, fmt.Errorf("media %s: %w", id, gallery.ErrMediaNotFound)
	}
	md.Likes++
	m.media[id] = md
	return md.Likes, nil
}
