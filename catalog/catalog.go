package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/qbucket/blobstore"
	"github.com/hupe1980/qbucket/codec"
	"github.com/hupe1980/qbucket/index"
	"github.com/hupe1980/qbucket/internal/hash"
)

// Options configures a Store.
type Options struct {
	Codec       codec.Codec
	Compression codec.Compression
	Logger      *slog.Logger
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{
		Codec:       codec.Default,
		Compression: codec.CompressionZSTD,
	}
}

// WithCodec sets the codec used for manifests and index documents.
func WithCodec(c codec.Codec) func(*Options) {
	return func(o *Options) {
		o.Codec = c
	}
}

// WithCompression sets the index blob compression.
func WithCompression(c codec.Compression) func(*Options) {
	return func(o *Options) {
		o.Compression = c
	}
}

// WithLogger sets the logger handed to loaded indexes.
func WithLogger(l *slog.Logger) func(*Options) {
	return func(o *Options) {
		o.Logger = l
	}
}

// Store manages versioned index blobs and the CURRENT pointer.
type Store struct {
	blobs blobstore.BlobStore
	opts  Options
	mu    sync.Mutex
}

// New creates a catalog over blobs.
func New(blobs blobstore.BlobStore, optFns ...func(*Options)) *Store {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Store{blobs: blobs, opts: opts}
}

// Save writes x as a new version and makes it current.
func (s *Store) Save(ctx context.Context, x *index.Index, meta Meta) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.nextID(ctx)
	if err != nil {
		return nil, err
	}

	encoded, err := s.opts.Codec.Marshal(x.Document())
	if err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	payload, err := codec.Compress(encoded, s.opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("compress index: %w", err)
	}

	m := &Manifest{
		FormatVersion: FormatVersion,
		ID:            id,
		BuildID:       uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Codec:         s.opts.Codec.Name(),
		Compression:   s.opts.Compression.String(),
		IndexPath:     indexName(id),
		IndexSize:     int64(len(payload)),
		Checksum:      hash.CRC32C(payload),
		Entries:       x.Len(),
		QuantileGap:   x.QuantileGap(),
		MaxDepth:      x.MaxDepth(),
		Categorical:   x.CategoricalAttributes(),
		Numeric:       x.NumericAttributes(),
		Description:   meta.Description,
		Labels:        meta.Labels,
	}

	if err := s.blobs.Put(ctx, m.IndexPath, payload); err != nil {
		return nil, fmt.Errorf("write index blob: %w", err)
	}

	data, err := s.opts.Codec.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	name := manifestName(id)
	if err := s.blobs.Put(ctx, name, data); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	if err := s.blobs.Put(ctx, blobstore.Current, []byte(name)); err != nil {
		return nil, fmt.Errorf("update current: %w", err)
	}
	return m, nil
}

// Load loads the current index.
func (s *Store) Load(ctx context.Context) (*index.Index, *Manifest, error) {
	return s.LoadVersion(ctx, 0)
}

// LoadVersion loads a specific version ID. 0 means current.
func (s *Store) LoadVersion(ctx context.Context, id uint64) (*index.Index, *Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.manifest(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	payload, err := blobstore.ReadAll(ctx, s.blobs, m.IndexPath)
	if err != nil {
		return nil, nil, fmt.Errorf("read index blob %s: %w", m.IndexPath, err)
	}
	if hash.CRC32C(payload) != m.Checksum {
		return nil, nil, fmt.Errorf("%w: checksum mismatch for %s", codec.ErrCorrupt, m.IndexPath)
	}

	compression, err := codec.ParseCompression(m.Compression)
	if err != nil {
		return nil, nil, err
	}
	encoded, err := codec.Decompress(payload, compression)
	if err != nil {
		return nil, nil, err
	}

	c, err := codec.Lookup(m.Codec)
	if err != nil {
		return nil, nil, err
	}
	var doc index.Document
	if err := c.Unmarshal(encoded, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", index.ErrMalformedDocument, err)
	}

	x, err := index.FromDocument(doc, index.WithLogger(s.opts.Logger))
	if err != nil {
		return nil, nil, err
	}
	return x, m, nil
}

// Manifest returns the manifest of a version. 0 means current.
func (s *Store) Manifest(ctx context.Context, id uint64) (*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest(ctx, id)
}

// CurrentID returns the ID of the current version.
func (s *Store) CurrentID(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID(ctx)
}

// ListVersions returns all readable manifests ordered by ID.
// Unreadable or corrupted manifests are skipped.
func (s *Store) ListVersions(ctx context.Context) ([]*Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names, err := s.blobs.List(ctx, ManifestPrefix)
	if err != nil {
		return nil, err
	}

	var manifests []*Manifest
	for _, name := range names {
		if _, ok := parseManifestName(name); !ok {
			continue
		}
		m, err := s.readManifest(ctx, name)
		if err != nil {
			s.opts.Logger.WarnContext(ctx, "skipping unreadable manifest", slog.String("name", name), slog.Any("error", err))
			continue
		}
		manifests = append(manifests, m)
	}
	slices.SortFunc(manifests, func(a, b *Manifest) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return manifests, nil
}

// DeleteVersion removes a version's manifest and index blob.
// The current version cannot be deleted.
func (s *Store) DeleteVersion(ctx context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.currentID(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if id == current {
		return fmt.Errorf("%w: %d", ErrVersionInUse, id)
	}

	m, err := s.manifest(ctx, id)
	if err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, m.IndexPath); err != nil {
		return err
	}
	return s.blobs.Delete(ctx, manifestName(id))
}

func (s *Store) currentID(ctx context.Context) (uint64, error) {
	content, err := blobstore.ReadAll(ctx, s.blobs, blobstore.Current)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	name := strings.TrimSpace(string(content))
	id, ok := parseManifestName(name)
	if !ok {
		return 0, fmt.Errorf("%w: CURRENT names %q", ErrNotFound, name)
	}
	return id, nil
}

func (s *Store) manifest(ctx context.Context, id uint64) (*Manifest, error) {
	if id == 0 {
		current, err := s.currentID(ctx)
		if err != nil {
			return nil, err
		}
		id = current
	}
	return s.readManifest(ctx, manifestName(id))
}

func (s *Store) readManifest(ctx context.Context, name string) (*Manifest, error) {
	data, err := blobstore.ReadAll(ctx, s.blobs, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}

	m := &Manifest{}
	if err := s.opts.Codec.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", name, err)
	}
	if m.FormatVersion > FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrIncompatibleVersion, m.FormatVersion)
	}
	return m, nil
}

func (s *Store) nextID(ctx context.Context) (uint64, error) {
	names, err := s.blobs.List(ctx, ManifestPrefix)
	if err != nil {
		return 0, err
	}
	var maxID uint64
	for _, name := range names {
		if id, ok := parseManifestName(name); ok && id > maxID {
			maxID = id
		}
	}
	return maxID + 1, nil
}
