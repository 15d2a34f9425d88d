package badger

import "errors"

// Repos bundles every repository over one shared backend.
type Repos struct {
	Backend  *Backend
	Articles *ArticleRepository
	Vectors  *VectorRepository
	Stories  *StoryRepository
	Entities *EntityRepository
	Impacts  *ImpactRepository
}

// OpenRepos opens a backend at filePath and constructs every repository
// over it. Pass inMemory=true for an ephemeral store.
func OpenRepos(filePath string, inMemory bool) (*Repos, error) {
	backend, err := OpenBackend(filePath, inMemory)
	if err != nil {
		return nil, err
	}

	articles, err := NewArticleRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	vectors, err := NewVectorRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	stories, err := NewStoryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	entities, err := NewEntityRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	impacts, err := NewImpactRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Repos{
		Backend:  backend,
		Articles: articles,
		Vectors:  vectors,
		Stories:  stories,
		Entities: entities,
		Impacts:  impacts,
	}, nil
}

// NewMemoryRepos constructs every repository over an in-memory backend.
// Intended for tests and ephemeral runs.
func NewMemoryRepos() (*Repos, error) {
	return OpenRepos("", true)
}

// Close releases the repositories and closes the backend.
func (r *Repos) Close() error {
	errs := []error{
		r.Articles.Close(),
		r.Vectors.Close(),
		r.Stories.Close(),
		r.Entities.Close(),
		r.Impacts.Close(),
		r.Backend.Close(),
	}
	return errors.Join(errs...)
}
