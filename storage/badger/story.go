package badger

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/finsight/newsdesk/core"
	"github.com/finsight/newsdesk/storage"
)

// StoryRepository implements storage.StoryRepository for BadgerDB.
type StoryRepository struct {
	backend *Backend
}

var _ storage.StoryRepository = (*StoryRepository)(nil)

// NewStoryRepository creates a new StoryRepository.
func NewStoryRepository(backend *Backend) (*StoryRepository, error) {
	return &StoryRepository{backend: backend}, nil
}

// Close is a no-op; the backend owns the database handle.
func (r *StoryRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *StoryRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// ReplaceStories deletes every existing story and membership index entry,
// then writes the given set, all in one transaction.
func (r *StoryRepository) ReplaceStories(ctx context.Context, stories ...*core.Story) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := deletePrefix(tx, []byte(storyRecordPrefix+":")); err != nil {
			return err
		}
		if err := deletePrefix(tx, []byte(storyMemberPrefix+":")); err != nil {
			return err
		}

		for _, story := range stories {
			if err := tx.Set(makeStoryKey(story.Id), storage.MarshalStory(story)); err != nil {
				return err
			}
			for _, memberID := range story.MemberIds {
				if err := tx.Set(makeStoryMemberKey(memberID), storage.MarshalID(story.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)
}

// GetStory retrieves a single story by ID.
func (r *StoryRepository) GetStory(ctx context.Context, id core.ID) (*core.Story, error) {
	var result *core.Story
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readStory(tx, makeStoryKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetAllStories retrieves every stored story, ordered by ascending story ID.
func (r *StoryRepository) GetAllStories(ctx context.Context) ([]*core.Story, error) {
	var results []*core.Story
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(storyRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var story *core.Story
			err := iter.Item().Value(func(val []byte) error {
				var decodeErr error
				story, decodeErr = storage.UnmarshalStory(val)
				return decodeErr
			})
			if err != nil {
				return err
			}
			results = append(results, story)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Keys sort lexicographically, so order numerically here.
	sort.Slice(results, func(i, j int) bool {
		return results[i].Id < results[j].Id
	})
	return results, nil
}

// GetStoryForArticle retrieves the story an article belongs to via the
// membership index.
func (r *StoryRepository) GetStoryForArticle(ctx context.Context, articleID core.ID) (*core.Story, error) {
	var result *core.Story
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		storyID, err := readIndexedID(tx, makeStoryMemberKey(articleID))
		if err != nil {
			return err
		}
		if storyID == 0 {
			return storage.ErrNotFound
		}

		result, err = readStory(tx, makeStoryKey(storyID))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// Helper methods

// readStory reads a story from the transaction.
// Returns nil, nil when the key does not exist.
func readStory(tx *badger.Txn, key []byte) (*core.Story, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var story *core.Story
	err = item.Value(func(val []byte) error {
		var decodeErr error
		story, decodeErr = storage.UnmarshalStory(val)
		return decodeErr
	})
	return story, err
}

// deletePrefix removes every key under a prefix within the transaction.
func deletePrefix(tx *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
