package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/google/renameio/v2"
	"github.com/orgball2608/tweet-fetcher/internal/domain"
	"github.com/orgball2608/tweet-fetcher/pkg/errors"
	"github.com/orgball2608/tweet-fetcher/pkg/logger"
)

const fileSuffix = "_tweets.json"

// LoadResult describes what Load found on disk.
type LoadResult struct {
	NewFile   bool
	Count     int // records in the file
	UniqueIDs int // distinct ids kept in memory
	Path      string
}

type AddResult struct {
	Added     int
	NewTweets []domain.Tweet
	Total     int
}

type SaveResult struct {
	Count int
	Path  string
}

// Store holds one account's tweets, keyed by id and ordered newest first.
// It has a single owner and is not safe for concurrent use.
type Store struct {
	dataDir string
	path    string
	tweets  *linkedhashmap.Map // id -> domain.Tweet
	logger  logger.Logger
}

func New(dataDir, account string, log logger.Logger) *Store {
	return &Store{
		dataDir: dataDir,
		path:    FilePath(dataDir, account),
		tweets:  linkedhashmap.New(),
		logger:  log.WithComponent("TweetStore"),
	}
}

// FilePath returns where an account's tweets are persisted.
func FilePath(dataDir, account string) string {
	return filepath.Join(dataDir, account+fileSuffix)
}

func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory collection with the persisted one. A missing
// file is not an error. Any other failure leaves the collection empty and is
// returned with code CodeStoreUnreadable or CodeStoreCorrupt.
func (s *Store) Load(_ context.Context) (LoadResult, error) {
	s.tweets.Clear()

	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return LoadResult{}, errors.WrapWithCode(err, errors.CodeStoreUnreadable, "create data directory "+s.dataDir)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return LoadResult{NewFile: true, Path: s.path}, nil
		}
		return LoadResult{}, errors.WrapWithCode(err, errors.CodeStoreUnreadable, "read "+s.path)
	}

	var records []domain.Tweet
	if err := json.Unmarshal(data, &records); err != nil {
		return LoadResult{}, errors.WrapWithCode(err, errors.CodeStoreCorrupt, "decode "+s.path)
	}

	dropped := 0
	for _, tweet := range records {
		if tweet.ID == "" || s.has(tweet.ID) {
			dropped++
			continue
		}
		s.tweets.Put(tweet.ID, tweet)
	}
	if dropped > 0 {
		s.logger.Warn("Dropped records without id or with duplicate id", "path", s.path, "dropped", dropped)
	}
	s.sort()

	return LoadResult{
		Count:     len(records),
		UniqueIDs: s.tweets.Size(),
		Path:      s.path,
	}, nil
}

// AddTweets appends every candidate with a non-empty, unseen id, in input
// order, then re-sorts the collection newest first.
func (s *Store) AddTweets(candidates []domain.Tweet) AddResult {
	if len(candidates) == 0 {
		return AddResult{NewTweets: []domain.Tweet{}, Total: s.tweets.Size()}
	}

	added := make([]domain.Tweet, 0, len(candidates))
	for _, tweet := range candidates {
		if tweet.ID == "" || s.has(tweet.ID) {
			continue
		}
		s.tweets.Put(tweet.ID, tweet)
		added = append(added, tweet)
	}

	if len(added) > 0 {
		s.sort()
	}

	return AddResult{
		Added:     len(added),
		NewTweets: added,
		Total:     s.tweets.Size(),
	}
}

// Save writes the whole collection as a JSON array. The file is replaced
// atomically so a crash never leaves a truncated file behind.
func (s *Store) Save(_ context.Context) (SaveResult, error) {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return SaveResult{}, errors.WrapWithCode(err, errors.CodeStoreWrite, "create data directory "+s.dataDir)
	}

	tweets := s.All()
	data, err := json.MarshalIndent(tweets, "", "  ")
	if err != nil {
		return SaveResult{}, errors.WrapWithCode(err, errors.CodeStoreWrite, "encode tweets")
	}

	if err := renameio.WriteFile(s.path, data, 0644); err != nil {
		return SaveResult{}, errors.WrapWithCode(err, errors.CodeStoreWrite, "write "+s.path)
	}

	return SaveResult{Count: len(tweets), Path: s.path}, nil
}

// All returns the tweets newest first.
func (s *Store) All() []domain.Tweet {
	values := s.tweets.Values()
	out := make([]domain.Tweet, 0, len(values))
	for _, v := range values {
		out = append(out, v.(domain.Tweet))
	}
	return out
}

// KnownIDs returns the set of stored ids.
func (s *Store) KnownIDs() map[string]struct{} {
	keys := s.tweets.Keys()
	ids := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		ids[k.(string)] = struct{}{}
	}
	return ids
}

func (s *Store) Len() int {
	return s.tweets.Size()
}

func (s *Store) has(id string) bool {
	_, found := s.tweets.Get(id)
	return found
}

// sort rebuilds the map in newest-first order. Ties keep their previous
// relative order.
func (s *Store) sort() {
	tweets := s.All()
	slices.SortStableFunc(tweets, func(a, b domain.Tweet) int {
		return b.Time().Compare(a.Time())
	})

	s.tweets.Clear()
	for _, tweet := range tweets {
		s.tweets.Put(tweet.ID, tweet)
	}
}
