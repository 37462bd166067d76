package storage

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var (
	feedsBucket        = []byte("feeds")
	articlesBucket     = []byte("articles")
	authorsBucket      = []byte("authors")
	authorLoginsBucket = []byte("author_logins")
	termsBucket        = []byte("terms")
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	return NewStoreWithTimeout(dbPath, 1*time.Second)
}

// NewStoreWithTimeout opens dbPath, waiting up to timeout for the file lock.
func NewStoreWithTimeout(dbPath string, timeout time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating database directory")
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{feedsBucket, articlesBucket, authorsBucket, authorLoginsBucket, termsBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating buckets")
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveFeed(feed *Feed) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(feed)
		if err != nil {
			return err
		}
		return tx.Bucket(feedsBucket).Put([]byte(feed.ID), data)
	})
}

func (s *Store) GetFeed(id string) (*Feed, error) {
	var feed Feed
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(feedsBucket).Get([]byte(id))
		if data == nil {
			return errors.Wrapf(ErrNotFound, "feed %s", id)
		}
		return json.Unmarshal(data, &feed)
	})
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

// GetAllFeeds returns feeds sorted by title, falling back to URL.
func (s *Store) GetAllFeeds() ([]*Feed, error) {
	var feeds []*Feed
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(feedsBucket).ForEach(func(_ []byte, v []byte) error {
			var feed Feed
			if err := json.Unmarshal(v, &feed); err != nil {
				return err
			}
			feeds = append(feeds, &feed)
			return nil
		})
	})
	sort.Slice(feeds, func(i, j int) bool {
		return strings.ToLower(feedLabel(feeds[i])) < strings.ToLower(feedLabel(feeds[j]))
	})
	return feeds, err
}

func feedLabel(f *Feed) string {
	if f.Title == "" {
		return f.URL
	}
	return f.Title
}

// SaveArticles stores articles and registers their categories and tags.
func (s *Store) SaveArticles(articles []*Article) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		terms := tx.Bucket(termsBucket)
		for _, article := range articles {
			data, err := json.Marshal(article)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(article.ID), data); err != nil {
				return err
			}
			for _, name := range article.Categories {
				if err := putTerm(terms, TaxonomyCategory, name); err != nil {
					return err
				}
			}
			for _, name := range article.Tags {
				if err := putTerm(terms, TaxonomyTag, name); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func termKey(taxonomy, slug string) []byte {
	return []byte(taxonomy + ":" + slug)
}

func putTerm(b *bolt.Bucket, taxonomy, name string) error {
	slug := Slugify(name)
	if slug == "" {
		return nil
	}
	key := termKey(taxonomy, slug)
	if b.Get(key) != nil {
		return nil
	}
	data, err := json.Marshal(&Term{Taxonomy: taxonomy, Slug: slug, Name: strings.TrimSpace(name)})
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

// GetTerm looks up a category or tag by slug.
func (s *Store) GetTerm(taxonomy, slug string) (*Term, error) {
	var term Term
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(termsBucket).Get(termKey(taxonomy, slug))
		if data == nil {
			return errors.Wrapf(ErrNotFound, "%s %s", taxonomy, slug)
		}
		return json.Unmarshal(data, &term)
	})
	if err != nil {
		return nil, err
	}
	return &term, nil
}

// GetTerms lists the terms of a taxonomy ordered by slug.
func (s *Store) GetTerms(taxonomy string) ([]*Term, error) {
	var terms []*Term
	prefix := []byte(taxonomy + ":")
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(termsBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			var term Term
			if err := json.Unmarshal(v, &term); err != nil {
				return err
			}
			terms = append(terms, &term)
		}
		return nil
	})
	return terms, err
}

func (s *Store) GetArticles(feedID string, limit int) ([]*Article, error) {
	articles, _, err := s.ListArticles(Filter{FeedID: feedID}, 0, limit)
	return articles, err
}

// ListArticles returns one page of the articles matching filter, newest
// first, together with the number of matches across all pages. A limit of
// zero or less returns everything from offset on.
func (s *Store) ListArticles(filter Filter, offset, limit int) ([]*Article, int, error) {
	var articles []*Article
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(articlesBucket).ForEach(func(_ []byte, v []byte) error {
			var article Article
			if err := json.Unmarshal(v, &article); err != nil {
				return nil
			}
			if filter.match(&article) {
				articles = append(articles, &article)
			}
			return nil
		})
	})
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(articles, func(i, j int) bool {
		if articles[i].Published.Equal(articles[j].Published) {
			return articles[i].ID < articles[j].ID
		}
		return articles[i].Published.After(articles[j].Published)
	})

	total := len(articles)
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []*Article{}, total, nil
	}
	articles = articles[offset:]
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, total, nil
}

func (s *Store) GetArticle(id string) (*Article, error) {
	var article Article
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(articlesBucket).Get([]byte(id))
		if data == nil {
			return errors.Wrapf(ErrNotFound, "article %s", id)
		}
		return json.Unmarshal(data, &article)
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (s *Store) MarkArticleRead(id string, read bool) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		data := b.Get([]byte(id))
		if data == nil {
			return errors.Wrapf(ErrNotFound, "article %s", id)
		}

		var article Article
		if err := json.Unmarshal(data, &article); err != nil {
			return err
		}
		article.Read = read

		data, err := json.Marshal(article)
		if err != nil {
			return err
		}
		return b.Put([]byte(id), data)
	})
}

// DeleteFeed removes the feed and all of its articles.
func (s *Store) DeleteFeed(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(feedsBucket).Delete([]byte(id)); err != nil {
			return err
		}

		c := tx.Bucket(articlesBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var article Article
			if err := json.Unmarshal(v, &article); err != nil {
				continue
			}
			if article.FeedID == id {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func authorKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

// EnsureAuthor returns the author whose login is the slug of displayName,
// creating it with the next free id if needed.
func (s *Store) EnsureAuthor(displayName string) (*Author, error) {
	displayName = strings.TrimSpace(displayName)
	login := Slugify(displayName)
	if login == "" {
		return nil, errors.New("author name is empty")
	}

	var author Author
	err := s.db.Update(func(tx *bolt.Tx) error {
		logins := tx.Bucket(authorLoginsBucket)
		authors := tx.Bucket(authorsBucket)

		if idKey := logins.Get([]byte(login)); idKey != nil {
			return json.Unmarshal(authors.Get(idKey), &author)
		}

		id, err := authors.NextSequence()
		if err != nil {
			return err
		}
		author = Author{ID: id, Login: login, DisplayName: displayName}
		data, err := json.Marshal(&author)
		if err != nil {
			return err
		}
		if err := authors.Put(authorKey(id), data); err != nil {
			return err
		}
		return logins.Put([]byte(login), authorKey(id))
	})
	if err != nil {
		return nil, errors.Wrap(err, "saving author")
	}
	return &author, nil
}

func (s *Store) GetAuthor(id uint64) (*Author, error) {
	var author Author
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(authorsBucket).Get(authorKey(id))
		if data == nil {
			return errors.Wrapf(ErrNotFound, "author %d", id)
		}
		return json.Unmarshal(data, &author)
	})
	if err != nil {
		return nil, err
	}
	return &author, nil
}

func (s *Store) GetAuthorByLogin(login string) (*Author, error) {
	var author Author
	err := s.db.View(func(tx *bolt.Tx) error {
		idKey := tx.Bucket(authorLoginsBucket).Get([]byte(login))
		if idKey == nil {
			return errors.Wrapf(ErrNotFound, "author %s", login)
		}
		data := tx.Bucket(authorsBucket).Get(idKey)
		if data == nil {
			return errors.Wrapf(ErrNotFound, "author %s", login)
		}
		return json.Unmarshal(data, &author)
	})
	if err != nil {
		return nil, err
	}
	return &author, nil
}

// GetAuthors lists authors in id order.
func (s *Store) GetAuthors() ([]*Author, error) {
	var authors []*Author
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(authorsBucket).ForEach(func(_ []byte, v []byte) error {
			var a Author
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			authors = append(authors, &a)
			return nil
		})
	})
	return authors, err
}
