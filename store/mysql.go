package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/inspect_backend/utils"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentRow is the MySQL backing of the document store: one JSON body per
// path, replaced whole on every write.
type documentRow struct {
	Path       string    `gorm:"primaryKey;size:512"`
	Collection string    `gorm:"index;size:64"`
	TenantId   string    `gorm:"index;size:64"`
	Body       []byte    `gorm:"type:json"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (documentRow) TableName() string { return "documents" }

// MySQLDocumentStore keeps documents in MySQL and fans change notifications
// out over redis pub/sub so Subscribe works across instances.
type MySQLDocumentStore struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewMySQLDocumentStore(db *gorm.DB, rdb *redis.Client) *MySQLDocumentStore {
	return &MySQLDocumentStore{db: db, rdb: rdb}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&documentRow{})
}

func docChannel(path string) string { return "doc:" + path }

func (s *MySQLDocumentStore) AllocateID(ctx context.Context, collection string) (string, error) {
	if s.db == nil {
		return "", errors.New("document store is not connected")
	}
	return uuid.NewString(), nil
}

func (s *MySQLDocumentStore) Write(ctx context.Context, path string, doc Document) error {
	encoded, err := utils.MarshalToJSON(doc)
	if err != nil {
		return err
	}
	body := []byte(encoded)
	collection := path
	if i := strings.IndexByte(path, '/'); i > 0 {
		collection = path[:i]
	}
	tenantId, _ := doc["tenantId"].(string)

	row := documentRow{
		Path:       path,
		Collection: collection,
		TenantId:   tenantId,
		Body:       body,
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return err
	}

	if s.rdb != nil {
		// Best effort: a missed notification only delays subscribers until
		// the next write; the row is the source of truth.
		_ = s.rdb.Publish(ctx, docChannel(path), body).Err()
	}
	return nil
}

func (s *MySQLDocumentStore) Read(ctx context.Context, path string) (Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).Where("path = ?", path).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	var doc Document
	if err := utils.UnmarshalFromJSON(row.Body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *MySQLDocumentStore) Delete(ctx context.Context, path string) error {
	return s.db.WithContext(ctx).Where("path = ?", path).Delete(&documentRow{}).Error
}

func (s *MySQLDocumentStore) List(ctx context.Context, collection string, tenantId string) (map[string]Document, error) {
	var rows []documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND tenant_id = ?", collection, tenantId).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]Document, len(rows))
	for _, row := range rows {
		var doc Document
		if err := utils.UnmarshalFromJSON(row.Body, &doc); err != nil {
			return nil, err
		}
		id := strings.TrimPrefix(row.Path, collection+"/")
		out[id] = doc
	}
	return out, nil
}

type redisSubscription struct {
	ps *redis.PubSub
}

func (s *redisSubscription) Close() error { return s.ps.Close() }

func (s *MySQLDocumentStore) Subscribe(ctx context.Context, path string, fn func(Document)) (Subscription, error) {
	if s.rdb == nil {
		return nil, errors.New("redis is not connected")
	}
	ps := s.rdb.Subscribe(ctx, docChannel(path))
	// Force the subscription onto the wire before returning.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	go func() {
		for msg := range ps.Channel() {
			var doc Document
			if err := utils.UnmarshalFromJSON([]byte(msg.Payload), &doc); err != nil {
				continue
			}
			fn(doc)
		}
	}()
	return &redisSubscription{ps: ps}, nil
}
