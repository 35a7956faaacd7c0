package repository

import (
	"gorm.io/gorm"
)

// Store bundles the interaction ledger and content repositories so a service
// can run a multi-record update inside one database transaction. WithTx hands
// the callback a Store bound to the transaction; any error rolls everything
// back.
type Store interface {
	Interactions() InteractionRepository
	Content() ContentRepository
	WithTx(fn func(Store) error) error
}

type gormStore struct {
	db           *gorm.DB
	interactions InteractionRepository
	content      ContentRepository
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{
		db:           db,
		interactions: NewInteractionRepository(db),
		content:      NewContentRepository(db),
	}
}

func (s *gormStore) Interactions() InteractionRepository { return s.interactions }
func (s *gormStore) Content() ContentRepository          { return s.content }

// WithTx runs fn inside a database transaction
func (s *gormStore) WithTx(fn func(Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
