package unitofwork

import (
	"context"

	"github.com/hoanghaiduong/gym-food-rag/internal/repository/contract"
)

// UnitOfWork hands out repositories bound to one connection or, after Begin, one transaction.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatSessionRepository() contract.ChatSessionRepository
	ChatTurnRepository() contract.ChatTurnRepository
	KnowledgeRepository() contract.KnowledgeRepository
}

type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
