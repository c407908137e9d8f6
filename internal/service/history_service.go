package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hoanghaiduong/gym-food-rag/internal/constant"
	"github.com/hoanghaiduong/gym-food-rag/internal/dto"
	"github.com/hoanghaiduong/gym-food-rag/internal/entity"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/specification"
	"github.com/hoanghaiduong/gym-food-rag/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// TurnRecord is one question/answer exchange ready to be appended to a session.
type TurnRecord struct {
	Id         uuid.UUID          `json:"id"`
	UserId     uuid.UUID          `json:"user_id"`
	SessionId  uuid.UUID          `json:"session_id"`
	Question   string             `json:"question"`
	Answer     string             `json:"answer"`
	Sources    []entity.SourceRef `json:"sources"`
	Provenance entity.Provenance  `json:"provenance"`
	AskedAt    time.Time          `json:"asked_at"`
}

type IHistoryService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, seedText string) (uuid.UUID, error)
	SessionExists(ctx context.Context, sessionId, userId uuid.UUID) (bool, error)
	AppendTurn(ctx context.Context, record TurnRecord) error
	ListSessions(ctx context.Context, userId uuid.UUID, page dto.PageRequest) ([]*dto.SessionResponse, error)
	GetTranscript(ctx context.Context, sessionId, userId uuid.UUID) ([]*dto.TurnResponse, error)
	ListTurns(ctx context.Context, userId uuid.UUID, page dto.PageRequest) ([]*dto.TurnResponse, error)
	ClearHistory(ctx context.Context, userId uuid.UUID) (int64, error)
}

type historyService struct {
	uowFactory unitofwork.RepositoryFactory
	now        func() time.Time
}

func NewHistoryService(uowFactory unitofwork.RepositoryFactory) IHistoryService {
	return &historyService{
		uowFactory: uowFactory,
		now:        storeTime,
	}
}

// storeTime is truncated to what PostgreSQL timestamptz keeps.
func storeTime() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// SessionTitle trims the seed and cuts it to 50 runes, marking the cut with "...".
func SessionTitle(seed string) string {
	title := strings.TrimSpace(seed)
	if utf8.RuneCountInString(title) <= constant.SessionTitleMaxRunes {
		return title
	}
	runes := []rune(title)
	return string(runes[:constant.SessionTitleMaxRunes]) + "..."
}

func (s *historyService) CreateSession(ctx context.Context, userId uuid.UUID, seedText string) (uuid.UUID, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	now := s.now()
	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     SessionTitle(seedText),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session.Id, nil
}

func (s *historyService) SessionExists(ctx context.Context, sessionId, userId uuid.UUID) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	count, err := uow.ChatSessionRepository().Count(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// AppendTurn inserts the turn and bumps the session's updated_at in one transaction.
// updated_at always moves forward, by at least a microsecond, even under clock skew.
func (s *historyService) AppendTurn(ctx context.Context, record TurnRecord) (err error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = uow.Rollback()
		}
	}()

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: record.SessionId},
		specification.UserOwnedBy{UserID: record.UserId},
	)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}

	updatedAt := s.now()
	if !updatedAt.After(session.UpdatedAt) {
		updatedAt = session.UpdatedAt.Add(time.Microsecond)
	}

	createdAt := record.AskedAt.UTC().Truncate(time.Microsecond)
	if record.AskedAt.IsZero() {
		createdAt = updatedAt
	}

	turnId := record.Id
	if turnId == uuid.Nil {
		turnId = uuid.New()
	}

	turn := &entity.ChatTurn{
		Id:            turnId,
		UserId:        record.UserId,
		ChatSessionId: record.SessionId,
		Question:      record.Question,
		Answer:        record.Answer,
		Sources:       record.Sources,
		Provenance:    record.Provenance,
		CreatedAt:     createdAt,
	}
	if err = uow.ChatTurnRepository().Create(ctx, turn); err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}

	if err = uow.ChatSessionRepository().Touch(ctx, session.Id, updatedAt); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	return uow.Commit()
}

func (s *historyService) ListSessions(ctx context.Context, userId uuid.UUID, page dto.PageRequest) ([]*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	page = page.Normalize()

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.RecentlyUpdatedFirst{},
		specification.Pagination{Limit: page.Limit, Offset: page.Offset},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		res = append(res, &dto.SessionResponse{
			Id:        session.Id,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		})
	}
	return res, nil
}

// GetTranscript returns nil, nil when the session is missing or belongs to someone else.
func (s *historyService) GetTranscript(ctx context.Context, sessionId, userId uuid.UUID) ([]*dto.TurnResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	turns, err := uow.ChatTurnRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: session.Id},
		specification.OrderBy{Field: "created_at"},
		specification.OrderBy{Field: "id"},
	)
	if err != nil {
		return nil, err
	}

	return toTurnResponses(turns), nil
}

func (s *historyService) ListTurns(ctx context.Context, userId uuid.UUID, page dto.PageRequest) ([]*dto.TurnResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	page = page.Normalize()

	turns, err := uow.ChatTurnRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.OrderBy{Field: "id", Desc: true},
		specification.Pagination{Limit: page.Limit, Offset: page.Offset},
	)
	if err != nil {
		return nil, err
	}

	return toTurnResponses(turns), nil
}

// ClearHistory removes every turn and session of the user. Returns the deleted turn count.
func (s *historyService) ClearHistory(ctx context.Context, userId uuid.UUID) (deleted int64, err error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = uow.Rollback()
		}
	}()

	deleted, err = uow.ChatTurnRepository().DeleteAllByUserId(ctx, userId)
	if err != nil {
		return 0, fmt.Errorf("failed to delete turns: %w", err)
	}
	if _, err = uow.ChatSessionRepository().DeleteAllByUserId(ctx, userId); err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}

	if err = uow.Commit(); err != nil {
		return 0, err
	}
	return deleted, nil
}

func toTurnResponses(turns []*entity.ChatTurn) []*dto.TurnResponse {
	res := make([]*dto.TurnResponse, 0, len(turns))
	for _, turn := range turns {
		sources := turn.Sources
		if sources == nil {
			sources = []entity.SourceRef{}
		}
		res = append(res, &dto.TurnResponse{
			Id:            turn.Id,
			ChatSessionId: turn.ChatSessionId,
			Question:      turn.Question,
			Answer:        turn.Answer,
			Sources:       sources,
			Provenance:    string(turn.Provenance),
			CreatedAt:     turn.CreatedAt,
		})
	}
	return res
}
