package mapper

import (
	"encoding/json"

	"github.com/hoanghaiduong/gym-food-rag/internal/entity"
	"github.com/hoanghaiduong/gym-food-rag/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Session Mappers

func (m *ChatMapper) ChatSessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	return &entity.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (m *ChatMapper) ChatSessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	return &model.ChatSession{
		Id:        s.Id,
		UserId:    s.UserId,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (m *ChatMapper) ChatSessionsToEntities(sessions []*model.ChatSession) []*entity.ChatSession {
	res := make([]*entity.ChatSession, 0, len(sessions))
	for _, s := range sessions {
		res = append(res, m.ChatSessionToEntity(s))
	}
	return res
}

// Turn Mappers

func (m *ChatMapper) ChatTurnToEntity(t *model.ChatTurn) *entity.ChatTurn {
	if t == nil {
		return nil
	}

	sources := []entity.SourceRef{}
	if len(t.Sources) > 0 {
		// Malformed rows surface as "no sources" rather than failing the transcript
		_ = json.Unmarshal(t.Sources, &sources)
	}

	return &entity.ChatTurn{
		Id:            t.Id,
		UserId:        t.UserId,
		ChatSessionId: t.ChatSessionId,
		Question:      t.Question,
		Answer:        t.Answer,
		Sources:       sources,
		Provenance:    entity.Provenance(t.Provenance),
		CreatedAt:     t.CreatedAt,
	}
}

func (m *ChatMapper) ChatTurnToModel(t *entity.ChatTurn) (*model.ChatTurn, error) {
	if t == nil {
		return nil, nil
	}

	sources := t.Sources
	if sources == nil {
		sources = []entity.SourceRef{}
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return nil, err
	}

	return &model.ChatTurn{
		Id:            t.Id,
		UserId:        t.UserId,
		ChatSessionId: t.ChatSessionId,
		Question:      t.Question,
		Answer:        t.Answer,
		Sources:       datatypes.JSON(raw),
		Provenance:    string(t.Provenance),
		CreatedAt:     t.CreatedAt,
	}, nil
}

func (m *ChatMapper) ChatTurnsToEntities(turns []*model.ChatTurn) []*entity.ChatTurn {
	res := make([]*entity.ChatTurn, 0, len(turns))
	for _, t := range turns {
		res = append(res, m.ChatTurnToEntity(t))
	}
	return res
}
