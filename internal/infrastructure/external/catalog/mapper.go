package catalog

import (
	"github.com/blen-hub/blen-progress-hub/internal/domain/quiz"
)

// Mapper converts catalog DTOs to domain types.
type Mapper struct{}

// NewMapper creates a new mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// BankFromDTO converts a catalog bank to a domain question bank.
// Questions with fewer than two options or an out-of-range correct
// answer are dropped so a malformed catalog entry cannot produce an
// unanswerable quiz.
func (m *Mapper) BankFromDTO(dto *BankDTO) *quiz.CategoryBank {
	if dto == nil {
		return nil
	}

	bank := &quiz.CategoryBank{
		Name:        dto.Name,
		Description: dto.Description,
		Questions:   make([]quiz.BankQuestion, 0, len(dto.Questions)),
	}

	for _, q := range dto.Questions {
		if len(q.Options) < 2 {
			continue
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			continue
		}
		bank.Questions = append(bank.Questions, quiz.BankQuestion{
			ID:            q.ID,
			Text:          q.Text,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		})
	}

	return bank
}
