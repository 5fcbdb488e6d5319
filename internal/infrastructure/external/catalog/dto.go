package catalog

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE ENVELOPE
// ══════════════════════════════════════════════════════════════════════════════

// APIResponse is the generic response envelope of the catalog service.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
}

// APIErrorDTO is an error payload returned by the catalog service.
type APIErrorDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIErrorDTO) Error() string {
	return e.Code + ": " + e.Message
}

// ══════════════════════════════════════════════════════════════════════════════
// QUESTION BANK DTOs
// ══════════════════════════════════════════════════════════════════════════════

// BankDTO is one category's question bank as served by the catalog.
type BankDTO struct {
	// Key is the catalog key of the category (camelCase, e.g. "safetyBasics").
	Key string `json:"key"`

	// Name is the human readable bank title.
	Name string `json:"name"`

	// Description summarizes the bank's coverage.
	Description string `json:"description"`

	// Questions are the authored questions of this bank.
	Questions []QuestionDTO `json:"questions"`
}

// QuestionDTO is one authored question.
type QuestionDTO struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// BankListDTO is the full catalog listing, keyed by catalog key.
type BankListDTO struct {
	Banks map[string]BankDTO `json:"banks"`
}
