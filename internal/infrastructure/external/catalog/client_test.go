package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blen-hub/blen-progress-hub/internal/domain/quiz"
)

func TestBankDTO_Parsing(t *testing.T) {
	jsonData := `{
    "key": "safetyBasics",
    "name": "Safety Basics",
    "description": "Core outdoor safety principles",
    "questions": [
        {
            "id": "q1",
            "text": "When should you turn back on a hike?",
            "options": ["Never", "When conditions deteriorate", "Only at the summit"],
            "correctAnswer": 1,
            "explanation": "Conditions decide the route, not the plan."
        },
        {
            "id": "q2",
            "text": "How much water should you carry per hour of hiking?",
            "options": ["None", "About half a liter"],
            "correctAnswer": 1
        }
    ]
}`

	var bank BankDTO
	err := json.Unmarshal([]byte(jsonData), &bank)
	assert.NoError(t, err)

	assert.Equal(t, "safetyBasics", bank.Key)
	assert.Equal(t, "Safety Basics", bank.Name)
	assert.Len(t, bank.Questions, 2)

	q := bank.Questions[0]
	assert.Equal(t, "q1", q.ID)
	assert.Equal(t, 1, q.CorrectAnswer)
	assert.Len(t, q.Options, 3)
	assert.Equal(t, "Conditions decide the route, not the plan.", q.Explanation)
}

func TestMapper_DropsMalformedQuestions(t *testing.T) {
	dto := &BankDTO{
		Key:  "navigationSkills",
		Name: "Navigation Skills",
		Questions: []QuestionDTO{
			{ID: "ok", Text: "Which way is north on most maps?", Options: []string{"Up", "Down"}, CorrectAnswer: 0},
			{ID: "one-option", Text: "Broken", Options: []string{"Only"}, CorrectAnswer: 0},
			{ID: "out-of-range", Text: "Broken", Options: []string{"A", "B"}, CorrectAnswer: 5},
			{ID: "negative", Text: "Broken", Options: []string{"A", "B"}, CorrectAnswer: -1},
		},
	}

	bank := NewMapper().BankFromDTO(dto)

	require.NotNil(t, bank)
	assert.Equal(t, "Navigation Skills", bank.Name)
	require.Len(t, bank.Questions, 1)
	assert.Equal(t, "ok", bank.Questions[0].ID)
}

func TestClient_CategoryBank(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/banks/firstAid", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"data": {
				"key": "firstAid",
				"name": "First Aid",
				"description": "Field first aid",
				"questions": [
					{"id": "fa1", "text": "What does RICE stand for?",
					 "options": ["Rest, Ice, Compression, Elevation", "Run, Inspect, Call, Evacuate"],
					 "correctAnswer": 0}
				]
			}
		}`))
	}))
	defer server.Close()

	cfg := DefaultClientConfig(server.URL)
	cfg.APIKey = "test-key"
	client := NewClient(cfg)

	bank, err := client.CategoryBank(context.Background(), quiz.CategoryFirstAid)
	require.NoError(t, err)
	assert.Equal(t, "First Aid", bank.Name)
	require.Len(t, bank.Questions, 1)
	assert.Equal(t, 0, bank.Questions[0].CorrectAnswer)
}

func TestClient_CategoryBank_InvalidCategory(t *testing.T) {
	client := NewClient(DefaultClientConfig("http://invalid"))

	_, err := client.CategoryBank(context.Background(), quiz.Category("bogus"))
	assert.ErrorIs(t, err, quiz.ErrInvalidCategory)
}

func TestClient_CategoryBank_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"code": "SERVER_ERROR", "message": "catalog offline"}`))
	}))
	defer server.Close()

	client := NewClient(DefaultClientConfig(server.URL))

	_, err := client.CategoryBank(context.Background(), quiz.CategorySafetyBasics)
	assert.Error(t, err)
}
