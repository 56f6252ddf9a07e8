// Package tutor is the question-answering engine. It combines the prompt
// builder, the session manager, and the LLM provider into the operations
// the HTTP surface exposes: answering questions, generating practice sets,
// and evaluating student work.
package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/studyai/studyai/internal/config"
	"github.com/studyai/studyai/internal/mathfmt"
	"github.com/studyai/studyai/internal/prompt"
	"github.com/studyai/studyai/internal/providers"
	"github.com/studyai/studyai/internal/schema"
	"github.com/studyai/studyai/internal/session"
)

// QuestionRequest carries one student question. SessionID is optional:
// when set, the exchange is recorded against that session and the bounded
// conversation context rides along with the prompt.
type QuestionRequest struct {
	StudentID        string                 `json:"student_id"`
	SessionID        string                 `json:"session_id,omitempty"`
	Question         string                 `json:"question"`
	Subject          string                 `json:"subject,omitempty"`
	Context          *prompt.StudentContext `json:"context,omitempty"`
	IncludeFollowUps bool                   `json:"include_followups"`
}

// Answer is the processed response for one question.
type Answer struct {
	Answer         string   `json:"answer"`
	ReasoningSteps []string `json:"reasoning_steps"`
	KeyConcepts    []string `json:"key_concepts"`
	FollowUps      []string `json:"follow_up_questions"`
	Subject        string   `json:"subject"`
	SessionID      string   `json:"session_id,omitempty"`
	Model          string   `json:"model"`
}

// PracticeQuestion is one generated exercise with its worked solution.
type PracticeQuestion struct {
	Question   string `json:"question"`
	Solution   string `json:"solution,omitempty"`
	KeyConcept string `json:"key_concept,omitempty"`
}

// PracticeSet is the result of a practice-generation request.
type PracticeSet struct {
	Topic      string             `json:"topic"`
	Subject    string             `json:"subject"`
	Difficulty string             `json:"difficulty_level"`
	Questions  []PracticeQuestion `json:"questions"`
}

// Engine answers student questions. All LLM traffic goes through the
// provider interface so tests can substitute a stub.
type Engine struct {
	provider providers.LLMProvider
	sessions *session.Manager
	prompts  *prompt.Builder
	model    config.ModelConfig
}

func NewEngine(provider providers.LLMProvider, sessions *session.Manager, prompts *prompt.Builder, model config.ModelConfig) *Engine {
	return &Engine{
		provider: provider,
		sessions: sessions,
		prompts:  prompts,
		model:    model,
	}
}

// ProcessQuestion runs the full tutoring pipeline: subject resolution,
// enhanced prompt, optional session context, the model call, response
// repair, and extraction of reasoning steps, key concepts, and follow-ups.
func (e *Engine) ProcessQuestion(ctx context.Context, req QuestionRequest) (*Answer, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("empty question")
	}

	subject := prompt.DetectSubject(req.Subject)
	if strings.TrimSpace(req.Subject) == "" {
		subject = prompt.DetectSubject(question)
	}
	systemPrompt := e.prompts.Enhanced(string(subject), req.Context)

	messages, err := e.contextFor(ctx, req.SessionID, question, systemPrompt)
	if err != nil {
		return nil, err
	}

	raw, err := e.provider.Chat(ctx, messages, providers.ChatOptions{
		Model:       e.model.Name,
		MaxTokens:   e.model.MaxTokens,
		Temperature: e.model.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	answer := mathfmt.Tidy(raw)
	if subject.IsMath() {
		answer = mathfmt.Repair(raw)
	}

	if req.SessionID != "" {
		if _, err := e.sessions.AddMessage(ctx, req.SessionID, schema.RoleAssistant, answer); err != nil {
			slog.Warn("failed to record assistant turn", "session_id", req.SessionID, "error", err)
		}
	}

	var followUps []string
	if req.IncludeFollowUps {
		followUps = prompt.FollowUps(question, string(subject))
	}

	return &Answer{
		Answer:         answer,
		ReasoningSteps: ReasoningSteps(answer),
		KeyConcepts:    KeyConcepts(answer, string(subject)),
		FollowUps:      followUps,
		Subject:        string(subject),
		SessionID:      req.SessionID,
		Model:          e.model.Name,
	}, nil
}

// contextFor builds the message list for the model call. With a session it
// records the user turn first so the bounded context already contains it;
// without one the call is stateless.
func (e *Engine) contextFor(ctx context.Context, sessionID, question, systemPrompt string) ([]schema.ChatMessage, error) {
	if sessionID == "" {
		return []schema.ChatMessage{
			{Role: schema.RoleSystem, Content: systemPrompt},
			{Role: schema.RoleUser, Content: question},
		}, nil
	}
	s, err := e.sessions.AddMessage(ctx, sessionID, schema.RoleUser, question)
	if err != nil {
		return nil, fmt.Errorf("record user turn: %w", err)
	}
	return e.sessions.ContextForAPI(s, systemPrompt), nil
}

// GeneratePracticeQuestions asks the model for a numbered practice set and
// parses it into structured questions. Difficulty defaults to medium and
// the count to three.
func (e *Engine) GeneratePracticeQuestions(ctx context.Context, topic, subjectString, difficulty string, count int) (*PracticeSet, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("empty topic")
	}
	if difficulty == "" {
		difficulty = "medium"
	}
	if count <= 0 {
		count = 3
	}

	systemPrompt := fmt.Sprintf(`You are an expert educational content creator. Generate %d practice questions for the topic %q in %s.

Requirements:
- Difficulty level: %s
- Questions should build upon each other in complexity
- Include clear, step-by-step solutions
- Use mobile-friendly mathematical notation
- Focus on understanding, not just computation

Format each question as:
Question N: [question text]
Solution: [detailed solution with steps]
Key Concept: [main concept being tested]`, count, topic, subjectString, difficulty)

	raw, err := e.provider.Chat(ctx, []schema.ChatMessage{
		{Role: schema.RoleSystem, Content: systemPrompt},
		{Role: schema.RoleUser, Content: "Generate practice questions for: " + topic},
	}, providers.ChatOptions{
		Model:       e.model.Name,
		MaxTokens:   2000,
		Temperature: 0.5, // a bit of variety between questions
	})
	if err != nil {
		return nil, fmt.Errorf("practice generation: %w", err)
	}

	return &PracticeSet{
		Topic:      topic,
		Subject:    subjectString,
		Difficulty: difficulty,
		Questions:  parsePracticeSet(raw),
	}, nil
}

// EvaluateAnswer returns constructive feedback on a student's answer.
// correctAnswer may be empty when the caller does not know it.
func (e *Engine) EvaluateAnswer(ctx context.Context, question, studentAnswer, subjectString, correctAnswer string) (string, error) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(studentAnswer) == "" {
		return "", fmt.Errorf("question and student answer are required")
	}

	systemPrompt := fmt.Sprintf(`You are an expert %s tutor. Evaluate the student's answer and provide constructive feedback.

Focus on:
1. Correctness of the final answer
2. Quality of the reasoning process
3. Common mistakes or misconceptions
4. Suggestions for improvement
5. Encouragement and positive reinforcement

Be supportive and educational in your feedback.`, subjectString)

	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nStudent's Answer: %s\n", question, studentAnswer)
	if correctAnswer != "" {
		fmt.Fprintf(&b, "\nCorrect Answer: %s\n", correctAnswer)
	}
	b.WriteString("\nPlease evaluate this answer and provide helpful feedback.")

	feedback, err := e.provider.Chat(ctx, []schema.ChatMessage{
		{Role: schema.RoleSystem, Content: systemPrompt},
		{Role: schema.RoleUser, Content: b.String()},
	}, providers.ChatOptions{
		Model:       e.model.Name,
		MaxTokens:   1000,
		Temperature: e.model.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("answer evaluation: %w", err)
	}
	return strings.TrimSpace(feedback), nil
}

// parsePracticeSet splits the model's "Question N / Solution / Key Concept"
// layout into structured entries. Unlabelled lines extend the most recent
// field so multi-line solutions survive.
func parsePracticeSet(content string) []PracticeQuestion {
	var (
		out  []PracticeQuestion
		cur  *PracticeQuestion
		last *string
	)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Question"):
			if cur != nil {
				out = append(out, *cur)
			}
			cur = &PracticeQuestion{Question: trimLabel(line)}
			last = &cur.Question
		case cur != nil && strings.HasPrefix(line, "Solution:"):
			cur.Solution = strings.TrimSpace(strings.TrimPrefix(line, "Solution:"))
			last = &cur.Solution
		case cur != nil && strings.HasPrefix(line, "Key Concept:"):
			cur.KeyConcept = strings.TrimSpace(strings.TrimPrefix(line, "Key Concept:"))
			last = &cur.KeyConcept
		case cur != nil && line != "" && last != nil:
			*last = strings.TrimSpace(*last + " " + line)
		}
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}

// trimLabel drops the "Question N:" label, leaving the question text.
func trimLabel(line string) string {
	if i := strings.Index(line, ":"); i >= 0 {
		return strings.TrimSpace(line[i+1:])
	}
	return line
}
