package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"chatty-backend/internal/ai"
	"chatty-backend/internal/model"
	"chatty-backend/internal/repository"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrMessageEmpty = errors.New("message content is empty")
)

type UsagePublisher interface {
	Publish(ctx context.Context, record model.UsageRecord) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, chatID uint) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, chatID uint, messages []model.Message) error
	DeleteHistory(ctx context.Context, chatID uint) error
	MarkDirty(ctx context.Context, chatID uint) error
	IsDirty(ctx context.Context, chatID uint) (bool, error)
}

// ChatService orchestrates a conversation turn: resolve the target chat,
// persist the user message, window the history, generate a reply (real or
// mock) and persist it. Generation failures never fail the turn; the mock
// responder answers instead and its sentinel model id marks the message.
type ChatService struct {
	chatRepo     *repository.ChatRepository
	messageRepo  *repository.MessageRepository
	usageRepo    *repository.UsageRecordRepository
	usagePub     UsagePublisher
	historyCache HistoryCache
	generator    ai.Generator
	mock         *ai.MockResponder
	systemPrompt string
	maxContext   int

	// strictOwnership rejects a send into a chat the caller does not own.
	// When false a foreign or unknown chat id silently starts a fresh chat,
	// matching the product's "never show an error" behavior.
	strictOwnership bool
}

type SendMessageInput struct {
	UserID  uint
	ChatID  uint // zero means start a new chat
	Content string
}

type SendMessageResult struct {
	Chat             *model.Chat    `json:"chat"`
	UserMessage      *model.Message `json:"user_message"`
	AssistantMessage *model.Message `json:"assistant_message"`
}

func NewChatService(
	chatRepo *repository.ChatRepository,
	messageRepo *repository.MessageRepository,
	usageRepo *repository.UsageRecordRepository,
	usagePub UsagePublisher,
	historyCache HistoryCache,
	generator ai.Generator,
	systemPrompt string,
	maxContext int,
	strictOwnership bool,
) *ChatService {
	if maxContext <= 0 {
		maxContext = 20
	}
	return &ChatService{
		chatRepo:        chatRepo,
		messageRepo:     messageRepo,
		usageRepo:       usageRepo,
		usagePub:        usagePub,
		historyCache:    historyCache,
		generator:       generator,
		mock:            ai.NewMockResponder(),
		systemPrompt:    systemPrompt,
		maxContext:      maxContext,
		strictOwnership: strictOwnership,
	}
}

func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrMessageEmpty
	}

	chat, err := s.resolveChat(input.UserID, input.ChatID, content)
	if err != nil {
		return nil, err
	}

	// The user turn is stored before any generation is attempted; a failed
	// model call must never lose the user's input.
	userMessage := &model.Message{
		ChatID:  chat.ID,
		Role:    model.RoleUser,
		Content: content,
	}
	if err := s.messageRepo.Create(userMessage); err != nil {
		return nil, err
	}
	s.invalidateHistory(ctx, chat.ID)

	window, err := s.messageRepo.ListRecentByChatID(chat.ID, s.maxContext)
	if err != nil {
		return nil, err
	}
	turns := make([]ai.Turn, 0, len(window))
	for _, msg := range window {
		turns = append(turns, ai.Turn{Role: msg.Role, Content: msg.Content})
	}

	started := time.Now()
	result := s.generate(ctx, turns)

	assistantMessage := &model.Message{
		ChatID:     chat.ID,
		Role:       model.RoleAssistant,
		Content:    result.Content,
		TokensUsed: result.TokensUsed,
		ModelUsed:  result.Model,
	}
	if err := s.messageRepo.Create(assistantMessage); err != nil {
		return nil, err
	}
	s.invalidateHistory(ctx, chat.ID)

	s.publishUsage(ctx, chat, assistantMessage, time.Since(started))

	return &SendMessageResult{
		Chat:             chat,
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
	}, nil
}

// ListUsage returns the caller's generation accounting rows, newest first.
// Rows are written asynchronously by the usage worker, so a just-finished
// turn may not appear immediately.
func (s *ChatService) ListUsage(userID uint, limit int) ([]model.UsageRecord, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.usageRepo.ListByUserID(userID, limit)
}

func (s *ChatService) ListChats(userID uint) ([]model.Chat, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.chatRepo.ListByUserID(userID, 50)
}

func (s *ChatService) ListMessages(ctx context.Context, userID, chatID uint) ([]model.Message, error) {
	if userID == 0 || chatID == 0 {
		return nil, ErrInvalidInput
	}

	chat, err := s.chatRepo.GetByIDAndUserID(chatID, userID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, ErrChatNotFound
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, chatID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, chatID); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.messageRepo.ListByChatID(chatID)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, chatID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, chatID, messages)
		}
	}
	return messages, nil
}

func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID uint) error {
	if userID == 0 || chatID == 0 {
		return ErrInvalidInput
	}

	chat, err := s.chatRepo.GetByIDAndUserID(chatID, userID)
	if err != nil {
		return err
	}
	if chat == nil {
		return ErrChatNotFound
	}

	if err := s.messageRepo.DeleteByChatID(chatID); err != nil {
		return err
	}
	if err := s.chatRepo.DeleteByIDAndUserID(chatID, userID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, chatID)
	}
	return nil
}

func (s *ChatService) resolveChat(userID, chatID uint, content string) (*model.Chat, error) {
	if chatID != 0 {
		chat, err := s.chatRepo.GetByIDAndUserID(chatID, userID)
		if err != nil {
			return nil, err
		}
		if chat != nil {
			now := time.Now()
			if err := s.chatRepo.Touch(chat.ID, now); err != nil {
				return nil, err
			}
			chat.UpdatedAt = now
			return chat, nil
		}
		if s.strictOwnership {
			return nil, ErrChatNotFound
		}
		// Unknown or foreign chat id: fall through and start a fresh chat.
	}

	chat := &model.Chat{
		UserID: userID,
		Title:  chatTitle(content),
	}
	if err := s.chatRepo.Create(chat); err != nil {
		return nil, err
	}
	return chat, nil
}

// generate never returns an error: when the gateway is absent, disabled or
// failing, the mock responder answers and its output is treated as success.
func (s *ChatService) generate(ctx context.Context, turns []ai.Turn) *ai.Result {
	if s.generator != nil {
		result, err := s.generator.Generate(ctx, turns, s.systemPrompt)
		if err == nil && strings.TrimSpace(result.Content) != "" {
			return result
		}
		if err != nil {
			log.Printf("generation failed, using mock responder: %v", err)
		}
	}

	result, err := s.mock.Generate(ctx, turns, s.systemPrompt)
	if err != nil {
		// Unreachable with a non-empty window; keep the turn alive anyway.
		return &ai.Result{
			Content:    "I am an AI assistant. How can I help you?",
			TokensUsed: ai.MockTokens,
			Model:      ai.MockModel,
		}
	}
	return result
}

func (s *ChatService) publishUsage(ctx context.Context, chat *model.Chat, msg *model.Message, took time.Duration) {
	if s.usagePub == nil {
		return
	}
	record := model.UsageRecord{
		UserID:     chat.UserID,
		ChatID:     chat.ID,
		MessageID:  msg.ID,
		ModelUsed:  msg.ModelUsed,
		TokensUsed: msg.TokensUsed,
		DurationMs: took.Milliseconds(),
	}
	if err := s.usagePub.Publish(ctx, record); err != nil {
		log.Printf("publish usage record failed: %v", err)
	}
}

func (s *ChatService) invalidateHistory(ctx context.Context, chatID uint) {
	if s.historyCache == nil {
		return
	}
	_ = s.historyCache.MarkDirty(ctx, chatID)
	_ = s.historyCache.DeleteHistory(ctx, chatID)
}

const chatTitleLimit = 50

func chatTitle(content string) string {
	runes := []rune(content)
	if len(runes) > chatTitleLimit {
		runes = runes[:chatTitleLimit]
	}
	return string(runes) + "..."
}
