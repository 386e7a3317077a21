// Package chat orchestrates a single conversational exchange: it resolves
// conversation identity, grounds the prompt in fresh knowledge, persists
// turns, and decides the user-visible outcome of gateway failures.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cartoncaps/capper/internal/history"
	"github.com/cartoncaps/capper/internal/knowledge"
	"github.com/cartoncaps/capper/internal/llm"
	"github.com/cartoncaps/capper/internal/observability"
	"github.com/cartoncaps/capper/internal/prompt"
)

// FallbackText is the uniform user-safe reply for any gateway failure. The
// classified failure kind stays in logs and metrics; provider diagnostics
// never reach the caller.
const FallbackText = "I'm having trouble responding right now; please try again or contact support."

// Reply is the outcome of one handled message.
type Reply struct {
	Text           string `json:"response"`
	ConversationID string `json:"conversation_id"`
	// Degraded marks replies that carry the fallback text because the
	// gateway failed. The user's turn is persisted either way.
	Degraded bool `json:"-"`
}

// Service implements the conversation orchestration contract.
type Service struct {
	knowledgeStore knowledge.Store
	historyStore   history.Store
	gateway        llm.Client
	assembler      *prompt.Assembler
	metrics        *observability.Metrics
	locks          *conversationLocks
	now            func() time.Time
}

func NewService(ks knowledge.Store, hs history.Store, gw llm.Client, asm *prompt.Assembler, metrics *observability.Metrics) (*Service, error) {
	if ks == nil {
		return nil, errors.New("chat: knowledge store must not be nil")
	}
	if hs == nil {
		return nil, errors.New("chat: history store must not be nil")
	}
	if gw == nil {
		return nil, errors.New("chat: llm client must not be nil")
	}
	if asm == nil {
		asm = prompt.NewAssembler(prompt.DefaultWindow)
	}
	return &Service{
		knowledgeStore: ks,
		historyStore:   hs,
		gateway:        gw,
		assembler:      asm,
		metrics:        metrics,
		locks:          newConversationLocks(),
		now:            time.Now,
	}, nil
}

// HandleMessage processes one user message and returns the assistant reply
// together with the conversation identity, minting a new one when absent.
// The user turn is persisted before the gateway call, so a gateway failure
// leaves the message recorded and visible to later retries; in that case the
// reply carries FallbackText with Degraded set and a nil error.
func (s *Service) HandleMessage(ctx context.Context, userID int64, message, conversationID string) (Reply, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	message = strings.TrimSpace(message)
	if message == "" {
		s.countOutcome("invalid_input")
		return Reply{}, newError(CodeInvalidInput, "empty_message", nil)
	}

	// One snapshot grounds the whole request; staleness window is the
	// request itself. Unknown users fail here, before anything persists.
	snap, err := knowledge.TakeSnapshot(ctx, s.knowledgeStore, userID)
	if err != nil {
		if errors.Is(err, knowledge.ErrNotFound) {
			s.countOutcome("not_found")
			return Reply{}, newError(CodeNotFound, "unknown_user", err)
		}
		s.countStoreError("knowledge_snapshot")
		s.countOutcome("storage_unavailable")
		return Reply{}, newError(CodeStorageUnavailable, "knowledge_snapshot", err)
	}

	conversationID = strings.TrimSpace(conversationID)
	minted := conversationID == ""
	if minted {
		conversationID = uuid.NewString()
	}
	log = log.With("conversation_id", conversationID)

	s.locks.lock(conversationID)
	defer s.locks.unlock(conversationID)

	var turns []history.Turn
	if !minted {
		turns, err = s.historyStore.Load(ctx, conversationID)
		if err != nil {
			s.countStoreError("load_history")
			s.countOutcome("storage_unavailable")
			return Reply{}, newError(CodeStorageUnavailable, "load_history", err)
		}
		// A conversation belongs to the user who opened it. A caller
		// supplying someone else's conversation gets the same answer as for
		// one that does not exist.
		if len(turns) > 0 && turns[0].UserID != userID {
			s.countOutcome("not_found")
			return Reply{}, newError(CodeNotFound, "conversation_owner_mismatch", nil)
		}
	}

	// The user turn is recorded before the gateway call on purpose: if the
	// model is down, the message survives for future retries of the same
	// conversation.
	if _, err := s.historyStore.Append(ctx, history.Turn{
		ConversationID: conversationID,
		UserID:         userID,
		Role:           history.RoleUser,
		Text:           message,
		CreatedAt:      s.now().UTC(),
	}); err != nil {
		s.countStoreError("append_user_turn")
		s.countOutcome("storage_unavailable")
		return Reply{}, newError(CodeStorageUnavailable, "append_user_turn", err)
	}

	promptText := s.assembler.Build(snap, turns, message)

	start := s.now()
	replyText, err := s.gateway.Complete(ctx, promptText)
	if s.metrics != nil {
		s.metrics.ObserveLLMLatency(s.now().Sub(start))
	}
	if err != nil {
		kind, _ := llm.KindOf(err)
		log.Error("llm gateway failed", "kind", string(kind), "error", err)
		if s.metrics != nil {
			s.metrics.LLMFailures.WithLabelValues(string(kind)).Inc()
		}
		s.countOutcome("degraded")
		// No synthetic assistant turn is recorded for a failed completion.
		return Reply{Text: FallbackText, ConversationID: conversationID, Degraded: true}, nil
	}

	if _, err := s.historyStore.Append(ctx, history.Turn{
		ConversationID: conversationID,
		UserID:         userID,
		Role:           history.RoleAssistant,
		Text:           replyText,
		CreatedAt:      s.now().UTC(),
	}); err != nil {
		s.countStoreError("append_assistant_turn")
		s.countOutcome("storage_unavailable")
		return Reply{}, newError(CodeStorageUnavailable, "append_assistant_turn", err)
	}

	log.Info("chat exchange completed", "minted", minted, "reply_len", len(replyText))
	s.countOutcome("ok")
	return Reply{Text: replyText, ConversationID: conversationID}, nil
}

// History returns the ordered turns of a conversation.
func (s *Service) History(ctx context.Context, conversationID string) ([]history.Turn, error) {
	turns, err := s.historyStore.Load(ctx, conversationID)
	if err != nil {
		s.countStoreError("load_history")
		return nil, newError(CodeStorageUnavailable, "load_history", err)
	}
	return turns, nil
}

func (s *Service) countStoreError(op string) {
	if s.metrics != nil {
		s.metrics.StoreErrors.WithLabelValues(op).Inc()
	}
}

func (s *Service) countOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.ChatRequests.WithLabelValues(outcome).Inc()
	}
}
