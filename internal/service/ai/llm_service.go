package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/yuchenw/pagechat/backend/internal/config"
	"github.com/yuchenw/pagechat/backend/internal/model/chat"
)

// Service adapts an eino chat model to the structured-reply contract the
// session service expects. The model is asked for a JSON object and its
// output is re-validated here; anything off-shape surfaces as an error, not
// as a half-parsed reply.
type Service struct {
	chatModel model.ChatModel
	chain     compose.Runnable[[]*schema.Message, *schema.Message]
	timeout   time.Duration
}

// NewService creates the completion provider from configuration.
func NewService(ctx context.Context, cfg config.AIConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	chain := compose.NewChain[[]*schema.Message, *schema.Message]()
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile completion chain: %w", err)
	}

	return &Service{
		chatModel: chatModel,
		chain:     runnable,
		timeout:   cfg.Timeout,
	}, nil
}

// Complete sends the assembled prompt context to the model and returns the
// validated structured reply. The call is bounded by the configured timeout.
func (s *Service) Complete(ctx context.Context, prompt []chat.Message) (chat.Reply, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	msg, err := s.chain.Invoke(ctx, toSchemaMessages(prompt))
	if err != nil {
		return chat.Reply{}, fmt.Errorf("failed to run completion chain: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return chat.Reply{}, fmt.Errorf("%w: empty completion", chat.ErrMalformedReply)
	}

	reply, err := parseReply(msg.Content)
	if err != nil {
		return chat.Reply{}, err
	}

	log.Printf("[ai] completion ok, body=%d bytes, options=%d", len(reply.Body), len(reply.Options))
	return reply, nil
}

func toSchemaMessages(prompt []chat.Message) []*schema.Message {
	converted := make([]*schema.Message, 0, len(prompt))
	for _, msg := range prompt {
		switch msg.Role {
		case chat.RoleSystem:
			converted = append(converted, schema.SystemMessage(msg.Content))
		case chat.RoleAssistant:
			converted = append(converted, schema.AssistantMessage(msg.Content, nil))
		default:
			converted = append(converted, schema.UserMessage(msg.Content))
		}
	}
	return converted
}

// parseReply extracts the JSON object from the raw model output. Models
// occasionally wrap the object in prose or code fences, so everything
// outside the outermost braces is discarded.
func parseReply(content string) (chat.Reply, error) {
	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start == -1 || end == -1 || end <= start {
		return chat.Reply{}, fmt.Errorf("%w: missing json object", chat.ErrMalformedReply)
	}

	var reply chat.Reply
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &reply); err != nil {
		return chat.Reply{}, fmt.Errorf("%w: %v", chat.ErrMalformedReply, err)
	}
	if err := reply.Validate(); err != nil {
		return chat.Reply{}, err
	}
	return reply, nil
}
