package bridge

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// Action is the wire discriminator of a runtime message.
type Action string

const (
	ActionSummarize  Action = "callGemini"
	ActionListModels Action = "getModels"

	// ActionUnknown labels messages no listener here claims.
	ActionUnknown Action = "unknown"
)

// Request is one of SummarizeRequest or ListModelsRequest.
type Request interface {
	Action() Action
	request()
}

// SummarizeRequest asks for a summary of page text.
type SummarizeRequest struct {
	Text     string
	APIKey   string
	Model    string
	Language string
	Prompt   string
}

// ListModelsRequest asks for the models usable with an API key.
type ListModelsRequest struct {
	APIKey string
}

func (SummarizeRequest) Action() Action  { return ActionSummarize }
func (ListModelsRequest) Action() Action { return ActionListModels }

func (SummarizeRequest) request()  {}
func (ListModelsRequest) request() {}

// Message is the flat wire form of a Request.
type Message struct {
	Action   Action `json:"action"`
	Text     string `json:"text,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
	Model    string `json:"model,omitempty"`
	Language string `json:"language,omitempty"`
	Prompt   string `json:"prompt,omitempty"`
}

// Encode converts req to its wire form.
func Encode(req Request) Message {
	switch r := req.(type) {
	case SummarizeRequest:
		return Message{
			Action:   ActionSummarize,
			Text:     r.Text,
			APIKey:   r.APIKey,
			Model:    r.Model,
			Language: r.Language,
			Prompt:   r.Prompt,
		}
	case ListModelsRequest:
		return Message{Action: ActionListModels, APIKey: r.APIKey}
	default:
		panic(fmt.Sprintf("bridge: unhandled request type %T", req))
	}
}

// Decode converts a wire message to a Request. ok is false for actions this
// package does not know.
func Decode(msg Message) (req Request, ok bool) {
	switch msg.Action {
	case ActionSummarize:
		return SummarizeRequest{
			Text:     msg.Text,
			APIKey:   msg.APIKey,
			Model:    msg.Model,
			Language: msg.Language,
			Prompt:   msg.Prompt,
		}, true
	case ActionListModels:
		return ListModelsRequest{APIKey: msg.APIKey}, true
	default:
		return nil, false
	}
}

// AsMessage normalizes a message as delivered by a host: a Message, a
// pointer to one, raw JSON, or a generic object.
func AsMessage(v any) (Message, error) {
	switch m := v.(type) {
	case Message:
		return m, nil
	case *Message:
		if m == nil {
			return Message{}, fmt.Errorf("nil message")
		}
		return *m, nil
	case []byte:
		return unmarshalMessage(m)
	case string:
		return unmarshalMessage([]byte(m))
	case map[string]any:
		raw, err := sonic.Marshal(m)
		if err != nil {
			return Message{}, fmt.Errorf("encode message: %w", err)
		}
		return unmarshalMessage(raw)
	default:
		return Message{}, fmt.Errorf("unsupported message type %T", v)
	}
}

func unmarshalMessage(raw []byte) (Message, error) {
	var msg Message
	if err := sonic.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	return msg, nil
}
