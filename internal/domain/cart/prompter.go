// internal/domain/cart/prompter.go
package cart

import "sync"

// Prompts shown by the cart store
const (
	PromptRemoveItem         = "Remove this item from cart?"
	PromptClearCart          = "Clear all items from cart?"
	PromptClearAfterCheckout = "Order sent! Would you like to clear your cart?"

	NoticeAdded           = "Added to cart! ✓"
	NoticeQuantityUpdated = "Quantity updated in cart!"
	NoticeItemRemoved     = "Item removed"
	NoticeCartCleared     = "Cart cleared"

	AlertEmptyCart = "Your cart is empty!"
)

// Prompter is the user-facing side of the cart: blocking confirmations,
// blocking alerts and transient notifications.
type Prompter interface {
	Confirm(message string) bool
	Alert(message string)
	Notify(message string)
}

// MessageKind classifies a message delivered to the user
type MessageKind string

const (
	MessageConfirm MessageKind = "confirm"
	MessageAlert   MessageKind = "alert"
	MessageNotice  MessageKind = "notification"
)

// Message is one recorded prompt
type Message struct {
	Kind     MessageKind `json:"kind"`
	Text     string      `json:"text"`
	Accepted bool        `json:"accepted,omitempty"`
}

// ScriptedPrompter answers every confirmation with a fixed decision and
// records what the user would have seen. Request handlers use it to carry an
// explicit confirmation from the client.
type ScriptedPrompter struct {
	mu       sync.Mutex
	answer   func(message string) bool
	messages []Message
}

// NewScriptedPrompter answers all confirmations with accept
func NewScriptedPrompter(accept bool) *ScriptedPrompter {
	return &ScriptedPrompter{answer: func(string) bool { return accept }}
}

// NewPrompterFunc answers confirmations with fn
func NewPrompterFunc(fn func(message string) bool) *ScriptedPrompter {
	return &ScriptedPrompter{answer: fn}
}

// Confirm records the prompt and returns the scripted answer
func (p *ScriptedPrompter) Confirm(message string) bool {
	accepted := p.answer(message)
	p.record(Message{Kind: MessageConfirm, Text: message, Accepted: accepted})
	return accepted
}

// Alert records an alert
func (p *ScriptedPrompter) Alert(message string) {
	p.record(Message{Kind: MessageAlert, Text: message})
}

// Notify records a notification
func (p *ScriptedPrompter) Notify(message string) {
	p.record(Message{Kind: MessageNotice, Text: message})
}

// Messages returns everything recorded so far
func (p *ScriptedPrompter) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Message, len(p.messages))
	copy(out, p.messages)
	return out
}

func (p *ScriptedPrompter) record(m Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, m)
}

type silentPrompter struct{}

func (silentPrompter) Confirm(string) bool { return false }
func (silentPrompter) Alert(string)        {}
func (silentPrompter) Notify(string)       {}
