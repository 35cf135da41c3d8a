// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"fmt"
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Sent records one outbound call made through the fake context.
type Sent struct {
	What any
	Opts []any
}

// Text returns the sent payload as a string, or its %v form for non-text payloads.
func (s Sent) Text() string {
	if str, ok := s.What.(string); ok {
		return str
	}
	return fmt.Sprint(s.What)
}

// Markup returns the reply markup attached to the send, if any.
func (s Sent) Markup() *tele.ReplyMarkup {
	for _, o := range s.Opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			return v
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return v.ReplyMarkup
			}
		}
	}
	return nil
}

// Context implements the subset of tele.Context used by the bot handlers.
// Methods outside that subset panic through the nil embedded interface.
type Context struct {
	tele.Context

	UpdateID int
	User     *tele.User
	ChatRef  *tele.Chat
	Msg      *tele.Message
	Cb       *tele.Callback

	mu        sync.Mutex
	store     map[string]any
	sent      []Sent
	responses []*tele.CallbackResponse
}

func newContext(userID int64) *Context {
	return &Context{
		UpdateID: int(userID%1000) + 1,
		User:     &tele.User{ID: userID, FirstName: "Test"},
		ChatRef:  &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		store:    make(map[string]any),
	}
}

// NewText builds a private-chat text message from userID.
func NewText(userID int64, text string) *Context {
	c := newContext(userID)
	c.Msg = &tele.Message{ID: 1, Sender: c.User, Chat: c.ChatRef, Text: text}
	return c
}

// NewDocument builds a private-chat document message from userID.
func NewDocument(userID int64, doc *tele.Document) *Context {
	c := newContext(userID)
	c.Msg = &tele.Message{ID: 1, Sender: c.User, Chat: c.ChatRef, Document: doc}
	return c
}

// NewCallback builds an inline button press carrying unique|payload.
func NewCallback(userID int64, unique, payload string) *Context {
	c := newContext(userID)
	c.Msg = &tele.Message{ID: 1, Sender: c.User, Chat: c.ChatRef}
	c.Cb = &tele.Callback{
		ID:      "cb",
		Sender:  c.User,
		Message: c.Msg,
		Unique:  unique,
		Data:    payload,
	}
	return c
}

// Sender returns the acting user.
func (c *Context) Sender() *tele.User { return c.User }

// Chat returns the current chat.
func (c *Context) Chat() *tele.Chat { return c.ChatRef }

// Message returns the incoming message.
func (c *Context) Message() *tele.Message { return c.Msg }

// Callback returns the incoming callback, if any.
func (c *Context) Callback() *tele.Callback { return c.Cb }

// Text returns the message text.
func (c *Context) Text() string {
	if c.Msg == nil {
		return ""
	}
	return c.Msg.Text
}

// Update synthesises the update the context was built from.
func (c *Context) Update() tele.Update {
	upd := tele.Update{ID: c.UpdateID}
	if c.Cb != nil {
		upd.Callback = c.Cb
		return upd
	}
	upd.Message = c.Msg
	return upd
}

// Get reads a value stored with Set.
func (c *Context) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

// Set stores a per-update value.
func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = val
}

// Send records the outbound message.
func (c *Context) Send(what any, opts ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, Sent{What: what, Opts: opts})
	return nil
}

// Reply records the outbound message like Send.
func (c *Context) Reply(what any, opts ...any) error {
	return c.Send(what, opts...)
}

// Respond records the callback answer.
func (c *Context) Respond(resp ...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(resp) == 0 {
		c.responses = append(c.responses, &tele.CallbackResponse{})
		return nil
	}
	c.responses = append(c.responses, resp...)
	return nil
}

// Sent returns a copy of all recorded sends.
func (c *Context) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.sent...)
}

// LastText returns the text of the most recent send or "".
func (c *Context) LastText() string {
	sent := c.Sent()
	if len(sent) == 0 {
		return ""
	}
	return sent[len(sent)-1].Text()
}

// Responses returns recorded callback answers.
func (c *Context) Responses() []*tele.CallbackResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*tele.CallbackResponse(nil), c.responses...)
}
