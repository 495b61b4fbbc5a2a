package hiven

import "context"

// EventHandler receives the events streamed by the gateway.
//
// Each method is called from the session's dispatcher goroutine and must return
// before the next event is delivered, so events are always observed in the order
// the server sent them. Handlers that need parallelism must fan out internally.
//
// Embed NopHandler to override only the events you care about:
//
//	type bot struct {
//	    hiven.NopHandler
//	}
//
//	func (b *bot) OnMessage(ctx context.Context, rest hiven.REST, msg *hiven.Message) {
//	    if msg.Content == "!ping" {
//	        rest.SendMessage(ctx, msg.RoomID, "pong")
//	    }
//	}
type EventHandler interface {
	// OnConnect is called once with the INIT_STATE event that follows a successful login.
	OnConnect(ctx context.Context, rest REST, state *InitState)

	// OnHouseJoin is called for every HOUSE_JOIN event, including the ones the
	// server replays for houses the user already belongs to.
	OnHouseJoin(ctx context.Context, rest REST, house *House)

	// OnTyping is called for every TYPING_START event.
	OnTyping(ctx context.Context, rest REST, typing *TypingStart)

	// OnMessage is called for every MESSAGE_CREATE event.
	OnMessage(ctx context.Context, rest REST, msg *Message)
}

// REST is the request surface handed to event handlers.
//
// It is the same client that owns the gateway session, restricted to its REST
// operations. Calls use their own HTTP transport and never touch the gateway.
type REST interface {
	// SendMessage posts content to the given room.
	//
	// Returns an *APIError if the server answers with a non-2xx status.
	SendMessage(ctx context.Context, roomID Snowflake, content string) error

	// CurrentUser returns the user the token belongs to.
	CurrentUser(ctx context.Context) (*User, error)
}

// NopHandler implements EventHandler with no-op methods.
type NopHandler struct{}

func (NopHandler) OnConnect(context.Context, REST, *InitState) {}
func (NopHandler) OnHouseJoin(context.Context, REST, *House) {}
func (NopHandler) OnTyping(context.Context, REST, *TypingStart) {}
func (NopHandler) OnMessage(context.Context, REST, *Message) {}

var _ EventHandler = NopHandler{}
