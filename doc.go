// Package hiven is a client library for the Hiven chat service.
//
// The service has two boundaries: a REST API for actions such as sending a
// message, and a WebSocket gateway that streams events to the client. This
// package holds the shared contracts; package client connects to both.
//
// # Quick Start
//
//	import (
//	    "github.com/luciancaetano/hiven"
//	    "github.com/luciancaetano/hiven/client"
//	)
//
//	type bot struct {
//	    hiven.NopHandler
//	}
//
//	func (bot) OnMessage(ctx context.Context, rest hiven.REST, msg *hiven.Message) {
//	    if msg.Content == "!ping" {
//	        rest.SendMessage(ctx, msg.RoomID, "pong")
//	    }
//	}
//
//	c := client.New(token)
//	err := c.Start(ctx, bot{})
//
// # Gateway Session
//
// A session owns one socket. The server opens with a Hello frame announcing the
// heartbeat interval; the client answers with a single Login frame carrying the
// token and then sends a Heartbeat frame every interval. After that the server
// only sends Event frames, which are delivered to the EventHandler.
//
// Frames are JSON text messages of the form:
//
//	{"op": <opcode>, "d": <payload>}
//
// with opcodes 0 (Event), 1 (Hello), 2 (Login) and 3 (Heartbeat). Event payloads
// are {"event": <tag>, "data": <object>} with the tags INIT_STATE, HOUSE_JOIN,
// TYPING_START and MESSAGE_CREATE. Frames with other opcodes or tags are dropped.
//
// # Event Delivery
//
// Handler methods run one at a time, in the order the server sent the events.
// A slow handler delays the next event and eventually stops the session from
// reading the socket; events are never dropped to make room. Heartbeats wait
// for the socket too, so handlers should not block for longer than the
// heartbeat interval.
//
// # Termination
//
// Start returns when the session ends:
//
//   - nil when the session shut down cleanly
//   - ctx.Err() when the context was cancelled
//   - *SocketCloseError when the server closed the socket
//   - *ExpectationFailedError when the server broke the protocol, sent a
//     binary message, or dropped the connection without a close frame
//
// Sessions are not resumed: call Start again to reconnect.
package hiven
