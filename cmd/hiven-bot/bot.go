package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/fatih/color"

	"github.com/luciancaetano/hiven"
)

// bot prints events to out and replies "pong" to <prefix>ping.
type bot struct {
	hiven.NopHandler

	self   hiven.Snowflake
	prefix string
	out    io.Writer
	logger *slog.Logger

	room   *color.Color
	author *color.Color
	notice *color.Color
}

func newBot(self hiven.Snowflake, prefix string, out io.Writer, logger *slog.Logger) *bot {
	return &bot{
		self:   self,
		prefix: prefix,
		out:    out,
		logger: logger,
		room:   color.New(color.FgCyan),
		author: color.New(color.FgYellow, color.Bold),
		notice: color.New(color.FgGreen),
	}
}

func (b *bot) OnConnect(ctx context.Context, rest hiven.REST, state *hiven.InitState) {
	b.notice.Fprintf(b.out, "connected as %s (%d houses)\n", state.User.Username, len(state.HouseIDs))
}

func (b *bot) OnHouseJoin(ctx context.Context, rest hiven.REST, house *hiven.House) {
	b.notice.Fprintf(b.out, "house %s: %d rooms\n", house.Name, len(house.Rooms))
}

func (b *bot) OnTyping(ctx context.Context, rest hiven.REST, typing *hiven.TypingStart) {
	b.logger.Debug("typing", "author_id", typing.AuthorID, "room_id", typing.RoomID)
}

func (b *bot) OnMessage(ctx context.Context, rest hiven.REST, msg *hiven.Message) {
	fmt.Fprintf(b.out, "%s %s: %s\n",
		b.room.Sprintf("[%s]", msg.RoomID),
		b.author.Sprint(authorName(msg)),
		msg.Content)

	if msg.AuthorID == b.self {
		return
	}
	if strings.TrimSpace(msg.Content) != b.prefix+"ping" {
		return
	}
	if err := rest.SendMessage(ctx, msg.RoomID, "pong"); err != nil {
		b.logger.Error("failed to reply", "room_id", msg.RoomID, "error", err)
	}
}

func authorName(msg *hiven.Message) string {
	if msg.Author != nil && msg.Author.Username != "" {
		return msg.Author.Username
	}
	return msg.AuthorID.String()
}
