package hiven

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Snowflake is a Hiven object ID.
//
// The server sends IDs as JSON strings; numbers are accepted too. IDs are
// always encoded back as strings.
type Snowflake uint64

func (s Snowflake) String() string {
	return strconv.FormatUint(uint64(s), 10)
}

// MarshalJSON encodes the ID as a JSON string.
func (s Snowflake) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.String())), nil
}

// UnmarshalJSON accepts a quoted or bare unsigned integer. null and "" decode to 0.
func (s *Snowflake) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}

	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		var err error
		if raw, err = strconv.Unquote(raw); err != nil {
			return fmt.Errorf("invalid snowflake %s: %w", data, err)
		}
		if raw == "" {
			*s = 0
			return nil
		}
	}

	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid snowflake %s: %w", data, err)
	}
	*s = Snowflake(v)
	return nil
}

// User is a Hiven account.
type User struct {
	ID       Snowflake `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Icon     string    `json:"icon,omitempty"`
	Bot      bool      `json:"bot,omitempty"`
}

// Room is a channel inside a house, or a private room when HouseID is zero.
type Room struct {
	ID      Snowflake `json:"id"`
	HouseID Snowflake `json:"house_id,omitempty"`
	Name    string    `json:"name"`
	Type    int       `json:"type"`
}

// House is a guild-like container of rooms.
type House struct {
	ID      Snowflake `json:"id"`
	Name    string    `json:"name"`
	OwnerID Snowflake `json:"owner_id"`
	Icon    string    `json:"icon,omitempty"`
	Rooms   []Room    `json:"rooms,omitempty"`
	Members []User    `json:"members,omitempty"`
}

// InitState is the first event delivered after login.
type InitState struct {
	User         User                       `json:"user"`
	PrivateRooms []Room                     `json:"private_rooms,omitempty"`
	HouseIDs     []Snowflake                `json:"house_memberships,omitempty"`
	Settings     map[string]json.RawMessage `json:"settings,omitempty"`
}

// TypingStart is sent when a user starts typing in a room.
type TypingStart struct {
	AuthorID  Snowflake `json:"author_id"`
	RoomID    Snowflake `json:"room_id"`
	HouseID   Snowflake `json:"house_id,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// Message is a message posted in a room.
type Message struct {
	ID        Snowflake `json:"id"`
	RoomID    Snowflake `json:"room_id"`
	HouseID   Snowflake `json:"house_id,omitempty"`
	AuthorID  Snowflake `json:"author_id"`
	Author    *User     `json:"author,omitempty"`
	Content   string    `json:"content"`
	Timestamp int64     `json:"timestamp"`
}
