package domain

import (
	"encoding/json"
	"fmt"
)

// CommandType tags a client-directed command.
type CommandType string

const (
	CommandSetHTML     CommandType = "setHtml"
	CommandSetHash     CommandType = "setHash"
	CommandShowMessage CommandType = "showMessage"
)

// Command is one instruction the client applies to its view.
// Commands in a response are applied in order.
type Command struct {
	Type CommandType
	HTML string
	Hash string
	Text string
}

// SetHTML replaces the grid markup.
func SetHTML(markup string) Command {
	return Command{Type: CommandSetHTML, HTML: markup}
}

// SetHash stores a new status hash on the client, which then re-requests
// the grid.
func SetHash(hash string) Command {
	return Command{Type: CommandSetHash, Hash: hash}
}

// ShowMessage displays a user-facing message.
func ShowMessage(text string) Command {
	return Command{Type: CommandShowMessage, Text: text}
}

type setHTMLWire struct {
	Type CommandType `json:"type"`
	HTML string      `json:"html"`
}

type setHashWire struct {
	Type CommandType `json:"type"`
	Hash string      `json:"hash"`
}

type showMessageWire struct {
	Type CommandType `json:"type"`
	Text string      `json:"text"`
}

// MarshalJSON emits only the payload field of the command's shape.
func (c Command) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case CommandSetHTML:
		return json.Marshal(setHTMLWire{c.Type, c.HTML})
	case CommandSetHash:
		return json.Marshal(setHashWire{c.Type, c.Hash})
	case CommandShowMessage:
		return json.Marshal(showMessageWire{c.Type, c.Text})
	}
	return nil, fmt.Errorf("unknown command type %q", c.Type)
}

// UnmarshalJSON accepts any of the three wire shapes.
func (c *Command) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type CommandType `json:"type"`
		HTML string      `json:"html"`
		Hash string      `json:"hash"`
		Text string      `json:"text"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Type {
	case CommandSetHTML, CommandSetHash, CommandShowMessage:
	default:
		return fmt.Errorf("unknown command type %q", wire.Type)
	}
	*c = Command{Type: wire.Type, HTML: wire.HTML, Hash: wire.Hash, Text: wire.Text}
	return nil
}
