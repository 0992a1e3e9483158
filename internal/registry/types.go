package registry

import "github.com/lgulliver/cargolifter/pkg/types"

// Command is a unit of work for the command service
type Command interface {
	kind() string
	crate() (name, vers string)
	reply(ok bool)
}

// PublishCommand runs the publish saga
type PublishCommand struct {
	Token   string
	Request *types.PublishRequest
	Reply   chan bool
}

// YankCommand runs the yank saga
type YankCommand struct {
	Token   string
	Request *types.YankRequest
	Reply   chan bool
}

// IsVersionPublishedCommand checks whether a version is in the index
type IsVersionPublishedCommand struct {
	Token string
	Name  string
	Vers  string
	Reply chan bool
}

func (c *PublishCommand) kind() string { return "publish" }
func (c *PublishCommand) crate() (string, string) {
	return c.Request.Meta.Name, c.Request.Meta.Vers
}
func (c *PublishCommand) reply(ok bool) { send(c.Reply, ok) }

func (c *YankCommand) kind() string {
	if c.Request.Yank {
		return "yank"
	}
	return "unyank"
}
func (c *YankCommand) crate() (string, string) { return c.Request.Name, c.Request.Vers }
func (c *YankCommand) reply(ok bool)           { send(c.Reply, ok) }

func (c *IsVersionPublishedCommand) kind() string            { return "is_version_published" }
func (c *IsVersionPublishedCommand) crate() (string, string) { return c.Name, c.Vers }
func (c *IsVersionPublishedCommand) reply(ok bool)           { send(c.Reply, ok) }

// send never blocks: reply channels are buffered and written once
func send(ch chan bool, ok bool) {
	if ch == nil {
		return
	}
	select {
	case ch <- ok:
	default:
	}
}
