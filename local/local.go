// Package local links a runtime into the engine's own process.
//
// The returned Connection is the lifecycle-checked server.Server itself:
// calls go straight to the application with no encoding step, but still
// pass through the same ordering guard and capability gating a remote
// runtime gets.
package local

import (
	"io"

	"github.com/blockberries/ledgerkit"
	"github.com/blockberries/ledgerkit/server"
)

var _ ledgerkit.Connection = (*Connection)(nil)

// Connection is an in-process ledgerkit.Connection.
type Connection struct {
	*server.Server
	app ledgerkit.Lifecycle
}

// NewConnection wraps app. opts configure the underlying server.
func NewConnection(app ledgerkit.Lifecycle, opts ...server.Option) *Connection {
	return &Connection{Server: server.New(app, opts...), app: app}
}

// Close releases the application if it holds resources.
func (c *Connection) Close() error {
	if closer, ok := c.app.(io.Closer); ok {
		return closer.Close()
	}
	return c.Server.Close()
}
