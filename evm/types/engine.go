package types

import (
	"context"
	"math/big"
)

// Engine is the message execution engine the harness drives.
//
// ExecuteMessage blocks until the message is applied or rejected. When it
// returns an error the message was not applied: engine state is unchanged and
// the sender's sequence number is not consumed. When it returns a receipt the
// message was applied, whatever its exit code.
type Engine interface {
	// CreateAccount installs a funded account with a zero sequence number and
	// returns the handle the engine bound to the address.
	CreateAccount(ctx context.Context, addr Address, balance *big.Int) (ActorID, error)

	// ExecuteMessage applies a message
	ExecuteMessage(ctx context.Context, msg *Message) (*Receipt, error)
}

// EngineFactory constructs a freshly initialized engine
type EngineFactory func() (Engine, error)
