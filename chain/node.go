// Package chain runs one chain instance: it binds the role's services to
// the transport inbox and dispatches every delivered envelope to exactly one
// handler. Handlers execute strictly one at a time, so each one sees the
// state left behind by its predecessor's commit.
package chain

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"chainjack/config"
	"chainjack/models"
	"chainjack/service"
	"chainjack/transport"
)

// Node is one running chain. Which service fields are set depends on the
// configured role; a message arriving at a chain whose role does not handle
// it is rejected.
type Node struct {
	cfg       *config.Config
	transport transport.Transport

	user     service.UserService
	ledger   service.LedgerService
	registry service.RegistryService
	table    service.TableService
	master   service.MasterService
}

// NewNode wires a node for the configured role. The ledger service is
// always present: any chain can receive tokens.
func NewNode(cfg *config.Config, tp transport.Transport, uowFactory service.UnitOfWorkFactory) *Node {
	n := &Node{
		cfg:       cfg,
		transport: tp,
		ledger:    service.NewLedgerService(uowFactory, cfg),
	}
	switch cfg.Role {
	case config.RoleUser:
		n.user = service.NewUserService(uowFactory, cfg)
	case config.RolePublic:
		n.registry = service.NewRegistryService(uowFactory, cfg)
	case config.RolePlay:
		n.table = service.NewTableService(uowFactory, cfg)
	case config.RoleMaster:
		n.master = service.NewMasterService(uowFactory, cfg, n.ledger)
	}
	return n
}

// User returns the user-facing service, or nil for other roles.
func (n *Node) User() service.UserService { return n.user }

// Master returns the master admin service, or nil for other roles.
func (n *Node) Master() service.MasterService { return n.master }

// Ledger returns the token protocol service.
func (n *Node) Ledger() service.LedgerService { return n.ledger }

// Start subscribes the node to its inbox and begins processing envelopes
// in the background, one at a time, until the context is cancelled.
func (n *Node) Start(ctx context.Context) error {
	log.WithFields(log.Fields{
		"chain": n.cfg.ChainID,
		"role":  n.cfg.Role,
	}).Info("Chain node starting")
	return n.transport.Start(ctx, n.Handle)
}

// Handle processes one inbox envelope. Exposed so transports and
// deterministic test drivers can drive the node directly.
func (n *Node) Handle(ctx context.Context, env transport.Envelope) error {
	switch env.Kind {
	case transport.KindMessage:
		msg, err := transport.DecodeMessage(env)
		if err != nil {
			return fmt.Errorf("failed to decode message: %w", err)
		}
		return n.handleMessage(ctx, env.From, msg)

	case transport.KindEvent:
		if n.user == nil {
			return fmt.Errorf("chain %s does not consume event streams", n.cfg.ChainID)
		}
		event, err := transport.DecodeEvent(env)
		if err != nil {
			return fmt.Errorf("failed to decode event: %w", err)
		}
		return n.user.HandleGameState(ctx, env.From, event)

	default:
		return fmt.Errorf("unexpected envelope kind %q", env.Kind)
	}
}

func (n *Node) handleMessage(ctx context.Context, from models.ChainID, msg models.Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	switch msg.Kind {
	// Ledger protocol, any role.
	case models.MsgReceivedToken:
		return n.ledger.HandleReceivedToken(ctx, from, *msg.ReceivedToken)
	case models.MsgTokenPot:
		return n.ledger.HandleTokenPot(ctx, from, *msg.TokenPot)
	case models.MsgDebtNotif:
		return n.ledger.HandleDebtNotif(ctx, from, *msg.DebtNotif)
	case models.MsgDebtPaid:
		return n.ledger.HandleDebtPaid(ctx, from, *msg.DebtPaid)

	// Public chain registry protocol.
	case models.MsgAddPlayChain:
		if n.registry == nil {
			return n.wrongRole(msg.Kind)
		}
		return n.registry.HandleAddPlayChain(ctx, from, *msg.AddPlayChain)
	case models.MsgUpdatePlayChain:
		if n.registry == nil {
			return n.wrongRole(msg.Kind)
		}
		return n.registry.HandleUpdatePlayChain(ctx, from, *msg.UpdatePlayChain)
	case models.MsgFindPlayChain:
		if n.registry == nil {
			return n.wrongRole(msg.Kind)
		}
		return n.registry.HandleFindPlayChain(ctx, from)

	// Play chain table protocol.
	case models.MsgRequestTableSeat:
		if n.table == nil {
			return n.wrongRole(msg.Kind)
		}
		return n.table.HandleSeatRequest(ctx, from, *msg.RequestTableSeat)
	case models.MsgSubscribe:
		if n.table == nil {
			return n.wrongRole(msg.Kind)
		}
		return n.table.HandleSubscribe(ctx, from)
	case models.MsgUnsubscribe:
		if n.table == nil {
			return n.wrongRole(msg.Kind)
		}
		return n.table.HandleUnsubscribe(ctx, from)

	// User chain replies.
	case models.MsgFindPlayChainResult:
		if n.user == nil {
			return n.wrongRole(msg.Kind)
		}
		return n.user.HandleFindPlayChainResult(ctx, from, *msg.FindPlayChainResult)
	case models.MsgRequestTableSeatResult:
		if n.user == nil {
			return n.wrongRole(msg.Kind)
		}
		return n.user.HandleRequestTableSeatResult(ctx, from, *msg.RequestTableSeatResult)

	default:
		return fmt.Errorf("unexpected message kind %q", msg.Kind)
	}
}

func (n *Node) wrongRole(kind models.MessageKind) error {
	return fmt.Errorf("chain %s (role %s) does not handle %s", n.cfg.ChainID, n.cfg.Role, kind)
}
