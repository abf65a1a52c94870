// Package node owns the libp2p plumbing: host construction, the Kademlia
// DHT, the gossipsub chat topic, mDNS discovery, and the four request/
// response stream protocols. Everything asynchronous funnels into a single
// event channel consumed by the app's loop; node methods never call back
// into app state.
package node

import (
	"context"
	"fmt"
	"sync"
	"time"

	ds "github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/routing"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	"github.com/multiformats/go-multiaddr"

	"github.com/cosmqc/swapbytes/internal/app"
	"github.com/cosmqc/swapbytes/internal/config"
	"github.com/cosmqc/swapbytes/internal/ui"
	"github.com/cosmqc/swapbytes/internal/wire"
)

// mdnsServiceName tags local-network discovery so unrelated libp2p apps
// don't show up as peers.
const mdnsServiceName = "swapbytes"

const (
	lookupTimeout  = 30 * time.Second
	publishTimeout = 30 * time.Second
)

// Node is the network layer behind the app.Network interface.
type Node struct {
	ctx     context.Context
	host    host.Host
	dht     *dht.IpfsDHT
	pubsub  *pubsub.PubSub
	topic   *pubsub.Topic
	sub     *pubsub.Subscription
	mdns    mdns.Service
	printer *ui.Printer

	events chan<- app.Event

	bootstrapAddr *peer.AddrInfo
	bootstrapped  sync.Once

	mu         sync.Mutex
	discovered map[peer.ID][]multiaddr.Multiaddr
}

// discoveryNotifee surfaces mDNS discoveries as PeerFound events.
type discoveryNotifee struct {
	n *Node
}

func (d *discoveryNotifee) HandlePeerFound(pi peer.AddrInfo) {
	if pi.ID == d.n.host.ID() {
		return
	}
	d.n.mu.Lock()
	d.n.discovered[pi.ID] = pi.Addrs
	d.n.mu.Unlock()
	d.n.emit(app.PeerFound{PeerID: pi.ID.String()})
}

// New builds the host and all protocol machinery. Failures here are the only
// fatal errors in the process.
func New(ctx context.Context, cfg *config.Config, events chan<- app.Event, printer *ui.Printer) (*Node, error) {
	n := &Node{
		ctx:        ctx,
		printer:    printer,
		events:     events,
		discovered: make(map[peer.ID][]multiaddr.Multiaddr),
	}

	if cfg.Node.Bootstrap != "" {
		addr, err := multiaddr.NewMultiaddr(cfg.Node.Bootstrap)
		if err != nil {
			return nil, fmt.Errorf("invalid bootstrap address: %w", err)
		}
		info, err := peer.AddrInfoFromP2pAddr(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid bootstrap address: %w", err)
		}
		n.bootstrapAddr = info
	}

	// The DHT keeps its records in a plain in-memory datastore; nothing
	// survives a restart by design.
	dstore := dssync.MutexWrap(ds.NewMapDatastore())

	var kdht *dht.IpfsDHT
	h, err := libp2p.New(
		libp2p.ListenAddrStrings(
			fmt.Sprintf("/ip4/0.0.0.0/tcp/%d", cfg.Node.ListenPort),
			fmt.Sprintf("/ip4/0.0.0.0/udp/%d/quic-v1", cfg.Node.ListenPort),
		),
		libp2p.Routing(func(h host.Host) (routing.PeerRouting, error) {
			var err error
			kdht, err = dht.New(ctx, h,
				dht.Mode(dht.ModeServer),
				dht.Datastore(dstore),
				dht.ProtocolPrefix("/"+wire.DHTNamespace),
				dht.NamespacedValidator(wire.DHTNamespace, recordValidator{}),
			)
			return kdht, err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create host: %w", err)
	}
	n.host = h
	n.dht = kdht

	ps, err := pubsub.NewGossipSub(ctx, h)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to create pubsub: %w", err)
	}
	n.pubsub = ps

	topic, err := ps.Join(cfg.Chat.Topic)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("failed to join chat topic: %w", err)
	}
	sub, err := topic.Subscribe()
	if err != nil {
		topic.Close()
		h.Close()
		return nil, fmt.Errorf("failed to subscribe to chat topic: %w", err)
	}
	n.topic = topic
	n.sub = sub
	go n.readFromTopic()

	mdnsService := mdns.NewMdnsService(h, mdnsServiceName, &discoveryNotifee{n: n})
	if err := mdnsService.Start(); err != nil {
		sub.Cancel()
		topic.Close()
		h.Close()
		return nil, fmt.Errorf("failed to start mDNS: %w", err)
	}
	n.mdns = mdnsService

	// Go's mDNS service reports discoveries only; disconnects stand in for
	// peer-expired events.
	h.Network().Notify(&network.NotifyBundle{
		DisconnectedF: func(_ network.Network, c network.Conn) {
			remote := c.RemotePeer()
			if h.Network().Connectedness(remote) == network.Connected {
				return
			}
			go n.emit(app.PeerLost{PeerID: remote.String()})
		},
	})

	n.registerStreamHandlers()

	if n.bootstrapAddr != nil {
		go n.dialBootstrap()
	}
	if err := kdht.Bootstrap(ctx); err != nil {
		printer.Verbosef(1, "DHT bootstrap warning: %v", err)
	}
	go n.awaitRefresh()

	printer.Printf("Peer ID: %s", h.ID())
	for _, addr := range h.Addrs() {
		printer.Verbosef(1, "Listening on %s", addr)
	}

	return n, nil
}

// emit hands an event to the loop, giving up if the process is shutting down.
func (n *Node) emit(ev app.Event) {
	select {
	case n.events <- ev:
	case <-n.ctx.Done():
	}
}

func (n *Node) dialBootstrap() {
	if err := n.host.Connect(n.ctx, *n.bootstrapAddr); err != nil {
		n.printer.Verbosef(1, "Bootstrap dial failed: %v", err)
	}
}

// awaitRefresh emits BootstrapDone the first time the routing table refresh
// completes cleanly. Later refreshes (Discover) reuse the same gate, so the
// nickname push happens exactly once.
func (n *Node) awaitRefresh() {
	if err := <-n.dht.RefreshRoutingTable(); err != nil {
		n.printer.Verbosef(2, "Routing table refresh: %v", err)
		return
	}
	n.bootstrapped.Do(func() {
		n.emit(app.BootstrapDone{})
	})
}

func (n *Node) readFromTopic() {
	for {
		msg, err := n.sub.Next(n.ctx)
		if err != nil {
			if n.ctx.Err() == nil {
				n.printer.Verbosef(1, "Error reading from chat topic: %v", err)
			}
			return
		}
		from := msg.GetFrom()
		if from == n.host.ID() {
			continue
		}
		n.emit(app.ChatMessage{From: from.String(), Data: msg.Data})
	}
}

// Close tears the network layer down in dependency order.
func (n *Node) Close() error {
	if n.mdns != nil {
		_ = n.mdns.Close()
	}
	if n.sub != nil {
		n.sub.Cancel()
	}
	if n.topic != nil {
		_ = n.topic.Close()
	}
	if n.dht != nil {
		_ = n.dht.Close()
	}
	return n.host.Close()
}
