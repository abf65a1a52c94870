// Package app is the coordination core: it reconciles asynchronous arrivals
// from discovery, chat, DHT lookups, direct messaging, trade negotiation, and
// file transfer into one consistent view of peers and trades, and turns local
// input lines into outbound protocol operations.
//
// All state in here is owned by the single event-loop goroutine (see Run);
// nothing is locked because nothing is shared.
package app

import (
	"strings"

	"github.com/cosmqc/swapbytes/internal/directory"
	"github.com/cosmqc/swapbytes/internal/query"
	"github.com/cosmqc/swapbytes/internal/store"
	"github.com/cosmqc/swapbytes/internal/trade"
	"github.com/cosmqc/swapbytes/internal/ui"
	"github.com/cosmqc/swapbytes/internal/wire"
)

// App aggregates the chat state: who is who, what trade state we are in with
// whom, and which lookups are still in flight.
type App struct {
	net     Network
	printer *ui.Printer

	nickname  string
	outputDir string

	directory *directory.Directory
	ledger    *trade.Ledger
	tracker   *query.Tracker
	store     *store.Store

	lines  <-chan string
	events <-chan Event
}

// New assembles the application around an established network layer.
func New(net Network, printer *ui.Printer, outputDir string, lines <-chan string, events <-chan Event) *App {
	return &App{
		net:       net,
		printer:   printer,
		outputDir: outputDir,
		directory: directory.New(),
		ledger:    trade.NewLedger(),
		tracker:   query.New(),
		store:     store.New(),
		lines:     lines,
		events:    events,
	}
}

// idSuffixLen is how many trailing characters of the peer id are appended to
// a chosen nickname to keep display names unique under collision.
const idSuffixLen = 5

// SetNickname derives the unique display nickname from the chosen name,
// records it, publishes the peer:: records, and pushes the update to every
// connected peer.
func (a *App) SetNickname(name string) {
	localID := a.net.LocalID()
	suffix := localID
	if len(suffix) > idSuffixLen {
		suffix = suffix[len(suffix)-idSuffixLen:]
	}
	a.nickname = name + "." + suffix
	a.directory.Set(localID, a.nickname)

	info := wire.PeerInfo{PeerID: localID, Nickname: a.nickname}
	data, err := wire.Encode(info)
	if err != nil {
		a.printer.Printf("Error serializing peer info: %v", err)
		return
	}
	// Publish under both the identity and the nickname so either resolves.
	a.net.PutRecord(wire.PeerKey(localID), data)
	a.net.PutRecord(wire.PeerKey(a.nickname), data)

	update := wire.NicknameUpdate{PeerID: localID, Nickname: a.nickname}
	for _, peerID := range a.net.ConnectedPeers() {
		a.net.SendNicknameUpdate(peerID, update)
	}

	a.printer.Printf("Nickname set to '%s'", a.nickname)
}

// Nickname returns the current display nickname.
func (a *App) Nickname() string {
	return a.nickname
}

// promptNickname asks on the console until a non-blank nickname is entered.
// It consumes lines from the same input channel as the main loop, so it can
// only run from the loop goroutine.
func (a *App) promptNickname() bool {
	for {
		a.printer.Prompt("Enter a nickname: ")
		line, ok := <-a.lines
		if !ok {
			return false
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			a.SetNickname(trimmed)
			return true
		}
		a.printer.Printf("Nickname cannot be empty. Please enter a valid nickname.")
	}
}
