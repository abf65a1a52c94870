package app

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cosmqc/swapbytes/internal/trade"
	"github.com/cosmqc/swapbytes/internal/wire"
)

const commandPrefix = "/"

const helpText = `Commands:
  /nick [name]                        set your nickname (prompts when omitted)
  /upload <path> [description]        share a file's metadata with the network
  /list_files                         list files uploaded by connected peers
  /get_file_metadata <hash>           fetch one file's metadata from the DHT
  /trade <nick> <offered> <requested> offer one of your files for theirs
  /trade_accept <nick>                accept an incoming trade
  /trade_decline <nick>               decline an incoming trade
  /dm <nick> <message>                message a peer you have an open trade with
  /list_peers                         list connected peers
  /help                               show this text
Anything not starting with '` + commandPrefix + `' is sent to the chat.`

// HandleInput parses one line of local input, validates its preconditions
// against the ledger and directory, and issues the outbound operation. User
// errors are reported on the console and never fatal.
func (a *App) HandleInput(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}

	if !strings.HasPrefix(line, commandPrefix) {
		a.net.PublishChat(wire.ChatPayload{Message: line})
		return
	}

	args := splitArgs(line[len(commandPrefix):])
	if len(args) == 0 {
		a.printer.Printf("No command given")
		return
	}

	switch strings.ToLower(args[0]) {
	case "help":
		a.printer.Printf("%s", helpText)
	case "nick":
		a.cmdNick(args)
	case "upload":
		a.cmdUpload(args)
	case "list_files":
		a.cmdListFiles()
	case "get_file_metadata":
		a.cmdGetFileMetadata(args)
	case "dm":
		a.cmdDirectMessage(args)
	case "trade":
		a.cmdTrade(args)
	case "trade_accept":
		a.cmdTradeAccept(args)
	case "trade_decline":
		a.cmdTradeDecline(args)
	case "list_peers":
		a.cmdListPeers()
	default:
		a.printer.Printf("Command not recognized: %s", args[0])
	}
}

func (a *App) cmdNick(args []string) {
	if len(args) > 2 {
		a.printer.Printf("Invalid number of arguments. Correct usage: /nick <nickname>. Use quotes if your nickname has multiple words.")
		return
	}
	if len(args) < 2 || strings.TrimSpace(args[1]) == "" {
		a.promptNickname()
		return
	}
	a.SetNickname(strings.TrimSpace(args[1]))
}

func (a *App) cmdUpload(args []string) {
	if len(args) < 2 || len(args) > 3 {
		a.printer.Printf("Usage: /upload <path_to_file> <description?>")
		return
	}

	path := args[1]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			a.printer.Printf("File not found: %s", path)
		} else {
			a.printer.Printf("Failed to read file: %v", err)
		}
		return
	}

	description := ""
	if len(args) == 3 {
		description = args[2]
	}

	filename := filepath.Base(path)
	hash := a.store.Add(data, filename, a.net.LocalID(), description)

	// Publish the metadata and the refreshed index. Either write may fail in
	// the DHT without affecting the local store.
	metadata, _ := a.store.Metadata(hash)
	encoded, err := wire.Encode(metadata)
	if err != nil {
		a.printer.Printf("Error serializing metadata: %v", err)
		return
	}
	a.net.PutRecord(wire.FileKey(hash), encoded)

	index, err := wire.Encode(a.store.AllHashes())
	if err != nil {
		a.printer.Printf("Error serializing file index: %v", err)
		return
	}
	a.net.PutRecord(wire.FileIndexKey(a.net.LocalID()), index)

	a.printer.Printf("Uploaded and shared metadata for file: %s", filename)
	a.printer.Printf("\thash: %s", hash)
}

func (a *App) cmdListFiles() {
	peers := a.net.ConnectedPeers()
	if len(peers) == 0 {
		a.printer.Printf("No connected peers")
		return
	}
	for _, peerID := range peers {
		queryID := a.net.GetRecord(wire.FileIndexKey(peerID))
		a.tracker.TrackDedup(queryID)
	}
}

func (a *App) cmdGetFileMetadata(args []string) {
	if len(args) < 2 || args[1] == "" {
		a.printer.Printf("Usage: /get_file_metadata <file_hash>")
		return
	}
	queryID := a.net.GetRecord(wire.FileKey(args[1]))
	a.tracker.TrackDedup(queryID)
}

func (a *App) cmdDirectMessage(args []string) {
	if len(args) < 3 {
		a.printer.Printf("Usage: /dm <nickname> <message>")
		return
	}

	peerID, ok := a.directory.Identity(args[1])
	if !ok {
		a.printer.Printf("Unknown nickname: %s", args[1])
		return
	}
	if !a.ledger.HasOpen(peerID) {
		a.printer.Printf("You can only DM peers you have an open trade with")
		return
	}

	message := strings.Join(args[2:], " ")
	a.net.SendDirectMessage(peerID, wire.DirectMessage{
		SenderNickname: a.nickname,
		Message:        message,
	})
}

func (a *App) cmdTrade(args []string) {
	if len(args) != 4 {
		a.printer.Printf("Usage: /trade <nickname> <offered_hash> <requested_hash>")
		return
	}

	peerID, ok := a.directory.Identity(args[1])
	if !ok {
		a.printer.Printf("Unknown nickname: %s", args[1])
		return
	}

	offeredHash, requestedHash := args[2], args[3]
	offered, ok := a.store.Metadata(offeredHash)
	if !ok {
		a.printer.Printf("You don't own a file with hash %s. Upload it first.", offeredHash)
		return
	}

	proposal := wire.TradeProposal{
		RequestedHash: requestedHash,
		OfferedFile:   offered,
		Nickname:      a.nickname,
	}
	if err := a.ledger.ProposeOutgoing(peerID, proposal); err != nil {
		a.printer.Printf("Cannot open trade with %s: %v", args[1], err)
		return
	}

	a.net.SendTradeRequest(peerID, proposal)
	a.printer.Printf("Trade request sent to %s", args[1])
}

func (a *App) cmdTradeAccept(args []string) {
	if len(args) != 2 {
		a.printer.Printf("Usage: /trade_accept <nickname>")
		return
	}

	peerID, ok := a.directory.Identity(args[1])
	if !ok {
		a.printer.Printf("Unknown nickname: %s", args[1])
		return
	}

	// The acceptor hands over the file the proposer requested; check it is
	// still present before tearing the slot down.
	proposal, ok := a.ledger.Incoming(peerID)
	if !ok {
		a.printer.Printf("Cannot accept: %v", trade.ErrNoIncomingTrade)
		return
	}
	data, ok := a.store.Bytes(proposal.RequestedHash)
	if !ok {
		a.printer.Printf("Cannot accept: requested file %s is no longer in your store", proposal.RequestedHash)
		return
	}

	proposal, err := a.ledger.Accept(peerID)
	if err != nil {
		a.printer.Printf("Cannot accept: %v", err)
		return
	}

	metadata, _ := a.store.Metadata(proposal.RequestedHash)
	a.net.SendFileTransfer(peerID, &wire.FileResponse{File: data, Metadata: metadata})
	a.printer.Printf("Trade accepted, sending '%s' to %s", metadata.Filename, args[1])
}

func (a *App) cmdTradeDecline(args []string) {
	if len(args) != 2 {
		a.printer.Printf("Usage: /trade_decline <nickname>")
		return
	}

	peerID, ok := a.directory.Identity(args[1])
	if !ok {
		a.printer.Printf("Unknown nickname: %s", args[1])
		return
	}
	if err := a.ledger.Decline(peerID); err != nil {
		a.printer.Printf("Cannot decline: %v", err)
		return
	}

	// An empty file-transfer request is the decline signal.
	a.net.SendFileTransfer(peerID, nil)
	a.printer.Printf("Trade with %s declined", args[1])
}

func (a *App) cmdListPeers() {
	peers := a.net.ConnectedPeers()
	if len(peers) == 0 {
		a.printer.Printf("No connected peers")
		return
	}
	for _, peerID := range peers {
		a.printer.Printf("\t%s", a.directory.Nickname(peerID))
	}
}

// argPattern captures double-quoted segments whole, without the quotes, so
// multi-word nicknames and messages survive tokenization.
var argPattern = regexp.MustCompile(`"([^"]*)"|\S+`)

func splitArgs(input string) []string {
	matches := argPattern.FindAllStringSubmatch(input, -1)
	args := make([]string, 0, len(matches))
	for _, match := range matches {
		// Only a fully quoted token surrenders its quotes; an unclosed quote
		// is kept raw.
		if match[0] == `"`+match[1]+`"` {
			args = append(args, match[1])
		} else {
			args = append(args, match[0])
		}
	}
	return args
}
