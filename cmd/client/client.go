package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strings"

	agoraNet "agora/internal/net"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
)

func main() {
	// 1. CLI Parameter Parsing
	serverAddr := flag.String("server", "127.0.0.1:9001", "Address of the auction server")
	roomID := flag.String("room", "", "Room to join (empty opens a new room)")
	user := flag.String("user", "", "Username (default: a random one)")
	op := flag.String("op", "register", "Operation: ['register', 'leave', 'configure', 'bid', 'ask', 'cancel', 'update_offer', 'close', 'status']")

	// Order Parameters
	price := flag.String("price", "", "Bid, ask or offer price")
	qty := flag.String("qty", "", "Order quantity (double auction)")
	kind := flag.String("kind", "", "Order kind: ['limit', 'fill_and_kill', 'market', 'immediate_or_cancel', 'post_only']")
	orderID := flag.String("id", "", "Order id to cancel")

	// Configure Parameters
	roomType := flag.String("room-type", "", "Auction kind: ['dutch', 'english', 'fpsb', 'spsb', 'cda']")
	timer := flag.String("timer", "", "Auction timer in seconds")

	listen := flag.Bool("listen", false, "Keep listening for room broadcasts")
	flag.Parse()

	if *user == "" {
		*user = strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
	}

	args := map[string]any{}
	for key, value := range map[string]string{
		"price":    *price,
		"quantity": *qty,
		"kind":     *kind,
		"order_id": *orderID,
		"timer":    *timer,
	} {
		if value != "" {
			args[key] = value
		}
	}
	if *roomType != "" {
		args["kind"] = *roomType
	}

	// Connect to Server
	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("Failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s as '%s'\n", *serverAddr, *user)

	line, err := json.Marshal(agoraNet.Request{
		Room:     *roomID,
		Username: *user,
		Op:       strings.ToLower(*op),
		Args:     args,
	})
	if err != nil {
		log.Fatalf("Failed to encode request: %v", err)
	}
	if _, err := conn.Write(append(line, '\n')); err != nil {
		log.Fatalf("Failed to send request: %v", err)
	}

	// Print the reply, then any broadcasts if asked to.
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Connection closed: %v\n", err)
			return
		}
		printResponse(line)
		if !*listen {
			return
		}
	}
}

func printResponse(line []byte) {
	var resp agoraNet.Response
	if err := json.Unmarshal(line, &resp); err != nil {
		log.Printf("Unreadable response: %v", err)
		return
	}

	switch {
	case resp.Error != "":
		fmt.Printf("\n[SERVER ERROR] %s\n", resp.Error)
	case !resp.StateChanged:
		fmt.Printf("\n[REJECTED] %s %s (room %s): %s\n", resp.Username, resp.Op, resp.Room, resp.Reason)
	default:
		fields, _ := json.MarshalIndent(resp.Fields, "", "  ")
		fmt.Printf("\n[UPDATE] %s %s (room %s)\n%s\n", resp.Username, resp.Op, resp.Room, fields)
	}
}
