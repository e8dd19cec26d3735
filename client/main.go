package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// Wire types, duplicated here so the client stays a standalone binary.
const (
	MsgCreateGame = "createGame"
	MsgJoinGame   = "joinGame"
	MsgRollDice   = "rollDice"
	MsgHoldScore  = "holdScore"
	MsgNewGame    = "newGame"
)

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgType string, payload any) error {
	msg := message{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		msg.Payload = data
	}
	return c.WriteJSON(msg)
}

func main() {
	addr := flag.String("addr", "localhost:3000", "server address")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})
	// The last code seen from the server, reused by roll/hold/new.
	codes := make(chan string, 8)

	// Read loop
	go func() {
		defer close(done)
		for {
			var msg message
			if err := c.ReadJSON(&msg); err != nil {
				log.Println("Read error:", err)
				return
			}
			log.Printf("<- %s %s", msg.Type, msg.Payload)

			var code string
			switch msg.Type {
			case "gameCreated":
				json.Unmarshal(msg.Payload, &code)
			case "startGame":
				var p struct {
					RoomCode string `json:"roomCode"`
				}
				json.Unmarshal(msg.Payload, &p)
				code = p.RoomCode
			}
			if code != "" {
				select {
				case codes <- code:
				default:
				}
			}
		}
	}()

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- strings.TrimSpace(scanner.Text())
		}
	}()

	log.Println("Commands: create | join CODE | roll | hold | new")

	var code string
	for {
		select {
		case <-done:
			return
		case code = <-codes:
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case text := <-lines:
			fields := strings.Fields(text)
			if len(fields) == 0 {
				continue
			}

			var err error
			switch fields[0] {
			case "create":
				err = send(c, MsgCreateGame, nil)
			case "join":
				if len(fields) < 2 {
					log.Println("usage: join CODE")
					continue
				}
				err = send(c, MsgJoinGame, fields[1])
			case "roll":
				err = send(c, MsgRollDice, code)
			case "hold":
				err = send(c, MsgHoldScore, code)
			case "new":
				err = send(c, MsgNewGame, code)
			default:
				log.Printf("unknown command %q", fields[0])
				continue
			}
			if err != nil {
				log.Println("Write error:", err)
				return
			}
		}
	}
}
