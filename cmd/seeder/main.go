package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"social_chat/pkg/logger"

	"github.com/brianvoe/gofakeit/v6"
)

// seedUser - учетные данные созданного пользователя
type seedUser struct {
	ID       int64
	Username string
	Token    string
}

type client struct {
	baseURL string
	http    *http.Client
	log     logger.Logger
}

var hashtags = []string{"#golang", "#postgres", "#redis", "#weekend", "#news", "#random"}

func main() {
	baseURL := flag.String("api", "http://localhost:8080/api", "base URL of the chat API")
	users := flag.Int("users", 10, "number of users to register")
	chats := flag.Int("chats", 3, "number of chats to create")
	messages := flag.Int("messages", 20, "messages per chat")
	password := flag.String("password", "password123", "password for every seeded user")
	flag.Parse()

	log := logger.NewDevelopment("info")
	defer func() { _ = log.Sync() }()

	gofakeit.Seed(time.Now().UnixNano())

	c := &client{
		baseURL: strings.TrimRight(*baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}

	// 1. Пользователи
	var seeded []*seedUser
	for i := 0; i < *users; i++ {
		u, err := c.registerAndLogin(*password)
		if err != nil {
			log.Warn("Failed to seed user", "error", err)
			continue
		}
		seeded = append(seeded, u)
	}
	if len(seeded) < 2 {
		log.Fatal("Not enough users to seed chats", "users", len(seeded))
	}
	log.Info("Users seeded", "count", len(seeded))

	// 2. Чаты, сообщения, ответы и голоса
	for i := 0; i < *chats; i++ {
		owner := seeded[gofakeit.Number(0, len(seeded)-1)]
		members := pickMembers(seeded, owner)

		chatID, err := c.createChat(owner, members)
		if err != nil {
			log.Warn("Failed to create chat", "error", err)
			continue
		}

		participants := append([]*seedUser{owner}, members...)
		var posted []int64
		for j := 0; j < *messages; j++ {
			author := participants[gofakeit.Number(0, len(participants)-1)]
			text := gofakeit.Sentence(gofakeit.Number(3, 12))
			if gofakeit.Bool() {
				text += " " + hashtags[gofakeit.Number(0, len(hashtags)-1)]
			}

			var mid int64
			if len(posted) > 0 && gofakeit.Number(0, 3) == 0 {
				parent := posted[gofakeit.Number(0, len(posted)-1)]
				mid, err = c.postMessage(author, fmt.Sprintf("/chat/%d/message/%d/reply", chatID, parent), text)
			} else {
				mid, err = c.postMessage(author, fmt.Sprintf("/chat/%d/messages", chatID), text)
			}
			if err != nil {
				log.Warn("Failed to post message", "error", err, "chat_id", chatID)
				continue
			}
			posted = append(posted, mid)

			voter := participants[gofakeit.Number(0, len(participants)-1)]
			action := "like"
			if gofakeit.Number(0, 4) == 0 {
				action = "dislike"
			}
			if err := c.do(voter, http.MethodPost, fmt.Sprintf("/chat/%d/message/%d/%s", chatID, mid, action), nil, nil); err != nil {
				log.Warn("Failed to vote", "error", err, "message_id", mid)
			}
		}

		log.Info("Chat seeded", "chat_id", chatID, "members", len(participants), "messages", len(posted))
	}
}

func pickMembers(users []*seedUser, owner *seedUser) []*seedUser {
	var members []*seedUser
	for _, u := range users {
		if u.ID != owner.ID && gofakeit.Bool() {
			members = append(members, u)
		}
	}
	if len(members) == 0 {
		for _, u := range users {
			if u.ID != owner.ID {
				return []*seedUser{u}
			}
		}
	}
	return members
}

func (c *client) registerAndLogin(password string) (*seedUser, error) {
	username := strings.ToLower(gofakeit.Username()) + gofakeit.DigitN(4)
	register := map[string]interface{}{
		"username":     username,
		"password":     password,
		"first_name":   gofakeit.FirstName(),
		"last_name":    gofakeit.LastName(),
		"email":        username + "@" + gofakeit.DomainName(),
		"phone_number": gofakeit.Phone(),
	}
	var created struct {
		ID int64 `json:"uid"`
	}
	if err := c.do(nil, http.MethodPost, "/register", register, &created); err != nil {
		return nil, fmt.Errorf("register %s: %w", username, err)
	}

	var login struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(nil, http.MethodPost, "/login", map[string]string{"username": username, "password": password}, &login); err != nil {
		return nil, fmt.Errorf("login %s: %w", username, err)
	}

	return &seedUser{ID: created.ID, Username: username, Token: login.AccessToken}, nil
}

func (c *client) createChat(owner *seedUser, members []*seedUser) (int64, error) {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}

	var chat struct {
		ID int64 `json:"cid"`
	}
	body := map[string]interface{}{
		"name":    gofakeit.HipsterWord() + " " + gofakeit.Noun(),
		"members": ids,
	}
	if err := c.do(owner, http.MethodPost, "/chats", body, &chat); err != nil {
		return 0, err
	}
	return chat.ID, nil
}

func (c *client) postMessage(author *seedUser, path, text string) (int64, error) {
	var msg struct {
		ID int64 `json:"mid"`
	}
	if err := c.do(author, http.MethodPost, path, map[string]string{"message": text}, &msg); err != nil {
		return 0, err
	}
	return msg.ID, nil
}

// do отправляет json-запрос и декодирует ответ в out, если он задан
func (c *client) do(as *seedUser, method, path string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+as.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	c.log.Debug("Request done", "method", method, "path", path, "status", resp.StatusCode)

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
