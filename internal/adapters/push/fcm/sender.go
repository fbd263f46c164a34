package fcm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"take-a-paw/internal/platform/httpclient"
	"take-a-paw/internal/ports/push"
)

var ErrNotConfigured = errors.New("fcm sender not configured")

const defaultSendURL = "https://fcm.googleapis.com/fcm/send"

// Config del sender FCM (API legacy por server key).
type Config struct {
	ServerKey string
	SendURL   string // override para tests
	Timeout   time.Duration
}

// Sender implementa push.Sender con un multicast por request.
type Sender struct {
	serverKey string
	sendURL   string
	http      *httpclient.Client
}

func NewSender(cfg Config) *Sender {
	url := strings.TrimSpace(cfg.SendURL)
	if url == "" {
		url = defaultSendURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sender{
		serverKey: strings.TrimSpace(cfg.ServerKey),
		sendURL:   url,
		http:      httpclient.New(timeout),
	}
}

func (s *Sender) IsConfigured() bool {
	return s != nil && s.serverKey != ""
}

type fcmRequest struct {
	RegistrationIDs []string          `json:"registration_ids"`
	Notification    fcmNotification   `json:"notification"`
	Data            map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

// invalidErrors: el token ya no sirve y debe darse de baja. Cualquier
// otro error del proveedor es transitorio y el token se conserva.
var invalidErrors = map[string]bool{
	"NotRegistered":       true,
	"InvalidRegistration": true,
	"MismatchSenderId":    true,
}

// Send manda el multicast y particiona la respuesta por token. Un error
// de transporte devuelve (Result{}, err): todo falló, nada inválido.
func (s *Sender) Send(ctx context.Context, msg push.Message) (push.Result, error) {
	if !s.IsConfigured() {
		return push.Result{}, ErrNotConfigured
	}
	if len(msg.Tokens) == 0 {
		return push.Result{}, nil
	}

	req := fcmRequest{
		RegistrationIDs: msg.Tokens,
		Notification:    fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:            msg.Data,
	}
	headers := map[string]string{
		"Authorization": "key=" + s.serverKey,
	}

	var out fcmResponse
	if err := s.http.DoJSON(ctx, "POST", s.sendURL, headers, req, &out); err != nil {
		return push.Result{}, fmt.Errorf("fcm send: %w", err)
	}

	res := push.Result{SuccessCount: out.Success}
	for i, r := range out.Results {
		if r.Error == "" || i >= len(msg.Tokens) {
			continue
		}
		token := msg.Tokens[i]
		res.FailedTokens = append(res.FailedTokens, token)
		if invalidErrors[r.Error] {
			res.InvalidTokens = append(res.InvalidTokens, token)
		}
	}
	return res, nil
}
