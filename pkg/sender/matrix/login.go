package matrix

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bft-labs/chatship/pkg/sender"
)

type loginIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

type loginBody struct {
	Type       string          `json:"type"`
	Password   string          `json:"password"`
	Identifier loginIdentifier `json:"identifier"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// Login exchanges a user name and password for an access token using the
// m.login.password flow.
func Login(ctx context.Context, client sender.HTTPClient, homeServer, user, password string) (string, error) {
	if user == "" || password == "" {
		return "", fmt.Errorf("%w: matrix user and password are required", sender.ErrInvalidConfig)
	}
	base, err := BaseURL(homeServer)
	if err != nil {
		return "", err
	}
	if client == nil {
		client = sender.ApplyOptions().Client
	}

	payload, err := json.Marshal(loginBody{
		Type:     "m.login.password",
		Password: password,
		Identifier: loginIdentifier{
			Type: "m.id.user",
			User: user,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal login: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/_matrix/client/v3/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", &sender.TransportError{Op: "matrix login", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", fmt.Errorf("matrix login: server returned %d: %s", resp.StatusCode, string(respBody))
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("%w: login response: %v", sender.ErrBodyParsing, err)
	}
	if lr.AccessToken == "" {
		return "", errors.New("matrix login: empty access token")
	}
	return lr.AccessToken, nil
}
