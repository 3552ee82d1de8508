package zerodha

import (
	"errors"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
)

var ErrMissingCredentials = errors.New("kite api key and secret are required")

type sessionAPI interface {
	GetLoginURL() string
	GenerateSession(requestToken string, apiSecret string) (kiteconnect.UserSession, error)
}

// Session performs the Kite Connect login handshake.
type Session struct {
	api       sessionAPI
	apiSecret string
}

func NewSession(apiKey, apiSecret string) (*Session, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, ErrMissingCredentials
	}
	return &Session{api: kiteconnect.New(apiKey), apiSecret: apiSecret}, nil
}

// LoginURL is where the user signs in to obtain a request token.
func (s *Session) LoginURL() string {
	return s.api.GetLoginURL()
}

// AccessToken exchanges a request token for an access token.
func (s *Session) AccessToken(requestToken string) (string, error) {
	if requestToken == "" {
		return "", errors.New("request token is empty")
	}
	sess, err := s.api.GenerateSession(requestToken, s.apiSecret)
	if err != nil {
		return "", err
	}
	return sess.AccessToken, nil
}
