package delivery

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// chooseAuth picks PLAIN unless the server only advertises LOGIN.
func chooseAuth(c Client, username, password, host string) smtp.Auth {
	if ok, mechs := c.Extension("AUTH"); ok {
		if !hasMechanism(mechs, "PLAIN") && hasMechanism(mechs, "LOGIN") {
			return &loginAuth{username: username, password: password}
		}
	}
	return smtp.PlainAuth("", username, password, host)
}

func hasMechanism(advertised, mech string) bool {
	for _, m := range strings.Fields(advertised) {
		if strings.EqualFold(m, mech) {
			return true
		}
	}
	return false
}

// loginAuth implements the LOGIN mechanism still required by some
// providers. Like smtp.PlainAuth it refuses to send credentials in clear text.
type loginAuth struct {
	username, password string
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS {
		return "", nil, errors.New("unencrypted connection")
	}
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(string(fromServer))) {
	case "username:":
		return []byte(a.username), nil
	case "password:":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected LOGIN challenge %q", fromServer)
	}
}
