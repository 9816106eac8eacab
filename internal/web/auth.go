package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var errInitData = errors.New("invalid init data")

type telegramUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// webAppSecret derives the HMAC key for init data from the bot token.
func webAppSecret(botToken string) []byte {
	mac := hmac.New(sha256.New, []byte("WebAppData"))
	_, _ = mac.Write([]byte(botToken))
	return mac.Sum(nil)
}

// dataCheckString is every field except hash, sorted, as key=value lines.
func dataCheckString(vals url.Values) string {
	keys := make([]string, 0, len(vals))
	for k := range vals {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+vals.Get(k))
	}
	return strings.Join(lines, "\n")
}

func signInitData(botToken string, vals url.Values) string {
	mac := hmac.New(sha256.New, webAppSecret(botToken))
	_, _ = mac.Write([]byte(dataCheckString(vals)))
	return hex.EncodeToString(mac.Sum(nil))
}

// verifyInitData checks the chat app's signed launch parameters and returns
// the user they describe. maxAge <= 0 disables the freshness check.
func verifyInitData(botToken, initData string, maxAge time.Duration, now time.Time) (*telegramUser, error) {
	vals, err := url.ParseQuery(strings.TrimSpace(initData))
	if err != nil {
		return nil, errors.Wrap(errInitData, "malformed query")
	}
	got, err := hex.DecodeString(vals.Get("hash"))
	if err != nil || len(got) == 0 {
		return nil, errors.Wrap(errInitData, "missing hash")
	}
	want, _ := hex.DecodeString(signInitData(botToken, vals))
	if !hmac.Equal(want, got) {
		return nil, errors.Wrap(errInitData, "bad signature")
	}

	if maxAge > 0 {
		sec, err := strconv.ParseInt(vals.Get("auth_date"), 10, 64)
		if err != nil {
			return nil, errors.Wrap(errInitData, "missing auth_date")
		}
		if now.Sub(time.Unix(sec, 0)) > maxAge {
			return nil, errors.Wrap(errInitData, "expired")
		}
	}

	raw := vals.Get("user")
	if raw == "" {
		return nil, nil
	}
	var u telegramUser
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, errors.Wrap(errInitData, "malformed user")
	}
	return &u, nil
}
