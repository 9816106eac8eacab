package format

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	CloseDelay int    `json:"closeDelay"`
	Sent       bool   `json:"sent"`
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, result{Date: "19/11/2025", Time: "14:25"}, "", false))
	assert.Equal(t, `{"date":"19/11/2025","time":"14:25","closeDelay":0,"sent":false}`+"\n", buf.String())
}

func TestWrite_EDN(t *testing.T) {
	var buf bytes.Buffer
	v := map[string]any{"data": result{Date: "19/11/2025", Time: "14:25", CloseDelay: 1500, Sent: true}, "hints": []string{}}
	require.NoError(t, Write(&buf, v, "EDN", false))
	assert.Equal(t, `{:data {:close-delay 1500 :date "19/11/2025" :sent true :time "14:25"} :hints []}`+"\n", buf.String())
}

func TestWrite_EDNPretty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, map[string]any{"topics": []string{"config", "web"}}, "edn", true))
	assert.Equal(t, "{\n  :topics [\n    \"config\"\n    \"web\"\n  ]\n}\n", buf.String())
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, 1, "yaml", false)
	assert.ErrorIs(t, err, ErrUnknownFormat)
	assert.Empty(t, buf.String())
}

func TestKeyword(t *testing.T) {
	cases := map[string]string{
		"date":        ":date",
		"closeDelay":  ":close-delay",
		"session_ttl": ":session-ttl",
		"RFC3339":     ":rfc3339",
		"yearMin2":    ":year-min2",
	}
	for in, want := range cases {
		assert.Equal(t, want, Keyword(in), in)
	}
}
