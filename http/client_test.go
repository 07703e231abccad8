package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/chatrelay"
	chathttp "github.com/fwojciec/chatrelay/http"
	"github.com/fwojciec/chatrelay/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Interact_AgainstServer(t *testing.T) {
	t.Parallel()
	images := &mock.ImageGenerator{GenerateImagesFn: func(context.Context, string) ([][]byte, error) {
		return [][]byte{[]byte("one"), []byte("two")}, nil
	}}
	srv := httptest.NewServer(newRelayServer(t, staticText("pictures"), images, chathttp.WithTokens("tok")))
	t.Cleanup(srv.Close)

	c := chathttp.NewClient(srv.URL + "/")
	temp := 0.2
	resp, err := c.Interact(context.Background(), "tok", chatrelay.InteractRequest{Input: "draw two", Temperature: &temp})
	require.NoError(t, err)
	assert.Equal(t, "pictures", resp.Text)
	assert.Equal(t, [][]byte{[]byte("one"), []byte("two")}, resp.Images)

	_, err = c.Interact(context.Background(), "", chatrelay.InteractRequest{Input: "hi"})
	var se *chatrelay.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.ErrorIs(t, err, chatrelay.ErrUnauthorized)

	_, err = c.Interact(context.Background(), "wrong", chatrelay.InteractRequest{Input: "hi"})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
	assert.ErrorIs(t, err, chatrelay.ErrUnauthorized)
}

func TestClient_Interact_StatusMapping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		status  int
		body    string
		want    error
		message string
	}{
		{"server error", 500, `{"error":"An error occurred while interacting with the Gemini Pro model"}`, chatrelay.ErrBadResponse, "An error occurred while interacting with the Gemini Pro model"},
		{"rate limited json", 429, `{"message":"slow down"}`, chatrelay.ErrRateLimited, "slow down"},
		{"rate limited text", 429, "Too many requests from this IP, please try again after a minute", chatrelay.ErrRateLimited, "Too many requests from this IP, please try again after a minute"},
		{"bad request", 400, `{"error":"input is required"}`, chatrelay.ErrBadResponse, "input is required"},
		{"forbidden", 403, ``, chatrelay.ErrUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			t.Cleanup(srv.Close)

			_, err := chathttp.NewClient(srv.URL).Interact(context.Background(), "", chatrelay.InteractRequest{Input: "x"})
			assert.ErrorIs(t, err, tt.want)
			var se *chatrelay.StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.status, se.Code)
			assert.Equal(t, tt.message, se.Message)
		})
	}
}

func TestClient_Interact_ConnectFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := chathttp.NewClient(url).Interact(context.Background(), "", chatrelay.InteractRequest{Input: "x"})
	assert.ErrorIs(t, err, chatrelay.ErrConnect)
	assert.NotErrorIs(t, err, chatrelay.ErrUnauthorized)
}

func TestClient_Interact_MalformedBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"textResponse":"ok","imageResponse":42}`)
	}))
	t.Cleanup(srv.Close)

	_, err := chathttp.NewClient(srv.URL).Interact(context.Background(), "", chatrelay.InteractRequest{Input: "x"})
	assert.ErrorIs(t, err, chatrelay.ErrBadResponse)
}

func TestClient_Login(t *testing.T) {
	t.Parallel()
	var got map[string]string
	auth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		if got["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"bad credentials"}`)
			return
		}
		_, _ = io.WriteString(w, `{"token":"jwt-123"}`)
	}))
	t.Cleanup(auth.Close)

	c := chathttp.NewClient("http://relay.invalid", chathttp.WithAuthURL(auth.URL))
	cred, err := c.Login(context.Background(), "me@x.io", "secret")
	require.NoError(t, err)
	assert.Equal(t, chatrelay.Credential{Token: "jwt-123", Email: "me@x.io"}, cred)
	assert.Equal(t, "me@x.io", got["email"])

	_, err = c.Login(context.Background(), "me@x.io", "nope")
	assert.ErrorIs(t, err, chatrelay.ErrUnauthorized)
}

func TestImagesCodec(t *testing.T) {
	t.Parallel()

	none, err := chathttp.EncodeImages(nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	one, err := chathttp.EncodeImages([][]byte{[]byte("a")})
	require.NoError(t, err)
	assert.JSONEq(t, `"YQ=="`, string(one))

	decoded, err := chathttp.DecodeImages(one)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("a")}, decoded)

	_, err = chathttp.DecodeImages(json.RawMessage(`"%%%"`))
	assert.Error(t, err)

	decoded, err = chathttp.DecodeImages(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Nil(t, decoded)
}
