// Package http exposes the relay over HTTP and provides the matching client.
//
// The wire format mirrors what browser clients of the relay already speak:
//
//	POST /interact {"input": "...", "temperature": 0.5}
//	200 {"textResponse": "...", "imageResponse": "<base64>" | ["<base64>", ...]}
//	400 {"error": "..."}
//	429 {"message": "..."}
//	503 {"error": "..."}
//	500 {"error": "An error occurred while interacting with the Gemini Pro model"}
package http

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
)

// Fixed user-facing messages.
const (
	ProviderErrorMessage = "An error occurred while interacting with the Gemini Pro model"
	RateLimitMessage     = "Too many requests from this IP, please try again after a minute"
	BusyMessage          = "The server is busy, please try again"
)

// MaxRequestBodySize bounds the size of a request body.
const MaxRequestBodySize = 1 << 20

type interactRequest struct {
	Input       string   `json:"input"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type interactResponse struct {
	TextResponse  string          `json:"textResponse"`
	ImageResponse json.RawMessage `json:"imageResponse,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// encodeImages renders one image as a base64 string and several as an array.
// It returns nil when there are no images.
func encodeImages(images [][]byte) (json.RawMessage, error) {
	switch len(images) {
	case 0:
		return nil, nil
	case 1:
		return json.Marshal(base64.StdEncoding.EncodeToString(images[0]))
	default:
		out := make([]string, len(images))
		for i, img := range images {
			out[i] = base64.StdEncoding.EncodeToString(img)
		}
		return json.Marshal(out)
	}
}

// decodeImages accepts either form produced by encodeImages.
func decodeImages(raw json.RawMessage) ([][]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		img, err := base64.StdEncoding.DecodeString(one)
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
		return [][]byte{img}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("imageResponse must be a string or an array of strings: %w", err)
	}
	out := make([][]byte, len(many))
	for i, s := range many {
		img, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("decode image %d: %w", i, err)
		}
		out[i] = img
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
