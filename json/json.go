// Package json persists chat sessions and credentials as JSON.
//
// Store keeps one file per storage key in a directory, the way a browser keeps
// local storage entries. The codecs are shared with other stores.
package json

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fwojciec/chatrelay"
)

const envelopeVersion = 1

// sessionEnvelope is the v1 wire format for a persisted session.
type sessionEnvelope struct {
	Version int `json:"version"`
	sessionDTO
}

// registryEnvelope is the v1 wire format for the session registry.
type registryEnvelope struct {
	Version  int          `json:"version"`
	Sessions []sessionDTO `json:"sessions"`
}

type sessionDTO struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Turns     []turnDTO `json:"turns"`
}

// turnDTO is the JSON representation of a Turn. Byte slices are encoded as
// standard base64 strings.
type turnDTO struct {
	User       string         `json:"user"`
	Assistant  *string        `json:"assistant"`
	Error      *string        `json:"error"`
	Attachment *attachmentDTO `json:"attachment,omitempty"`
	Images     [][]byte       `json:"images,omitempty"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
}

type attachmentDTO struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data,omitempty"`
}

var turnStatuses = map[string]chatrelay.TurnStatus{
	chatrelay.TurnPending.String():   chatrelay.TurnPending,
	chatrelay.TurnFulfilled.String(): chatrelay.TurnFulfilled,
	chatrelay.TurnFailed.String():    chatrelay.TurnFailed,
}

// MarshalSession serializes a Session to JSON in v1 envelope format.
func MarshalSession(s chatrelay.Session) ([]byte, error) {
	return json.MarshalIndent(sessionEnvelope{Version: envelopeVersion, sessionDTO: toSessionDTO(s)}, "", "  ")
}

// UnmarshalSession deserializes a Session from JSON in v1 envelope format.
func UnmarshalSession(data []byte) (chatrelay.Session, error) {
	var env sessionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return chatrelay.Session{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != envelopeVersion {
		return chatrelay.Session{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	return fromSessionDTO(env.sessionDTO)
}

// MarshalRegistry serializes a Registry, most recently updated session first.
func MarshalRegistry(r chatrelay.Registry) ([]byte, error) {
	list := r.List()
	env := registryEnvelope{Version: envelopeVersion, Sessions: make([]sessionDTO, len(list))}
	for i, s := range list {
		env.Sessions[i] = toSessionDTO(s)
	}
	return json.MarshalIndent(env, "", "  ")
}

// UnmarshalRegistry deserializes a Registry.
func UnmarshalRegistry(data []byte) (chatrelay.Registry, error) {
	var env registryEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != envelopeVersion {
		return nil, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	reg := make(chatrelay.Registry, len(env.Sessions))
	for i, dto := range env.Sessions {
		s, err := fromSessionDTO(dto)
		if err != nil {
			return nil, fmt.Errorf("session %d: %w", i, err)
		}
		reg.Put(s)
	}
	return reg, nil
}

func toSessionDTO(s chatrelay.Session) sessionDTO {
	dto := sessionDTO{
		ID:        s.ID,
		Summary:   s.Summary,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		Turns:     make([]turnDTO, len(s.Turns)),
	}
	for i, t := range s.Turns {
		dto.Turns[i] = toTurnDTO(t)
	}
	return dto
}

func fromSessionDTO(dto sessionDTO) (chatrelay.Session, error) {
	if dto.ID == "" {
		return chatrelay.Session{}, fmt.Errorf("session id is empty")
	}
	s := chatrelay.Session{
		ID:        dto.ID,
		Summary:   dto.Summary,
		CreatedAt: dto.CreatedAt,
		UpdatedAt: dto.UpdatedAt,
		Turns:     make([]chatrelay.Turn, len(dto.Turns)),
	}
	for i, td := range dto.Turns {
		t, err := fromTurnDTO(td)
		if err != nil {
			return chatrelay.Session{}, fmt.Errorf("turn %d: %w", i, err)
		}
		s.Turns[i] = t
	}
	return s, nil
}

func toTurnDTO(t chatrelay.Turn) turnDTO {
	dto := turnDTO{
		User:      t.User,
		Images:    t.Images,
		Status:    t.Status.String(),
		CreatedAt: t.CreatedAt,
	}
	// assistant and error stay null until the turn settles.
	if t.Status == chatrelay.TurnFulfilled {
		dto.Assistant = &t.Assistant
	}
	if t.Error != "" {
		dto.Error = &t.Error
	}
	if a := t.Attachment; a != nil {
		dto.Attachment = &attachmentDTO{Name: a.Name, MIMEType: a.MIMEType, Data: a.Data}
	}
	return dto
}

func fromTurnDTO(dto turnDTO) (chatrelay.Turn, error) {
	status, ok := turnStatuses[dto.Status]
	if !ok {
		return chatrelay.Turn{}, fmt.Errorf("unknown turn status: %q", dto.Status)
	}
	t := chatrelay.Turn{
		User:      dto.User,
		Images:    dto.Images,
		Status:    status,
		CreatedAt: dto.CreatedAt,
	}
	if dto.Assistant != nil {
		t.Assistant = *dto.Assistant
	}
	if dto.Error != nil {
		t.Error = *dto.Error
	}
	if a := dto.Attachment; a != nil {
		t.Attachment = &chatrelay.Attachment{Name: a.Name, MIMEType: a.MIMEType, Data: a.Data}
	}
	return t, nil
}
