package client

import (
	"encoding/json"
	"errors"
	"io"
)

const (
	msgInvalidResponse = "Invalid response from server"
	msgSomethingWrong  = "Something went wrong"
	msgAuthFailed      = "Authentication failed"
	msgNetworkError    = "Network error occurred"
	msgUploadTimeout   = "Upload timeout"
)

// Envelope is the uniform response shape. Transport failures and unreadable
// bodies are folded into it as well, so callers branch on Success only.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`

	// Status is the HTTP status code; zero when no response arrived.
	Status int `json:"-"`
}

// OK reports a 2xx answer. Logout-style endpoints answer 200 with
// success=false, so callers of those check OK rather than Success.
func (e Envelope) OK() bool { return e.Status >= 200 && e.Status < 300 }

var errNoData = errors.New("client: response has no data")

// DecodeData unmarshals the data member into out.
func (e Envelope) DecodeData(out any) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return errNoData
	}
	return json.Unmarshal(e.Data, out)
}

func failure(message string) Envelope {
	return Envelope{Success: false, Message: message}
}

func transportFailure(err error) Envelope {
	if err == nil || err.Error() == "" {
		return failure(msgSomethingWrong)
	}
	return failure(err.Error())
}

func readEnvelope(r io.Reader) Envelope {
	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return failure(msgInvalidResponse)
	}
	return env
}
