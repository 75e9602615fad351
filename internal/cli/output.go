package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

func checkFormat(format string) error {
	switch format {
	case FormatText, FormatJSON:
		return nil
	default:
		return usageErrorf("invalid output format %q: must be text or json", format)
	}
}

// Output handles formatting output based on the configured format
type Output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, out, errOut io.Writer) *Output {
	return &Output{format: format, out: out, errOut: errOut}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == FormatJSON {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error, with field messages for validation failures
func (o *Output) PrintError(err error) {
	fields := fieldErrors(err)

	if o.format == FormatJSON {
		body := map[string]any{"message": err.Error()}
		if len(fields) > 0 {
			body["fields"] = fields
		}
		data, _ := json.Marshal(map[string]any{"error": body})
		_, _ = fmt.Fprintln(o.errOut, string(data))
		return
	}

	_, _ = fmt.Fprintf(o.errOut, "Error: %s\n", err)
	for _, name := range sortedKeys(fields) {
		_, _ = fmt.Fprintf(o.errOut, "  %s: %s\n", name, fields[name])
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == FormatJSON {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.out, string(data))
	} else {
		_, _ = fmt.Fprintln(o.out, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case AuthResult:
		o.printAuthResult(v)
	case StatusResult:
		o.printStatusResult(v)
	case ProfileResult:
		o.printProfileResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// AuthResult is printed after register and login. The token itself is never printed.
type AuthResult struct {
	Action string `json:"action"`
	Email  string `json:"email"`
	Slot   string `json:"slot"`
}

// StatusResult describes the session slot
type StatusResult struct {
	State   string     `json:"state"`
	Slot    string     `json:"slot"`
	Backend string     `json:"backend"`
	Token   *TokenInfo `json:"token,omitempty"`
}

// TokenInfo is what an unverified read of the stored token shows
type TokenInfo struct {
	Subject   string     `json:"subject,omitempty"`
	Email     string     `json:"email,omitempty"`
	Issuer    string     `json:"issuer,omitempty"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
}

// ProfileResult is the account profile
type ProfileResult struct {
	DisplayName string     `json:"display_name"`
	Email       string     `json:"email"`
	PhotoURL    string     `json:"photo_url,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// HealthResult reports whether the session backend answered
type HealthResult struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Slot    string `json:"slot"`
}

func (o *Output) printAuthResult(a AuthResult) {
	_, _ = fmt.Fprintf(o.out, "%s as %s\n", a.Action, a.Email)
	_, _ = fmt.Fprintf(o.out, "Session saved to slot %q\n", a.Slot)
}

func (o *Output) printStatusResult(s StatusResult) {
	_, _ = fmt.Fprintf(o.out, "State: %s\n", s.State)
	_, _ = fmt.Fprintf(o.out, "Slot: %s (%s)\n", s.Slot, s.Backend)
	if s.Token == nil {
		return
	}
	if s.Token.Email != "" {
		_, _ = fmt.Fprintf(o.out, "Email: %s\n", s.Token.Email)
	}
	if s.Token.Subject != "" {
		_, _ = fmt.Fprintf(o.out, "User ID: %s\n", s.Token.Subject)
	}
	if s.Token.ExpiresAt != nil {
		suffix := ""
		if s.Token.Expired {
			suffix = " (expired)"
		}
		_, _ = fmt.Fprintf(o.out, "Expires: %s%s\n", s.Token.ExpiresAt.Format(time.RFC3339), suffix)
	}
}

func (o *Output) printProfileResult(p ProfileResult) {
	_, _ = fmt.Fprintf(o.out, "Name: %s\n", p.DisplayName)
	_, _ = fmt.Fprintf(o.out, "Email: %s\n", p.Email)
	if p.PhotoURL != "" {
		_, _ = fmt.Fprintf(o.out, "Photo: %s\n", p.PhotoURL)
	}
	if p.CreatedAt != nil {
		_, _ = fmt.Fprintf(o.out, "Member since: %s\n", p.CreatedAt.Format("2006-01-02"))
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.out, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.out, "Backend: %s (slot %s)\n", h.Backend, h.Slot)
}
