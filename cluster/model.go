package cluster

import (
	"encoding/json"
	"maps"
)

// Export is an NFS export as returned by the cluster. Fields this tool does
// not manage are kept verbatim so a modify round-trips them.
type Export struct {
	ID           string
	ExportPath   string
	Restrictions []Restriction

	fields map[string]json.RawMessage
}

// Restriction is one restriction list of an export. Only the host
// restrictions are managed, everything else is passed through.
type Restriction struct {
	HostRestrictions []string

	fields map[string]json.RawMessage
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	BearerToken string `json:"bearer_token"`
}

type ErrorResponse struct {
	Module      string `json:"module"`
	ErrorClass  string `json:"error_class"`
	Description string `json:"description"`
}

func (e *Export) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &e.fields); err != nil {
		return err
	}
	if err := decodeField(e.fields, "id", &e.ID); err != nil {
		return err
	}
	if err := decodeField(e.fields, "export_path", &e.ExportPath); err != nil {
		return err
	}
	return decodeField(e.fields, "restrictions", &e.Restrictions)
}

func (e Export) MarshalJSON() ([]byte, error) {
	out := maps.Clone(e.fields)
	if out == nil {
		out = make(map[string]json.RawMessage)
	}
	if err := encodeField(out, "id", e.ID); err != nil {
		return nil, err
	}
	if err := encodeField(out, "export_path", e.ExportPath); err != nil {
		return nil, err
	}
	restrictions := e.Restrictions
	if restrictions == nil {
		restrictions = []Restriction{}
	}
	if err := encodeField(out, "restrictions", restrictions); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (r *Restriction) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.fields); err != nil {
		return err
	}
	return decodeField(r.fields, "host_restrictions", &r.HostRestrictions)
}

func (r Restriction) MarshalJSON() ([]byte, error) {
	out := maps.Clone(r.fields)
	if out == nil {
		out = make(map[string]json.RawMessage)
	}
	hosts := r.HostRestrictions
	if hosts == nil {
		hosts = []string{}
	}
	if err := encodeField(out, "host_restrictions", hosts); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func decodeField(fields map[string]json.RawMessage, key string, v any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func encodeField(fields map[string]json.RawMessage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	fields[key] = data
	return nil
}
