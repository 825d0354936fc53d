// Package change holds the change-log record format: a closed tagged union of
// four configuration change kinds, each with its own details schema.
package change

import (
	"encoding/json"
	"fmt"
)

type Type string

const (
	TypeField      Type = "Field"
	TypeLWC        Type = "LWC"
	TypeProfile    Type = "Profile"
	TypePermission Type = "Permission"
)

// Types lists every kind in display order.
var Types = []Type{TypeField, TypeLWC, TypeProfile, TypePermission}

func (t Type) Valid() bool {
	switch t {
	case TypeField, TypeLWC, TypeProfile, TypePermission:
		return true
	}
	return false
}

type FieldType string

const (
	FieldText     FieldType = "Text"
	FieldNumber   FieldType = "Number"
	FieldDate     FieldType = "Date"
	FieldCheckbox FieldType = "Checkbox"
	FieldPicklist FieldType = "Picklist"
)

func (f FieldType) Valid() bool {
	switch f {
	case FieldText, FieldNumber, FieldDate, FieldCheckbox, FieldPicklist:
		return true
	}
	return false
}

type FileType string

const (
	FileHTML FileType = "html"
	FileJS   FileType = "js"
	FileCSS  FileType = "css"
	FileXML  FileType = "xml"
)

func (f FileType) Valid() bool {
	switch f {
	case FileHTML, FileJS, FileCSS, FileXML:
		return true
	}
	return false
}

// Details is implemented only by the four variant structs in this package.
type Details interface {
	Type() Type
	validate() error
}

type FieldDetails struct {
	Date      string    `json:"date"`
	APIName   string    `json:"apiName"`
	Label     string    `json:"label"`
	FieldType FieldType `json:"fieldType"`
	Note      string    `json:"note,omitempty"`
}

func (FieldDetails) Type() Type { return TypeField }

type LWCDetails struct {
	Date          string   `json:"date"`
	ComponentName string   `json:"componentName"`
	FileType      FileType `json:"fileType"`
	Code          string   `json:"code,omitempty"`
	Note          string   `json:"note,omitempty"`
}

func (LWCDetails) Type() Type { return TypeLWC }

type ProfileDetails struct {
	Date    string `json:"date"`
	Profile string `json:"profile"`
	Note    string `json:"note,omitempty"`
}

func (ProfileDetails) Type() Type { return TypeProfile }

type Access struct {
	Read  bool `json:"read"`
	Write bool `json:"write"`
}

type PermissionDetails struct {
	Date          string `json:"date"`
	PermissionSet string `json:"permissionSet"`
	Permission    string `json:"permission"`
	Access        Access `json:"access"`
	Note          string `json:"note,omitempty"`
}

func (PermissionDetails) Type() Type { return TypePermission }

// Change is one entry of a story's change log. Type always equals Details.Type().
type Change struct {
	ID      string  `json:"id"`
	Type    Type    `json:"type"`
	Details Details `json:"details"`
}

// New builds a change record, deriving the tag from the details.
func New(id string, details Details) Change {
	return Change{ID: id, Type: details.Type(), Details: details}
}

func (c *Change) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID      string          `json:"id"`
		Type    Type            `json:"type"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	details, err := decodeStored(aux.Type, aux.Details)
	if err != nil {
		return fmt.Errorf("change %s: %w", aux.ID, err)
	}
	c.ID = aux.ID
	c.Type = aux.Type
	c.Details = details
	return nil
}

// decodeStored reads details already persisted, without re-validating them.
func decodeStored(t Type, raw json.RawMessage) (Details, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	switch t {
	case TypeField:
		var d FieldDetails
		err := json.Unmarshal(raw, &d)
		return d, err
	case TypeLWC:
		var d LWCDetails
		err := json.Unmarshal(raw, &d)
		return d, err
	case TypeProfile:
		var d ProfileDetails
		err := json.Unmarshal(raw, &d)
		return d, err
	case TypePermission:
		var d PermissionDetails
		err := json.Unmarshal(raw, &d)
		return d, err
	default:
		return nil, fmt.Errorf("unknown change type %q", t)
	}
}
