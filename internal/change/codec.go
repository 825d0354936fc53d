package change

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"

	"github.com/EManishKumarSFDEV/SfDeploymentTracker/pkg/apperr"
)

// FieldError names one draft field that failed validation.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func missing(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Reason: "required"}
	}
	return nil
}

// Validate turns a raw draft into the details record for t. It has no side
// effects; values are kept as given and only checked for presence, enum
// membership and the absence of fields outside the schema.
func Validate(t Type, draft json.RawMessage) (Details, error) {
	const op = "change.Validate"
	if !t.Valid() {
		return nil, apperr.Validation(op, []string{"type"}, fmt.Errorf("unknown change type %q", t))
	}
	if len(bytes.TrimSpace(draft)) == 0 {
		draft = json.RawMessage("{}")
	}

	details, err := decodeDraft(t, draft)
	if err != nil {
		return nil, apperr.Validation(op, nil, err)
	}
	if err := details.validate(); err != nil {
		return nil, apperr.Validation(op, fieldNames(err), err)
	}
	return details, nil
}

// ValidateDetails checks an already typed details record.
func ValidateDetails(d Details) error {
	if d == nil {
		return apperr.Validation("change.ValidateDetails", []string{"details"}, errors.New("details are required"))
	}
	if err := d.validate(); err != nil {
		return apperr.Validation("change.ValidateDetails", fieldNames(err), err)
	}
	return nil
}

func decodeDraft(t Type, draft json.RawMessage) (Details, error) {
	dec := json.NewDecoder(bytes.NewReader(draft))
	dec.DisallowUnknownFields()

	switch t {
	case TypeField:
		var d FieldDetails
		err := decodeOne(dec, &d)
		return d, err
	case TypeLWC:
		var d LWCDetails
		err := decodeOne(dec, &d)
		return d, err
	case TypeProfile:
		var d ProfileDetails
		err := decodeOne(dec, &d)
		return d, err
	case TypePermission:
		// access is optional in a draft and defaults to no access.
		var d struct {
			Date          string  `json:"date"`
			PermissionSet string  `json:"permissionSet"`
			Permission    string  `json:"permission"`
			Access        *Access `json:"access"`
			Note          string  `json:"note"`
		}
		if err := decodeOne(dec, &d); err != nil {
			return nil, err
		}
		out := PermissionDetails{Date: d.Date, PermissionSet: d.PermissionSet, Permission: d.Permission, Note: d.Note}
		if d.Access != nil {
			out.Access = *d.Access
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown change type %q", t)
}

// decodeOne reads exactly one JSON value; anything after it is an error.
func decodeOne(dec *json.Decoder, v interface{}) error {
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&json.RawMessage{}); err != io.EOF {
		return errors.New("unexpected data after draft object")
	}
	return nil
}

func (d FieldDetails) validate() error {
	err := multierr.Combine(
		missing("date", d.Date),
		missing("apiName", d.APIName),
		missing("label", d.Label),
	)
	switch {
	case d.FieldType == "":
		err = multierr.Append(err, &FieldError{Field: "fieldType", Reason: "required"})
	case !d.FieldType.Valid():
		err = multierr.Append(err, &FieldError{Field: "fieldType", Reason: fmt.Sprintf("unsupported value %q", d.FieldType)})
	}
	return err
}

func (d LWCDetails) validate() error {
	err := multierr.Combine(
		missing("date", d.Date),
		missing("componentName", d.ComponentName),
	)
	switch {
	case d.FileType == "":
		err = multierr.Append(err, &FieldError{Field: "fileType", Reason: "required"})
	case !d.FileType.Valid():
		err = multierr.Append(err, &FieldError{Field: "fileType", Reason: fmt.Sprintf("unsupported value %q", d.FileType)})
	}
	return err
}

func (d ProfileDetails) validate() error {
	return multierr.Combine(
		missing("date", d.Date),
		missing("profile", d.Profile),
	)
}

func (d PermissionDetails) validate() error {
	return multierr.Combine(
		missing("date", d.Date),
		missing("permissionSet", d.PermissionSet),
		missing("permission", d.Permission),
	)
}

func fieldNames(err error) []string {
	var names []string
	for _, e := range multierr.Errors(err) {
		var fe *FieldError
		if errors.As(e, &fe) {
			names = append(names, fe.Field)
		}
	}
	return names
}
