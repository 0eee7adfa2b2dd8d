package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ContactID is the caller's identifier for a contact. Callers send either a
// JSON string or a JSON number; results echo it back in the same form.
type ContactID struct {
	raw     string
	numeric bool
}

func StringContactID(s string) ContactID {
	return ContactID{raw: s}
}

func NumericContactID(n int64) ContactID {
	return ContactID{raw: strconv.FormatInt(n, 10), numeric: true}
}

// String returns the id text; numbers keep the caller's literal.
func (id ContactID) String() string { return id.raw }

// IsNumeric reports whether the id arrived as a JSON number.
func (id ContactID) IsNumeric() bool { return id.numeric }

func (id ContactID) IsZero() bool { return id.raw == "" && !id.numeric }

func (id ContactID) MarshalJSON() ([]byte, error) {
	switch {
	case id.numeric:
		return []byte(id.raw), nil
	case id.raw == "":
		return []byte("null"), nil
	default:
		return json.Marshal(id.raw)
	}
}

func (id *ContactID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ContactID{}
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("dispatch: contact id: %w", err)
		}
		*id = StringContactID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("dispatch: contact id must be a string or a number: %w", err)
		}
		*id = ContactID{raw: n.String(), numeric: true}
	}
	return nil
}

// MarshalDynamoDBAttributeValue stores numeric ids as N and the rest as S.
func (id ContactID) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	switch {
	case id.numeric:
		return &types.AttributeValueMemberN{Value: id.raw}, nil
	case id.raw == "":
		return &types.AttributeValueMemberNULL{Value: true}, nil
	default:
		return &types.AttributeValueMemberS{Value: id.raw}, nil
	}
}

func (id *ContactID) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		*id = ContactID{raw: v.Value, numeric: true}
	case *types.AttributeValueMemberS:
		*id = StringContactID(v.Value)
	case *types.AttributeValueMemberNULL, nil:
		*id = ContactID{}
	default:
		return fmt.Errorf("dispatch: unsupported contact id attribute %T", av)
	}
	return nil
}
