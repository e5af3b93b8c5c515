package server

import (
	"encoding/base64"
	"encoding/json"

	"github.com/edgeflag/edgeflag/internal/database"
	apperrors "github.com/edgeflag/edgeflag/internal/errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// cursorKey is the portable form of a continuation key. Only the identity
// index key attributes are carried; everything is a string attribute in the
// store, so no type information is lost.
type cursorKey struct {
	CompositeKey      string `json:"ck,omitempty"`
	EnvironmentAPIKey string `json:"env,omitempty"`
	Identifier        string `json:"id,omitempty"`
}

const (
	cursorAttrCompositeKey      = "composite_key"
	cursorAttrEnvironmentAPIKey = "environment_api_key"
	cursorAttrIdentifier        = "identifier"
)

// encodeCursor converts a store continuation key into an opaque URL-safe
// token. An empty key encodes to the empty string.
func encodeCursor(startKey database.StartKey) string {
	if len(startKey) == 0 {
		return ""
	}

	key := cursorKey{
		CompositeKey:      stringAttr(startKey, cursorAttrCompositeKey),
		EnvironmentAPIKey: stringAttr(startKey, cursorAttrEnvironmentAPIKey),
		Identifier:        stringAttr(startKey, cursorAttrIdentifier),
	}

	raw, err := json.Marshal(key)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// decodeCursor converts a client-supplied token back into a continuation
// key. An empty token means start from the beginning.
func decodeCursor(cursor string) (database.StartKey, error) {
	if cursor == "" {
		return nil, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, apperrors.ErrBadRequest("invalid pagination cursor", err)
	}

	var key cursorKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return nil, apperrors.ErrBadRequest("invalid pagination cursor", err)
	}

	startKey := database.StartKey{}
	if key.CompositeKey != "" {
		startKey[cursorAttrCompositeKey] = &types.AttributeValueMemberS{Value: key.CompositeKey}
	}
	if key.EnvironmentAPIKey != "" {
		startKey[cursorAttrEnvironmentAPIKey] = &types.AttributeValueMemberS{Value: key.EnvironmentAPIKey}
	}
	if key.Identifier != "" {
		startKey[cursorAttrIdentifier] = &types.AttributeValueMemberS{Value: key.Identifier}
	}
	if len(startKey) == 0 {
		return nil, apperrors.ErrBadRequest("invalid pagination cursor", nil)
	}

	return startKey, nil
}

func stringAttr(key database.StartKey, attr string) string {
	if v, ok := key[attr].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}
