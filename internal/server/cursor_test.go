package server

import (
	"testing"

	"github.com/edgeflag/edgeflag/internal/database"
	apperrors "github.com/edgeflag/edgeflag/internal/errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	startKey := database.StartKey{
		"composite_key":       &types.AttributeValueMemberS{Value: "env-key_alice"},
		"environment_api_key": &types.AttributeValueMemberS{Value: "env-key"},
		"identifier":          &types.AttributeValueMemberS{Value: "alice"},
	}

	cursor := encodeCursor(startKey)
	require.NotEmpty(t, cursor)

	decoded, err := decodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, startKey, decoded)
}

func TestCursorEmpty(t *testing.T) {
	assert.Empty(t, encodeCursor(nil))
	assert.Empty(t, encodeCursor(database.StartKey{}))

	decoded, err := decodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestCursorInvalid(t *testing.T) {
	for _, cursor := range []string{"%%", "not-base64!", "e30"} { // "e30" is "{}"
		_, err := decodeCursor(cursor)
		require.Error(t, err, "cursor %q", cursor)
		assert.Equal(t, apperrors.ErrCodeInvalidRequest, apperrors.GetErrorCode(err))
	}
}
