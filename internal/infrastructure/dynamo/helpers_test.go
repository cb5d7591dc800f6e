package dynamo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/akvora-api/internal/domain"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildUpdateExpr_SingleField(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"title": "Hackathon"})
	require.NoError(t, err)
	assert.Equal(t, "SET #f0 = :v0", ue.Expr)
	assert.Equal(t, map[string]string{"#f0": "title"}, ue.Names)
	_, ok := ue.Values[":v0"]
	assert.True(t, ok)
}

func TestBuildUpdateExpr_MultipleFields_Deterministic(t *testing.T) {
	updates := map[string]interface{}{
		"message":    "Doors open at 9",
		"expires_at": "2025-03-01T00:00:00Z",
		"title":      "Hackathon",
	}
	ue1, err := buildUpdateExpr(updates)
	require.NoError(t, err)
	ue2, err := buildUpdateExpr(updates)
	require.NoError(t, err)

	assert.Equal(t, ue1.Expr, ue2.Expr)

	// expires_at < message < title
	assert.Equal(t, "expires_at", ue1.Names["#f0"])
	assert.Equal(t, "message", ue1.Names["#f1"])
	assert.Equal(t, "title", ue1.Names["#f2"])
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1, #f2 = :v2", ue1.Expr)
}

func TestBuildUpdateExpr_ValuesMarshalledCorrectly(t *testing.T) {
	ue, err := buildUpdateExpr(map[string]interface{}{"is_read": true})
	require.NoError(t, err)
	av, ok := ue.Values[":v0"]
	require.True(t, ok)
	boolVal, isBool := av.(*types.AttributeValueMemberBOOL)
	require.True(t, isBool)
	assert.True(t, boolVal.Value)
}

func TestBuildUpdateExpr_EmptyMap_ReturnsError(t *testing.T) {
	_, err := buildUpdateExpr(map[string]interface{}{})
	assert.ErrorContains(t, err, "no fields to update")
}

func TestStoreErr_WrapsBoth(t *testing.T) {
	cause := fmt.Errorf("throttled")
	err := storeErr("put notification", cause)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "put notification")
}

func TestIsConditionFailed(t *testing.T) {
	wrapped := fmt.Errorf("update: %w", &types.ConditionalCheckFailedException{})
	assert.True(t, isConditionFailed(wrapped))
	assert.False(t, isConditionFailed(errors.New("boom")))
}

func TestChunk(t *testing.T) {
	items := make([]int, 53)
	groups := chunk(items, 25)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 25)
	assert.Len(t, groups[1], 25)
	assert.Len(t, groups[2], 3)

	assert.Empty(t, chunk([]int{}, 25))
}

func TestEndpointID_StableAndDistinct(t *testing.T) {
	a := EndpointID("https://push.example.com/a")
	assert.Equal(t, a, EndpointID("https://push.example.com/a"))
	assert.NotEqual(t, a, EndpointID("https://push.example.com/b"))
	assert.Len(t, a, 64)
}
