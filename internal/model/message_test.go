package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageWireForm(t *testing.T) {
	amount, err := ParseAmount("0.012")
	require.NoError(t, err)

	m := Message{
		CustomerID: 1,
		Type:       "A",
		Amount:     amount,
		UUID:       uuid.MustParse("a596b362-08be-419f-8070-9c3055566e7c"),
		Date:       time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
	}

	out, err := json.Marshal(m)
	require.NoError(t, err)

	// Date is internal only and must never appear on the wire.
	assert.JSONEq(t,
		`{"customerid":1,"type":"A","amount":"0.012","uuid":"a596b362-08be-419f-8070-9c3055566e7c"}`,
		string(out))
}

func TestMessageDecode(t *testing.T) {
	var m Message
	body := `{"customerid":5,"type":"C","amount":"0.060","uuid":"e596b362-08be-419f-8070-9c3055566e7c"}`
	require.NoError(t, json.Unmarshal([]byte(body), &m))

	assert.Equal(t, 5, m.CustomerID)
	assert.Equal(t, "C", m.Type)
	assert.Equal(t, "0.060", m.Amount.String())
	assert.Equal(t, "e596b362-08be-419f-8070-9c3055566e7c", m.UUID.String())
	assert.True(t, m.Date.IsZero())
}

func TestMessageDecodeBadPrecision(t *testing.T) {
	var m Message
	body := `{"customerid":5,"type":"C","amount":"0.06","uuid":"e596b362-08be-419f-8070-9c3055566e7c"}`
	require.ErrorIs(t, json.Unmarshal([]byte(body), &m), ErrInvalidPrecision)
}

func TestMessageValidate(t *testing.T) {
	m := Message{
		CustomerID: 1,
		Type:       "A",
		UUID:       uuid.New(),
	}
	require.NoError(t, m.Validate())

	missingUUID := Message{CustomerID: 1, Type: "A"}
	require.Error(t, missingUUID.Validate())

	missingType := Message{CustomerID: 1, UUID: uuid.New()}
	require.Error(t, missingType.Validate())
}
