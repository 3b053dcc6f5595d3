package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses() {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	_, err := ParseStatus("archived")
	require.Error(t, err)
	_, err = ParseStatus("")
	require.Error(t, err)
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusFinalized.Terminal())
	assert.True(t, StatusCanceled.Terminal())
	assert.False(t, StatusApproved.Terminal())
	assert.False(t, StatusPending.Terminal())
}

func TestPoRecord_AddAssignee_IsSet(t *testing.T) {
	r := &PoRecord{}
	assert.True(t, r.AddAssignee("b"))
	assert.False(t, r.AddAssignee("b"))
	assert.True(t, r.AddAssignee("c"))
	assert.Equal(t, []string{"b", "c"}, r.Assignees)
}

func TestPoRecord_CloneDoesNotAlias(t *testing.T) {
	r := &PoRecord{Metadata: []byte(`{"a":1}`), Assignees: []string{"x"}}
	c := r.Clone()
	c.Metadata[0] = '['
	c.Assignees[0] = "y"
	assert.Equal(t, `{"a":1}`, string(r.Metadata))
	assert.Equal(t, []string{"x"}, r.Assignees)
}

func TestDraft_EncodeMetadata_RoundTrip(t *testing.T) {
	d := Draft{
		Title:       "Laptops",
		Meta:        json.RawMessage(`{ "vendor": "ACME & Sons" }`),
		Items:       json.RawMessage("[\n  {\"sku\": \"L-1\", \"qty\": 3}\n]"),
		Attachments: json.RawMessage(`[]`),
		Clauses:     json.RawMessage(`{ "text": "Terms & <Conditions>" }`),
	}
	raw, err := d.EncodeMetadata()
	require.NoError(t, err)

	r := &PoRecord{Metadata: raw}
	p, err := r.Payload()
	require.NoError(t, err)
	assert.Equal(t, string(d.Meta), string(p.Meta))
	assert.Equal(t, string(d.Items), string(p.Items))
	assert.Equal(t, string(d.Attachments), string(p.Attachments))
	assert.Equal(t, string(d.Clauses), string(p.Clauses))
}

func TestDraft_EncodeMetadata_EmptyAndInvalid(t *testing.T) {
	raw, err := Draft{Items: json.RawMessage(`[1]`)}.EncodeMetadata()
	require.NoError(t, err)
	assert.Equal(t, `{"meta":null,"items":[1],"attachments":null,"clauses":null}`, string(raw))

	_, err = Draft{Clauses: json.RawMessage(`{"open":`)}.EncodeMetadata()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clauses")
}

func TestPoRecord_Payload_Empty(t *testing.T) {
	r := &PoRecord{}
	p, err := r.Payload()
	require.NoError(t, err)
	assert.Nil(t, p.Meta)

	r.Metadata = []byte("{")
	_, err = r.Payload()
	require.Error(t, err)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
}
