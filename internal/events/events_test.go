package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(TypeQuestionCreated, "q-1", 1, QuestionCreated{
		QuestionID: "q-1",
		Title:      "t",
		Content:    "c",
		TagSlugs:   []string{"go"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, env.EventID)
	assert.False(t, env.OccurredAt.IsZero())

	data, err := Encode(env)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, env.EventID, got.EventID)
	assert.Equal(t, TypeQuestionCreated, got.EventType)
	assert.Equal(t, "q-1", got.QuestionID)
	assert.Equal(t, 1, got.Version)
	assert.JSONEq(t, string(env.Payload), string(got.Payload))
}

func TestDecode_RejectsPoison(t *testing.T) {
	cases := map[string]string{
		"not json":            `{broken`,
		"missing event type":  `{"eventId":"e","questionId":"q-1","version":1}`,
		"missing question id": `{"eventId":"e","eventType":"QuestionCreated","version":1}`,
		"empty document":      `{}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			assert.Error(t, err)
		})
	}
}
