package kafka

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/pubconcept/internal/application/replacement"
)

func TestArticleSink_PublishesEnvelope(t *testing.T) {
	w := &mockKafkaWriter{}
	sink := NewArticleSink(newProducer(w, "articles", nil))

	err := sink.Write(context.Background(), replacement.ReplacedArticle{
		RunID: "run-1", PMID: "12345", Year: "2020", Text: "a  NCBIGene1019  b", Spans: 1,
	})
	require.NoError(t, err)
	require.Len(t, w.written, 1)

	msg := w.written[0]
	assert.Equal(t, []byte("12345"), msg.Key)

	var env EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, EventArticleReplaced, env.EventType)
	assert.Equal(t, "pubconcept", env.Source)
	assert.NotEmpty(t, env.EventID)

	var payload ArticleReplacedPayload
	require.NoError(t, env.DecodePayload(&payload))
	assert.Equal(t, ArticleReplacedPayload{RunID: "run-1", PMID: "12345", Year: "2020", Text: "a  NCBIGene1019  b", Spans: 1}, payload)

	assert.Equal(t, "kafka", sink.Name())
	require.NoError(t, sink.Close())
	assert.Equal(t, 1, w.closes)
}

func TestEventEnvelope_EmptyPayload(t *testing.T) {
	env := &EventEnvelope{}
	var p ArticleReplacedPayload
	assert.Error(t, env.DecodePayload(&p))
}

//Personal.AI order the ending
