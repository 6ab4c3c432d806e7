package stream

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMessages = Messages{Failure: "Connection error.", Empty: "No response received."}

type sliceSource struct {
	chunks []string
	err    error
	pos    int
	cur    string
	closed bool
}

func (s *sliceSource) Next() bool {
	if s.pos >= len(s.chunks) {
		return false
	}
	s.cur = s.chunks[s.pos]
	s.pos++
	return true
}

func (s *sliceSource) Text() string { return s.cur }
func (s *sliceSource) Err() error   { return s.err }
func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

type endlessSource struct{ closed chan struct{} }

func (s *endlessSource) Next() bool   { return true }
func (s *endlessSource) Text() string { return "more " }
func (s *endlessSource) Err() error   { return nil }
func (s *endlessSource) Close() error {
	close(s.closed)
	return nil
}

func collect(a *Aggregator) []Update {
	var out []Update
	for u := range a.Updates() {
		out = append(out, u)
	}
	return out
}

func TestAggregatesChunksInOrder(t *testing.T) {
	src := &sliceSource{chunks: []string{"The plot ", "", "is ", "near the lake."}}
	a := New(testMessages)
	assert.Equal(t, StateIdle, a.State())

	a.Start(context.Background(), src)
	updates := collect(a)

	require.Len(t, updates, 3)
	assert.Equal(t, "The plot ", updates[0].Text)
	assert.Equal(t, "is ", updates[1].Delta)
	assert.Equal(t, "The plot is near the lake.", updates[2].Text)

	res := a.Wait()
	assert.Equal(t, StateComplete, res.State)
	assert.Equal(t, "The plot is near the lake.", res.Text)
	assert.Equal(t, 3, res.Chunks)
	assert.True(t, src.closed)
}

func TestFinalUpdateEqualsConcatenation(t *testing.T) {
	chunks := []string{"a", "b", "c", "d", "e", "f"}
	a := New(testMessages)
	a.Start(context.Background(), &sliceSource{chunks: chunks})

	updates := collect(a)
	require.Len(t, updates, len(chunks))
	assert.Equal(t, strings.Join(chunks, ""), updates[len(updates)-1].Text)
}

func TestEmptyStreamEmitsFallbackOnce(t *testing.T) {
	a := New(testMessages)
	a.Start(context.Background(), &sliceSource{chunks: []string{"", ""}})

	updates := collect(a)
	require.Len(t, updates, 1)
	assert.Equal(t, "No response received.", updates[0].Text)
	assert.Equal(t, StateComplete, updates[0].State)
	assert.Equal(t, StateComplete, a.Wait().State)
}

func TestFailureAfterChunksKeepsPartialOutput(t *testing.T) {
	src := &sliceSource{chunks: []string{"Water supply ", "is "}, err: errors.New("stream reset")}
	a := New(testMessages)
	a.Start(context.Background(), src)

	updates := collect(a)
	require.Len(t, updates, 3)
	assert.Equal(t, "Water supply is ", updates[1].Text)
	assert.Equal(t, "Connection error.", updates[2].Delta)
	assert.Equal(t, StateFailed, updates[2].State)

	res := a.Wait()
	assert.Equal(t, StateFailed, res.State)
	assert.EqualError(t, res.Err, "stream reset")
	assert.Equal(t, 2, res.Chunks)
}

func TestFailureBeforeAnyChunk(t *testing.T) {
	a := New(testMessages)
	a.Start(context.Background(), &sliceSource{err: errors.New("refused")})

	updates := collect(a)
	require.Len(t, updates, 1)
	assert.Equal(t, "Connection error.", updates[0].Text)
}

func TestCancellationStopsConsumption(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &endlessSource{closed: make(chan struct{})}
	a := New(testMessages)
	a.Start(ctx, src)

	<-a.Updates()
	<-a.Updates()
	cancel()
	for range a.Updates() {
	}

	<-src.closed
	res := a.Wait()
	assert.Equal(t, StateFailed, res.State)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestFixed(t *testing.T) {
	a := Fixed("Chat unavailable without API Key.", StateFailed, nil)
	updates := collect(a)
	require.Len(t, updates, 1)
	assert.Equal(t, "Chat unavailable without API Key.", updates[0].Text)
	assert.Equal(t, StateFailed, a.Wait().State)
}

func TestStateTextRoundTrip(t *testing.T) {
	data, err := json.Marshal(Update{Delta: "a", Text: "a", State: StateComplete})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"state":"complete"`)

	var u Update
	require.NoError(t, json.Unmarshal(data, &u))
	assert.Equal(t, StateComplete, u.State)

	var s State
	assert.Error(t, s.UnmarshalText([]byte("paused")))
}
