package docstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsConflict_PlainError(t *testing.T) {
	t.Parallel()

	// An error carrying no HTTP status at all is never treated as a
	// revision conflict.
	assert.False(t, isConflict(errors.New("boom")))
}

func TestChangeEvent_EndMarker(t *testing.T) {
	t.Parallel()

	ev := ChangeEvent{End: true, LastSeq: "42-abc"}
	assert.True(t, ev.End)
	assert.Equal(t, "42-abc", ev.LastSeq)
	assert.Empty(t, ev.ID)
}

func TestRow_CarriesRawDoc(t *testing.T) {
	t.Parallel()

	r := Row{ID: "policies:admins", Doc: []byte(`{"name":"admins"}`)}
	assert.Equal(t, "policies:admins", r.ID)
	assert.JSONEq(t, `{"name":"admins"}`, string(r.Doc))
}
