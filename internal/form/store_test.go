package form

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/screeningbot/internal/chat"
)

func TestStoreStartResetsFields(t *testing.T) {
	st := NewStore()
	cat := DefaultCatalog(DefaultTexts())

	s := st.Start(7, chat.Identity{ID: 7}, cat[SchemaDoctor], "doctor")
	s.Fields[FieldName] = Value{Text: "Anna"}
	s.State = State{Phase: PhaseReview}

	fresh := st.Start(7, chat.Identity{ID: 7}, cat[SchemaCallback], "callback")
	assert.NotSame(t, s, fresh)
	assert.Empty(t, fresh.Fields)
	assert.Equal(t, State{Phase: PhaseField}, fresh.State)
	assert.Equal(t, "callback", fresh.Source)

	got, ok := st.Get(7)
	require.True(t, ok)
	assert.Same(t, fresh, got)
	assert.True(t, st.InProgress(7))
	assert.Equal(t, 1, st.Len())

	st.Discard(7)
	_, ok = st.Get(7)
	assert.False(t, ok)
	assert.False(t, st.InProgress(7))
	assert.Zero(t, st.Len())
}

func TestStoreInProgressIgnoresTerminal(t *testing.T) {
	st := NewStore()
	s := st.Start(1, chat.Identity{ID: 1}, DefaultCatalog(DefaultTexts())[SchemaCallback], "x")
	s.State = State{Phase: PhaseSent}
	assert.False(t, st.InProgress(1))
}

func TestStoreLockSerializesUser(t *testing.T) {
	st := NewStore()
	release := st.Lock(5)

	acquired := make(chan struct{})
	go func() {
		r := st.Lock(5)
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first is held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired")
	}

	require.Eventually(t, func() bool {
		st.locksMu.Lock()
		defer st.locksMu.Unlock()
		return len(st.locks) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestStoreLockIndependentUsers(t *testing.T) {
	st := NewStore()
	r1 := st.Lock(1)
	defer r1()

	done := make(chan struct{})
	go func() {
		st.Lock(2)()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another user blocked")
	}
}

func TestStoreLockConcurrentCounter(t *testing.T) {
	st := NewStore()
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := st.Lock(9)
			defer release()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}

func TestSchemaDefinitions(t *testing.T) {
	tx := DefaultTexts()
	cat := DefaultCatalog(tx)
	require.Len(t, cat, 3)
	assert.Equal(t, 5, cat[SchemaContact].Len())
	assert.Equal(t, 2, cat[SchemaCallback].Len())
	assert.Equal(t, 3, cat[SchemaDoctor].Len())

	assert.Equal(t, 1, cat[SchemaContact].Index(FieldPhone))
	assert.Equal(t, -1, cat[SchemaCallback].Index(FieldChannel))

	i, ok := cat[SchemaDoctor].ByLabel(" " + tx.Fields[FieldQuestion].Label)
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, err := NewSchema("dup", Field{ID: "a"}, Field{ID: "a"})
	assert.Error(t, err)
	_, err = NewSchema("empty")
	assert.Error(t, err)
	assert.Panics(t, func() { MustSchema("", Field{ID: "a"}) })
}

func TestTextsMerge(t *testing.T) {
	base := DefaultTexts()
	merged := base.Merge(Texts{
		Cancel: "Stop",
		Fields: map[string]FieldText{FieldName: {Label: "Full name"}},
	})
	assert.Equal(t, "Stop", merged.Cancel)
	assert.Equal(t, base.Back, merged.Back)
	assert.Equal(t, "Full name", merged.Fields[FieldName].Label)
	assert.Equal(t, base.Fields[FieldName].Prompt, merged.Fields[FieldName].Prompt)
	assert.Equal(t, "Name", base.Fields[FieldName].Label)
}
