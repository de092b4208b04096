package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flermboard/board"
)

func sampleBoard(t *testing.T) *board.Board {
	t.Helper()
	group := &board.Element{ID: "g", Type: board.TypeGroup, Bounds: &board.Rect{X: 0, Y: 0, Width: 100, Height: 100},
		Children: []*board.Element{
			{ID: "r", Type: board.TypeRect, Text: "hello", Bounds: &board.Rect{X: 10, Y: 10, Width: 30, Height: 20}},
		}}
	arrow := &board.Element{ID: "a", Type: board.TypeArrow,
		Points: []board.Point{{X: 40, Y: 20}, {X: 200, Y: 20}},
		Start:  &board.Binding{ElementID: "r"},
	}
	return board.New(
		board.WithElements([]*board.Element{group, arrow}),
		board.WithViewport(board.Viewport{Zoom: 2, MinX: 5, MinY: 7}),
	)
}

func TestSnapshot_EncodeDecode(t *testing.T) {
	snap := Capture(sampleBoard(t))
	data, err := Encode(snap)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version: 1")

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	b := board.New(got.Options()...)
	el, ok := b.Find("r")
	require.True(t, ok)
	assert.Equal(t, "hello", el.Text)
	assert.Equal(t, 2.0, b.Viewport().Zoom)
}

func TestDecode_RejectsInvalidContent(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"arrow with bounds", "elements:\n- id: x\n  type: arrow\n  bounds: {x: 0, y: 0, width: 1, height: 1}\n", ErrInvalidContent},
		{"duplicate ids", "elements:\n- id: x\n  type: rect\n  bounds: {width: 1, height: 1}\n- id: x\n  type: rect\n  bounds: {width: 1, height: 1}\n", ErrInvalidContent},
		{"future version", "version: 99\n", ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.yaml))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	snap, err := Decode([]byte("elements: []\n"))
	require.NoError(t, err)
	assert.Equal(t, board.DefaultViewport(), snap.Viewport)
}

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	bs, err := OpenBadger(InMemoryBadgerConfig())
	require.NoError(t, err)
	t.Cleanup(func() { bs.Close() })
	return map[string]Store{"file": fs, "badger": bs}
}

func TestStores_SaveLoadListDelete(t *testing.T) {
	ctx := context.Background()
	snap := Capture(sampleBoard(t))

	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Save(ctx, "beta", snap))
			require.NoError(t, s.Save(ctx, "alpha", Snapshot{}))

			got, err := s.Load(ctx, "beta")
			require.NoError(t, err)
			assert.Equal(t, snap, got)

			names, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"alpha", "beta"}, names)

			require.NoError(t, s.Delete(ctx, "alpha"))
			_, err = s.Load(ctx, "alpha")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.ErrorIs(t, s.Delete(ctx, "alpha"), ErrNotFound)

			assert.ErrorIs(t, s.Save(ctx, "../escape", snap), ErrInvalidName)
			assert.ErrorIs(t, s.Save(ctx, "", snap), ErrInvalidName)

			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			assert.ErrorIs(t, s.Save(cancelled, "beta", snap), context.Canceled)
		})
	}
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultBadgerConfig(filepath.Join(t.TempDir(), "db"))
	cfg.GCInterval = 0

	s, err := OpenBadger(cfg)
	require.NoError(t, err)
	snap := Capture(sampleBoard(t))
	require.NoError(t, s.Save(ctx, "main", snap))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	s, err = OpenBadger(cfg)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Load(ctx, "main")
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestOpenBadger_RequiresPath(t *testing.T) {
	_, err := OpenBadger(BadgerConfig{})
	assert.Error(t, err)
}

func TestFileStore_WritesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), "chart", Capture(sampleBoard(t))))

	data, err := os.ReadFile(filepath.Join(dir, "chart"+FileExt))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "version: 1"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

const legacyChart = `FLOWCHART
BOXES:3
2,3,10,3,Start
20,3,10,4,Color,Two\nlines
5,10,Old
CONNECTIONS:3
0,1,12,4,20,4,1,2|16:4
0,2
0,9
TEXTS:1
1,15,a note
HIGHLIGHTS:1
4,4,2
PAN:3,-2
`

func TestImportLegacy(t *testing.T) {
	snap, err := ImportLegacy(strings.NewReader(legacyChart), CellSize{Width: 8, Height: 16})
	require.NoError(t, err)

	byID := map[string]*board.Element{}
	for _, el := range snap.Elements {
		byID[el.ID] = el
	}
	require.Len(t, snap.Elements, 6)

	start := byID["box-0"]
	require.NotNil(t, start)
	assert.Equal(t, "Start", start.Text)
	assert.Equal(t, board.Rect{X: 16, Y: 48, Width: 80, Height: 48}, *start.Bounds)

	assert.Equal(t, "Two\nlines", byID["box-1"].Text)

	old := byID["box-2"]
	assert.Equal(t, board.Rect{X: 40, Y: 160, Width: 64, Height: 48}, *old.Bounds)

	conn := byID["conn-0"]
	require.NotNil(t, conn)
	assert.Equal(t, board.TypeArrow, conn.Type)
	assert.Equal(t, "box-0", conn.Start.ElementID)
	assert.Equal(t, "box-1", conn.End.ElementID)
	assert.Equal(t, []board.Point{{X: 96, Y: 64}, {X: 128, Y: 64}, {X: 160, Y: 64}}, conn.Points)

	routed := byID["conn-1"]
	require.NotNil(t, routed)
	assert.Len(t, routed.Points, 2)
	assert.Nil(t, byID["conn-2"], "connection to a missing box is dropped")

	note := byID["text-0"]
	require.NotNil(t, note)
	assert.Equal(t, board.TypeText, note.Type)
	assert.Equal(t, "a note", note.Text)

	assert.Equal(t, 24.0, snap.Viewport.MinX)
	assert.Equal(t, -32.0, snap.Viewport.MinY)
}

func TestLoadFile_DetectsLegacyFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.flerm")
	require.NoError(t, os.WriteFile(path, []byte(legacyChart), 0644))

	snap, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, snap.Elements, 6)

	_, err = ImportLegacy(strings.NewReader("NOT A CHART\n"), DefaultCellSize())
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestPersister_SavesOnCommittedTerminalEvents(t *testing.T) {
	ctx := context.Background()
	s, err := OpenBadger(InMemoryBadgerConfig())
	require.NoError(t, err)
	defer s.Close()

	b := board.New()
	p := NewPersister(s, "main", nil)
	p.Attach(b)

	require.NoError(t, b.ApplyOne(board.InsertNode(board.Path{0},
		&board.Element{ID: "r", Type: board.TypeRect, Bounds: &board.Rect{Width: 10, Height: 10}}), true))
	assert.Equal(t, 0, p.Saves(), "board:change alone is not terminal")

	b.Emit(board.Event{Name: board.EventElementMoveEnd, Commit: false})
	assert.Equal(t, 0, p.Saves())

	b.Emit(board.Event{Name: board.EventElementCreateEnd, Commit: true})
	assert.Equal(t, 1, p.Saves())
	require.NoError(t, p.LastError())

	got, err := s.Load(ctx, "main")
	require.NoError(t, err)
	require.Len(t, got.Elements, 1)
	assert.Equal(t, "r", got.Elements[0].ID)

	require.NoError(t, b.Undo())
	assert.Equal(t, 2, p.Saves())
	got, err = s.Load(ctx, "main")
	require.NoError(t, err)
	assert.Empty(t, got.Elements)

	p.Detach()
	b.Emit(board.Event{Name: board.EventElementCreateEnd, Commit: true})
	assert.Equal(t, 2, p.Saves())
}
