package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"marky/internal/buffer"
	"marky/internal/editor"
	"marky/internal/errors"
	"marky/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFiles struct{ mock.Mock }

func (m *mockFiles) PickAndRead(ctx context.Context) (string, string, error) {
	args := m.Called(ctx)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *mockFiles) Read(ctx context.Context, path string) (string, error) {
	args := m.Called(ctx, path)
	return args.String(0), args.Error(1)
}

func (m *mockFiles) Write(ctx context.Context, path, suggested, content string) (string, error) {
	args := m.Called(ctx, path, suggested, content)
	return args.String(0), args.Error(1)
}

type mockWatcher struct{ mock.Mock }

func (m *mockWatcher) Add(path string) error    { return m.Called(path).Error(0) }
func (m *mockWatcher) Remove(path string) error { return m.Called(path).Error(0) }
func (m *mockWatcher) Ignore(path string)       { m.Called(path) }

type mockOpener struct{ mock.Mock }

func (m *mockOpener) Open(url string) error { return m.Called(url).Error(0) }

// run applies msg and feeds any task result back until nothing is left.
func run(t *testing.T, d *Dispatcher, s *editor.State, msg Message) Result {
	t.Helper()
	for {
		res := d.Update(s, msg)
		if res.Task == nil || res.Quit {
			return res
		}
		msg = res.Task(context.Background())
		if msg == nil {
			return Result{}
		}
	}
}

func TestInsertThenSaveAs(t *testing.T) {
	files := new(mockFiles)
	files.On("Write", mock.Anything, "", "untitled.md", "a").Return("/tmp/p.md", nil)

	d := NewDispatcher(files)
	s := editor.NewState()

	run(t, d, s, Edit{Action: buffer.Insert{Text: "a"}})
	require.True(t, s.Active().Dirty())

	run(t, d, s, Save{})
	assert.False(t, s.Active().Dirty())
	assert.Equal(t, "/tmp/p.md", s.Active().Path())
	assert.Equal(t, "Saved p.md", s.Status())
	files.AssertExpectations(t)
}

func TestSaveWithPathSkipsDialog(t *testing.T) {
	files := new(mockFiles)
	files.On("Write", mock.Anything, "/docs/a.md", "", "# A!").Return("/docs/a.md", nil)
	watcher := new(mockWatcher)
	watcher.On("Add", "/docs/a.md").Return(nil)
	watcher.On("Ignore", "/docs/a.md").Return()

	d := NewDispatcher(files, WithWatcher(watcher))
	s := editor.NewState()
	run(t, d, s, Opened{Path: "/docs/a.md", Content: "# A"})
	s.ApplyEdit(buffer.MoveTo{Pos: buffer.Pos{Col: 3}})
	run(t, d, s, Edit{Action: buffer.Insert{Text: "!"}})

	run(t, d, s, Save{})
	assert.False(t, s.Active().Dirty())
	files.AssertExpectations(t)
	watcher.AssertExpectations(t)
}

func TestSaveAsAlwaysAsks(t *testing.T) {
	files := new(mockFiles)
	files.On("Write", mock.Anything, "", "a.md", "x").Return("/other/b.md", nil)

	d := NewDispatcher(files)
	s := editor.NewState()
	run(t, d, s, Opened{Path: "/docs/a.md", Content: "x"})

	run(t, d, s, SaveAs{})
	assert.Equal(t, "/other/b.md", s.Active().Path())
	files.AssertExpectations(t)
}

func TestSaveAsOverOpenFileKeepsOneTabPerPath(t *testing.T) {
	t.Run("clean duplicate is closed", func(t *testing.T) {
		d := NewDispatcher(new(mockFiles))
		s := editor.NewState()
		run(t, d, s, Opened{Path: "/docs/b.md", Content: "old b"})
		s.NewFile()
		s.ApplyEdit(buffer.Insert{Text: "new b"})
		id := s.Active().ID()

		d.Update(s, Saved{ID: id, Path: "/docs/b.md", Content: "new b"})
		assert.Equal(t, 2, s.Len())
		assert.Equal(t, id, s.Active().ID())
		assert.Equal(t, s.ActiveIndex(), s.FindByPath("/docs/b.md"))
		assert.Equal(t, "new b", s.Active().Text())
	})

	t.Run("dirty duplicate keeps its edits", func(t *testing.T) {
		d := NewDispatcher(new(mockFiles))
		s := editor.NewState()
		run(t, d, s, Opened{Path: "/docs/b.md", Content: "old b"})
		s.ApplyEdit(buffer.Insert{Text: "unsaved "})
		dirty := s.Active()
		s.NewFile()
		id := s.Active().ID()

		d.Update(s, Saved{ID: id, Path: "/docs/b.md", Content: ""})
		assert.Equal(t, 3, s.Len())
		assert.Empty(t, dirty.Path())
		assert.True(t, dirty.Dirty())
		assert.Contains(t, dirty.Text(), "unsaved ")
		assert.Equal(t, s.ActiveIndex(), s.FindByPath("/docs/b.md"))
	})
}

func TestEditDuringSaveStaysDirty(t *testing.T) {
	files := new(mockFiles)
	files.On("Write", mock.Anything, "", "untitled.md", "a").Return("/tmp/p.md", nil)

	d := NewDispatcher(files)
	s := editor.NewState()
	d.Update(s, Edit{Action: buffer.Insert{Text: "a"}})

	res := d.Update(s, Save{})
	require.NotNil(t, res.Task)
	d.Update(s, Edit{Action: buffer.Insert{Text: "b"}})

	d.Update(s, res.Task(context.Background()))
	assert.True(t, s.Active().Dirty())
	assert.Equal(t, "/tmp/p.md", s.Active().Path())
}

func TestSavedForClosedFileIsIgnored(t *testing.T) {
	d := NewDispatcher(new(mockFiles))
	s := editor.NewState()
	s.NewFile()
	closed := s.Files()[0].ID()
	d.Update(s, Close{Index: intPtr(0)})

	res := d.Update(s, Saved{ID: closed, Path: "/gone.md", Content: ""})
	assert.Nil(t, res.Task)
	assert.Equal(t, 1, s.Len())
	assert.Empty(t, s.Active().Path())
}

func TestSavedAddressesFileByID(t *testing.T) {
	d := NewDispatcher(new(mockFiles))
	s := editor.NewState()
	first := s.Active().ID()
	s.ApplyEdit(buffer.Insert{Text: "x"})
	s.NewFile()

	d.Update(s, Saved{ID: first, Path: "/first.md", Content: "x"})
	assert.Equal(t, "/first.md", s.Files()[0].Path())
	assert.False(t, s.Files()[0].Dirty())
	assert.Empty(t, s.Files()[1].Path())
}

func TestOpenFlow(t *testing.T) {
	files := new(mockFiles)
	files.On("PickAndRead", mock.Anything).Return("/n.md", "# N", nil).Once()

	d := NewDispatcher(files)
	s := editor.NewState()
	run(t, d, s, Open{})

	require.Equal(t, 2, s.Len())
	assert.Equal(t, 1, s.ActiveIndex())
	assert.Equal(t, "# N", s.Active().Text())
	assert.False(t, s.Active().Dirty())
	files.AssertExpectations(t)
}

func TestIOFailedLeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"cancelled", errors.ErrDialogCancelled},
		{"read", errors.NewFileError("read failed", "/x.md", errors.ReadFailed, nil)},
		{"write", errors.NewFileError("write failed", "/x.md", errors.WriteFailed, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files := new(mockFiles)
			files.On("PickAndRead", mock.Anything).Return("", "", tt.err)
			files.On("Write", mock.Anything, "", "untitled.md", "draft").Return("", tt.err)

			d := NewDispatcher(files)
			s := editor.NewState()
			s.ApplyEdit(buffer.Insert{Text: "draft"})

			run(t, d, s, Open{})
			run(t, d, s, Save{})
			run(t, d, s, SaveAs{})

			assert.Equal(t, 1, s.Len())
			assert.Equal(t, 0, s.ActiveIndex())
			assert.Equal(t, "draft", s.Active().Text())
			assert.True(t, s.Active().Dirty())
			assert.Empty(t, s.Active().Path())
			assert.Empty(t, s.Status())
		})
	}
}

func TestIOFailedStatusWhenEnabled(t *testing.T) {
	d := NewDispatcher(new(mockFiles), WithIOErrorStatus(true))
	s := editor.NewState()

	d.Update(s, IOFailed{Op: OpSave, Err: errors.New("disk full")})
	assert.Contains(t, s.Status(), "save failed")

	s.SetStatus("")
	d.Update(s, IOFailed{Op: OpOpen, Err: errors.ErrDialogCancelled})
	assert.Empty(t, s.Status(), "cancellation is not an error")
}

func TestIOFailedClassifiesErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantLevel  string
		wantMsg    string
		wantStatus string
	}{
		{"not found", errors.NewFileError("file not found", "/gone.md", errors.FileNotFound, nil),
			"info", "File not found", "reload: file not found"},
		{"not text", errors.NewFileError("not valid UTF-8", "/latin1.txt", errors.NotText, nil),
			"warning", "Read failed", "reload failed: not valid UTF-8: /latin1.txt"},
		{"write", errors.NewFileError("failed to write file", "/ro.md", errors.WriteFailed, nil),
			"warning", "Write failed", "reload failed: failed to write file: /ro.md"},
		{"other", errors.New("no opener"),
			"warning", "File operation failed", "reload failed: no opener"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log.Configure(log.WithOutput(&buf), log.WithJSON())
			defer log.Configure()

			d := NewDispatcher(new(mockFiles), WithIOErrorStatus(true))
			s := editor.NewState()
			d.Update(s, IOFailed{Op: OpReload, Err: tt.err})
			assert.Equal(t, tt.wantStatus, s.Status())

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["message"])
			assert.Equal(t, errors.KindOf(tt.err).String(), entry["error_kind"])
		})
	}
}

func TestCloseLastQuits(t *testing.T) {
	d := NewDispatcher(new(mockFiles))
	s := editor.NewState()

	res := d.Update(s, Close{})
	assert.True(t, res.Quit)

	s.NewFile()
	res = d.Update(s, Close{})
	assert.False(t, res.Quit)
	assert.Equal(t, 1, s.Len())

	res = d.Update(s, Close{Index: intPtr(5)})
	assert.False(t, res.Quit)
}

func TestCloseUnwatches(t *testing.T) {
	watcher := new(mockWatcher)
	watcher.On("Add", "/a.md").Return(nil)
	watcher.On("Remove", "/a.md").Return(nil)

	d := NewDispatcher(new(mockFiles), WithWatcher(watcher))
	s := editor.NewState()
	d.Update(s, Opened{Path: "/a.md", Content: "a"})
	d.Update(s, Close{})

	watcher.AssertCalled(t, "Remove", "/a.md")
}

func TestStateMessages(t *testing.T) {
	d := NewDispatcher(new(mockFiles))
	s := editor.NewState()

	d.Update(s, New{})
	d.Update(s, New{})
	assert.Equal(t, 3, s.Len())

	d.Update(s, SwitchTab{Index: 0})
	assert.Equal(t, 0, s.ActiveIndex())
	d.Update(s, SwitchTab{Index: 9})
	assert.Equal(t, 0, s.ActiveIndex())
	d.Update(s, NextTab{})
	assert.Equal(t, 1, s.ActiveIndex())

	d.Update(s, IncreaseFont{})
	assert.Equal(t, 18, s.FontSize())
	d.Update(s, DecreaseFont{})
	d.Update(s, DecreaseFont{})
	assert.Equal(t, 14, s.FontSize())
	d.Update(s, ResetFont{})
	assert.Equal(t, 16, s.FontSize())

	d.Update(s, ToggleWordWrap{})
	assert.True(t, s.WordWrap())
	d.Update(s, TogglePreview{})
	assert.Equal(t, editor.ModePreview, s.Mode())

	d.Update(s, Edit{})
	assert.False(t, s.Active().Dirty())
}

func TestLinkClicked(t *testing.T) {
	opener := new(mockOpener)
	opener.On("Open", "https://go.dev").Return(nil)

	d := NewDispatcher(new(mockFiles), WithOpener(opener))
	s := editor.NewState()

	res := d.Update(s, LinkClicked{URL: "https://go.dev"})
	require.NotNil(t, res.Task)
	assert.Nil(t, res.Task(context.Background()))
	opener.AssertExpectations(t)

	opener.On("Open", "bad://").Return(errors.New("no handler"))
	msg := d.Update(s, LinkClicked{URL: "bad://"}).Task(context.Background())
	failed, ok := msg.(IOFailed)
	require.True(t, ok)
	assert.Equal(t, OpLink, failed.Op)
}

func TestReloadAndChangedOnDisk(t *testing.T) {
	files := new(mockFiles)
	files.On("Read", mock.Anything, "/a.md").Return("new text", nil)

	d := NewDispatcher(files)
	s := editor.NewState()
	d.Update(s, Opened{Path: "/a.md", Content: "old text"})

	d.Update(s, FileChangedOnDisk{Path: "/a.md"})
	assert.True(t, s.Active().ChangedOnDisk())
	assert.Contains(t, s.Status(), "changed on disk")

	d.Update(s, FileChangedOnDisk{Path: "/elsewhere.md"})

	run(t, d, s, Reload{})
	assert.Equal(t, "new text", s.Active().Text())
	assert.False(t, s.Active().ChangedOnDisk())

	s.NewFile()
	assert.Nil(t, d.Update(s, Reload{}).Task, "nothing to reload for an unsaved file")
}

func TestStartupTask(t *testing.T) {
	path := filepath.Join(t.TempDir(), "start.md")
	require.NoError(t, os.WriteFile(path, []byte("# Start"), 0o600))

	files := new(mockFiles)
	files.On("Read", mock.Anything, path).Return("# Start", nil)

	d := NewDispatcher(files)
	s := editor.NewState()
	task := d.StartupTask(s, path)
	require.NotNil(t, task)
	assert.Equal(t, path, s.Active().Path())

	d.Update(s, task(context.Background()))
	assert.Equal(t, "# Start", s.Active().Text())
	assert.False(t, s.Active().Dirty())
	files.AssertExpectations(t)
}

func TestStartupTaskMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "later.md")
	files := new(mockFiles)

	d := NewDispatcher(files)
	s := editor.NewState()
	assert.Nil(t, d.StartupTask(s, path))
	assert.Equal(t, path, s.Active().Path(), "saving creates it")
	assert.Empty(t, s.Active().Text())
	files.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)

	assert.Nil(t, d.StartupTask(s, ""))
}

func intPtr(i int) *int { return &i }

func TestEditForInactiveFileIsDropped(t *testing.T) {
	d := NewDispatcher(new(mockFiles))
	s := editor.NewState()
	first := s.Active().ID()
	s.NewFile()

	d.Update(s, Edit{ID: first, Action: buffer.Replace{Text: "stale"}})
	assert.Empty(t, s.Active().Text())
	assert.Empty(t, s.Files()[0].Text())

	d.Update(s, Edit{ID: s.Active().ID(), Action: buffer.Insert{Text: "ok"}})
	assert.Equal(t, "ok", s.Active().Text())
}
