package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/lgulliver/cargolifter/internal/forge"
	"github.com/stretchr/testify/mock"
)

// memoryForge is an in-memory forge.Backend: branches are maps of files,
// merging copies the head branch over the base branch.
type memoryForge struct {
	mu       sync.Mutex
	branches map[string]map[string]string
	prs      map[int64][2]string
	nextPR   int64
	failOn   map[string]error
	calls    []string
	tokens   map[string]string
}

func newMemoryForge() *memoryForge {
	return &memoryForge{
		branches: map[string]map[string]string{"main": {}},
		prs:      map[int64][2]string{},
		failOn:   map[string]error{},
		tokens:   map[string]string{},
	}
}

func (f *memoryForge) record(op, token string) error {
	f.calls = append(f.calls, op)
	f.tokens[op] = token
	return f.failOn[op]
}

func (f *memoryForge) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *memoryForge) DefaultBranch() string   { return "main" }
func (f *memoryForge) ContentEncoding() string { return "base64" }

func (f *memoryForge) GetFile(_ context.Context, token, path, ref string) (*forge.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("GetFile", token); err != nil {
		return nil, err
	}
	content, ok := f.branches[ref][path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, forge.ErrNotFound)
	}
	return &forge.File{Content: content, Encoding: "base64", Revision: fmt.Sprintf("rev-%d", len(content))}, nil
}

func (f *memoryForge) commit(path, branch, content string) {
	files := map[string]string{}
	for k, v := range f.branches["main"] {
		files[k] = v
	}
	files[path] = content
	f.branches[branch] = files
}

func (f *memoryForge) CreateFile(_ context.Context, token, path, branch, content, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateFile", token); err != nil {
		return err
	}
	f.commit(path, branch, content)
	return nil
}

func (f *memoryForge) UpdateFile(_ context.Context, token, path, branch, content, _, revision string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("UpdateFile", token); err != nil {
		return err
	}
	if current := f.branches["main"][path]; fmt.Sprintf("rev-%d", len(current)) != revision {
		return forge.ErrConflict
	}
	f.commit(path, branch, content)
	return nil
}

func (f *memoryForge) DeleteBranch(_ context.Context, token, branch string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("DeleteBranch", token); err != nil {
		return err
	}
	delete(f.branches, branch)
	return nil
}

func (f *memoryForge) CreateMergeRequest(_ context.Context, token, _, head, base string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateMergeRequest", token); err != nil {
		return 0, err
	}
	f.nextPR++
	f.prs[f.nextPR] = [2]string{head, base}
	return f.nextPR, nil
}

func (f *memoryForge) MergeMergeRequest(_ context.Context, token string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("MergeMergeRequest", token); err != nil {
		return err
	}
	pr := f.prs[id]
	f.branches[pr[1]] = f.branches[pr[0]]
	return nil
}

func (f *memoryForge) CloseMergeRequest(_ context.Context, token string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CloseMergeRequest", token); err != nil {
		return err
	}
	delete(f.prs, id)
	return nil
}

// MockBackend implements forge.Backend for testing
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) DefaultBranch() string   { return "main" }
func (m *MockBackend) ContentEncoding() string { return "base64" }

func (m *MockBackend) GetFile(ctx context.Context, token, path, ref string) (*forge.File, error) {
	args := m.Called(ctx, token, path, ref)
	file, _ := args.Get(0).(*forge.File)
	return file, args.Error(1)
}

func (m *MockBackend) CreateFile(ctx context.Context, token, path, branch, content, message string) error {
	args := m.Called(ctx, token, path, branch, content, message)
	return args.Error(0)
}

func (m *MockBackend) UpdateFile(ctx context.Context, token, path, branch, content, message, revision string) error {
	args := m.Called(ctx, token, path, branch, content, message, revision)
	return args.Error(0)
}

func (m *MockBackend) DeleteBranch(ctx context.Context, token, branch string) error {
	args := m.Called(ctx, token, branch)
	return args.Error(0)
}

func (m *MockBackend) CreateMergeRequest(ctx context.Context, token, title, head, base string) (int64, error) {
	args := m.Called(ctx, token, title, head, base)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBackend) MergeMergeRequest(ctx context.Context, token string, id int64) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

func (m *MockBackend) CloseMergeRequest(ctx context.Context, token string, id int64) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}
