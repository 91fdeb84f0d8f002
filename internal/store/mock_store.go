package store

import (
	"context"

	"github.com/stretchr/testify/mock"

	"litcorpus/internal/corpus"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Load(ctx context.Context) (Snapshot, error) {
	args := m.Called(ctx)
	return args.Get(0).(Snapshot), args.Error(1)
}

func (m *MockStore) CommitDocument(ctx context.Context, doc corpus.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockStore) AppendBuffer(ctx context.Context, text string) (Entry, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(Entry), args.Error(1)
}

func (m *MockStore) ListBuffers(ctx context.Context) ([]Entry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Entry), args.Error(1)
}

func (m *MockStore) ClearBuffers(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
