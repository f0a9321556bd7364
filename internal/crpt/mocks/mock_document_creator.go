package mocks

import (
	"context"

	"crptapi/internal/crpt"
	"crptapi/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockDocumentCreator struct {
	mock.Mock
}

func (m *MockDocumentCreator) CreateDocument(ctx context.Context, doc *model.Document) (*crpt.Result, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*crpt.Result), args.Error(1)
}
