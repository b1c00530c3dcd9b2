// CampusLens - Academic Analytics and Course Recommendations
// Copyright 2026 CampusLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/campuslens/campuslens

package supervisor

import (
	"context"
	"sync/atomic"
)

// MockService is a test helper that implements suture.Service. It counts
// starts and runs until its context is canceled.
type MockService struct {
	name       string
	startCount atomic.Int32
}

// NewMockService creates a new mock service for testing.
func NewMockService(name string) *MockService {
	return &MockService{name: name}
}

// Serve implements suture.Service.
func (m *MockService) Serve(ctx context.Context) error {
	m.startCount.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

// StartCount returns how many times Serve was called.
func (m *MockService) StartCount() int32 {
	return m.startCount.Load()
}

// String implements fmt.Stringer for suture logging.
func (m *MockService) String() string {
	return m.name
}
