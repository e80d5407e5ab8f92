package authflow_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	authflow "github.com/mvalko/go-authflow"
)

// MockProvider is a testify mock of the external identity provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return authflow.MethodGoogle
}

func (m *MockProvider) VerifyToken(ctx context.Context, token string) (*authflow.Assertion, error) {
	args := m.Called(ctx, token)
	if assertion, ok := args.Get(0).(*authflow.Assertion); ok {
		return assertion, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) MethodsForEmail(ctx context.Context, email string) ([]authflow.AuthMethod, error) {
	args := m.Called(ctx, email)
	if methods, ok := args.Get(0).([]authflow.AuthMethod); ok {
		return methods, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) SignInWithPassword(ctx context.Context, email, password string) (*authflow.ProviderSession, error) {
	args := m.Called(ctx, email, password)
	if session, ok := args.Get(0).(*authflow.ProviderSession); ok {
		return session, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProvider) LinkCredential(ctx context.Context, session *authflow.ProviderSession, pending *authflow.PendingCredential) error {
	args := m.Called(ctx, session, pending)
	return args.Error(0)
}

func (m *MockProvider) SignOut(ctx context.Context, session *authflow.ProviderSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

// MockLogger swallows log output while recording calls.
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {}
func (m *MockLogger) Info(format string, args ...any)  {}
func (m *MockLogger) Warn(format string, args ...any)  {}
func (m *MockLogger) Error(format string, args ...any) {}
