// Package mocks provides mock implementations of the session ports for testing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the interfaces in internal/ports.
// The mocks are generated using go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	backend := mocks.NewMockAuthBackend(ctrl)
//	backend.EXPECT().VerifyToken(gomock.Any(), "tok").Return(true, nil)
package mocks

// Generate mock for AuthBackend interface from internal/ports package.
// This creates MockAuthBackend with methods for all AuthBackend interface methods:
// DemoLogin, WalletLogin, Logout, VerifyToken, Refresh, MockUsers
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_backend_mock.go github.com/corruptguard/helix/internal/ports AuthBackend

// Generate mock for WalletConnector interface from internal/ports package.
// This creates MockWalletConnector with methods for all WalletConnector interface methods:
// Connect, Disconnect
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=wallet_connector_mock.go github.com/corruptguard/helix/internal/ports WalletConnector

// Generate mock for SessionStore interface from internal/ports package.
// This creates MockSessionStore with methods for all SessionStore interface methods:
// Get, Set, Delete, Update
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/corruptguard/helix/internal/ports SessionStore

// Generate mock for DocumentStore interface from internal/ports package.
// This creates MockDocumentStore with methods for all DocumentStore interface methods:
// UploadDocument, UploadJSON, URL
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=document_store_mock.go github.com/corruptguard/helix/internal/ports DocumentStore
