package utils

import "github.com/stretchr/testify/mock"

// MockLogger records log calls through testify/mock. Each level method is
// recorded as Called(msg, keysAndValues).
type MockLogger struct {
	mock.Mock
}

// Tolerate accepts any number of calls at the named levels ("Debug",
// "Info", "Warn", "Error") without asserting on them.
func (m *MockLogger) Tolerate(levels ...string) *MockLogger {
	for _, level := range levels {
		m.On(level, mock.Anything, mock.Anything).Maybe()
	}
	return m
}

// Messages returns the messages logged at level, in call order.
func (m *MockLogger) Messages(level string) []string {
	var msgs []string
	for _, call := range m.Calls {
		if call.Method == level {
			msgs = append(msgs, call.Arguments.String(0))
		}
	}
	return msgs
}

func (m *MockLogger) Debug(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Info(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Warn(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) Error(msg string, keysAndValues ...any) {
	m.Called(msg, keysAndValues)
}

func (m *MockLogger) SetLevel(level LogLevel) {
	m.Called(level)
}
