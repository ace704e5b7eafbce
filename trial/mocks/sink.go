package mocks

import (
	"github.com/born-ml/xpbench/trial"
	"github.com/stretchr/testify/mock"
)

// Sink mock
type Sink struct {
	mock.Mock
}

// Emit provides a mock function with given fields: r
func (_m *Sink) Emit(r trial.Record) error {
	ret := _m.Called(r)

	var r0 error
	if rf, ok := ret.Get(0).(func(trial.Record) error); ok {
		r0 = rf(r)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Flush provides a mock function with given fields:
func (_m *Sink) Flush() error {
	ret := _m.Called()

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}
