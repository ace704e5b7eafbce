package mocks

import "github.com/stretchr/testify/mock"

// Barrier mock
type Barrier struct {
	mock.Mock
}

// Synchronize provides a mock function with given fields:
func (_m *Barrier) Synchronize() error {
	ret := _m.Called()

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}
