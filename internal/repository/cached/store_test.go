package cached

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-scheduler/internal/model"
	"github.com/jwalitptl/clinic-scheduler/internal/repository/mocks"
)

func TestServicesAreCached(t *testing.T) {
	next := new(mocks.Store)
	next.On("ListServices", mock.Anything).Return([]model.Service{{ID: "1", Name: "Facial"}}, nil).Once()

	s := NewStore(next, time.Minute)
	for i := 0; i < 3; i++ {
		services, err := s.ListServices(context.Background())
		require.NoError(t, err)
		require.Len(t, services, 1)
		services[0].Name = "mutated"
	}

	services, err := s.ListServices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Facial", services[0].Name)
	next.AssertNumberOfCalls(t, "ListServices", 1)
}

func TestPackageLookupsAreCachedIncludingMisses(t *testing.T) {
	next := new(mocks.Store)
	next.On("GetPackageComponents", mock.Anything, model.ID("2")).
		Return([]model.PackageComponent{{ServiceID: "1", Quantity: 2}}, nil).Once()
	next.On("GetPackageComponents", mock.Anything, model.ID("1")).Return(nil, nil).Once()

	s := NewStore(next, time.Minute)
	for i := 0; i < 2; i++ {
		parts, err := s.GetPackageComponents(context.Background(), "2")
		require.NoError(t, err)
		assert.Len(t, parts, 1)

		parts, err = s.GetPackageComponents(context.Background(), "1")
		require.NoError(t, err)
		assert.Nil(t, parts)
	}
	next.AssertExpectations(t)
}

func TestErrorsAreNotCached(t *testing.T) {
	next := new(mocks.Store)
	next.On("ListServices", mock.Anything).Return(nil, errors.New("down")).Once()
	next.On("ListServices", mock.Anything).Return([]model.Service{{ID: "1"}}, nil).Once()

	s := NewStore(next, time.Minute)
	_, err := s.ListServices(context.Background())
	require.Error(t, err)

	services, err := s.ListServices(context.Background())
	require.NoError(t, err)
	assert.Len(t, services, 1)
}

func TestInvalidateAndPassThrough(t *testing.T) {
	next := new(mocks.Store)
	next.On("ListServices", mock.Anything).Return([]model.Service{{ID: "1"}}, nil).Twice()
	next.On("ListPatients", mock.Anything).Return([]model.Patient{{ID: "5"}}, nil).Twice()

	s := NewStore(next, time.Minute)
	_, _ = s.ListServices(context.Background())
	s.Invalidate()
	_, _ = s.ListServices(context.Background())

	_, _ = s.ListPatients(context.Background())
	_, _ = s.ListPatients(context.Background())
	next.AssertExpectations(t)
}
