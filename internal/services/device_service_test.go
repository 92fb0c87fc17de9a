package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hyunwoogil/restaurant-order-service/internal/views"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeviceService(devices *fakeDeviceRepo) *DeviceServiceImpl {
	return &DeviceServiceImpl{logger: testLogger, tx: &fakeTxRunner{}, deviceRepo: devices}
}

func TestRegisterDevice_UpsertsToken(t *testing.T) {
	devices := newFakeDeviceRepo()
	svc := newDeviceService(devices)
	userID := uuid.New()

	device, err := svc.Register(context.Background(), "t1", views.RegisterDeviceRequest{
		UserID:   userID.String(),
		Platform: "android",
		FcmToken: "tok-1",
	})

	require.NoError(t, err)
	assert.True(t, device.IsActive)
	assert.Equal(t, []string{"tok-1"}, devices.tokens[userID])
}

func TestRegisterDevice_RejectsUnknownPlatform(t *testing.T) {
	svc := newDeviceService(newFakeDeviceRepo())

	_, err := svc.Register(context.Background(), "t1", views.RegisterDeviceRequest{
		UserID:   uuid.New().String(),
		Platform: "windows-phone",
		FcmToken: "tok-1",
	})

	require.Error(t, err)
	assert.Equal(t, pkg.ErrInvalidInputCode, appErrCode(t, err))
}

func TestUnregisterDevice_UnknownTokenNotFound(t *testing.T) {
	devices := newFakeDeviceRepo()
	svc := newDeviceService(devices)
	userID := uuid.New()
	devices.tokens[userID] = []string{"tok-1"}

	require.NoError(t, svc.Unregister(context.Background(), "t1", views.UnregisterDeviceRequest{FcmToken: "tok-1"}))
	assert.Empty(t, devices.tokens[userID])

	err := svc.Unregister(context.Background(), "t1", views.UnregisterDeviceRequest{FcmToken: "tok-1"})
	require.Error(t, err)
	assert.Equal(t, pkg.ErrNotFoundCode, appErrCode(t, err))
}
