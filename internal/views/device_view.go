package views

type RegisterDeviceRequest struct {
	UserID   string `json:"userId" binding:"required"`
	Platform string `json:"platform" binding:"required"`
	FcmToken string `json:"fcmToken" binding:"required"`
}

type UnregisterDeviceRequest struct {
	FcmToken string `json:"fcmToken" binding:"required"`
}

type UpsertGuestRequest struct {
	ID   string  `json:"id" binding:"required"` // uuid, chosen client-side for guests
	Name *string `json:"name"`
}
