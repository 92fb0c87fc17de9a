package pkg

const (
	HeaderTraceId string = "X-Trace-Id"
)

const (
	TraceId string = "trace_id"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "PLACED"
	OrderStatusAccepted  OrderStatus = "ACCEPTED"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

// SendStatus is the delivery state of a notification record.
// A record never leaves sent or failed once it gets there.
type SendStatus string

const (
	SendStatusQueued SendStatus = "queued"
	SendStatusSent   SendStatus = "sent"
	SendStatusFailed SendStatus = "failed"
)

// NotificationChannel identifies the delivery channel of a notification record.
type NotificationChannel string

const (
	ChannelFCM NotificationChannel = "fcm"
)

// SelectionType is the arity rule of a menu option: single requires exactly
// one selected value, multi requires at least one.
type SelectionType string

const (
	SelectionSingle SelectionType = "single"
	SelectionMulti  SelectionType = "multi"
)

type DevicePlatform string

const (
	PlatformWeb     DevicePlatform = "web"
	PlatformIOS     DevicePlatform = "ios"
	PlatformAndroid DevicePlatform = "android"
)

// Valid reports whether p is a known device platform.
func (p DevicePlatform) Valid() bool {
	switch p {
	case PlatformWeb, PlatformIOS, PlatformAndroid:
		return true
	}
	return false
}
